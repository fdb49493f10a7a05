package scheduling

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

type ScheduleRepository interface {
	// GetDoctorSchedule returns the doctor's weekly schedule. A doctor with
	// nothing configured yields an empty schedule, not an error.
	GetDoctorSchedule(ctx context.Context, doctorID uuid.UUID) (*DoctorSchedule, error)
	// ReplaceWeeklyTemplate deletes the doctor's working days, sessions and
	// breaks and recreates them from the given rows atomically.
	ReplaceWeeklyTemplate(ctx context.Context, doctorID uuid.UUID, days []WorkingDayRow, sessions []SessionRow, breaks []BreakRow) error
	UpsertSlotConfiguration(ctx context.Context, cfg *SlotConfigRow) error
}

type ExceptionRepository interface {
	CreateOverride(ctx context.Context, o *OverrideRow) error
	ListOverrides(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) ([]*OverrideRow, error)
	DeleteOverride(ctx context.Context, doctorID, id uuid.UUID) error
	CreateBlock(ctx context.Context, b *BlockRow) error
	ListBlocks(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) ([]*BlockRow, error)
	DeleteBlock(ctx context.Context, doctorID, id uuid.UUID) error
}

type AppointmentRepository interface {
	// ListOccupying returns the doctor's appointments between from and to
	// inclusive whose status still holds a slot.
	ListOccupying(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) ([]*AppointmentRow, error)
}
