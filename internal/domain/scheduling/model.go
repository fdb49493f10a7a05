package scheduling

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// WorkingDayRow maps to the doctor_working_day table.
type WorkingDayRow struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DayOfWeek   string    `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
}

// SessionRow maps to the schedule_session table. Sessions hang off a
// working day.
type SessionRow struct {
	ID           uuid.UUID `db:"id" json:"id"`
	WorkingDayID uuid.UUID `db:"working_day_id" json:"working_day_id"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	SessionType  string    `db:"session_type" json:"session_type"`
	MaxPatients  *int      `db:"max_patients" json:"max_patients,omitempty"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
}

// BreakRow maps to the availability_break table. A break is tied either to a
// working day or directly to a day of the week.
type BreakRow struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	DoctorID     uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	WorkingDayID *uuid.UUID `db:"working_day_id" json:"working_day_id,omitempty"`
	DayOfWeek    *string    `db:"day_of_week" json:"day_of_week,omitempty"`
	StartTime    string     `db:"start_time" json:"start_time"`
	EndTime      string     `db:"end_time" json:"end_time"`
	Reason       *string    `db:"reason" json:"reason,omitempty"`
}

// OverrideRow maps to the availability_override table.
type OverrideRow struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	DoctorID  uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	StartDate civil.Date `db:"start_date" json:"start_date"`
	EndDate   civil.Date `db:"end_date" json:"end_date"`
	StartTime *string    `db:"start_time" json:"start_time,omitempty"`
	EndTime   *string    `db:"end_time" json:"end_time,omitempty"`
	IsBlocked bool       `db:"is_blocked" json:"is_blocked"`
	Reason    *string    `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// BlockRow maps to the schedule_block table.
type BlockRow struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	DoctorID  uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	StartDate civil.Date `db:"start_date" json:"start_date"`
	EndDate   civil.Date `db:"end_date" json:"end_date"`
	StartTime *string    `db:"start_time" json:"start_time,omitempty"`
	EndTime   *string    `db:"end_time" json:"end_time,omitempty"`
	BlockType string     `db:"block_type" json:"block_type"`
	Reason    *string    `db:"reason" json:"reason,omitempty"`
	CreatedBy *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// SlotConfigRow maps to the slot_configuration table.
type SlotConfigRow struct {
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DefaultDuration int       `db:"default_duration" json:"default_duration"`
	BufferTime      int       `db:"buffer_time" json:"buffer_time"`
	SlotInterval    int       `db:"slot_interval" json:"slot_interval"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// AppointmentRow is the read-only projection of the appointment table used
// for conflict checks.
type AppointmentRow struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	DoctorID        uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	AppointmentDate civil.Date `db:"appointment_date" json:"appointment_date"`
	AppointmentTime string     `db:"appointment_time" json:"appointment_time"`
	DurationMinutes *int       `db:"duration_minutes" json:"duration_minutes,omitempty"`
	Status          string     `db:"status" json:"status"`
}

// Template slot kinds. Any other kind is treated as a session type.
const (
	TemplateSlotWork  = "WORK"
	TemplateSlotBreak = "BREAK"
)

// TemplateRow maps to the availability_template table, the newer weekly
// schedule schema.
type TemplateRow struct {
	ID       uuid.UUID         `db:"id" json:"id"`
	DoctorID uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Name     string            `db:"name" json:"name"`
	IsActive bool              `db:"is_active" json:"is_active"`
	Slots    []TemplateSlotRow `db:"-" json:"slots"`
}

// TemplateSlotRow maps to the availability_template_slot table. DayOfWeek
// follows time.Weekday numbering (0 = Sunday).
type TemplateSlotRow struct {
	ID         uuid.UUID `db:"id" json:"id"`
	TemplateID uuid.UUID `db:"template_id" json:"template_id"`
	DayOfWeek  int       `db:"day_of_week" json:"day_of_week"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	SlotKind   string    `db:"slot_kind" json:"slot_kind"`
}

// DoctorSchedule is the recurring configuration of one doctor as stored,
// in whichever schema holds it.
type DoctorSchedule struct {
	DoctorID    uuid.UUID
	WorkingDays []WorkingDayRow
	Sessions    []SessionRow
	Breaks      []BreakRow
	Template    *TemplateRow
	SlotConfig  *SlotConfigRow
}

// WeeklyTemplate is the payload a doctor saves to replace their weekly
// schedule.
type WeeklyTemplate struct {
	Days []WeeklyTemplateDay `json:"days"`
}

// WeeklyTemplateDay is one weekday of a WeeklyTemplate.
type WeeklyTemplateDay struct {
	Day         string           `json:"day"`
	StartTime   string           `json:"start_time"`
	EndTime     string           `json:"end_time"`
	IsAvailable bool             `json:"is_available"`
	Sessions    []SessionPayload `json:"sessions,omitempty"`
	Breaks      []BreakPayload   `json:"breaks,omitempty"`
}

type SessionPayload struct {
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	SessionType string  `json:"session_type"`
	MaxPatients *int    `json:"max_patients,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type BreakPayload struct {
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Reason    *string `json:"reason,omitempty"`
}
