package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dates cross the driver boundary as YYYY-MM-DD strings cast to DATE in SQL
// and come back as time.Time.
func dateArg(d civil.Date) string { return d.String() }

// =========== Schedule Repository ===========

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository { return &scheduleRepoPG{pool: pool} }

func (r *scheduleRepoPG) GetDoctorSchedule(ctx context.Context, doctorID uuid.UUID) (*DoctorSchedule, error) {
	s := &DoctorSchedule{DoctorID: doctorID}

	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, day_of_week, start_time, end_time, is_available
		FROM doctor_working_day WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var wd WorkingDayRow
		if err := rows.Scan(&wd.ID, &wd.DoctorID, &wd.DayOfWeek, &wd.StartTime, &wd.EndTime, &wd.IsAvailable); err != nil {
			rows.Close()
			return nil, err
		}
		s.WorkingDays = append(s.WorkingDays, wd)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT ss.id, ss.working_day_id, ss.start_time, ss.end_time, ss.session_type, ss.max_patients, ss.notes
		FROM schedule_session ss
		JOIN doctor_working_day wd ON wd.id = ss.working_day_id
		WHERE wd.doctor_id = $1
		ORDER BY ss.start_time`, doctorID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var ss SessionRow
		if err := rows.Scan(&ss.ID, &ss.WorkingDayID, &ss.StartTime, &ss.EndTime, &ss.SessionType, &ss.MaxPatients, &ss.Notes); err != nil {
			rows.Close()
			return nil, err
		}
		s.Sessions = append(s.Sessions, ss)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT id, doctor_id, working_day_id, day_of_week, start_time, end_time, reason
		FROM availability_break WHERE doctor_id = $1
		ORDER BY start_time`, doctorID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var b BreakRow
		if err := rows.Scan(&b.ID, &b.DoctorID, &b.WorkingDayID, &b.DayOfWeek, &b.StartTime, &b.EndTime, &b.Reason); err != nil {
			rows.Close()
			return nil, err
		}
		s.Breaks = append(s.Breaks, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(s.WorkingDays) == 0 {
		tpl, err := r.activeTemplate(ctx, doctorID)
		if err != nil {
			return nil, err
		}
		s.Template = tpl
	}

	var cfg SlotConfigRow
	err = r.pool.QueryRow(ctx, `
		SELECT doctor_id, default_duration, buffer_time, slot_interval, updated_at
		FROM slot_configuration WHERE doctor_id = $1`, doctorID).
		Scan(&cfg.DoctorID, &cfg.DefaultDuration, &cfg.BufferTime, &cfg.SlotInterval, &cfg.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		s.SlotConfig = &cfg
	}
	return s, nil
}

// activeTemplate loads the doctor's active template from the newer schema,
// or nil when there is none.
func (r *scheduleRepoPG) activeTemplate(ctx context.Context, doctorID uuid.UUID) (*TemplateRow, error) {
	var t TemplateRow
	err := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, name, is_active
		FROM availability_template
		WHERE doctor_id = $1 AND is_active
		ORDER BY created_at DESC LIMIT 1`, doctorID).
		Scan(&t.ID, &t.DoctorID, &t.Name, &t.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, template_id, day_of_week, start_time, end_time, slot_kind
		FROM availability_template_slot WHERE template_id = $1
		ORDER BY day_of_week, start_time`, t.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sl TemplateSlotRow
		if err := rows.Scan(&sl.ID, &sl.TemplateID, &sl.DayOfWeek, &sl.StartTime, &sl.EndTime, &sl.SlotKind); err != nil {
			return nil, err
		}
		t.Slots = append(t.Slots, sl)
	}
	return &t, rows.Err()
}

func (r *scheduleRepoPG) ReplaceWeeklyTemplate(ctx context.Context, doctorID uuid.UUID, days []WorkingDayRow, sessions []SessionRow, breaks []BreakRow) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM availability_break WHERE doctor_id = $1`, doctorID); err != nil {
			return fmt.Errorf("delete breaks: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM schedule_session WHERE working_day_id IN (
				SELECT id FROM doctor_working_day WHERE doctor_id = $1)`, doctorID); err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM doctor_working_day WHERE doctor_id = $1`, doctorID); err != nil {
			return fmt.Errorf("delete working days: %w", err)
		}

		batch := &pgx.Batch{}
		for _, d := range days {
			batch.Queue(`
				INSERT INTO doctor_working_day (id, doctor_id, day_of_week, start_time, end_time, is_available)
				VALUES ($1,$2,$3,$4,$5,$6)`,
				d.ID, doctorID, d.DayOfWeek, d.StartTime, d.EndTime, d.IsAvailable)
		}
		for _, s := range sessions {
			batch.Queue(`
				INSERT INTO schedule_session (id, working_day_id, start_time, end_time, session_type, max_patients, notes)
				VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				s.ID, s.WorkingDayID, s.StartTime, s.EndTime, s.SessionType, s.MaxPatients, s.Notes)
		}
		for _, b := range breaks {
			batch.Queue(`
				INSERT INTO availability_break (id, doctor_id, working_day_id, day_of_week, start_time, end_time, reason)
				VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				b.ID, doctorID, b.WorkingDayID, b.DayOfWeek, b.StartTime, b.EndTime, b.Reason)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert weekly template: %w", err)
		}
		return nil
	})
}

func (r *scheduleRepoPG) UpsertSlotConfiguration(ctx context.Context, cfg *SlotConfigRow) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO slot_configuration (doctor_id, default_duration, buffer_time, slot_interval)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (doctor_id) DO UPDATE SET
			default_duration = EXCLUDED.default_duration,
			buffer_time = EXCLUDED.buffer_time,
			slot_interval = EXCLUDED.slot_interval,
			updated_at = NOW()
		RETURNING updated_at`,
		cfg.DoctorID, cfg.DefaultDuration, cfg.BufferTime, cfg.SlotInterval).Scan(&cfg.UpdatedAt)
}

// =========== Exception Repository ===========

type exceptionRepoPG struct{ pool *pgxpool.Pool }

func NewExceptionRepoPG(pool *pgxpool.Pool) ExceptionRepository { return &exceptionRepoPG{pool: pool} }

const overrideCols = `id, doctor_id, start_date, end_date, start_time, end_time, is_blocked, reason, created_at`

func scanOverride(row pgx.Row) (*OverrideRow, error) {
	var o OverrideRow
	var start, end time.Time
	if err := row.Scan(&o.ID, &o.DoctorID, &start, &end, &o.StartTime, &o.EndTime, &o.IsBlocked, &o.Reason, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.StartDate = civil.DateOf(start)
	o.EndDate = civil.DateOf(end)
	return &o, nil
}

func (r *exceptionRepoPG) CreateOverride(ctx context.Context, o *OverrideRow) error {
	o.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO availability_override (id, doctor_id, start_date, end_date, start_time, end_time, is_blocked, reason)
		VALUES ($1,$2,$3::date,$4::date,$5,$6,$7,$8)
		RETURNING created_at`,
		o.ID, o.DoctorID, dateArg(o.StartDate), dateArg(o.EndDate), o.StartTime, o.EndTime, o.IsBlocked, o.Reason).
		Scan(&o.CreatedAt)
}

func (r *exceptionRepoPG) ListOverrides(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) ([]*OverrideRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+overrideCols+` FROM availability_override
		WHERE doctor_id = $1 AND end_date >= $2::date AND start_date <= $3::date
		ORDER BY start_date, created_at`, doctorID, dateArg(from), dateArg(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*OverrideRow
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

func (r *exceptionRepoPG) DeleteOverride(ctx context.Context, doctorID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM availability_override WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const blockCols = `id, doctor_id, start_date, end_date, start_time, end_time, block_type, reason, created_by, created_at`

func scanBlock(row pgx.Row) (*BlockRow, error) {
	var b BlockRow
	var start, end time.Time
	if err := row.Scan(&b.ID, &b.DoctorID, &start, &end, &b.StartTime, &b.EndTime, &b.BlockType, &b.Reason, &b.CreatedBy, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.StartDate = civil.DateOf(start)
	b.EndDate = civil.DateOf(end)
	return &b, nil
}

func (r *exceptionRepoPG) CreateBlock(ctx context.Context, b *BlockRow) error {
	b.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO schedule_block (id, doctor_id, start_date, end_date, start_time, end_time, block_type, reason, created_by)
		VALUES ($1,$2,$3::date,$4::date,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		b.ID, b.DoctorID, dateArg(b.StartDate), dateArg(b.EndDate), b.StartTime, b.EndTime, b.BlockType, b.Reason, b.CreatedBy).
		Scan(&b.CreatedAt)
}

func (r *exceptionRepoPG) ListBlocks(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) ([]*BlockRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+blockCols+` FROM schedule_block
		WHERE doctor_id = $1 AND end_date >= $2::date AND start_date <= $3::date
		ORDER BY start_date, created_at`, doctorID, dateArg(from), dateArg(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*BlockRow
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *exceptionRepoPG) DeleteBlock(ctx context.Context, doctorID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedule_block WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) ListOccupying(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) ([]*AppointmentRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, appointment_date, appointment_time, duration_minutes, status
		FROM appointment
		WHERE doctor_id = $1
			AND appointment_date BETWEEN $2::date AND $3::date
			AND UPPER(status) NOT IN ('CANCELLED', 'COMPLETED')
		ORDER BY appointment_date, appointment_time`, doctorID, dateArg(from), dateArg(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*AppointmentRow
	for rows.Next() {
		var a AppointmentRow
		var date time.Time
		if err := rows.Scan(&a.ID, &a.DoctorID, &date, &a.AppointmentTime, &a.DurationMinutes, &a.Status); err != nil {
			return nil, err
		}
		a.AppointmentDate = civil.DateOf(date)
		items = append(items, &a)
	}
	return items, rows.Err()
}
