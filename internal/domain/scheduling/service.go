package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicops/availability/internal/domain/availability"
	"github.com/clinicops/availability/internal/platform/cache"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDateInPast   = errors.New("date is in the past")
	ErrInvalidRange = errors.New("range end is before range start")
	ErrRangeTooLong = errors.New("date range is too long")

	// ErrCorruptSchedule marks stored schedule rows that cannot be mapped.
	ErrCorruptSchedule = errors.New("stored schedule is inconsistent")
)

const (
	DefaultMaxRangeDays = 90
	DefaultCacheTTL     = 5 * time.Minute
)

var tracer = otel.Tracer("github.com/clinicops/availability/internal/domain/scheduling")

var validBlockTypes = map[string]bool{
	availability.BlockLeave: true, availability.BlockEmergency: true,
	availability.BlockSurgery: true, availability.BlockConference: true,
	availability.BlockBurnoutProtection: true,
}

type Service struct {
	schedules    ScheduleRepository
	exceptions   ExceptionRepository
	appointments AppointmentRepository
	engine       *availability.Engine

	cache        cache.Cache
	cacheTTL     time.Duration
	maxRangeDays int
	location     *time.Location
	now          func() time.Time
	logger       zerolog.Logger
}

func NewService(sched ScheduleRepository, exc ExceptionRepository, appt AppointmentRepository, engine *availability.Engine) *Service {
	if engine == nil {
		engine = availability.NewEngine()
	}
	return &Service{
		schedules:    sched,
		exceptions:   exc,
		appointments: appt,
		engine:       engine,
		cache:        cache.Noop{},
		cacheTTL:     DefaultCacheTTL,
		maxRangeDays: DefaultMaxRangeDays,
		location:     time.UTC,
		now:          time.Now,
		logger:       zerolog.Nop(),
	}
}

// SetCache enables caching of the schedule side of range queries.
func (s *Service) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

// SetClock sets the clinic timezone and time source used to decide what
// "today" is when rejecting past dates.
func (s *Service) SetClock(loc *time.Location, now func() time.Time) {
	if loc != nil {
		s.location = loc
	}
	if now != nil {
		s.now = now
	}
}

func (s *Service) SetMaxRangeDays(n int) {
	if n > 0 {
		s.maxRangeDays = n
	}
}

func (s *Service) SetLogger(l zerolog.Logger) { s.logger = l }

// Today returns the current calendar date in the clinic timezone.
func (s *Service) Today() civil.Date {
	return civil.DateOf(s.now().In(s.location))
}

// -- Availability --

// GetSlots returns every slot for the doctor on date with its availability.
func (s *Service) GetSlots(ctx context.Context, doctorID uuid.UUID, date civil.Date) ([]availability.Slot, error) {
	ctx, span := tracer.Start(ctx, "scheduling.GetSlots", trace.WithAttributes(
		attribute.String("doctor.id", doctorID.String()),
		attribute.String("date", date.String()),
	))
	defer span.End()

	if err := s.checkNotPast(date); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, doctorID, date, date)
	if err != nil {
		return nil, recordErr(span, err)
	}
	in, err := b.DayInput(date)
	if err != nil {
		return nil, recordErr(span, err)
	}
	slots, err := s.engine.ResolveSlotsForDate(doctorID.String(), date, in)
	if err != nil {
		return nil, recordErr(span, err)
	}
	span.SetAttributes(attribute.Int("slots.count", len(slots)))
	return slots, nil
}

// GetAvailableDates returns the dates in [from, to] with at least one free
// slot. All data is fetched once for the whole range.
func (s *Service) GetAvailableDates(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) ([]civil.Date, error) {
	ctx, span := tracer.Start(ctx, "scheduling.GetAvailableDates", trace.WithAttributes(
		attribute.String("doctor.id", doctorID.String()),
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
	defer span.End()

	if err := s.checkRange(from, to); err != nil {
		return nil, err
	}

	in, hit, err := s.rangeInput(ctx, doctorID, from, to)
	if err != nil {
		return nil, recordErr(span, err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	return s.engine.ResolveAvailableDates(doctorID.String(), availability.DateRange{Start: from, End: to}, in), nil
}

// GetCalendar returns per-date slot counts for [from, to].
func (s *Service) GetCalendar(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) ([]availability.DaySummary, error) {
	ctx, span := tracer.Start(ctx, "scheduling.GetCalendar", trace.WithAttributes(
		attribute.String("doctor.id", doctorID.String()),
	))
	defer span.End()

	if err := s.checkRange(from, to); err != nil {
		return nil, err
	}
	in, _, err := s.rangeInput(ctx, doctorID, from, to)
	if err != nil {
		return nil, recordErr(span, err)
	}
	return s.engine.SummarizeRange(doctorID.String(), availability.DateRange{Start: from, End: to}, in), nil
}

// rangeInput returns the engine input for [from, to]. The doctor-owned part
// (template, configuration, overrides, blocks) is cached and invalidated by
// this service's writes. Appointments are booked elsewhere, so they are read
// on every call. The second result reports a cache hit.
func (s *Service) rangeInput(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) (availability.RangeInput, bool, error) {
	key := inputCacheKey(doctorID, from, to)
	in, hit := s.cachedInput(ctx, key)
	if !hit {
		b, err := s.loadSchedule(ctx, doctorID, from, to)
		if err != nil {
			return availability.RangeInput{}, false, err
		}
		if in, err = b.RangeInput(); err != nil {
			return availability.RangeInput{}, false, err
		}
		if raw, err := json.Marshal(in); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
				s.logger.Warn().Err(err).Str("key", key).Msg("failed to cache schedule input")
			}
		}
	}

	appts, err := s.appointments.ListOccupying(ctx, doctorID, from, to)
	if err != nil {
		return availability.RangeInput{}, hit, fmt.Errorf("load appointments: %w", err)
	}
	in.Appointments = make([]availability.Appointment, 0, len(appts))
	for _, a := range appts {
		in.Appointments = append(in.Appointments, appointmentToEngine(a))
	}
	return in, hit, nil
}

// load fetches everything the engine needs for [from, to] with one query per
// collection.
func (s *Service) load(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) (*ScheduleBuilder, error) {
	b, err := s.loadSchedule(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	appts, err := s.appointments.ListOccupying(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	return b.WithAppointments(appts), nil
}

// loadSchedule fetches the doctor-owned rows for [from, to].
func (s *Service) loadSchedule(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) (*ScheduleBuilder, error) {
	sched, err := s.schedules.GetDoctorSchedule(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	overrides, err := s.exceptions.ListOverrides(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load overrides: %w", err)
	}
	blocks, err := s.exceptions.ListBlocks(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	return NewScheduleBuilder(sched).
		WithOverrides(overrides).
		WithBlocks(blocks), nil
}

func (s *Service) checkNotPast(date civil.Date) error {
	if date.Before(s.Today()) {
		return fmt.Errorf("%w: %s", ErrDateInPast, date)
	}
	return nil
}

func (s *Service) checkRange(from, to civil.Date) error {
	if to.Before(from) {
		return fmt.Errorf("%w: %s < %s", ErrInvalidRange, to, from)
	}
	if err := s.checkNotPast(from); err != nil {
		return err
	}
	if days := (availability.DateRange{Start: from, End: to}).Days(); days > s.maxRangeDays {
		return fmt.Errorf("%w: %d days, max %d", ErrRangeTooLong, days, s.maxRangeDays)
	}
	return nil
}

func (s *Service) cachedInput(ctx context.Context, key string) (availability.RangeInput, bool) {
	var in availability.RangeInput
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return in, false
	}
	if !ok {
		return in, false
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return availability.RangeInput{}, false
	}
	return in, true
}

func inputCacheKey(doctorID uuid.UUID, from, to civil.Date) string {
	return fmt.Sprintf("%s%s:%s", inputCachePrefix(doctorID), from, to)
}

func inputCachePrefix(doctorID uuid.UUID) string {
	return "availability:input:" + doctorID.String() + ":"
}

// invalidate drops cached schedule input after any write for the doctor.
// Failures are logged; the TTL bounds how stale a missed entry can get.
func (s *Service) invalidate(ctx context.Context, doctorID uuid.UUID) {
	if err := s.cache.DeletePrefix(ctx, inputCachePrefix(doctorID)); err != nil {
		s.logger.Warn().Err(err).Str("doctor_id", doctorID.String()).Msg("cache invalidation failed")
	}
}

// -- Weekly template --

// SaveWeeklyTemplate replaces the doctor's whole weekly schedule.
func (s *Service) SaveWeeklyTemplate(ctx context.Context, doctorID uuid.UUID, tpl *WeeklyTemplate) error {
	ctx, span := tracer.Start(ctx, "scheduling.SaveWeeklyTemplate")
	defer span.End()

	if doctorID == uuid.Nil {
		return fmt.Errorf("%w: doctor_id is required", ErrInvalidInput)
	}
	days, sessions, breaks, err := weeklyTemplateRows(doctorID, tpl)
	if err != nil {
		return err
	}
	if err := s.schedules.ReplaceWeeklyTemplate(ctx, doctorID, days, sessions, breaks); err != nil {
		return recordErr(span, err)
	}
	s.invalidate(ctx, doctorID)
	return nil
}

func weeklyTemplateRows(doctorID uuid.UUID, tpl *WeeklyTemplate) ([]WorkingDayRow, []SessionRow, []BreakRow, error) {
	if tpl == nil || len(tpl.Days) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: at least one day is required", ErrInvalidInput)
	}
	var (
		days     []WorkingDayRow
		sessions []SessionRow
		breaks   []BreakRow
		seen     = make(map[time.Weekday]bool)
	)
	for _, d := range tpl.Days {
		wd, err := ParseWeekday(d.Day)
		if err != nil {
			return nil, nil, nil, err
		}
		if seen[wd] {
			return nil, nil, nil, fmt.Errorf("%w: %s listed twice", ErrInvalidInput, wd)
		}
		seen[wd] = true

		if d.IsAvailable {
			if err := checkWindow(d.StartTime, d.EndTime); err != nil {
				return nil, nil, nil, fmt.Errorf("%s: %w", wd, err)
			}
		}
		row := WorkingDayRow{
			ID:          uuid.New(),
			DoctorID:    doctorID,
			DayOfWeek:   wd.String(),
			StartTime:   d.StartTime,
			EndTime:     d.EndTime,
			IsAvailable: d.IsAvailable,
		}
		days = append(days, row)

		for _, sp := range d.Sessions {
			if err := checkWindow(sp.StartTime, sp.EndTime); err != nil {
				return nil, nil, nil, fmt.Errorf("%s session: %w", wd, err)
			}
			sessionType := strings.ToUpper(strings.TrimSpace(sp.SessionType))
			if sessionType == "" {
				sessionType = availability.SessionClinic
			}
			sessions = append(sessions, SessionRow{
				ID:           uuid.New(),
				WorkingDayID: row.ID,
				StartTime:    sp.StartTime,
				EndTime:      sp.EndTime,
				SessionType:  sessionType,
				MaxPatients:  sp.MaxPatients,
				Notes:        sp.Notes,
			})
		}
		for _, bp := range d.Breaks {
			if err := checkWindow(bp.StartTime, bp.EndTime); err != nil {
				return nil, nil, nil, fmt.Errorf("%s break: %w", wd, err)
			}
			wdID := row.ID
			breaks = append(breaks, BreakRow{
				ID:           uuid.New(),
				DoctorID:     doctorID,
				WorkingDayID: &wdID,
				StartTime:    bp.StartTime,
				EndTime:      bp.EndTime,
				Reason:       bp.Reason,
			})
		}
	}
	return days, sessions, breaks, nil
}

// checkWindow validates an "HH:mm" pair with end after start.
func checkWindow(start, end string) error {
	s, err := availability.ParseClock(start)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	e, err := availability.ParseClock(end)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if e <= s {
		return fmt.Errorf("%w: end_time %s must be after start_time %s", ErrInvalidInput, end, start)
	}
	return nil
}

// checkOptionalWindow validates the optional time bounds of an override or
// block. Either bound may be omitted.
func checkOptionalWindow(start, end *string) error {
	switch {
	case start == nil && end == nil:
		return nil
	case start != nil && end != nil:
		return checkWindow(*start, *end)
	case start != nil:
		if _, err := availability.ParseClock(*start); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	default:
		if _, err := availability.ParseClock(*end); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return nil
}

// -- Slot configuration --

func (s *Service) GetSlotConfiguration(ctx context.Context, doctorID uuid.UUID) (availability.SlotConfiguration, error) {
	sched, err := s.schedules.GetDoctorSchedule(ctx, doctorID)
	if err != nil {
		return availability.SlotConfiguration{}, err
	}
	return NewScheduleBuilder(sched).SlotConfiguration(), nil
}

// SaveSlotConfiguration validates and stores the doctor's slot settings.
// Invalid values are rejected here so the engine never sees them.
func (s *Service) SaveSlotConfiguration(ctx context.Context, doctorID uuid.UUID, cfg availability.SlotConfiguration) error {
	if doctorID == uuid.Nil {
		return fmt.Errorf("%w: doctor_id is required", ErrInvalidInput)
	}
	if err := availability.ValidateSlotConfiguration(cfg); err != nil {
		return err
	}
	row := &SlotConfigRow{
		DoctorID:        doctorID,
		DefaultDuration: cfg.DefaultDuration,
		BufferTime:      cfg.BufferTime,
		SlotInterval:    cfg.SlotInterval,
	}
	if err := s.schedules.UpsertSlotConfiguration(ctx, row); err != nil {
		return err
	}
	s.invalidate(ctx, doctorID)
	return nil
}

// -- Overrides --

func (s *Service) CreateOverride(ctx context.Context, o *OverrideRow) error {
	if o.DoctorID == uuid.Nil {
		return fmt.Errorf("%w: doctor_id is required", ErrInvalidInput)
	}
	if err := checkDates(o.StartDate, o.EndDate); err != nil {
		return err
	}
	if err := checkOptionalWindow(o.StartTime, o.EndTime); err != nil {
		return err
	}
	if err := s.exceptions.CreateOverride(ctx, o); err != nil {
		return err
	}
	s.invalidate(ctx, o.DoctorID)
	return nil
}

func (s *Service) ListOverrides(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) ([]*OverrideRow, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s < %s", ErrInvalidRange, to, from)
	}
	return s.exceptions.ListOverrides(ctx, doctorID, from, to)
}

func (s *Service) DeleteOverride(ctx context.Context, doctorID, id uuid.UUID) error {
	if err := s.exceptions.DeleteOverride(ctx, doctorID, id); err != nil {
		return err
	}
	s.invalidate(ctx, doctorID)
	return nil
}

// -- Blocks --

func (s *Service) CreateBlock(ctx context.Context, b *BlockRow) error {
	if b.DoctorID == uuid.Nil {
		return fmt.Errorf("%w: doctor_id is required", ErrInvalidInput)
	}
	b.BlockType = strings.ToUpper(strings.TrimSpace(b.BlockType))
	if b.BlockType == "" {
		b.BlockType = availability.BlockLeave
	}
	if !validBlockTypes[b.BlockType] {
		return fmt.Errorf("%w: invalid block type: %s", ErrInvalidInput, b.BlockType)
	}
	if err := checkDates(b.StartDate, b.EndDate); err != nil {
		return err
	}
	if err := checkOptionalWindow(b.StartTime, b.EndTime); err != nil {
		return err
	}
	if err := s.exceptions.CreateBlock(ctx, b); err != nil {
		return err
	}
	s.invalidate(ctx, b.DoctorID)
	return nil
}

func (s *Service) ListBlocks(ctx context.Context, doctorID uuid.UUID, from, to civil.Date) ([]*BlockRow, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s < %s", ErrInvalidRange, to, from)
	}
	return s.exceptions.ListBlocks(ctx, doctorID, from, to)
}

func (s *Service) DeleteBlock(ctx context.Context, doctorID, id uuid.UUID) error {
	if err := s.exceptions.DeleteBlock(ctx, doctorID, id); err != nil {
		return err
	}
	s.invalidate(ctx, doctorID)
	return nil
}

func checkDates(start, end civil.Date) error {
	if !start.IsValid() {
		return fmt.Errorf("%w: start_date is required", ErrInvalidInput)
	}
	if !end.IsValid() {
		return fmt.Errorf("%w: end_date is required", ErrInvalidInput)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidInput, end, start)
	}
	return nil
}

func recordErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
