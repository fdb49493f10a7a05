package scheduling

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/clinicops/availability/internal/domain/availability"
)

// DefaultSlotConfiguration applies to doctors who never saved one.
var DefaultSlotConfiguration = availability.SlotConfiguration{
	DefaultDuration: 30,
	BufferTime:      0,
	SlotInterval:    30,
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday parses a day name such as "Monday" or "MONDAY".
func ParseWeekday(name string) (time.Weekday, error) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown day %q", ErrInvalidInput, name)
	}
	return d, nil
}

// ScheduleBuilder turns stored rows into engine input. It hides which of the
// two weekly schedule schemas a doctor is on: legacy working-day rows win,
// and the template tables are used only when none exist.
type ScheduleBuilder struct {
	schedule     *DoctorSchedule
	overrides    []*OverrideRow
	blocks       []*BlockRow
	appointments []*AppointmentRow
}

func NewScheduleBuilder(schedule *DoctorSchedule) *ScheduleBuilder {
	if schedule == nil {
		schedule = &DoctorSchedule{}
	}
	return &ScheduleBuilder{schedule: schedule}
}

func (b *ScheduleBuilder) WithOverrides(rows []*OverrideRow) *ScheduleBuilder {
	b.overrides = rows
	return b
}

func (b *ScheduleBuilder) WithBlocks(rows []*BlockRow) *ScheduleBuilder {
	b.blocks = rows
	return b
}

func (b *ScheduleBuilder) WithAppointments(rows []*AppointmentRow) *ScheduleBuilder {
	b.appointments = rows
	return b
}

// SlotConfiguration returns the stored configuration or the default.
func (b *ScheduleBuilder) SlotConfiguration() availability.SlotConfiguration {
	if c := b.schedule.SlotConfig; c != nil {
		return availability.SlotConfiguration{
			DefaultDuration: c.DefaultDuration,
			BufferTime:      c.BufferTime,
			SlotInterval:    c.SlotInterval,
		}
	}
	return DefaultSlotConfiguration
}

// Template builds the weekly template from whichever schema is populated.
func (b *ScheduleBuilder) Template() (availability.Template, error) {
	if len(b.schedule.WorkingDays) > 0 {
		return b.legacyTemplate()
	}
	if t := b.schedule.Template; t != nil && t.IsActive {
		return templateFromSlots(t.Slots)
	}
	return availability.Template{}, nil
}

func (b *ScheduleBuilder) legacyTemplate() (availability.Template, error) {
	var tpl availability.Template
	dayByID := make(map[uuid.UUID]time.Weekday, len(b.schedule.WorkingDays))

	for _, wd := range b.schedule.WorkingDays {
		day, err := ParseWeekday(wd.DayOfWeek)
		if err != nil {
			return tpl, fmt.Errorf("%w: working day %s: %v", ErrCorruptSchedule, wd.ID, err)
		}
		dayByID[wd.ID] = day
		tpl.WorkingDays = append(tpl.WorkingDays, availability.WorkingDay{
			Day:         day,
			StartTime:   wd.StartTime,
			EndTime:     wd.EndTime,
			IsAvailable: wd.IsAvailable,
		})
	}

	for _, s := range b.schedule.Sessions {
		day, ok := dayByID[s.WorkingDayID]
		if !ok {
			return tpl, fmt.Errorf("%w: session %s references unknown working day %s", ErrCorruptSchedule, s.ID, s.WorkingDayID)
		}
		tpl.Sessions = append(tpl.Sessions, availability.ScheduleSession{
			Day:         day,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			SessionType: s.SessionType,
			MaxPatients: s.MaxPatients,
			Notes:       strVal(s.Notes),
		})
	}

	for _, br := range b.schedule.Breaks {
		var day time.Weekday
		switch {
		case br.WorkingDayID != nil:
			d, ok := dayByID[*br.WorkingDayID]
			if !ok {
				return tpl, fmt.Errorf("%w: break %s references unknown working day %s", ErrCorruptSchedule, br.ID, *br.WorkingDayID)
			}
			day = d
		case br.DayOfWeek != nil:
			d, err := ParseWeekday(*br.DayOfWeek)
			if err != nil {
				return tpl, fmt.Errorf("%w: break %s: %v", ErrCorruptSchedule, br.ID, err)
			}
			day = d
		default:
			return tpl, fmt.Errorf("%w: break %s has neither working day nor day of week", ErrCorruptSchedule, br.ID)
		}
		tpl.Breaks = append(tpl.Breaks, availability.AvailabilityBreak{
			Day:       day,
			StartTime: br.StartTime,
			EndTime:   br.EndTime,
			Reason:    strVal(br.Reason),
		})
	}
	return tpl, nil
}

// templateFromSlots maps the newer schema. Every non-break row becomes a
// session, and each day with sessions gets an available working day spanning
// them so the day counts as a working day. Times are not validated here: a
// malformed row surfaces as a parse error for its own weekday only.
func templateFromSlots(rows []TemplateSlotRow) (availability.Template, error) {
	var tpl availability.Template
	span := make(map[time.Weekday][2]availability.Clock)

	for _, r := range rows {
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			return tpl, fmt.Errorf("%w: template slot %s has day_of_week %d", ErrCorruptSchedule, r.ID, r.DayOfWeek)
		}
		day := time.Weekday(r.DayOfWeek)
		kind := strings.ToUpper(strings.TrimSpace(r.SlotKind))

		if kind == TemplateSlotBreak {
			tpl.Breaks = append(tpl.Breaks, availability.AvailabilityBreak{Day: day, StartTime: r.StartTime, EndTime: r.EndTime})
			continue
		}

		start, serr := availability.ParseClock(r.StartTime)
		end, eerr := availability.ParseClock(r.EndTime)
		if serr == nil && eerr == nil {
			if s, ok := span[day]; ok {
				start = min(start, s[0])
				end = max(end, s[1])
			}
			span[day] = [2]availability.Clock{start, end}
		}

		if kind == TemplateSlotWork || kind == "" {
			kind = availability.SessionClinic
		}
		tpl.Sessions = append(tpl.Sessions, availability.ScheduleSession{
			Day: day, StartTime: r.StartTime, EndTime: r.EndTime, SessionType: kind,
		})
	}

	for d := time.Sunday; d <= time.Saturday; d++ {
		s, ok := span[d]
		if !ok {
			continue
		}
		tpl.WorkingDays = append(tpl.WorkingDays, availability.WorkingDay{
			Day: d, StartTime: s[0].String(), EndTime: s[1].String(), IsAvailable: true,
		})
	}
	return tpl, nil
}

// RangeInput builds the engine input for a whole date range.
func (b *ScheduleBuilder) RangeInput() (availability.RangeInput, error) {
	tpl, err := b.Template()
	if err != nil {
		return availability.RangeInput{}, err
	}
	in := availability.RangeInput{
		Template: tpl,
		Config:   b.SlotConfiguration(),
	}
	for _, o := range b.overrides {
		in.Overrides = append(in.Overrides, overrideToEngine(o))
	}
	for _, bl := range b.blocks {
		in.Blocks = append(in.Blocks, blockToEngine(bl))
	}
	for _, a := range b.appointments {
		in.Appointments = append(in.Appointments, appointmentToEngine(a))
	}
	return in, nil
}

// DayInput builds the engine input for one date.
func (b *ScheduleBuilder) DayInput(date civil.Date) (availability.DayInput, error) {
	in, err := b.RangeInput()
	if err != nil {
		return availability.DayInput{}, err
	}
	return in.ForDate(date), nil
}

func overrideToEngine(o *OverrideRow) availability.AvailabilityOverride {
	return availability.AvailabilityOverride{
		ID:        o.ID.String(),
		StartDate: o.StartDate,
		EndDate:   o.EndDate,
		StartTime: strVal(o.StartTime),
		EndTime:   strVal(o.EndTime),
		IsBlocked: o.IsBlocked,
		Reason:    strVal(o.Reason),
	}
}

func blockToEngine(b *BlockRow) availability.ScheduleBlock {
	return availability.ScheduleBlock{
		ID:        b.ID.String(),
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		StartTime: strVal(b.StartTime),
		EndTime:   strVal(b.EndTime),
		BlockType: b.BlockType,
		Reason:    strVal(b.Reason),
	}
}

func appointmentToEngine(a *AppointmentRow) availability.Appointment {
	appt := availability.Appointment{
		ID:     a.ID.String(),
		Date:   a.AppointmentDate,
		Time:   a.AppointmentTime,
		Status: a.Status,
	}
	if a.DurationMinutes != nil {
		appt.DurationMinutes = *a.DurationMinutes
	}
	return appt
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
