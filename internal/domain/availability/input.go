package availability

import (
	"time"

	"cloud.google.com/go/civil"
)

// Template is a doctor's recurring weekly configuration.
type Template struct {
	WorkingDays []WorkingDay        `json:"workingDays"`
	Sessions    []ScheduleSession   `json:"sessions"`
	Breaks      []AvailabilityBreak `json:"breaks"`
}

func (t Template) workingDay(day time.Weekday) (WorkingDay, bool) {
	for _, wd := range t.WorkingDays {
		if wd.Day == day {
			return wd, true
		}
	}
	return WorkingDay{}, false
}

func (t Template) sessionsOn(day time.Weekday) []ScheduleSession {
	var out []ScheduleSession
	for _, s := range t.Sessions {
		if s.Day == day {
			out = append(out, s)
		}
	}
	return out
}

func (t Template) breaksOn(day time.Weekday) []AvailabilityBreak {
	var out []AvailabilityBreak
	for _, b := range t.Breaks {
		if b.Day == day {
			out = append(out, b)
		}
	}
	return out
}

// DayInput is everything needed to compute one date. Appointments are
// expected to be on that date already; non-occupying ones are ignored.
type DayInput struct {
	Template     Template
	Overrides    []AvailabilityOverride
	Blocks       []ScheduleBlock
	Appointments []Appointment
	Config       SlotConfiguration
}

// RangeInput is the data fetched once for a whole date range.
type RangeInput struct {
	Template     Template
	Overrides    []AvailabilityOverride
	Blocks       []ScheduleBlock
	Appointments []Appointment
	Config       SlotConfiguration
}

// ForDate builds the day-scoped view used by the single-date path, filtering
// the pre-fetched collections in memory.
func (in RangeInput) ForDate(date civil.Date) DayInput {
	day := DayInput{Template: in.Template, Config: in.Config}
	for _, o := range in.Overrides {
		if o.Covers(date) {
			day.Overrides = append(day.Overrides, o)
		}
	}
	for _, b := range in.Blocks {
		if b.Covers(date) {
			day.Blocks = append(day.Blocks, b)
		}
	}
	for _, a := range in.Appointments {
		if a.Date == date {
			day.Appointments = append(day.Appointments, a)
		}
	}
	return day
}
