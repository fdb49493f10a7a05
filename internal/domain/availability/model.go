// Package availability resolves a doctor's bookable slots from a weekly
// template, date-ranged exceptions and existing bookings. Everything here is
// a pure computation over caller-supplied data; nothing performs I/O.
package availability

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// WorkingDay is the default template window for one weekday.
type WorkingDay struct {
	Day         time.Weekday `json:"day"`
	StartTime   string       `json:"startTime"`
	EndTime     string       `json:"endTime"`
	IsAvailable bool         `json:"isAvailable"`
}

// Session types used by the clinic. Other values are accepted as-is.
const (
	SessionClinic      = "CLINIC"
	SessionWardRounds  = "WARD_ROUNDS"
	SessionSurgery     = "SURGERY"
	SessionTeleconsult = "TELECONSULT"
	SessionAdmin       = "ADMIN"
)

// ScheduleSession is a typed sub-interval of a working day. When any session
// exists for a weekday the sessions, not the working day, define the windows.
type ScheduleSession struct {
	Day         time.Weekday `json:"day"`
	StartTime   string       `json:"startTime"`
	EndTime     string       `json:"endTime"`
	SessionType string       `json:"sessionType"`
	MaxPatients *int         `json:"maxPatients,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}

// AvailabilityBreak is a recurring exclusion such as lunch.
type AvailabilityBreak struct {
	Day       time.Weekday `json:"day"`
	StartTime string       `json:"startTime"`
	EndTime   string       `json:"endTime"`
	Reason    string       `json:"reason,omitempty"`
}

// AvailabilityOverride is a doctor-set exception over a date range. Without
// time bounds it covers the whole day.
type AvailabilityOverride struct {
	ID        string     `json:"id,omitempty"`
	StartDate civil.Date `json:"startDate"`
	EndDate   civil.Date `json:"endDate"`
	StartTime string     `json:"startTime,omitempty"`
	EndTime   string     `json:"endTime,omitempty"`
	IsBlocked bool       `json:"isBlocked"`
	Reason    string     `json:"reason,omitempty"`
}

// Covers reports whether the override applies to date.
func (o AvailabilityOverride) Covers(date civil.Date) bool {
	return coversDate(o.StartDate, o.EndDate, date)
}

// Overlaps reports whether the override intersects [from, to].
func (o AvailabilityOverride) Overlaps(from, to civil.Date) bool {
	return !o.EndDate.Before(from) && !o.StartDate.After(to)
}

// TimeBounded reports whether the override only covers part of the day.
func (o AvailabilityOverride) TimeBounded() bool {
	return o.StartTime != "" || o.EndTime != ""
}

// Block types created by staff.
const (
	BlockLeave             = "LEAVE"
	BlockEmergency         = "EMERGENCY"
	BlockSurgery           = "SURGERY"
	BlockConference        = "CONFERENCE"
	BlockBurnoutProtection = "BURNOUT_PROTECTION"
)

// ScheduleBlock is an administrative hard block. It never grants time and
// outranks every override.
type ScheduleBlock struct {
	ID        string     `json:"id,omitempty"`
	StartDate civil.Date `json:"startDate"`
	EndDate   civil.Date `json:"endDate"`
	StartTime string     `json:"startTime,omitempty"`
	EndTime   string     `json:"endTime,omitempty"`
	BlockType string     `json:"blockType,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// Covers reports whether the block applies to date.
func (b ScheduleBlock) Covers(date civil.Date) bool {
	return coversDate(b.StartDate, b.EndDate, date)
}

// Overlaps reports whether the block intersects [from, to].
func (b ScheduleBlock) Overlaps(from, to civil.Date) bool {
	return !b.EndDate.Before(from) && !b.StartDate.After(to)
}

// TimeBounded reports whether the block only covers part of the day.
func (b ScheduleBlock) TimeBounded() bool {
	return b.StartTime != "" || b.EndTime != ""
}

// SlotConfiguration controls how windows are cut into slots. All values are
// minutes.
type SlotConfiguration struct {
	DefaultDuration int `json:"defaultDuration"`
	BufferTime      int `json:"bufferTime"`
	SlotInterval    int `json:"slotInterval"`
}

// usable reports whether slots can be generated at all. Invalid values are a
// caller concern; here they simply produce no slots. Each value is bounded by
// one day before they are summed so the slot loop cannot overflow.
func (c SlotConfiguration) usable() bool {
	if c.DefaultDuration <= 0 || c.SlotInterval <= 0 || c.BufferTime < 0 {
		return false
	}
	if c.DefaultDuration > MinutesPerDay || c.SlotInterval > MinutesPerDay || c.BufferTime > MinutesPerDay {
		return false
	}
	return c.DefaultDuration+c.BufferTime <= MinutesPerDay
}

// Appointment statuses that do not hold a slot.
const (
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

// Appointment is an existing booking read from the appointments store.
type Appointment struct {
	ID              string     `json:"id,omitempty"`
	Date            civil.Date `json:"appointmentDate"`
	Time            string     `json:"time"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	Status          string     `json:"status"`
}

// Occupying reports whether the appointment still consumes its slot.
func (a Appointment) Occupying() bool {
	return IsOccupyingStatus(a.Status)
}

// IsOccupyingStatus reports whether an appointment in status blocks a slot.
func IsOccupyingStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case StatusCancelled, StatusCompleted:
		return false
	}
	return true
}

// Slot is one candidate bookable interval.
type Slot struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Duration    int    `json:"duration"`
	IsAvailable bool   `json:"isAvailable"`
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// Days returns the number of dates in the range, or zero if End precedes Start.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return r.End.DaysSince(r.Start) + 1
}

func coversDate(start, end, date civil.Date) bool {
	return !date.Before(start) && !date.After(end)
}
