package availability

import "cloud.google.com/go/civil"

// MarkConflicts flags every slot that overlaps an occupying appointment.
// Appointments dated on another day are ignored when date is set. An
// appointment without its own duration is assumed to last one default slot,
// and no appointment is treated as running past the end of its day.
func MarkConflicts(date civil.Date, slots []Slot, appointments []Appointment, cfg SlotConfiguration) ([]Slot, error) {
	busy := make([]Interval, 0, len(appointments))
	for _, a := range appointments {
		if !a.Occupying() {
			continue
		}
		if !date.IsZero() && !a.Date.IsZero() && a.Date != date {
			continue
		}
		start, err := ParseClock(a.Time)
		if err != nil {
			return nil, err
		}
		dur := a.DurationMinutes
		if dur <= 0 {
			dur = cfg.DefaultDuration
		}
		if dur <= 0 {
			continue
		}
		if dur > MinutesPerDay {
			dur = MinutesPerDay
		}
		busy = append(busy, Interval{Start: start, End: start + Clock(dur)})
	}

	out := make([]Slot, len(slots))
	for i, s := range slots {
		out[i] = s
		iv, err := parseInterval(s.StartTime, s.EndTime)
		if err != nil {
			return nil, err
		}
		for _, b := range busy {
			if Overlaps(iv, b) {
				out[i].IsAvailable = false
				break
			}
		}
	}
	return out, nil
}
