package availability

import (
	"time"

	"cloud.google.com/go/civil"
)

// weekdayOf returns the weekday of a calendar date.
func weekdayOf(date civil.Date) time.Weekday {
	return date.In(time.UTC).Weekday()
}

// ResolveWindows returns the effective availability windows for date before
// breaks are applied. Precedence, highest first:
//
//  1. a full-day block empties the day
//  2. a full-day blocking override empties the day
//  3. time-bounded blocks and blocking overrides are subtracted at the end
//  4. base windows come from sessions, else grant overrides, else the working day
func ResolveWindows(date civil.Date, in DayInput) ([]Interval, error) {
	var exclusions []Interval

	for _, b := range in.Blocks {
		if !b.Covers(date) {
			continue
		}
		if !b.TimeBounded() {
			return nil, nil
		}
	}
	for _, o := range in.Overrides {
		if !o.Covers(date) || !o.IsBlocked {
			continue
		}
		if !o.TimeBounded() {
			return nil, nil
		}
	}

	for _, b := range in.Blocks {
		if !b.Covers(date) {
			continue
		}
		iv, _, err := parseOptionalBounds(b.StartTime, b.EndTime)
		if err != nil {
			return nil, err
		}
		exclusions = append(exclusions, iv)
	}
	for _, o := range in.Overrides {
		if !o.Covers(date) || !o.IsBlocked {
			continue
		}
		iv, _, err := parseOptionalBounds(o.StartTime, o.EndTime)
		if err != nil {
			return nil, err
		}
		exclusions = append(exclusions, iv)
	}

	base, err := baseWindows(date, in)
	if err != nil {
		return nil, err
	}
	if len(base) == 0 {
		return nil, nil
	}
	return SubtractAll(base, exclusions), nil
}

func baseWindows(date civil.Date, in DayInput) ([]Interval, error) {
	day := weekdayOf(date)

	if sessions := in.Template.sessionsOn(day); len(sessions) > 0 {
		windows := make([]Interval, 0, len(sessions))
		for _, s := range sessions {
			iv, err := parseInterval(s.StartTime, s.EndTime)
			if err != nil {
				return nil, err
			}
			windows = append(windows, iv)
		}
		return Normalize(windows), nil
	}

	var grants []Interval
	for _, o := range in.Overrides {
		if !o.Covers(date) || o.IsBlocked || !o.TimeBounded() {
			continue
		}
		iv, _, err := parseOptionalBounds(o.StartTime, o.EndTime)
		if err != nil {
			return nil, err
		}
		grants = append(grants, iv)
	}
	if len(grants) > 0 {
		return Normalize(grants), nil
	}

	wd, ok := in.Template.workingDay(day)
	if !ok || !wd.IsAvailable {
		return nil, nil
	}
	iv, err := parseInterval(wd.StartTime, wd.EndTime)
	if err != nil {
		return nil, err
	}
	return Normalize([]Interval{iv}), nil
}
