package availability

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the exclusive upper bound of a Clock within one calendar day.
const MinutesPerDay = 24 * 60

// Clock is a time of day expressed in minutes since midnight.
type Clock int

// ParseError reports a malformed "HH:mm" value.
type ParseError struct {
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid time of day %q: %s", e.Value, e.Reason)
}

// ParseClock parses an "HH:mm" string. "24:00" is accepted so that a window
// can run to the end of the day.
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, &ParseError{Value: s, Reason: "expected HH:mm"}
	}
	if len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return 0, &ParseError{Value: s, Reason: "expected HH:mm"}
	}
	if !digits(hh) {
		return 0, &ParseError{Value: s, Reason: "hour is not a number"}
	}
	if !digits(mm) {
		return 0, &ParseError{Value: s, Reason: "minute is not a number"}
	}
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	if m > 59 {
		return 0, &ParseError{Value: s, Reason: "minute out of range"}
	}
	if h > 24 || (h == 24 && m != 0) {
		return 0, &ParseError{Value: s, Reason: "hour out of range"}
	}
	return Clock(h*60 + m), nil
}

// digits reports whether s is made only of ASCII digits. strconv.Atoi alone
// would let a sign through.
func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MustParseClock is like ParseClock but panics on error. Intended for tests
// and package-level constants.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// parseOptionalBounds parses the optional start/end pair of an override or
// block. A missing start means midnight and a missing end means end of day.
func parseOptionalBounds(start, end string) (Interval, bool, error) {
	if start == "" && end == "" {
		return Interval{}, false, nil
	}
	iv := Interval{Start: 0, End: MinutesPerDay}
	if start != "" {
		c, err := ParseClock(start)
		if err != nil {
			return Interval{}, true, err
		}
		iv.Start = c
	}
	if end != "" {
		c, err := ParseClock(end)
		if err != nil {
			return Interval{}, true, err
		}
		iv.End = c
	}
	return iv, true, nil
}

func parseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: e}, nil
}
