package availability

import "sort"

// Interval is a half-open [Start, End) range on a single calendar day.
type Interval struct {
	Start Clock
	End   Clock
}

// Empty reports whether the interval covers no time.
func (iv Interval) Empty() bool { return iv.End <= iv.Start }

// Minutes returns the length of the interval, or zero when empty.
func (iv Interval) Minutes() int {
	if iv.Empty() {
		return 0
	}
	return int(iv.End - iv.Start)
}

// Overlaps reports whether two half-open intervals share any time.
// Touching intervals do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// Normalize drops empty intervals, sorts the rest by start and merges any
// that overlap. Touching intervals stay separate so back-to-back sessions
// keep their own boundaries.
func Normalize(ivs []Interval) []Interval {
	out := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if !iv.Empty() {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})

	merged := out[:0]
	for _, iv := range out {
		if n := len(merged); n > 0 && iv.Start < merged[n-1].End {
			if iv.End > merged[n-1].End {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Subtract removes every exclusion from base and returns what is left,
// sorted and non-overlapping.
func Subtract(base Interval, exclusions []Interval) []Interval {
	if base.Empty() {
		return nil
	}
	remaining := []Interval{base}
	for _, ex := range Normalize(exclusions) {
		next := remaining[:0:0]
		for _, r := range remaining {
			if !Overlaps(r, ex) {
				next = append(next, r)
				continue
			}
			if ex.Start > r.Start {
				next = append(next, Interval{Start: r.Start, End: ex.Start})
			}
			if ex.End < r.End {
				next = append(next, Interval{Start: ex.End, End: r.End})
			}
		}
		remaining = next
		if len(remaining) == 0 {
			return nil
		}
	}
	return remaining
}

// SubtractAll applies Subtract to each window and returns the combined
// remainder in chronological order.
func SubtractAll(windows, exclusions []Interval) []Interval {
	var out []Interval
	for _, w := range Normalize(windows) {
		out = append(out, Subtract(w, exclusions)...)
	}
	return out
}
