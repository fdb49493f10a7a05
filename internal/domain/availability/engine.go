package availability

import (
	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Engine computes slots and available dates. It holds no per-call state and
// is safe for concurrent use.
type Engine struct {
	logger  zerolog.Logger
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report dates skipped by the bulk scan.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithWorkers sets how many dates the bulk scan computes in parallel.
// Values below 2 keep the scan sequential.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// NewEngine returns an Engine with the given options applied.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zerolog.Nop(), workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// ResolveSlotsForDate computes the ordered slot list for one doctor and date
// using a sequential engine with logging disabled.
func ResolveSlotsForDate(doctorID string, date civil.Date, in DayInput) ([]Slot, error) {
	return defaultEngine.ResolveSlotsForDate(doctorID, date, in)
}

// ResolveAvailableDates lists the dates in r with at least one free slot
// using a sequential engine with logging disabled.
func ResolveAvailableDates(doctorID string, r DateRange, in RangeInput) []civil.Date {
	return defaultEngine.ResolveAvailableDates(doctorID, r, in)
}

// ResolveSlotsForDate resolves windows, generates slots and marks conflicts
// for one date. An empty result is not an error; malformed times abort the
// whole date with a *ParseError.
func (e *Engine) ResolveSlotsForDate(doctorID string, date civil.Date, in DayInput) ([]Slot, error) {
	windows, err := ResolveWindows(date, in)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return []Slot{}, nil
	}

	slots, err := GenerateSlots(windows, in.Template.breaksOn(weekdayOf(date)), in.Config)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return []Slot{}, nil
	}

	return MarkConflicts(date, slots, in.Appointments, in.Config)
}

// DaySummary is the outcome of the single-date computation for one date of a
// bulk scan.
type DaySummary struct {
	Date           civil.Date `json:"date"`
	TotalSlots     int        `json:"totalSlots"`
	AvailableSlots int        `json:"availableSlots"`
	Err            error      `json:"-"`
}

// Available reports whether the date has at least one free slot.
func (s DaySummary) Available() bool {
	return s.Err == nil && s.AvailableSlots > 0
}

// ResolveAvailableDates runs the single-date computation for every date in r
// against the pre-fetched input and returns, in order, the dates with at
// least one free slot. A date whose computation fails counts as unavailable
// and does not stop the scan.
func (e *Engine) ResolveAvailableDates(doctorID string, r DateRange, in RangeInput) []civil.Date {
	dates := []civil.Date{}
	for _, s := range e.SummarizeRange(doctorID, r, in) {
		if s.Available() {
			dates = append(dates, s.Date)
		}
	}
	return dates
}

// SummarizeRange returns one DaySummary per date in r, ordered by date.
func (e *Engine) SummarizeRange(doctorID string, r DateRange, in RangeInput) []DaySummary {
	n := r.Days()
	if n == 0 {
		return []DaySummary{}
	}

	out := make([]DaySummary, n)
	compute := func(i int) {
		date := r.Start.AddDays(i)
		out[i] = e.summarize(doctorID, date, in.ForDate(date))
	}

	if e.workers < 2 || n == 1 {
		for i := 0; i < n; i++ {
			compute(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(e.workers)
		for i := 0; i < n; i++ {
			i := i
			g.Go(func() error {
				compute(i)
				return nil
			})
		}
		_ = g.Wait()
	}
	return out
}

func (e *Engine) summarize(doctorID string, date civil.Date, in DayInput) DaySummary {
	summary := DaySummary{Date: date}
	slots, err := e.ResolveSlotsForDate(doctorID, date, in)
	if err != nil {
		e.logger.Warn().Err(err).
			Str("doctor_id", doctorID).
			Str("date", date.String()).
			Msg("skipping date with invalid availability data")
		summary.Err = err
		return summary
	}
	summary.TotalSlots = len(slots)
	for _, s := range slots {
		if s.IsAvailable {
			summary.AvailableSlots++
		}
	}
	return summary
}
