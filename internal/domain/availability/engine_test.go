package availability

import (
	"errors"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-01-05 is a Monday.
var monday = civil.Date{Year: 2026, Month: time.January, Day: 5}

func weekdayTemplate() Template {
	var days []WorkingDay
	for d := time.Monday; d <= time.Friday; d++ {
		days = append(days, WorkingDay{Day: d, StartTime: "09:00", EndTime: "17:00", IsAvailable: true})
	}
	days = append(days,
		WorkingDay{Day: time.Saturday, StartTime: "09:00", EndTime: "13:00", IsAvailable: false},
		WorkingDay{Day: time.Sunday, IsAvailable: false},
	)
	return Template{
		WorkingDays: days,
		Breaks:      []AvailabilityBreak{{Day: time.Monday, StartTime: "12:00", EndTime: "13:00", Reason: "lunch"}},
	}
}

var halfHour = SlotConfiguration{DefaultDuration: 30, BufferTime: 0, SlotInterval: 30}

func startTimes(slots []Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.StartTime
	}
	return out
}

func TestResolveSlotsForDate_MondayWithLunch(t *testing.T) {
	slots, err := ResolveSlotsForDate("doc-1", monday, DayInput{Template: weekdayTemplate(), Config: halfHour})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
		"13:00", "13:30", "14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
	}, startTimes(slots))
	for _, s := range slots {
		assert.True(t, s.IsAvailable)
		assert.Equal(t, 30, s.Duration)
	}
	assert.Equal(t, "17:00", slots[len(slots)-1].EndTime)
}

func TestResolveSlotsForDate_OccupyingAppointment(t *testing.T) {
	in := DayInput{
		Template: weekdayTemplate(),
		Config:   halfHour,
		Appointments: []Appointment{
			{ID: "a1", Date: monday, Time: "10:00", DurationMinutes: 30, Status: "SCHEDULED"},
		},
	}
	slots, err := ResolveSlotsForDate("doc-1", monday, in)
	require.NoError(t, err)
	require.Len(t, slots, 14)

	for _, s := range slots {
		if s.StartTime == "10:00" {
			assert.False(t, s.IsAvailable, "10:00 should be taken")
		} else {
			assert.True(t, s.IsAvailable, "%s should be free", s.StartTime)
		}
	}
}

func TestResolveSlotsForDate_CancelledAppointmentIgnored(t *testing.T) {
	for _, status := range []string{"CANCELLED", "completed"} {
		in := DayInput{
			Template:     weekdayTemplate(),
			Config:       halfHour,
			Appointments: []Appointment{{Date: monday, Time: "10:00", DurationMinutes: 30, Status: status}},
		}
		slots, err := ResolveSlotsForDate("doc-1", monday, in)
		require.NoError(t, err)
		for _, s := range slots {
			assert.True(t, s.IsAvailable, "status %s should not occupy %s", status, s.StartTime)
		}
	}
}

func TestResolveSlotsForDate_AppointmentWithoutDurationUsesDefault(t *testing.T) {
	in := DayInput{
		Template:     weekdayTemplate(),
		Config:       halfHour,
		Appointments: []Appointment{{Date: monday, Time: "14:15", Status: "PENDING"}},
	}
	slots, err := ResolveSlotsForDate("doc-1", monday, in)
	require.NoError(t, err)

	var taken []string
	for _, s := range slots {
		if !s.IsAvailable {
			taken = append(taken, s.StartTime)
		}
	}
	assert.Equal(t, []string{"14:00", "14:30"}, taken)
}

func TestResolveSlotsForDate_WholeDaySlotFits(t *testing.T) {
	tpl := Template{WorkingDays: []WorkingDay{{Day: time.Monday, StartTime: "00:00", EndTime: "24:00", IsAvailable: true}}}
	cfg := SlotConfiguration{DefaultDuration: MinutesPerDay, SlotInterval: MinutesPerDay}
	slots, err := ResolveSlotsForDate("doc-1", monday, DayInput{Template: tpl, Config: cfg})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "00:00", slots[0].StartTime)
	assert.Equal(t, "24:00", slots[0].EndTime)
}

func TestResolveSlotsForDate_OversizedAppointmentStopsAtMidnight(t *testing.T) {
	in := DayInput{
		Template:     weekdayTemplate(),
		Config:       halfHour,
		Appointments: []Appointment{{Date: monday, Time: "16:00", DurationMinutes: math.MaxInt, Status: "SCHEDULED"}},
	}
	slots, err := ResolveSlotsForDate("doc-1", monday, in)
	require.NoError(t, err)

	var taken []string
	for _, s := range slots {
		if !s.IsAvailable {
			taken = append(taken, s.StartTime)
		}
	}
	assert.Equal(t, []string{"16:00", "16:30"}, taken)
}

func TestResolveSlotsForDate_FullDayBlockBeatsEverything(t *testing.T) {
	in := DayInput{
		Template: weekdayTemplate(),
		Config:   halfHour,
		Blocks:   []ScheduleBlock{{StartDate: monday, EndDate: monday, BlockType: BlockLeave}},
		Overrides: []AvailabilityOverride{
			{StartDate: monday, EndDate: monday, StartTime: "07:00", EndTime: "20:00", IsBlocked: false},
		},
	}
	slots, err := ResolveSlotsForDate("doc-1", monday, in)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestResolveSlotsForDate_FullDayBlockingOverride(t *testing.T) {
	in := DayInput{
		Template:  weekdayTemplate(),
		Config:    halfHour,
		Overrides: []AvailabilityOverride{{StartDate: monday.AddDays(-2), EndDate: monday.AddDays(2), IsBlocked: true}},
	}
	slots, err := ResolveSlotsForDate("doc-1", monday, in)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestResolveSlotsForDate_PartialBlockAndOverrideSubtract(t *testing.T) {
	in := DayInput{
		Template:  weekdayTemplate(),
		Config:    halfHour,
		Blocks:    []ScheduleBlock{{StartDate: monday, EndDate: monday, StartTime: "09:00", EndTime: "10:00"}},
		Overrides: []AvailabilityOverride{{StartDate: monday, EndDate: monday, StartTime: "15:00", IsBlocked: true}},
	}
	slots, err := ResolveSlotsForDate("doc-1", monday, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "10:30", "11:00", "11:30", "13:00", "13:30", "14:00", "14:30"}, startTimes(slots))
}

func TestResolveSlotsForDate_SessionsReplaceWorkingDay(t *testing.T) {
	tpl := weekdayTemplate()
	tpl.WorkingDays[0].StartTime = "06:00"
	tpl.WorkingDays[0].EndTime = "22:00"
	tpl.Sessions = []ScheduleSession{
		{Day: time.Monday, StartTime: "14:00", EndTime: "15:00", SessionType: SessionTeleconsult},
		{Day: time.Monday, StartTime: "09:00", EndTime: "10:00", SessionType: SessionClinic},
	}
	in := DayInput{
		Template:  tpl,
		Config:    halfHour,
		Overrides: []AvailabilityOverride{{StartDate: monday, EndDate: monday, StartTime: "18:00", EndTime: "19:00"}},
	}
	slots, err := ResolveSlotsForDate("doc-1", monday, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "14:00", "14:30"}, startTimes(slots))
}

func TestResolveSlotsForDate_GrantOverrideOnDayOff(t *testing.T) {
	sunday := monday.AddDays(6)
	in := DayInput{
		Template:  weekdayTemplate(),
		Config:    halfHour,
		Overrides: []AvailabilityOverride{{StartDate: sunday, EndDate: sunday, StartTime: "10:00", EndTime: "11:00", Reason: "extra clinic"}},
	}
	slots, err := ResolveSlotsForDate("doc-1", sunday, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "10:30"}, startTimes(slots))
}

func TestResolveSlotsForDate_GrantOverrideReplacesWorkingDay(t *testing.T) {
	tuesday := monday.AddDays(1)
	in := DayInput{
		Template:  weekdayTemplate(),
		Config:    halfHour,
		Overrides: []AvailabilityOverride{{StartDate: tuesday, EndDate: tuesday, StartTime: "18:00", EndTime: "19:00"}},
	}
	slots, err := ResolveSlotsForDate("doc-1", tuesday, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"18:00", "18:30"}, startTimes(slots))
}

func TestResolveSlotsForDate_NotAWorkingDay(t *testing.T) {
	slots, err := ResolveSlotsForDate("doc-1", monday.AddDays(5), DayInput{Template: weekdayTemplate(), Config: halfHour})
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestResolveSlotsForDate_BreakCoveringWindow(t *testing.T) {
	tpl := weekdayTemplate()
	tpl.Breaks = []AvailabilityBreak{{Day: time.Monday, StartTime: "09:00", EndTime: "17:00"}}
	slots, err := ResolveSlotsForDate("doc-1", monday, DayInput{Template: tpl, Config: halfHour})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestResolveSlotsForDate_BufferAndInterval(t *testing.T) {
	tpl := Template{WorkingDays: []WorkingDay{{Day: time.Monday, StartTime: "09:00", EndTime: "10:00", IsAvailable: true}}}
	cfg := SlotConfiguration{DefaultDuration: 20, BufferTime: 10, SlotInterval: 15}
	slots, err := ResolveSlotsForDate("doc-1", monday, DayInput{Template: tpl, Config: cfg})
	require.NoError(t, err)
	// 09:30 + 20 + 10 = 10:00 still fits; 09:45 would not.
	assert.Equal(t, []string{"09:00", "09:15", "09:30"}, startTimes(slots))
	assert.Equal(t, "09:50", slots[2].EndTime)
}

func TestResolveSlotsForDate_UnusableConfigurationYieldsNoSlots(t *testing.T) {
	for _, cfg := range []SlotConfiguration{
		{DefaultDuration: 0, SlotInterval: 30},
		{DefaultDuration: 30, SlotInterval: 0},
		{DefaultDuration: -5, SlotInterval: 15},
		{DefaultDuration: 30, SlotInterval: 30, BufferTime: -1},
		{DefaultDuration: math.MaxInt, SlotInterval: 30},
		{DefaultDuration: math.MaxInt, BufferTime: 1, SlotInterval: math.MaxInt / 2},
		{DefaultDuration: 30, BufferTime: math.MaxInt, SlotInterval: 30},
		{DefaultDuration: 30, SlotInterval: math.MaxInt},
		{DefaultDuration: 1000, BufferTime: 500, SlotInterval: 30},
	} {
		slots, err := ResolveSlotsForDate("doc-1", monday, DayInput{Template: weekdayTemplate(), Config: cfg})
		require.NoError(t, err)
		assert.Empty(t, slots, "config %+v", cfg)
	}
}

func TestResolveSlotsForDate_MalformedTimeIsParseError(t *testing.T) {
	tpl := weekdayTemplate()
	tpl.WorkingDays[0].EndTime = "5pm"
	_, err := ResolveSlotsForDate("doc-1", monday, DayInput{Template: tpl, Config: halfHour})
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "5pm", pe.Value)

	in := DayInput{
		Template:     weekdayTemplate(),
		Config:       halfHour,
		Appointments: []Appointment{{Date: monday, Time: "noon", Status: "SCHEDULED"}},
	}
	_, err = ResolveSlotsForDate("doc-1", monday, in)
	require.True(t, errors.As(err, &pe))
}

func TestResolveAvailableDates_Week(t *testing.T) {
	tpl := weekdayTemplate()
	tpl.Breaks = nil
	in := RangeInput{
		Template: tpl,
		Config:   SlotConfiguration{DefaultDuration: 60, SlotInterval: 60},
		Blocks:   []ScheduleBlock{{StartDate: monday.AddDays(2), EndDate: monday.AddDays(3), BlockType: BlockConference}},
		Appointments: []Appointment{
			{Date: monday, Time: "09:00", DurationMinutes: 480, Status: "SCHEDULED"},
			{Date: monday.AddDays(1), Time: "09:00", DurationMinutes: 480, Status: "CANCELLED"},
		},
	}
	dates := ResolveAvailableDates("doc-1", DateRange{Start: monday, End: monday.AddDays(6)}, in)
	assert.Equal(t, []civil.Date{monday.AddDays(1), monday.AddDays(4)}, dates)
}

func TestResolveAvailableDates_IsolatesCorruptDay(t *testing.T) {
	in := RangeInput{
		Template:  weekdayTemplate(),
		Config:    halfHour,
		Overrides: []AvailabilityOverride{{StartDate: monday.AddDays(1), EndDate: monday.AddDays(1), StartTime: "bad", IsBlocked: true}},
	}
	dates := NewEngine(WithWorkers(3)).ResolveAvailableDates("doc-1", DateRange{Start: monday, End: monday.AddDays(2)}, in)
	assert.Equal(t, []civil.Date{monday, monday.AddDays(2)}, dates)
}

func TestResolveAvailableDates_EmptyRange(t *testing.T) {
	dates := ResolveAvailableDates("doc-1", DateRange{Start: monday, End: monday.AddDays(-1)}, RangeInput{Template: weekdayTemplate(), Config: halfHour})
	assert.NotNil(t, dates)
	assert.Empty(t, dates)
}

func TestSummarizeRange(t *testing.T) {
	in := RangeInput{
		Template:     weekdayTemplate(),
		Config:       halfHour,
		Appointments: []Appointment{{Date: monday, Time: "09:00", DurationMinutes: 60, Status: "SCHEDULED"}},
	}
	sums := NewEngine().SummarizeRange("doc-1", DateRange{Start: monday, End: monday.AddDays(1)}, in)
	require.Len(t, sums, 2)
	assert.Equal(t, DaySummary{Date: monday, TotalSlots: 14, AvailableSlots: 12}, sums[0])
	assert.Equal(t, DaySummary{Date: monday.AddDays(1), TotalSlots: 16, AvailableSlots: 16}, sums[1])
}

func TestValidateSlotConfiguration(t *testing.T) {
	require.NoError(t, ValidateSlotConfiguration(halfHour))
	require.NoError(t, ValidateSlotConfiguration(SlotConfiguration{DefaultDuration: 45, BufferTime: 15, SlotInterval: 15}))

	for _, cfg := range []SlotConfiguration{
		{DefaultDuration: 0, SlotInterval: 15},
		{DefaultDuration: 30, SlotInterval: 0},
		{DefaultDuration: 30, SlotInterval: 45},
		{DefaultDuration: 30, SlotInterval: 30, BufferTime: -5},
		{DefaultDuration: 600, SlotInterval: 30},
	} {
		err := ValidateSlotConfiguration(cfg)
		var ice *InvalidConfigurationError
		assert.True(t, errors.As(err, &ice), "config %+v", cfg)
	}
}
