package availability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iv(start, end string) Interval {
	return Interval{Start: MustParseClock(start), End: MustParseClock(end)}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want Clock
	}{
		{"00:00", 0},
		{"09:30", 570},
		{"9:05", 545},
		{"23:59", 1439},
		{"24:00", MinutesPerDay},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClock_Malformed(t *testing.T) {
	for _, in := range []string{"", "9", "0930", "25:00", "24:01", "12:60", "ab:cd", "12:5", "-1:00", "123:00", "12:+5", "+9:00", "-0:30", "1:-5", " 9:0x"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseClock(in)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected ParseError for %q, got %v", in, err)
			assert.Equal(t, in, pe.Value)
		})
	}
}

func TestClock_String(t *testing.T) {
	assert.Equal(t, "09:05", Clock(545).String())
	assert.Equal(t, "24:00", Clock(MinutesPerDay).String())
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps(iv("09:00", "10:00"), iv("09:30", "10:30")))
	assert.True(t, Overlaps(iv("09:00", "10:00"), iv("09:00", "10:00")))
	assert.False(t, Overlaps(iv("09:00", "10:00"), iv("10:00", "11:00")), "touching intervals do not overlap")
	assert.False(t, Overlaps(iv("10:00", "11:00"), iv("09:00", "10:00")))
}

func TestSubtract(t *testing.T) {
	tests := []struct {
		name       string
		base       Interval
		exclusions []Interval
		want       []Interval
	}{
		{
			name: "no exclusions",
			base: iv("09:00", "17:00"),
			want: []Interval{iv("09:00", "17:00")},
		},
		{
			name:       "middle split",
			base:       iv("09:00", "17:00"),
			exclusions: []Interval{iv("12:00", "13:00")},
			want:       []Interval{iv("09:00", "12:00"), iv("13:00", "17:00")},
		},
		{
			name:       "exact cover",
			base:       iv("09:00", "17:00"),
			exclusions: []Interval{iv("09:00", "17:00")},
			want:       nil,
		},
		{
			name:       "larger cover",
			base:       iv("09:00", "17:00"),
			exclusions: []Interval{iv("08:00", "18:00")},
			want:       nil,
		},
		{
			name:       "touching start is no split",
			base:       iv("09:00", "17:00"),
			exclusions: []Interval{iv("08:00", "09:00")},
			want:       []Interval{iv("09:00", "17:00")},
		},
		{
			name:       "touching end is no split",
			base:       iv("09:00", "17:00"),
			exclusions: []Interval{iv("17:00", "18:00")},
			want:       []Interval{iv("09:00", "17:00")},
		},
		{
			name:       "several unsorted exclusions",
			base:       iv("08:00", "18:00"),
			exclusions: []Interval{iv("15:00", "16:00"), iv("07:00", "09:00"), iv("12:00", "13:00"), iv("12:30", "13:30")},
			want:       []Interval{iv("09:00", "12:00"), iv("13:30", "15:00"), iv("16:00", "18:00")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Subtract(tt.base, tt.exclusions))
		})
	}
}

func TestNormalize_KeepsTouchingWindowsApart(t *testing.T) {
	got := Normalize([]Interval{iv("12:00", "14:00"), iv("09:00", "12:00"), iv("13:00", "15:00"), iv("16:00", "16:00")})
	assert.Equal(t, []Interval{iv("09:00", "12:00"), iv("12:00", "15:00")}, got)
}
