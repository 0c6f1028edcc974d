package timecodec

import (
	"fmt"
	"math"
)

const (
	// Day is the number of seconds in a calendar day.
	Day TimeOfDay = 86400

	// OvernightThreshold is how far before a tour's start a task time may fall
	// before it is assumed to belong to the following day.
	OvernightThreshold TimeOfDay = 12 * 3600
)

// TimeOfDay is a wall-clock offset in seconds since local midnight.
// Values above Day represent times on the following day (overnight tours).
// It carries no calendar and no time zone.
type TimeOfDay int

// FromClock builds a TimeOfDay from hour, minute and second components.
func FromClock(h, m, s int) TimeOfDay {
	return TimeOfDay(h*3600 + m*60 + s)
}

// Seconds returns the raw number of seconds since midnight.
func (t TimeOfDay) Seconds() int {
	return int(t)
}

// IsZero reports whether the value is unset. Midnight and "missing" are
// indistinguishable in the source exports, so both read as zero.
func (t TimeOfDay) IsZero() bool {
	return t == 0
}

// Hour returns the hour of day in [0,23], wrapping values past midnight.
func (t TimeOfDay) Hour() int {
	if t < 0 {
		return 0
	}
	return (int(t) / 3600) % 24
}

// Minute returns the minute of the hour.
func (t TimeOfDay) Minute() int {
	if t < 0 {
		return 0
	}
	return (int(t) / 60) % 60
}

// MinuteOfDay returns the minute index in [0,1439], wrapping values past midnight.
func (t TimeOfDay) MinuteOfDay() int {
	if t < 0 {
		return 0
	}
	return (int(t) / 60) % 1440
}

// Minutes returns the value as fractional minutes.
func (t TimeOfDay) Minutes() float64 {
	return float64(t) / 60.0
}

// String renders HH:MM:SS; hours are not wrapped so 25:10:00 stays visible.
func (t TimeOfDay) String() string {
	sign := ""
	v := int(t)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, v/3600, (v/60)%60, v%60)
}

// NeedsRollover reports whether t falls more than twelve hours before start,
// meaning the recorded clock wrapped past midnight during the tour.
func NeedsRollover(t, start TimeOfDay) bool {
	if t.IsZero() || start.IsZero() {
		return false
	}
	return t < start-OvernightThreshold
}

// Rollover shifts t onto the following day when NeedsRollover holds.
// Applying it twice is a no-op since the shifted value no longer satisfies the predicate.
func Rollover(t, start TimeOfDay) TimeOfDay {
	if NeedsRollover(t, start) {
		return t + Day
	}
	return t
}

// Elapsed returns to - from in seconds, folded into [-12h, 12h) so a pair
// recorded on either side of midnight yields the short way round.
func Elapsed(from, to TimeOfDay) int {
	d := int(to-from) % int(Day)
	switch {
	case d >= int(OvernightThreshold):
		d -= int(Day)
	case d < -int(OvernightThreshold):
		d += int(Day)
	}
	return d
}

func fromFraction(f float64) TimeOfDay {
	return TimeOfDay(math.Round(f * float64(Day)))
}
