package timecodec

import (
	"testing"
	"time"
)

func TestDecodeTime(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected TimeOfDay
	}{
		{"Nil", nil, 0},
		{"Empty", "   ", 0},
		{"SerialFraction", 0.5, 43200},
		{"SerialFractionText", "0,25", 21600},
		{"SerialRounding", 10.0 / 24.0, 36000},
		{"AbsoluteSerial", 45301.75, 64800},
		{"ClockHM", "8:30", 30600},
		{"ClockHMS", "08:30:15", 30615},
		{"ClockTrailingColon", "7:", 25200},
		{"Timestamp", "2024-01-10 14:05:00", FromClock(14, 5, 0)},
		{"TimeValue", time.Date(2024, 1, 10, 6, 0, 1, 0, time.UTC), 21601},
		{"Garbage", "n/a", 0},
		{"Negative", -0.2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeTime(tt.input); got != tt.expected {
				t.Errorf("DecodeTime(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDecodeDate(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"Serial", 45301.0, "2024-01-10"},
		{"SerialWithTime", 45301.4, "2024-01-10"},
		{"SerialText", "45301", "2024-01-10"},
		{"DayFirst", "10/01/2024", "2024-01-10"},
		{"DayFirstWithClock", "10/01/2024 08:00", "2024-01-10"},
		{"DayFirstShortYear", "1/2/24", "2024-02-01"},
		{"DayFirstInvalid", "31/02/2024", ""},
		{"ISO", "2024-01-10", "2024-01-10"},
		{"Generic", "January 10, 2024", "2024-01-10"},
		{"Unparseable", "someday", ""},
		{"Empty", "", ""},
		{"FractionOnly", 0.5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeDate(tt.input); got != tt.expected {
				t.Errorf("DecodeDate(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"12.5", 12.5, true},
		{"12,5", 12.5, true},
		{"1 234,5", 1234.5, true},
		{"1.234,5", 1234.5, true},
		{"1,234.5", 1234.5, true},
		{"1,234,567", 1234567, true},
		{"1.234.567", 1234567, true},
		{"1,234,567.25", 1234567.25, true},
		{"10.01.2024", 0, false},
		{"1,23,4", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseNumber(tt.input)
		if ok != tt.ok || got != tt.expected {
			t.Errorf("ParseNumber(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestRollover(t *testing.T) {
	start := FromClock(22, 0, 0)

	closure := FromClock(1, 30, 0)
	rolled := Rollover(closure, start)
	if rolled != closure+Day {
		t.Fatalf("Expected closure to roll onto next day, got %v", rolled)
	}

	// Idempotent: the predicate no longer holds after correction.
	if again := Rollover(rolled, start); again != rolled {
		t.Errorf("Expected second rollover to be a no-op, got %v", again)
	}

	// Within twelve hours before start: no correction.
	early := FromClock(11, 0, 0)
	if got := Rollover(early, start); got != early {
		t.Errorf("Expected %v unchanged, got %v", early, got)
	}

	// Missing values never roll.
	if got := Rollover(0, start); got != 0 {
		t.Errorf("Expected zero to stay zero, got %v", got)
	}
}

func TestTimeOfDayAccessors(t *testing.T) {
	v := FromClock(25, 10, 5)
	if v.Hour() != 1 {
		t.Errorf("Expected wrapped hour 1, got %d", v.Hour())
	}
	if v.Minute() != 10 {
		t.Errorf("Expected minute 10, got %d", v.Minute())
	}
	if v.String() != "25:10:05" {
		t.Errorf("Expected 25:10:05, got %s", v.String())
	}
	if v.MinuteOfDay() != 70 {
		t.Errorf("Expected minute of day 70, got %d", v.MinuteOfDay())
	}
}

func TestWeekday(t *testing.T) {
	wd, ok := Weekday("2024-01-14")
	if !ok || wd != time.Sunday {
		t.Errorf("Expected Sunday, got %v (ok=%v)", wd, ok)
	}
	if _, ok := Weekday(""); ok {
		t.Error("Expected empty date to be rejected")
	}
}

func TestElapsed(t *testing.T) {
	tests := []struct {
		name     string
		from, to TimeOfDay
		expected int
	}{
		{"SameDay", FromClock(9, 0, 0), FromClock(9, 15, 0), 900},
		{"Negative", FromClock(9, 15, 0), FromClock(9, 0, 0), -900},
		{"RolledEnd", FromClock(0, 20, 0), FromClock(24, 30, 0), 600},
		{"RolledStart", FromClock(24, 20, 0), FromClock(0, 30, 0), 600},
		{"AcrossMidnight", FromClock(23, 50, 0), FromClock(0, 10, 0), 1200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Elapsed(tt.from, tt.to); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}
