package timecodec

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// serialEpoch is day zero of the spreadsheet serial date system (1900 system,
// including the historical leap-year bug offset).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ISODate is the layout used for every canonical calendar date.
const ISODate = "2006-01-02"

// DecodeTime converts a raw cell into seconds since midnight.
// Accepted encodings: a serial fraction of a day (numeric or numeric text),
// "H:M[:S]" text, a full timestamp, or a time.Time. Anything else decodes to zero.
func DecodeTime(v any) TimeOfDay {
	switch x := v.(type) {
	case nil:
		return 0
	case TimeOfDay:
		return x
	case time.Time:
		return FromClock(x.Hour(), x.Minute(), x.Second())
	case float64:
		return decodeSerialTime(x)
	case float32:
		return decodeSerialTime(float64(x))
	case int:
		return decodeSerialTime(float64(x))
	case int64:
		return decodeSerialTime(float64(x))
	case string:
		return decodeTimeText(x)
	}
	return 0
}

// decodeSerialTime handles fractions of a day. Values above one are treated as
// absolute serials typed into a time column: only the clock part is kept.
func decodeSerialTime(f float64) TimeOfDay {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f <= 1 {
		return fromFraction(f)
	}
	frac := f - math.Floor(f)
	total := int(math.Round(frac * float64(Day)))
	h := total / 3600
	m := (total / 60) % 60
	s := total % 60
	return FromClock(h%24, m, s)
}

func decodeTimeText(s string) TimeOfDay {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.Contains(s, ":") {
		if t, ok := parseClock(s); ok {
			return t
		}
		if ts, err := dateparse.ParseIn(s, time.UTC); err == nil {
			return FromClock(ts.Hour(), ts.Minute(), ts.Second())
		}
		return 0
	}
	if f, ok := ParseNumber(s); ok {
		return decodeSerialTime(f)
	}
	return 0
}

// parseClock reads "H:M[:S]"; missing components default to zero.
func parseClock(s string) (TimeOfDay, bool) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}
	var comps [3]int
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.Replace(p, ",", ".", 1), 64)
		if err != nil || f < 0 {
			return 0, false
		}
		comps[i] = int(math.Round(f))
	}
	return FromClock(comps[0], comps[1], comps[2]), true
}

// DecodeDate converts a raw cell into an ISO calendar date. Serial numbers are
// offset from the spreadsheet epoch, "/" text is read as DD/MM/YYYY and any
// other text goes through a generic parser. Unparseable values yield "".
func DecodeDate(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(ISODate)
	case float64:
		return decodeSerialDate(x)
	case float32:
		return decodeSerialDate(float64(x))
	case int:
		return decodeSerialDate(float64(x))
	case int64:
		return decodeSerialDate(float64(x))
	case string:
		return decodeDateText(x)
	}
	return ""
}

func decodeSerialDate(f float64) string {
	if f < 1 || math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return serialEpoch.AddDate(0, 0, int(math.Floor(f))).Format(ISODate)
}

func decodeDateText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "/") {
		return parseDayFirst(s)
	}
	if f, ok := ParseNumber(s); ok {
		return decodeSerialDate(f)
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return ""
	}
	return t.Format(ISODate)
}

// parseDayFirst reads DD/MM/YYYY, ignoring any trailing clock part.
func parseDayFirst(s string) string {
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return ""
	}
	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}
	if year < 100 {
		year += 2000
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range values; reject those instead.
	if t.Day() != day || int(t.Month()) != month {
		return ""
	}
	return t.Format(ISODate)
}

// Weekday returns the day of week of an ISO date (Sunday = 0).
func Weekday(date string) (time.Weekday, bool) {
	t, err := time.Parse(ISODate, date)
	if err != nil {
		return 0, false
	}
	return t.Weekday(), true
}

// ParseNumber reads a locale-tolerant decimal: spaces are thousands
// separators and a comma may stand for the decimal point. A separator that
// repeats with no other kind present groups thousands ("1,234,567") and is
// rejected unless every group after the first has three digits.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		// The later separator is the decimal one.
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0 && strings.Count(s, ",") > 1:
		if !thousandsGrouped(s, ",") {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		if !thousandsGrouped(s, ".") {
			return 0, false
		}
		s = strings.ReplaceAll(s, ".", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func thousandsGrouped(s, sep string) bool {
	parts := strings.Split(strings.TrimPrefix(s, "-"), sep)
	if len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}
