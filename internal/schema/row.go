package schema

import (
	"math"

	"tourstats/internal/timecodec"
)

// Row is one coerced data row keyed by canonical field.
type Row struct {
	values map[string]any
}

// NewRow builds a row from already-coerced values. Mostly useful in tests.
func NewRow(values map[string]any) Row {
	return Row{values: values}
}

// Text returns a text field, or "" when absent or null.
func (r Row) Text(key string) string {
	switch v := r.values[key].(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	}
	return ""
}

// OptionalText returns a nullable text field.
func (r Row) OptionalText(key string) *string {
	switch v := r.values[key].(type) {
	case *string:
		return v
	case string:
		if v != "" {
			return &v
		}
	}
	return nil
}

// Float returns a numeric field, zero when absent.
func (r Row) Float(key string) float64 {
	switch v := r.values[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Int returns a numeric field rounded to the nearest integer.
func (r Row) Int(key string) int {
	return int(math.Round(r.Float(key)))
}

// Time returns a time field, zero when absent.
func (r Row) Time(key string) timecodec.TimeOfDay {
	switch v := r.values[key].(type) {
	case timecodec.TimeOfDay:
		return v
	case int:
		return timecodec.TimeOfDay(v)
	}
	return 0
}

// Date returns an ISO date field, "" when absent or unparseable.
func (r Row) Date(key string) string {
	return r.Text(key)
}

// Rating returns the 1..5 rating, nil when the cell was blank or out of range.
func (r Row) Rating(key string) *int {
	switch v := r.values[key].(type) {
	case *int:
		return v
	case int:
		return &v
	}
	return nil
}
