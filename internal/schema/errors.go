package schema

import (
	"fmt"
	"strings"
)

// MissingField names a mandatory canonical field absent from the header row.
type MissingField struct {
	Key     string `json:"key"`
	Example string `json:"example"`
}

// SchemaError is returned when mandatory headers are missing. It is fatal for
// the sheet and raised before any data row is read.
type SchemaError struct {
	Kind    Kind           `json:"kind"`
	Missing []MissingField `json:"missing"`
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		parts = append(parts, fmt.Sprintf("%s (e.g. %q)", m.Key, m.Example))
	}
	return fmt.Sprintf("%s sheet is missing mandatory columns: %s", e.Kind, strings.Join(parts, ", "))
}

// EmptyDatasetError is returned when a sheet has no usable rows left after
// mandatory-field filtering.
type EmptyDatasetError struct {
	Kind    Kind `json:"kind"`
	Skipped int  `json:"skipped"`
}

func (e *EmptyDatasetError) Error() string {
	switch e.Kind {
	case KindTours:
		return fmt.Sprintf("no usable tour found in the tours sheet (%d rows skipped)", e.Skipped)
	case KindTasks:
		return fmt.Sprintf("no usable delivery found in the tasks sheet (%d rows skipped)", e.Skipped)
	}
	return fmt.Sprintf("%s sheet is empty", e.Kind)
}
