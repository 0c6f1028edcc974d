package schema

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"tourstats/internal/timecodec"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Grid is a decoded worksheet: the first row holds headers, the rest holds
// raw cell values (string, float64, int, time.Time or nil).
type Grid [][]any

// Sheet is the normalized form of a grid.
type Sheet struct {
	Kind    Kind
	Columns map[string]int // canonical key -> column index
	Rows    []Row
	Skipped int
}

// Has reports whether the source grid carried a column for the canonical key.
func (s *Sheet) Has(key string) bool {
	_, ok := s.Columns[key]
	return ok
}

var apostrophes = strings.NewReplacer("\u2019", "'", "\u2018", "'", "\u00a0", " ")

// NormalizeHeader folds a header for alias matching: accents removed, case
// folded, whitespace trimmed and collapsed.
func NormalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, apostrophes.Replace(s))
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// aliasIndex maps every folded alias of a schema to its canonical key.
func aliasIndex(sc Schema) map[string]string {
	idx := make(map[string]string)
	for _, f := range sc.Fields {
		for _, a := range f.Aliases {
			key := NormalizeHeader(a)
			if _, exists := idx[key]; !exists {
				idx[key] = f.Key
			}
		}
	}
	return idx
}

// ResolveHeaders maps column indexes to canonical keys. Unknown headers are
// ignored; when two columns resolve to the same key the first one wins.
func ResolveHeaders(headers []any, sc Schema) map[string]int {
	idx := aliasIndex(sc)
	columns := make(map[string]int)
	for i, h := range headers {
		key, ok := idx[NormalizeHeader(cellText(h))]
		if !ok {
			continue
		}
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}
	return columns
}

// Normalize validates the header row against the schema and coerces every
// data row. Missing mandatory headers fail with *SchemaError before any row is
// read; a sheet left with no usable row fails with *EmptyDatasetError.
func Normalize(grid Grid, sc Schema) (*Sheet, error) {
	var headers []any
	if len(grid) > 0 {
		headers = grid[0]
	}
	columns := ResolveHeaders(headers, sc)

	var missing []MissingField
	for _, key := range sc.Mandatory {
		if _, ok := columns[key]; ok {
			continue
		}
		example := ""
		if f, ok := sc.Field(key); ok && len(f.Aliases) > 0 {
			example = f.Aliases[0]
		}
		missing = append(missing, MissingField{Key: key, Example: example})
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Kind: sc.Kind, Missing: missing}
	}

	sheet := &Sheet{Kind: sc.Kind, Columns: columns}
	if len(grid) > 1 {
		sheet.Rows = make([]Row, 0, len(grid)-1)
	}

	for _, raw := range grid[min(1, len(grid)):] {
		if isBlankRow(raw) {
			continue
		}
		row, ok := coerceRow(raw, sc, columns)
		if !ok {
			sheet.Skipped++
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	if len(sheet.Rows) == 0 {
		return nil, &EmptyDatasetError{Kind: sc.Kind, Skipped: sheet.Skipped}
	}
	return sheet, nil
}

func coerceRow(raw []any, sc Schema, columns map[string]int) (Row, bool) {
	row := Row{values: make(map[string]any, len(sc.Fields))}
	for _, f := range sc.Fields {
		var cell any
		if i, ok := columns[f.Key]; ok && i < len(raw) {
			cell = raw[i]
		}
		row.values[f.Key] = coerce(cell, f)
	}

	for _, key := range sc.Mandatory {
		switch v := row.values[key].(type) {
		case string:
			if v == "" {
				return Row{}, false
			}
		case nil:
			return Row{}, false
		}
	}
	return row, true
}

func coerce(cell any, f Field) any {
	if isBlank(cell) {
		return defaultFor(f)
	}
	switch f.Type {
	case TypeNumeric:
		return coerceNumber(cell)
	case TypeTime:
		return timecodec.DecodeTime(cell)
	case TypeDate:
		return timecodec.DecodeDate(cell)
	case TypeRating:
		return coerceRating(cell)
	}
	text := cellText(cell)
	if f.Nullable {
		return &text
	}
	return text
}

func defaultFor(f Field) any {
	if f.Nullable {
		return nil
	}
	switch f.Type {
	case TypeNumeric:
		return 0.0
	case TypeTime:
		return timecodec.TimeOfDay(0)
	case TypeRating:
		return nil
	}
	return ""
}

func coerceNumber(cell any) float64 {
	switch v := cell.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	}
	f, ok := timecodec.ParseNumber(cellText(cell))
	if !ok {
		return 0
	}
	return f
}

// coerceRating keeps 1..5 scores; "4/5" style text is accepted.
func coerceRating(cell any) any {
	text := cellText(cell)
	if i := strings.Index(text, "/"); i > 0 {
		text = text[:i]
	}
	var f float64
	switch v := cell.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	default:
		parsed, ok := timecodec.ParseNumber(text)
		if !ok {
			return nil
		}
		f = parsed
	}
	r := int(math.Round(f))
	if r < 1 || r > 5 {
		return nil
	}
	return &r
}

func cellText(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return ""
}

func isBlank(cell any) bool {
	switch v := cell.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

func isBlankRow(raw []any) bool {
	for _, c := range raw {
		if !isBlank(c) {
			return false
		}
	}
	return true
}
