package stats

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"tourstats/internal/records"
	"tourstats/internal/timecodec"
)

// DateRange is an inclusive ISO calendar range; either bound may be empty.
type DateRange struct {
	From string `mapstructure:"from" json:"from,omitempty"`
	To   string `mapstructure:"to" json:"to,omitempty"`
}

// MadDelay names a warehouse and date pair excluded from analysis.
type MadDelay struct {
	Warehouse string `mapstructure:"warehouse" json:"warehouse"`
	Date      string `mapstructure:"date" json:"date"`
}

// Filter narrows the dataset before analysis. The zero value keeps everything.
type Filter struct {
	DateRange            *DateRange `mapstructure:"dateRange" json:"dateRange,omitempty"`
	SelectedDate         string     `mapstructure:"selectedDate" json:"selectedDate,omitempty"`
	Depot                string     `mapstructure:"depot" json:"depot,omitempty"`
	Entrepot             string     `mapstructure:"entrepot" json:"entrepot,omitempty"`
	City                 string     `mapstructure:"city" json:"city,omitempty"`
	CodePostal           string     `mapstructure:"codePostal" json:"codePostal,omitempty"`
	Heure                *int       `mapstructure:"heure" json:"heure,omitempty"`
	PunctualityThreshold *int       `mapstructure:"punctualityThreshold" json:"punctualityThreshold,omitempty"`
	TopPostalCodes       int        `mapstructure:"topPostalCodes" json:"topPostalCodes,omitempty"`
	ExcludeMadDelays     bool       `mapstructure:"excludeMadDelays" json:"excludeMadDelays,omitempty"`
	MadDelays            []MadDelay `mapstructure:"madDelays" json:"madDelays,omitempty"`
	Tours100Mobile       bool       `mapstructure:"tours100Mobile" json:"tours100Mobile,omitempty"`
}

// Validate rejects contradictory or malformed filters.
func (f Filter) Validate() error {
	if f.SelectedDate != "" && f.DateRange != nil && (f.DateRange.From != "" || f.DateRange.To != "") {
		return fmt.Errorf("dateRange and selectedDate are mutually exclusive")
	}
	for name, d := range map[string]string{"selectedDate": f.SelectedDate, "dateRange.from": f.from(), "dateRange.to": f.to()} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(timecodec.ISODate, d); err != nil {
			return fmt.Errorf("%s %q is not a YYYY-MM-DD date: %w", name, d, err)
		}
	}
	if f.from() != "" && f.to() != "" && f.from() > f.to() {
		return fmt.Errorf("dateRange.from %s is after dateRange.to %s", f.from(), f.to())
	}
	if f.PunctualityThreshold != nil && *f.PunctualityThreshold < 0 {
		return fmt.Errorf("punctualityThreshold must be >= 0, got %d", *f.PunctualityThreshold)
	}
	if f.Heure != nil && (*f.Heure < 0 || *f.Heure > 23) {
		return fmt.Errorf("heure must be within 0..23, got %d", *f.Heure)
	}
	if f.TopPostalCodes < 0 {
		return fmt.Errorf("topPostalCodes must be >= 0, got %d", f.TopPostalCodes)
	}
	return nil
}

// Tolerance returns the filter threshold or the given default.
func (f Filter) Tolerance(def int) int {
	if f.PunctualityThreshold != nil {
		return *f.PunctualityThreshold
	}
	return def
}

// Key is a stable identity used to memoize results.
func (f Filter) Key() string {
	b, _ := json.Marshal(f)
	return string(b)
}

func (f Filter) from() string {
	if f.DateRange == nil {
		return ""
	}
	return f.DateRange.From
}

func (f Filter) to() string {
	if f.DateRange == nil {
		return ""
	}
	return f.DateRange.To
}

func (f Filter) matchDate(date string) bool {
	if f.SelectedDate != "" {
		return date == f.SelectedDate
	}
	if from := f.from(); from != "" && date < from {
		return false
	}
	if to := f.to(); to != "" && date > to {
		return false
	}
	return true
}

func (f Filter) matchWarehouse(warehouse string) bool {
	if f.Depot != "" && !strings.EqualFold(records.DepotOf(warehouse), strings.TrimSpace(f.Depot)) {
		return false
	}
	if f.Entrepot != "" && !strings.EqualFold(strings.TrimSpace(warehouse), strings.TrimSpace(f.Entrepot)) {
		return false
	}
	return true
}

func (f Filter) isMad(warehouse, date string) bool {
	if !f.ExcludeMadDelays {
		return false
	}
	for _, m := range f.MadDelays {
		if m.Date == date && strings.EqualFold(strings.TrimSpace(m.Warehouse), strings.TrimSpace(warehouse)) {
			return true
		}
	}
	return false
}

func (f Filter) matchTour(t *records.Tour) bool {
	return f.matchDate(t.Date) && f.matchWarehouse(t.Warehouse) && !f.isMad(t.Warehouse, t.Date)
}

func (f Filter) matchTask(t *records.Task) bool {
	if !f.matchDate(t.Date) || !f.matchWarehouse(t.Warehouse) || f.isMad(t.Warehouse, t.Date) {
		return false
	}
	if f.City != "" && !strings.EqualFold(strings.TrimSpace(t.City), strings.TrimSpace(f.City)) {
		return false
	}
	if f.CodePostal != "" && !strings.HasPrefix(strings.TrimSpace(t.PostalCode), strings.TrimSpace(f.CodePostal)) {
		return false
	}
	if f.Heure != nil && (t.Closure.IsZero() || t.Closure.Hour() != *f.Heure) {
		return false
	}
	return true
}

// ApplyFilter narrows tours and records. Tour-level criteria (calendar,
// depot, warehouse, excluded pairs, mobile-only) apply to both; stop-level
// criteria (city, postal code, hour, top postal codes) only to records.
func ApplyFilter(tours []*records.Tour, recs []records.MergedRecord, f Filter) ([]*records.Tour, []records.MergedRecord) {
	var mobile map[*records.Tour]bool
	if f.Tours100Mobile {
		mobile = fullyMobileTours(recs)
	}

	keptTours := make([]*records.Tour, 0, len(tours))
	for _, t := range tours {
		if !f.matchTour(t) {
			continue
		}
		if mobile != nil && !mobile[t] {
			continue
		}
		keptTours = append(keptTours, t)
	}

	keptRecs := make([]records.MergedRecord, 0, len(recs))
	for _, r := range recs {
		if !f.matchTask(r.Task) {
			continue
		}
		if mobile != nil && (!r.HasTour() || !mobile[r.Tour]) {
			continue
		}
		keptRecs = append(keptRecs, r)
	}

	if f.TopPostalCodes > 0 {
		keptRecs = keepTopPostalCodes(keptRecs, f.TopPostalCodes)
	}
	return keptTours, keptRecs
}

// fullyMobileTours returns tours whose every matched stop was closed via mobile.
func fullyMobileTours(recs []records.MergedRecord) map[*records.Tour]bool {
	out := make(map[*records.Tour]bool)
	for _, r := range recs {
		if !r.HasTour() {
			continue
		}
		ok, seen := out[r.Tour]
		if !seen {
			ok = true
		}
		out[r.Tour] = ok && r.Task.IsMobile()
	}
	return out
}

// keepTopPostalCodes keeps the n busiest postal codes; ties go to the lower code.
func keepTopPostalCodes(recs []records.MergedRecord, n int) []records.MergedRecord {
	counts := make(map[string]int)
	for _, r := range recs {
		if code := strings.TrimSpace(r.Task.PostalCode); code != "" {
			counts[code]++
		}
	}
	codes := make([]string, 0, len(counts))
	for c := range counts {
		codes = append(codes, c)
	}
	slices.SortFunc(codes, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(codes) > n {
		codes = codes[:n]
	}
	keep := make(map[string]bool, len(codes))
	for _, c := range codes {
		keep[c] = true
	}

	out := make([]records.MergedRecord, 0, len(recs))
	for _, r := range recs {
		if keep[strings.TrimSpace(r.Task.PostalCode)] {
			out = append(out, r)
		}
	}
	return out
}
