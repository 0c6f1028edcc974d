package stats

import (
	"strings"
	"testing"

	"tourstats/internal/records"
	"tourstats/internal/timecodec"
)

func TestFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr string
	}{
		{"Zero", Filter{}, ""},
		{"BothCalendarFilters", Filter{SelectedDate: "2024-01-10", DateRange: &DateRange{From: "2024-01-01"}}, "mutually exclusive"},
		{"EmptyRangeWithDate", Filter{SelectedDate: "2024-01-10", DateRange: &DateRange{}}, ""},
		{"BadDate", Filter{SelectedDate: "10/01/2024"}, "YYYY-MM-DD"},
		{"InvertedRange", Filter{DateRange: &DateRange{From: "2024-02-01", To: "2024-01-01"}}, "after"},
		{"NegativeThreshold", Filter{PunctualityThreshold: ptr(-1)}, "punctualityThreshold"},
		{"HourOutOfRange", Filter{Heure: ptr(24)}, "heure"},
		{"NegativeTop", Filter{TopPostalCodes: -2}, "topPostalCodes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFilter_ToleranceAndKey(t *testing.T) {
	if got := (Filter{}).Tolerance(959); got != 959 {
		t.Errorf("Expected default tolerance, got %d", got)
	}
	if got := (Filter{PunctualityThreshold: ptr(0)}).Tolerance(959); got != 0 {
		t.Errorf("Expected explicit zero tolerance to win, got %d", got)
	}
	a := Filter{City: "Paris", Heure: ptr(9)}
	b := Filter{City: "Paris", Heure: ptr(9)}
	if a.Key() != b.Key() {
		t.Error("Expected equal filters to share a key")
	}
	if a.Key() == (Filter{City: "Paris"}).Key() {
		t.Error("Expected different filters to have different keys")
	}
}

func TestApplyFilter(t *testing.T) {
	fx := newFixture()
	tours := []*records.Tour{fx.tourA, fx.tourB, fx.tourC}

	tests := []struct {
		name      string
		filter    Filter
		wantTours int
		wantRecs  int
	}{
		{"Zero", Filter{}, 3, 6},
		{"SelectedDate", Filter{SelectedDate: "2024-01-11"}, 1, 1},
		{"DateRange", Filter{DateRange: &DateRange{From: "2024-01-10", To: "2024-01-10"}}, 2, 5},
		{"Depot", Filter{Depot: "paris"}, 2, 5},
		{"Entrepot", Filter{Entrepot: "Paris Sud"}, 1, 2},
		{"City", Filter{City: "vanves"}, 3, 1},
		{"PostalPrefix", Filter{CodePostal: "75"}, 3, 4},
		{"ClosureHour", Filter{Heure: ptr(9)}, 3, 2},
		{"TopPostalCodes", Filter{TopPostalCodes: 1}, 3, 2},
		{"MadDelaysIgnoredWhenDisabled", Filter{MadDelays: []MadDelay{{Warehouse: "Lyon", Date: "2024-01-11"}}}, 3, 6},
		{"MadDelays", Filter{ExcludeMadDelays: true, MadDelays: []MadDelay{{Warehouse: "lyon", Date: "2024-01-11"}}}, 2, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTours, gotRecs := ApplyFilter(tours, fx.recs, tt.filter)
			if len(gotTours) != tt.wantTours || len(gotRecs) != tt.wantRecs {
				t.Errorf("Expected %d tours / %d records, got %d / %d", tt.wantTours, tt.wantRecs, len(gotTours), len(gotRecs))
			}
		})
	}
}

func TestApplyFilter_Tours100Mobile(t *testing.T) {
	mobile := &records.Tour{Key: "M"}
	mixed := &records.Tour{Key: "X"}
	idle := &records.Tour{Key: "I"}
	rec := func(tour *records.Tour, channel string) records.MergedRecord {
		return records.MergedRecord{Task: &records.Task{Channel: channel, Closure: timecodec.FromClock(9, 0, 0)}, Tour: tour}
	}
	recs := []records.MergedRecord{
		rec(mobile, "Application mobile"),
		rec(mobile, "MOBILE"),
		rec(mixed, "mobile"),
		rec(mixed, "web"),
		{Task: &records.Task{Channel: "mobile"}},
	}

	tours, kept := ApplyFilter([]*records.Tour{mobile, mixed, idle}, recs, Filter{Tours100Mobile: true})
	if len(tours) != 1 || tours[0] != mobile {
		t.Fatalf("Expected only the fully mobile tour, got %d tours", len(tours))
	}
	if len(kept) != 2 {
		t.Errorf("Expected 2 records of the mobile tour, got %d", len(kept))
	}
}
