package records

import (
	"testing"

	"tourstats/internal/schema"
	"tourstats/internal/timecodec"
)

func newTour(name, date, warehouse string, start timecodec.TimeOfDay) *Tour {
	return &Tour{
		Key:       Key(name, date, warehouse),
		Name:      name,
		Date:      date,
		Warehouse: warehouse,
		StartTime: start,
	}
}

func newTask(tour, date, warehouse string) *Task {
	return &Task{
		TourKey:   Key(tour, date, warehouse),
		TourName:  tour,
		Date:      date,
		Warehouse: warehouse,
	}
}

func TestMerge_LeftOuterJoin(t *testing.T) {
	tours := []*Tour{newTour("T1", "2024-01-10", "W1", 0)}
	tasks := []*Task{
		newTask("T1", "2024-01-10", "W1"),
		newTask("T1", "2024-01-10", "W1"),
		newTask("T9", "2024-01-10", "W1"),
	}

	merged := Merge(tours, tasks)
	if len(merged) != len(tasks) {
		t.Fatalf("Expected %d records, got %d", len(tasks), len(merged))
	}

	matched := 0
	for _, r := range merged {
		if r.HasTour() {
			matched++
		}
	}
	if matched != 2 {
		t.Errorf("Expected 2 matched records, got %d", matched)
	}
	if merged[2].Tour != nil {
		t.Error("Expected unmatched task to keep a nil tour")
	}
	if tours[0].TaskCount != 2 {
		t.Errorf("Expected tour task count 2, got %d", tours[0].TaskCount)
	}
}

func TestMerge_AggregatesAndDurations(t *testing.T) {
	tour := newTour("T1", "2024-01-10", "W1", timecodec.FromClock(8, 0, 0))
	tour.PlannedWeight = 100

	a := newTask("T1", "2024-01-10", "W1")
	a.Weight, a.Items = 40, 2
	a.PredictedArrival = timecodec.FromClock(9, 0, 0)
	a.RealizedArrival = timecodec.FromClock(9, 10, 0)
	a.Closure = timecodec.FromClock(9, 20, 0)

	b := newTask("T1", "2024-01-10", "W1")
	b.Weight, b.Items = 100, 3
	b.PredictedArrival = timecodec.FromClock(11, 0, 0)
	b.RealizedArrival = timecodec.FromClock(11, 30, 0)
	b.Closure = timecodec.FromClock(11, 45, 0)

	// Stop order is intentionally reversed: durations follow time, not sequence.
	Merge([]*Tour{tour}, []*Task{b, a})

	if tour.RealizedWeight != 140 {
		t.Errorf("Expected realized weight 140, got %v", tour.RealizedWeight)
	}
	if tour.RealizedBins != 5 {
		t.Errorf("Expected realized bins 5, got %v", tour.RealizedBins)
	}
	if want := int(timecodec.FromClock(2, 35, 0)); tour.RealizedDuration != want {
		t.Errorf("Expected realized duration %d, got %d", want, tour.RealizedDuration)
	}
	if want := int(timecodec.FromClock(2, 0, 0)); tour.PlannedOperationalDuration != want {
		t.Errorf("Expected planned duration %d, got %d", want, tour.PlannedOperationalDuration)
	}
	if tour.DurationEcart() != int(timecodec.FromClock(0, 35, 0)) {
		t.Errorf("Unexpected duration ecart %d", tour.DurationEcart())
	}
}

func TestMerge_TourWithoutTasksHasZeroDurations(t *testing.T) {
	tour := newTour("T1", "2024-01-10", "W1", timecodec.FromClock(8, 0, 0))
	tour.RealizedDuration = 999
	Merge([]*Tour{tour}, nil)

	if tour.RealizedDuration != 0 || tour.PlannedOperationalDuration != 0 {
		t.Errorf("Expected zero durations, got %d / %d", tour.RealizedDuration, tour.PlannedOperationalDuration)
	}
}

func TestMerge_OvernightRollover(t *testing.T) {
	tour := newTour("N1", "2024-01-10", "W1", timecodec.FromClock(21, 0, 0))
	task := newTask("N1", "2024-01-10", "W1")
	task.RealizedArrival = timecodec.FromClock(0, 40, 0)
	task.Closure = timecodec.FromClock(0, 50, 0)

	Merge([]*Tour{tour}, []*Task{task})
	if task.Closure != timecodec.FromClock(24, 50, 0) {
		t.Errorf("Expected closure rolled to 24:50, got %v", task.Closure)
	}
	if task.RealizedArrival != timecodec.FromClock(24, 40, 0) {
		t.Errorf("Expected arrival rolled to 24:40, got %v", task.RealizedArrival)
	}

	// Merging again must not add another day.
	Merge([]*Tour{tour}, []*Task{task})
	if task.Closure != timecodec.FromClock(24, 50, 0) {
		t.Errorf("Expected rollover to be idempotent, got %v", task.Closure)
	}
}

func TestMerge_OvernightDurations(t *testing.T) {
	tour := newTour("N1", "2024-01-10", "W1", timecodec.FromClock(22, 0, 0))
	a := newTask("N1", "2024-01-10", "W1")
	a.PredictedArrival = timecodec.FromClock(23, 0, 0)
	a.RealizedArrival = timecodec.FromClock(23, 5, 0)
	a.Closure = timecodec.FromClock(23, 15, 0)
	b := newTask("N1", "2024-01-10", "W1")
	b.PredictedArrival = timecodec.FromClock(0, 30, 0)
	b.RealizedArrival = timecodec.FromClock(0, 40, 0)
	b.Closure = timecodec.FromClock(0, 50, 0)

	Merge([]*Tour{tour}, []*Task{a, b})
	if b.PredictedArrival != timecodec.FromClock(24, 30, 0) {
		t.Errorf("Expected predicted arrival rolled to 24:30, got %v", b.PredictedArrival)
	}
	if a.PredictedArrival != timecodec.FromClock(23, 0, 0) {
		t.Errorf("Expected predicted arrival before midnight unchanged, got %v", a.PredictedArrival)
	}
	if want := int(timecodec.FromClock(1, 30, 0)); tour.PlannedOperationalDuration != want {
		t.Errorf("Expected planned duration %d, got %d", want, tour.PlannedOperationalDuration)
	}
	if want := int(timecodec.FromClock(1, 45, 0)); tour.RealizedDuration != want {
		t.Errorf("Expected realized duration %d, got %d", want, tour.RealizedDuration)
	}
	if want := int(timecodec.FromClock(0, 15, 0)); tour.DurationEcart() != want {
		t.Errorf("Expected duration ecart %d, got %d", want, tour.DurationEcart())
	}

	Merge([]*Tour{tour}, []*Task{a, b})
	if want := int(timecodec.FromClock(1, 30, 0)); tour.PlannedOperationalDuration != want {
		t.Errorf("Expected planned duration %d after a second merge, got %d", want, tour.PlannedOperationalDuration)
	}
}

func TestMerge_OvernightDerivedRetard(t *testing.T) {
	tests := []struct {
		name     string
		arrival  timecodec.TimeOfDay
		closure  timecodec.TimeOfDay
		expected int
	}{
		{"InsideSlot", timecodec.FromClock(0, 45, 0), timecodec.FromClock(0, 55, 0), 0},
		{"AfterSlot", timecodec.FromClock(1, 40, 0), timecodec.FromClock(1, 50, 0), 600},
		{"MissingClosure", timecodec.FromClock(1, 40, 0), 0, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tour := newTour("N1", "2024-01-10", "W1", timecodec.FromClock(22, 0, 0))
			task := newTask("N1", "2024-01-10", "W1")
			task.RetardDerived = true
			task.SlotStart = timecodec.FromClock(0, 30, 0)
			task.SlotEnd = timecodec.FromClock(1, 30, 0)
			task.RealizedArrival = tt.arrival
			task.Closure = tt.closure

			Merge([]*Tour{tour}, []*Task{task})
			if task.Retard != tt.expected {
				t.Errorf("Expected derived retard %d, got %d", tt.expected, task.Retard)
			}
			if task.SlotStart != timecodec.FromClock(24, 30, 0) || task.SlotEnd != timecodec.FromClock(25, 30, 0) {
				t.Errorf("Expected slot rolled to 24:30-25:30, got %v-%v", task.SlotStart, task.SlotEnd)
			}
		})
	}
}

func TestMerge_DerivedRetard(t *testing.T) {
	task := newTask("T1", "2024-01-10", "W1")
	task.RetardDerived = true
	task.SlotStart = timecodec.FromClock(10, 0, 0)
	task.SlotEnd = timecodec.FromClock(11, 0, 0)
	task.RealizedArrival = timecodec.FromClock(11, 20, 0)

	early := newTask("T1", "2024-01-10", "W1")
	early.RetardDerived = true
	early.SlotStart = timecodec.FromClock(10, 0, 0)
	early.SlotEnd = timecodec.FromClock(11, 0, 0)
	early.RealizedArrival = timecodec.FromClock(9, 50, 0)

	Merge(nil, []*Task{task, early})
	if task.Retard != 1200 {
		t.Errorf("Expected derived retard 1200, got %d", task.Retard)
	}
	if early.Retard != -600 {
		t.Errorf("Expected derived retard -600, got %d", early.Retard)
	}
}

func TestBuildTours_StartFallbackAndShadow(t *testing.T) {
	grid := schema.Grid{
		{"Nom", "Date", "Entrepôt", "Départ prévu", "Démarrée", "Départ réel"},
		{"T1", "2024-01-10", "W1", "07:00", "07:10", "07:20"},
		{"T2", "2024-01-10", "W1", "07:00", "07:10", ""},
		{"T3", "2024-01-10", "W1", "07:00", "", ""},
		{"R4", "2024-01-10", "W1", "07:00", "", ""},
	}
	sheet, err := schema.Normalize(grid, schema.Tours)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tours, shadow := BuildTours(sheet)
	if shadow != 1 || len(tours) != 3 {
		t.Fatalf("Expected 3 tours and 1 shadow, got %d and %d", len(tours), shadow)
	}
	expected := []timecodec.TimeOfDay{
		timecodec.FromClock(7, 20, 0),
		timecodec.FromClock(7, 10, 0),
		timecodec.FromClock(7, 0, 0),
	}
	for i, tour := range tours {
		if tour.StartTime != expected[i] {
			t.Errorf("%s: expected start %v, got %v", tour.Name, expected[i], tour.StartTime)
		}
	}
	if tours[0].Key != "T1|2024-01-10|W1" {
		t.Errorf("Unexpected key %q", tours[0].Key)
	}
}

func TestDepotOf(t *testing.T) {
	if got := DepotOf("  Lyon Nord 2"); got != "Lyon" {
		t.Errorf("Expected Lyon, got %q", got)
	}
	if got := DepotOf(""); got != "" {
		t.Errorf("Expected empty depot, got %q", got)
	}
}
