package stats

import (
	"testing"

	"tourstats/internal/records"
	"tourstats/internal/timecodec"
)

func TestClassifyDelay(t *testing.T) {
	tests := []struct {
		name      string
		delay     int
		tolerance int
		expected  records.DelayStatus
	}{
		{"LateBeyondDefault", 1000, 959, records.Late},
		{"BoundaryIsOnTime", 1000, 1000, records.OnTime},
		{"NegativeBoundaryIsOnTime", -1000, 1000, records.OnTime},
		{"Early", -1001, 1000, records.Early},
		{"ZeroTolerance", 1, 0, records.Late},
		{"ZeroDelay", 0, 0, records.OnTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyDelay(tt.delay, tt.tolerance); got != tt.expected {
				t.Errorf("ClassifyDelay(%d, %d) = %s, want %s", tt.delay, tt.tolerance, got, tt.expected)
			}
		})
	}
}

func TestClassifyDelay_ExactlyOneStatus(t *testing.T) {
	for tol := 0; tol <= 1200; tol += 300 {
		for d := -4000; d <= 4000; d += 50 {
			got := ClassifyDelay(d, tol)
			abs := d
			if abs < 0 {
				abs = -abs
			}
			if abs == tol && got != records.OnTime {
				t.Fatalf("|d| == T must be on time (d=%d, T=%d), got %s", d, tol, got)
			}
			if got != records.Late && got != records.Early && got != records.OnTime {
				t.Fatalf("Unexpected status %q", got)
			}
		}
	}
}

func TestPredictedDelay(t *testing.T) {
	slot := func(pred timecodec.TimeOfDay) *records.Task {
		return &records.Task{
			SlotStart:        timecodec.FromClock(10, 0, 0),
			SlotEnd:          timecodec.FromClock(11, 0, 0),
			PredictedArrival: pred,
		}
	}

	if got := PredictedDelay(slot(timecodec.FromClock(10, 30, 0))); got != 0 {
		t.Errorf("Expected 0 inside slot, got %d", got)
	}
	if got := PredictedDelay(slot(timecodec.FromClock(11, 0, 0))); got != 0 {
		t.Errorf("Expected 0 on slot end, got %d", got)
	}
	if got := PredictedDelay(slot(timecodec.FromClock(11, 20, 0))); got != 1200 {
		t.Errorf("Expected 1200 after slot, got %d", got)
	}
	if got := PredictedDelay(slot(timecodec.FromClock(9, 40, 0))); got != -1200 {
		t.Errorf("Expected -1200 before slot, got %d", got)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	recs := []records.MergedRecord{
		{Task: &records.Task{Retard: 1000}},
		{Task: &records.Task{Retard: -2000}},
		{Task: &records.Task{Retard: 10}},
	}

	once := Classify(recs, DefaultTolerance)
	twice := Classify(once, DefaultTolerance)

	for i := range once {
		if once[i].DelayStatus != twice[i].DelayStatus || once[i].PredictedDelayStatus != twice[i].PredictedDelayStatus {
			t.Errorf("Record %d changed on re-classification", i)
		}
	}
	if once[0].DelayStatus != records.Late || once[1].DelayStatus != records.Early || once[2].DelayStatus != records.OnTime {
		t.Errorf("Unexpected statuses: %s %s %s", once[0].DelayStatus, once[1].DelayStatus, once[2].DelayStatus)
	}
	if recs[0].DelayStatus != "" {
		t.Error("Expected input records to stay untouched")
	}

	relaxed := Classify(once, 1000)
	if relaxed[0].DelayStatus != records.OnTime {
		t.Errorf("Expected re-classification with T=1000 to overwrite to onTime, got %s", relaxed[0].DelayStatus)
	}
}

func TestPunctualityRate_EmptyIsHundred(t *testing.T) {
	if got := PunctualityRate(0, 0); got != 100 {
		t.Errorf("Expected 100 with no data, got %v", got)
	}
	if got := PunctualityRate(2, 3); got != 66.7 {
		t.Errorf("Expected 66.7, got %v", got)
	}
}
