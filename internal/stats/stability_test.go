package stats

import (
	"math"
	"testing"

	"tourstats/internal/records"
)

func TestCalculateXmR(t *testing.T) {
	values := []float64{10, 12, 11, 13, 11}
	result := CalculateXmR(values, nil)

	if math.Abs(result.Average-11.4) > 0.001 {
		t.Errorf("Expected average 11.4, got %v", result.Average)
	}
	if math.Abs(result.AmR-1.75) > 0.001 {
		t.Errorf("Expected AmR 1.75, got %v", result.AmR)
	}
	if math.Abs(result.UNPL-16.055) > 0.001 {
		t.Errorf("Expected UNPL 16.055, got %v", result.UNPL)
	}
	if len(result.Signals) != 0 {
		t.Errorf("Expected 0 signals, got %v", len(result.Signals))
	}

	empty := CalculateXmR(nil, nil)
	if empty.Values == nil || empty.Signals == nil {
		t.Error("Expected empty, non-nil slices for no data")
	}
}

func TestXmRSignals(t *testing.T) {
	values := []float64{10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 100}
	keys := []string{"d0", "d1", "d2", "d3", "d4", "d5", "d6", "d7", "d8", "d9", "d10"}
	result := CalculateXmR(values, keys)
	found := false
	for _, s := range result.Signals {
		if s.Type == SignalOutlier && s.Index == 10 && s.Key == "d10" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected outlier at index 10 not found. UNPL was %v", result.UNPL)
	}

	values = []float64{10, 10, 10, 10, 10, 10, 10, 10, 2, 2, 2, 2, 2, 2, 2, 2}
	result = CalculateXmR(values, nil)
	shifts := 0
	for _, s := range result.Signals {
		if s.Type == SignalShift {
			shifts++
		}
	}
	if shifts != 2 {
		t.Errorf("Expected 2 shift signals (index 7 and 15), got %d", shifts)
	}
}

func TestXmRBenchmark(t *testing.T) {
	values := []float64{22433, 22612, 22660, 22380, 22545, 22903, 22843, 22595, 22078, 21942}
	result := CalculateXmR(values, nil)

	if math.Abs(result.Average-22499.1) > 1.0 {
		t.Errorf("Expected average 22499.1, got %v", result.Average)
	}
	if math.Abs(result.AmR-220.77) > 1.0 {
		t.Errorf("Expected AmR ~220.8, got %v", result.AmR)
	}
	if want := result.Average + 2.66*result.AmR; math.Abs(result.UNPL-want) > 0.001 {
		t.Errorf("Expected UNPL %v, got %v", want, result.UNPL)
	}
}

func dayRecords(date string, onTime, late int) []records.MergedRecord {
	var out []records.MergedRecord
	for i := 0; i < onTime+late; i++ {
		status := records.OnTime
		if i >= onTime {
			status = records.Late
		}
		out = append(out, records.MergedRecord{Task: &records.Task{Date: date}, DelayStatus: status})
	}
	return out
}

func TestDailyStability(t *testing.T) {
	var recs []records.MergedRecord
	recs = append(recs, dayRecords("2024-01-11", 1, 1)...)
	recs = append(recs, dayRecords("2024-01-10", 2, 0)...)
	recs = append(recs, dayRecords("", 0, 3)...)

	res := DailyStability(recs)
	if len(res.Days) != 2 {
		t.Fatalf("Expected 2 dated days, got %d", len(res.Days))
	}
	if res.Days[0].Date != "2024-01-10" || res.Days[0].PunctualityRate != 100 || res.Days[1].PunctualityRate != 50 {
		t.Errorf("Unexpected days: %+v", res.Days)
	}
	if res.XmR.UNPL != 100 {
		t.Errorf("Expected UNPL capped at 100, got %v", res.XmR.UNPL)
	}
	if res.Status != StabilityStable {
		t.Errorf("Expected stable, got %s", res.Status)
	}
}

func TestDailyStability_Volatile(t *testing.T) {
	var recs []records.MergedRecord
	rates := []int{9, 10, 9, 10, 9, 10, 2}
	for i, onTime := range rates {
		date := "2024-01-1" + string(rune('0'+i))
		recs = append(recs, dayRecords(date, onTime, 10-onTime)...)
	}
	res := DailyStability(recs)
	if res.Status != StabilityVolatile {
		t.Fatalf("Expected volatile, got %s (signals %+v)", res.Status, res.XmR.Signals)
	}
	if sig := res.XmR.Signals[0]; sig.Key != "2024-01-16" {
		t.Errorf("Expected the outlier on 2024-01-16, got %s", sig.Key)
	}
}
