package stats

import (
	"math"

	"tourstats/internal/records"
)

// DefaultTolerance is the punctuality window in seconds (about 16 minutes).
const DefaultTolerance = 959

// ClassifyDelay maps a signed delay onto late/early/onTime. |delay| == tolerance is on time.
func ClassifyDelay(delay, tolerance int) records.DelayStatus {
	switch {
	case delay > tolerance:
		return records.Late
	case delay < -tolerance:
		return records.Early
	}
	return records.OnTime
}

// PredictedDelay is zero when the predicted arrival sits inside the slot,
// otherwise the signed distance to the nearer slot boundary.
func PredictedDelay(task *records.Task) int {
	if task.PredictedArrival.IsZero() {
		return 0
	}
	return records.SlotDistance(task.PredictedArrival, task.SlotStart, task.SlotEnd)
}

// Classify returns a copy of the records annotated with realized and predicted
// punctuality. It is total and idempotent for a given tolerance.
func Classify(recs []records.MergedRecord, tolerance int) []records.MergedRecord {
	out := make([]records.MergedRecord, len(recs))
	for i, r := range recs {
		r.DelayStatus = ClassifyDelay(r.Task.Retard, tolerance)
		r.PredictedRetard = PredictedDelay(r.Task)
		r.PredictedDelayStatus = ClassifyDelay(r.PredictedRetard, tolerance)
		out[i] = r
	}
	return out
}

// punctualityCounter accumulates realized and predicted statuses.
type punctualityCounter struct {
	total, onTime, late, early int
	plannedOnTime              int
	lateDelaySum               float64
}

func (c *punctualityCounter) add(r records.MergedRecord) {
	c.total++
	switch r.DelayStatus {
	case records.OnTime:
		c.onTime++
	case records.Late:
		c.late++
		c.lateDelaySum += float64(r.Task.Retard)
	case records.Early:
		c.early++
	}
	if r.PredictedDelayStatus == records.OnTime {
		c.plannedOnTime++
	}
}

func (c punctualityCounter) rate() float64 {
	return PunctualityRate(c.onTime, c.total)
}

func (c punctualityCounter) plannedRate() float64 {
	return PunctualityRate(c.plannedOnTime, c.total)
}

// avgLateMinutes is nil when nothing was late.
func (c punctualityCounter) avgLateMinutes() *float64 {
	if c.late == 0 {
		return nil
	}
	v := round1(c.lateDelaySum / float64(c.late) / 60.0)
	return &v
}

// PunctualityRate is the on-time share in percent; 100 with no data.
func PunctualityRate(onTime, total int) float64 {
	if total == 0 {
		return 100
	}
	return round1(float64(onTime) / float64(total) * 100)
}

// Percent returns part/whole in percent, 0 when whole is zero.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return round1(part / whole * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
