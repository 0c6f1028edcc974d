package stats

import (
	"cmp"
	"math"
	"slices"

	"tourstats/internal/records"
)

// Signal types raised by the process behavior chart.
const (
	SignalOutlier = "outlier"
	SignalShift   = "shift"
)

// Stability statuses.
const (
	StabilityStable    = "stable"
	StabilityVolatile  = "volatile"
	StabilityMigrating = "migrating"
)

// shiftRun is the number of consecutive points on one side of the average
// that signals a shift.
const shiftRun = 8

// XmRResult is an Individuals and Moving Range chart.
type XmRResult struct {
	Average     float64   `json:"average"`
	AmR         float64   `json:"averageMovingRange"`
	UNPL        float64   `json:"upperNaturalProcessLimit"`
	LNPL        float64   `json:"lowerNaturalProcessLimit"`
	Values      []float64 `json:"values"`
	MovingRange []float64 `json:"movingRanges"`
	Signals     []Signal  `json:"signals"`
}

// Signal is one special-cause point.
type Signal struct {
	Index       int    `json:"index"`
	Key         string `json:"key"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// CalculateXmR computes natural process limits with Wheeler's 2.66 scaling
// constant and binds keys to signals. The lower limit is floored at zero.
func CalculateXmR(values []float64, keys []string) XmRResult {
	if len(values) == 0 {
		return XmRResult{Values: []float64{}, Signals: []Signal{}}
	}
	result := XmRResult{Values: values}

	var sum float64
	for _, v := range values {
		sum += v
	}
	result.Average = sum / float64(len(values))

	if len(values) > 1 {
		var mrSum float64
		result.MovingRange = make([]float64, len(values)-1)
		for i := 0; i < len(values)-1; i++ {
			mr := math.Abs(values[i+1] - values[i])
			result.MovingRange[i] = mr
			mrSum += mr
		}
		result.AmR = mrSum / float64(len(values)-1)
	}

	result.UNPL = result.Average + 2.66*result.AmR
	result.LNPL = math.Max(0, result.Average-2.66*result.AmR)
	result.Signals = detectSignals(values, result.Average, result.UNPL, result.LNPL, keys)
	return result
}

// DailyPoint is the punctuality of one delivery date.
type DailyPoint struct {
	Date            string  `json:"date"`
	Tasks           int     `json:"tasks"`
	PunctualityRate float64 `json:"punctualityRate"`
}

// StabilityResult is the process behavior view of daily punctuality.
type StabilityResult struct {
	Days   []DailyPoint `json:"days"`
	XmR    XmRResult    `json:"xmr"`
	Status string       `json:"status"`
}

// DailyStability charts realized punctuality per delivery date, oldest first.
// A shift marks the process as migrating; outliers alone as volatile. Records
// without a date are left out.
func DailyStability(recs []records.MergedRecord) StabilityResult {
	counters := make(map[string]*punctualityCounter)
	for _, r := range recs {
		date := r.Task.Date
		if date == "" {
			continue
		}
		c, ok := counters[date]
		if !ok {
			c = &punctualityCounter{}
			counters[date] = c
		}
		c.add(r)
	}

	days := make([]DailyPoint, 0, len(counters))
	for date, c := range counters {
		days = append(days, DailyPoint{Date: date, Tasks: c.total, PunctualityRate: c.rate()})
	}
	slices.SortFunc(days, func(a, b DailyPoint) int { return cmp.Compare(a.Date, b.Date) })

	values := make([]float64, len(days))
	keys := make([]string, len(days))
	for i, d := range days {
		values[i] = d.PunctualityRate
		keys[i] = d.Date
	}
	xmr := CalculateXmR(values, keys)
	xmr.UNPL = math.Min(100, xmr.UNPL)

	status := StabilityStable
	for _, s := range xmr.Signals {
		if s.Type == SignalShift {
			status = StabilityMigrating
			break
		}
		status = StabilityVolatile
	}
	return StabilityResult{Days: days, XmR: xmr, Status: status}
}

func detectSignals(values []float64, avg, unpl, lnpl float64, keys []string) []Signal {
	signals := make([]Signal, 0)
	keyAt := func(i int) string {
		if i < len(keys) {
			return keys[i]
		}
		return ""
	}

	for i, v := range values {
		switch {
		case v > unpl:
			signals = append(signals, Signal{Index: i, Key: keyAt(i), Type: SignalOutlier,
				Description: "Point above the upper natural process limit"})
		case v < lnpl:
			signals = append(signals, Signal{Index: i, Key: keyAt(i), Type: SignalOutlier,
				Description: "Point below the lower natural process limit"})
		}
	}

	if len(values) < shiftRun {
		return signals
	}
	side, count := 0, 0
	for i, v := range values {
		current := 0
		if v > avg {
			current = 1
		} else if v < avg {
			current = -1
		}
		if current == side && current != 0 {
			count++
		} else {
			side = current
			count = 1
		}
		if count == shiftRun {
			signals = append(signals, Signal{Index: i, Key: keyAt(i), Type: SignalShift,
				Description: "8 consecutive days on one side of the average"})
		}
	}
	return signals
}
