package simulation

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"tourstats/internal/records"
	"tourstats/internal/timecodec"
)

const (
	// MinutesPerDay is the length of every minute curve.
	MinutesPerDay = 1440
	// WindowStep is the spacing between flexible window starts.
	WindowStep = 30 * time.Minute
	// WindowSpan is the length of a flexible window.
	WindowSpan = 2 * time.Hour
	// LastWindowStart is the latest window start (21:30).
	LastWindowStart = timecodec.TimeOfDay(21*3600 + 1800)
)

// Window is one simulated flexible delivery window.
type Window struct {
	Label        string              `json:"label"`
	Start        timecodec.TimeOfDay `json:"start"`
	End          timecodec.TimeOfDay `json:"end"`
	Interpolated float64             `json:"interpolated"`
	Count        float64             `json:"count"`
}

// DemandResult holds the simulated windows and minute-resolution curves.
type DemandResult struct {
	TotalOrders           int       `json:"totalOrders"`
	HourlyDistribution    []float64 `json:"hourlyDistribution"`
	Windows               []Window  `json:"windows"`
	PlanOffsetMinutes     int       `json:"planOffsetMinutes"`
	RealizedOffsetMinutes int       `json:"realizedOffsetMinutes"`
	LateProbability       float64   `json:"lateProbability"`

	Promise      []float64 `json:"promise"`
	Plan         []float64 `json:"plan"`
	Realized     []float64 `json:"realized"`
	RealizedLate []float64 `json:"realizedLate"`

	ObservedPredicted []int `json:"observedPredicted"`
	ObservedClosure   []int `json:"observedClosure"`

	Warnings []string `json:"warnings,omitempty"`
}

// WindowTotal sums the renormalized window counts.
func (r *DemandResult) WindowTotal() float64 {
	var sum float64
	for _, w := range r.Windows {
		sum += w.Count
	}
	return sum
}

// DemandEngine redistributes realized volume over overlapping windows.
// Only the late marking draws from the random source.
type DemandEngine struct {
	rng *rand.Rand
}

// NewDemandEngine uses rng for late marking; nil means a time-seeded source.
func NewDemandEngine(rng *rand.Rand) *DemandEngine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DemandEngine{rng: rng}
}

// SetSeed makes subsequent runs reproducible.
func (e *DemandEngine) SetSeed(seed int64) {
	e.rng = rand.New(rand.NewSource(seed))
}

// Run expects records already classified against the active tolerance.
func (e *DemandEngine) Run(recs []records.MergedRecord) *DemandResult {
	h := NewHistogram(recs)
	res := &DemandResult{
		TotalOrders:        h.Total,
		HourlyDistribution: h.Counts,
		Promise:            make([]float64, MinutesPerDay),
		Plan:               make([]float64, MinutesPerDay),
		Realized:           make([]float64, MinutesPerDay),
		RealizedLate:       make([]float64, MinutesPerDay),
		ObservedPredicted:  make([]int, MinutesPerDay),
		ObservedClosure:    make([]int, MinutesPerDay),
	}
	observe(res, recs)
	if h.Clamped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d stop(s) with a slot start outside %02d:00-%02d:59 were counted at the nearest edge hour.", h.Clamped, FirstHour, LastHour))
	}
	if h.MissingSlot > 0 && h.Total > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d stop(s) without a slot start are left out of the distribution.", h.MissingSlot))
	}

	if h.Total == 0 {
		res.Windows = make([]Window, 0)
		res.Warnings = append(res.Warnings, "No stop carries a slot start; the demand distribution is empty.")
		return res
	}

	res.Windows = interpolate(h)
	planOff, realOff := offsets(recs)
	res.PlanOffsetMinutes = planOff
	res.RealizedOffsetMinutes = realOff
	res.LateProbability = lateProbability(recs)

	spanMinutes := int(WindowSpan / time.Minute)
	for _, w := range res.Windows {
		perMinute := w.Count / float64(spanMinutes)
		if perMinute == 0 {
			continue
		}
		first := w.Start.MinuteOfDay()
		for m := first; m < first+spanMinutes; m++ {
			res.Promise[wrapMinute(m)] += perMinute
			res.Plan[wrapMinute(m+planOff)] += perMinute
			idx := wrapMinute(m + planOff + realOff)
			res.Realized[idx] += perMinute
			if e.rng.Float64() < res.LateProbability {
				res.RealizedLate[idx] += perMinute
			}
		}
	}
	return res
}

// interpolate builds the window grid and rescales it to the histogram total.
func interpolate(h *Histogram) []Window {
	step := timecodec.TimeOfDay(WindowStep / time.Second)
	span := timecodec.TimeOfDay(WindowSpan / time.Second)

	windows := make([]Window, 0)
	var sum float64
	for start := timecodec.FromClock(FirstHour, 0, 0); start <= LastWindowStart; start += step {
		hour := start.Hour()
		frac := float64(start.Minute()) / 60.0
		next := min(hour+1, LastHour)
		v := h.At(hour)*(1-frac) + h.At(next)*frac
		sum += v
		windows = append(windows, Window{
			Label:        start.String()[:5] + "-" + (start + span).String()[:5],
			Start:        start,
			End:          start + span,
			Interpolated: v,
		})
	}

	if sum == 0 {
		return windows
	}
	scale := float64(h.Total) / sum
	for i := range windows {
		windows[i].Count = windows[i].Interpolated * scale
	}
	return windows
}

// offsets returns mean(predicted - slot start) and mean(closure - predicted)
// in whole minutes, over stops where both ends are known. Each difference is
// taken the short way round midnight.
func offsets(recs []records.MergedRecord) (plan, realized int) {
	var planSum, realSum float64
	var planN, realN int
	for _, r := range recs {
		t := r.Task
		if !t.PredictedArrival.IsZero() && !t.SlotStart.IsZero() {
			planSum += float64(timecodec.Elapsed(t.SlotStart, t.PredictedArrival))
			planN++
		}
		if !t.Closure.IsZero() && !t.PredictedArrival.IsZero() {
			realSum += float64(timecodec.Elapsed(t.PredictedArrival, t.Closure))
			realN++
		}
	}
	if planN > 0 {
		plan = int(math.Round(planSum / float64(planN) / 60))
	}
	if realN > 0 {
		realized = int(math.Round(realSum / float64(realN) / 60))
	}
	return plan, realized
}

func lateProbability(recs []records.MergedRecord) float64 {
	if len(recs) == 0 {
		return 0
	}
	late := 0
	for _, r := range recs {
		if r.DelayStatus == records.Late {
			late++
		}
	}
	return float64(late) / float64(len(recs))
}

func observe(res *DemandResult, recs []records.MergedRecord) {
	for _, r := range recs {
		if p := r.Task.PredictedArrival; !p.IsZero() {
			res.ObservedPredicted[p.MinuteOfDay()]++
		}
		if c := r.Task.Closure; !c.IsZero() {
			res.ObservedClosure[c.MinuteOfDay()]++
		}
	}
}

// wrapMinute folds a shifted minute onto the day, so weight pushed past
// midnight lands in the early hours as overnight deliveries do.
func wrapMinute(m int) int {
	return ((m % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
}
