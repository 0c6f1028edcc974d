package stats

import (
	"cmp"
	"slices"

	"tourstats/internal/records"
)

// UnassignedDriver labels tours without a driver.
const UnassignedDriver = "unassigned"

// DriverPerformance summarizes one driver over the filtered tours.
type DriverPerformance struct {
	Driver              string   `json:"driver"`
	Tours               int      `json:"tours"`
	Tasks               int      `json:"tasks"`
	OnTime              int      `json:"onTime"`
	Late                int      `json:"late"`
	Early               int      `json:"early"`
	PunctualityRate     float64  `json:"punctualityRate"`
	AvgLateDelayMinutes *float64 `json:"avgLateDelayMinutes,omitempty"`
	CapacityOverruns    int      `json:"capacityOverruns"`
	RatedTasks          int      `json:"ratedTasks"`
	AvgRating           *float64 `json:"avgRating,omitempty"`
}

type driverAcc struct {
	counter   punctualityCounter
	tours     map[*records.Tour]bool
	ratingSum int
	rated     int
}

// PerformanceByDriver groups matched, classified records by tour driver.
// Capacity overruns use the planned-weight rule.
func PerformanceByDriver(recs []records.MergedRecord) []DriverPerformance {
	groups := make(map[string]*driverAcc)
	for _, r := range recs {
		if !r.HasTour() {
			continue
		}
		name := r.Tour.DriverName()
		if name == "" {
			name = UnassignedDriver
		}
		acc, ok := groups[name]
		if !ok {
			acc = &driverAcc{tours: make(map[*records.Tour]bool)}
			groups[name] = acc
		}
		acc.counter.add(r)
		acc.tours[r.Tour] = true
		if r.Task.Rating != nil {
			acc.ratingSum += *r.Task.Rating
			acc.rated++
		}
	}

	out := make([]DriverPerformance, 0, len(groups))
	for name, acc := range groups {
		p := DriverPerformance{
			Driver:              name,
			Tours:               len(acc.tours),
			Tasks:               acc.counter.total,
			OnTime:              acc.counter.onTime,
			Late:                acc.counter.late,
			Early:               acc.counter.early,
			PunctualityRate:     acc.counter.rate(),
			AvgLateDelayMinutes: acc.counter.avgLateMinutes(),
			RatedTasks:          acc.rated,
		}
		for t := range acc.tours {
			if IsCapacityOverrun(t, CapacityRulePlanned) {
				p.CapacityOverruns++
			}
		}
		if acc.rated > 0 {
			avg := round1(float64(acc.ratingSum) / float64(acc.rated))
			p.AvgRating = &avg
		}
		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b DriverPerformance) int {
		if c := cmp.Compare(a.PunctualityRate, b.PunctualityRate); c != 0 {
			return c
		}
		return cmp.Compare(a.Driver, b.Driver)
	})
	return out
}
