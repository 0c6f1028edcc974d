package stats

import (
	"fmt"

	"tourstats/internal/records"
	"tourstats/internal/timecodec"
)

// HourlyWorkload compares planned and realized arrivals for one hour of day.
type HourlyWorkload struct {
	Hour          int `json:"hour"`
	Planned       int `json:"planned"`  // by predicted-arrival hour
	Realized      int `json:"realized"` // by closure hour
	ActiveDrivers int `json:"activeDrivers"`
}

// SlotWorkload is the per-tour load inside a two-hour slot.
type SlotWorkload struct {
	Label               string  `json:"label"`
	StartHour           int     `json:"startHour"`
	EndHour             int     `json:"endHour"`
	PlannedTasks        int     `json:"plannedTasks"`
	RealizedTasks       int     `json:"realizedTasks"`
	PlannedActiveTours  int     `json:"plannedActiveTours"`
	RealizedActiveTours int     `json:"realizedActiveTours"`
	AvgPlannedPerTour   float64 `json:"avgPlannedPerTour"`
	AvgRealizedPerTour  float64 `json:"avgRealizedPerTour"`
}

// WorkloadResult holds hourly curves and two-hour slot loads.
type WorkloadResult struct {
	Hourly []HourlyWorkload `json:"hourly"`
	Slots  []SlotWorkload   `json:"slots"`
}

// WorkloadSlotHours is the width of a workload slot.
const WorkloadSlotHours = 2

type slotAcc struct {
	planned, realized           int
	plannedTours, realizedTours map[*records.Tour]bool
}

// Workload only considers matched records.
func Workload(recs []records.MergedRecord) WorkloadResult {
	var planned, realized [24]int
	var drivers [24]map[string]bool
	nSlots := 24 / WorkloadSlotHours
	slots := make([]slotAcc, nSlots)
	for i := range slots {
		slots[i] = slotAcc{plannedTours: map[*records.Tour]bool{}, realizedTours: map[*records.Tour]bool{}}
	}

	for _, r := range recs {
		if !r.HasTour() {
			continue
		}
		if p := r.Task.PredictedArrival; !p.IsZero() {
			h := p.Hour()
			planned[h]++
			s := &slots[h/WorkloadSlotHours]
			s.planned++
			s.plannedTours[r.Tour] = true
		}
		if c := r.Task.Closure; !c.IsZero() {
			h := c.Hour()
			realized[h]++
			if drivers[h] == nil {
				drivers[h] = make(map[string]bool)
			}
			drivers[h][driverIdentity(r.Tour)] = true
			s := &slots[h/WorkloadSlotHours]
			s.realized++
			s.realizedTours[r.Tour] = true
		}
	}

	res := WorkloadResult{
		Hourly: make([]HourlyWorkload, 24),
		Slots:  make([]SlotWorkload, nSlots),
	}
	for h := range 24 {
		res.Hourly[h] = HourlyWorkload{Hour: h, Planned: planned[h], Realized: realized[h], ActiveDrivers: len(drivers[h])}
	}
	for i, s := range slots {
		start := i * WorkloadSlotHours
		res.Slots[i] = SlotWorkload{
			Label:               fmt.Sprintf("%s-%s", timecodec.FromClock(start, 0, 0).String()[:5], timecodec.FromClock(start+WorkloadSlotHours, 0, 0).String()[:5]),
			StartHour:           start,
			EndHour:             start + WorkloadSlotHours,
			PlannedTasks:        s.planned,
			RealizedTasks:       s.realized,
			PlannedActiveTours:  len(s.plannedTours),
			RealizedActiveTours: len(s.realizedTours),
			AvgPlannedPerTour:   ratio(s.planned, len(s.plannedTours)),
			AvgRealizedPerTour:  ratio(s.realized, len(s.realizedTours)),
		}
	}
	return res
}

// driverIdentity falls back to the tour key so unassigned tours still count.
func driverIdentity(t *records.Tour) string {
	if name := t.DriverName(); name != "" {
		return name
	}
	return "tour:" + t.Key
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return round1(float64(n) / float64(d))
}
