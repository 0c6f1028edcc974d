package stats

import (
	"tourstats/internal/records"
)

// KPI is a single named indicator.
type KPI struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// ComparisonKPI pairs a planned and realized value.
type ComparisonKPI struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Planned  float64 `json:"planned"`
	Realized float64 `json:"realized"`
	Delta    float64 `json:"delta"`
	DeltaPct float64 `json:"deltaPct"`
	Unit     string  `json:"unit,omitempty"`
}

// AnomalyCounts feeds the anomaly part of the KPI battery.
type AnomalyCounts struct {
	CapacityOverruns int
	DurationOverruns int
	LateStarts       int
}

// ComputeKPIs builds the indicator battery over classified records. Averages
// with no contributing stop are omitted rather than reported as zero.
func ComputeKPIs(tours []*records.Tour, recs []records.MergedRecord, anomalies AnomalyCounts) []KPI {
	var counter punctualityCounter
	matched, completed, rated, ratingSum := 0, 0, 0, 0
	lateDelays := make([]float64, 0)
	for _, r := range recs {
		counter.add(r)
		if r.HasTour() {
			matched++
		}
		if r.Task.IsCompleted() {
			completed++
		}
		if r.Task.Rating != nil {
			rated++
			ratingSum += *r.Task.Rating
		}
		if r.DelayStatus == records.Late {
			lateDelays = append(lateDelays, float64(r.Task.Retard)/60.0)
		}
	}

	total := float64(len(recs))
	kpis := []KPI{
		{ID: "totalTours", Label: "Tours", Value: float64(len(tours))},
		{ID: "totalTasks", Label: "Stops", Value: total},
		{ID: "matchedTasks", Label: "Stops matched to a tour", Value: float64(matched)},
		{ID: "unmatchedTasks", Label: "Stops without a tour", Value: float64(len(recs) - matched)},
		{ID: "completionRate", Label: "Completed stops", Value: Percent(float64(completed), total), Unit: "%"},
		{ID: "punctualityRate", Label: "Realized punctuality", Value: counter.rate(), Unit: "%"},
		{ID: "plannedPunctualityRate", Label: "Planned punctuality", Value: counter.plannedRate(), Unit: "%"},
		{ID: "lateTasks", Label: "Late stops", Value: float64(counter.late)},
		{ID: "earlyTasks", Label: "Early stops", Value: float64(counter.early)},
	}
	if avg := counter.avgLateMinutes(); avg != nil {
		kpis = append(kpis,
			KPI{ID: "avgLateDelay", Label: "Mean delay of late stops", Value: *avg, Unit: "min"},
			KPI{ID: "medianLateDelay", Label: "Median delay of late stops", Value: round1(Median(lateDelays)), Unit: "min"},
		)
	}
	if rated > 0 {
		kpis = append(kpis, KPI{ID: "avgRating", Label: "Mean customer rating", Value: round1(float64(ratingSum) / float64(rated)), Unit: "/5"})
	}
	kpis = append(kpis,
		KPI{ID: "ratedShare", Label: "Rated stops", Value: Percent(float64(rated), total), Unit: "%"},
		KPI{ID: "capacityOverruns", Label: "Tours over capacity", Value: float64(anomalies.CapacityOverruns)},
		KPI{ID: "durationOverruns", Label: "Tours running long", Value: float64(anomalies.DurationOverruns)},
		KPI{ID: "lateStarts", Label: "On-time departures with late stops", Value: float64(anomalies.LateStarts)},
	)
	return kpis
}

// ComputeComparisons sums planned and realized tour metrics over tours with
// at least one matched stop.
func ComputeComparisons(tours []*records.Tour) []ComparisonKPI {
	var plannedW, realizedW, plannedB, realizedB, plannedD, realizedD float64
	var plannedDur, realizedDur float64
	for _, t := range tours {
		if t.TaskCount == 0 {
			continue
		}
		plannedW += t.PlannedWeight
		realizedW += t.RealizedWeight
		plannedB += t.PlannedBins
		realizedB += t.RealizedBins
		plannedD += t.PlannedDistance
		realizedD += t.RealizedDistance
		plannedDur += float64(t.PlannedOperationalDuration)
		realizedDur += float64(t.RealizedDuration)
	}
	return []ComparisonKPI{
		compare("weight", "Weight", plannedW, realizedW, "kg"),
		compare("bins", "Bins", plannedB, realizedB, ""),
		compare("distance", "Distance", plannedD, realizedD, "km"),
		compare("duration", "Operational duration", plannedDur, realizedDur, "s"),
	}
}

func compare(id, label string, planned, realized float64, unit string) ComparisonKPI {
	return ComparisonKPI{
		ID:       id,
		Label:    label,
		Planned:  round1(planned),
		Realized: round1(realized),
		Delta:    round1(realized - planned),
		DeltaPct: Percent(realized-planned, planned),
		Unit:     unit,
	}
}
