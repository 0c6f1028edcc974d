package stats

import (
	"fmt"

	"tourstats/internal/records"
	"tourstats/internal/simulation"
)

// AnalysisResult is the full analytics output for one filter.
type AnalysisResult struct {
	Filter    Filter `json:"filter"`
	Tolerance int    `json:"tolerance"`
	Tours     int    `json:"tours"`
	Tasks     int    `json:"tasks"`

	KPIs        []KPI           `json:"kpis"`
	Comparisons []ComparisonKPI `json:"comparisons"`

	CapacityOverruns []CapacityOverrun  `json:"capacityOverruns"`
	DurationOverruns []DurationAnomaly  `json:"durationOverruns"`
	LateStarts       []LateStartAnomaly `json:"lateStarts"`

	ByDriver     []DriverPerformance `json:"byDriver"`
	ByCity       []GroupPerformance  `json:"byCity"`
	ByPostalCode []GroupPerformance  `json:"byPostalCode"`
	ByWarehouse  []GroupPerformance  `json:"byWarehouse"`
	ByDepot      []GroupPerformance  `json:"byDepot"`

	Temporal  TemporalResult  `json:"temporal"`
	Workload  WorkloadResult  `json:"workload"`
	Stability StabilityResult `json:"stability"`

	Demand *simulation.DemandResult `json:"demand,omitempty"`
}

// WithDemand returns a shallow copy carrying a simulator run.
func (r *AnalysisResult) WithDemand(d *simulation.DemandResult) *AnalysisResult {
	out := *r
	out.Demand = d
	return &out
}

// Prepare validates the filter, narrows the dataset and classifies the
// remaining records against the effective tolerance.
func Prepare(tours []*records.Tour, recs []records.MergedRecord, f Filter, defaultTolerance int) ([]*records.Tour, []records.MergedRecord, int, error) {
	if err := f.Validate(); err != nil {
		return nil, nil, 0, fmt.Errorf("invalid filter: %w", err)
	}
	tol := f.Tolerance(defaultTolerance)
	keptTours, keptRecs := ApplyFilter(tours, recs, f)
	return keptTours, Classify(keptRecs, tol), tol, nil
}

// Analyze runs every aggregator over the filtered dataset. It is pure: the
// inputs are not modified and equal inputs give equal results.
func Analyze(tours []*records.Tour, recs []records.MergedRecord, f Filter, defaultTolerance int) (*AnalysisResult, error) {
	keptTours, classified, tol, err := Prepare(tours, recs, f, defaultTolerance)
	if err != nil {
		return nil, err
	}

	res := &AnalysisResult{
		Filter:           f,
		Tolerance:        tol,
		Tours:            len(keptTours),
		Tasks:            len(classified),
		CapacityOverruns: DetectCapacityOverruns(keptTours, CapacityRuleHard),
		DurationOverruns: DetectDurationDiscrepancies(keptTours, true),
		LateStarts:       DetectLateStarts(keptTours, classified),
		ByDriver:         PerformanceByDriver(classified),
		ByCity:           PerformanceByGroup(classified, DimensionCity),
		ByPostalCode:     PerformanceByGroup(classified, DimensionPostalCode),
		ByWarehouse:      PerformanceByGroup(classified, DimensionWarehouse),
		ByDepot:          PerformanceByGroup(classified, DimensionDepot),
		Temporal:         Temporal(classified, tol),
		Workload:         Workload(classified),
		Stability:        DailyStability(classified),
		Comparisons:      ComputeComparisons(keptTours),
	}
	res.KPIs = ComputeKPIs(keptTours, classified, AnomalyCounts{
		CapacityOverruns: len(res.CapacityOverruns),
		DurationOverruns: len(res.DurationOverruns),
		LateStarts:       len(res.LateStarts),
	})
	return res, nil
}

// FindKPI looks up an indicator by id.
func (r *AnalysisResult) FindKPI(id string) (KPI, bool) {
	for _, k := range r.KPIs {
		if k.ID == id {
			return k, true
		}
	}
	return KPI{}, false
}
