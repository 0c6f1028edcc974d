package stats

import (
	"cmp"
	"slices"

	"tourstats/internal/records"
	"tourstats/internal/timecodec"
)

// CapacityRule selects which capacity-overrun formula applies.
type CapacityRule string

const (
	// CapacityRulePlanned flags realized weight above planned weight by more
	// than 10%, or realized bins above planned bins. Used by per-driver tables.
	CapacityRulePlanned CapacityRule = "planned"
	// CapacityRuleHard flags realized weight or bins above the vehicle limits.
	// Used by the capacity anomaly report.
	CapacityRuleHard CapacityRule = "hard"
)

// PlannedWeightMargin is the tolerated weight excess over the plan.
const PlannedWeightMargin = 1.1

// TourRef identifies a tour inside anomaly and performance rows.
type TourRef struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Warehouse string `json:"warehouse"`
	Driver    string `json:"driver,omitempty"`
}

func refOf(t *records.Tour) TourRef {
	return TourRef{Key: t.Key, Name: t.Name, Date: t.Date, Warehouse: t.Warehouse, Driver: t.DriverName()}
}

// CapacityOverrun reports weight and bin excess independently.
type CapacityOverrun struct {
	TourRef
	Rule             CapacityRule `json:"rule"`
	RealizedWeight   float64      `json:"realizedWeight"`
	WeightLimit      float64      `json:"weightLimit"`
	WeightOverrun    float64      `json:"weightOverrun"`
	WeightOverrunPct float64      `json:"weightOverrunPct"`
	RealizedBins     float64      `json:"realizedBins"`
	BinLimit         float64      `json:"binLimit"`
	BinOverrun       float64      `json:"binOverrun"`
	BinOverrunPct    float64      `json:"binOverrunPct"`
}

// limits returns the weight and bin references for a rule.
func limits(t *records.Tour, rule CapacityRule) (weight, bins float64) {
	if rule == CapacityRuleHard {
		return t.WeightCapacity, t.BinCapacity
	}
	return t.PlannedWeight, t.PlannedBins
}

// IsCapacityOverrun applies the rule to one tour. A zero limit means the
// reference is unknown and that dimension is not evaluated.
func IsCapacityOverrun(t *records.Tour, rule CapacityRule) bool {
	weight, bins := limits(t, rule)
	weightLimit := weight
	if rule == CapacityRulePlanned {
		weightLimit = weight * PlannedWeightMargin
	}
	if weight > 0 && t.RealizedWeight > weightLimit {
		return true
	}
	return bins > 0 && t.RealizedBins > bins
}

// DetectCapacityOverruns lists flagged tours, largest weight excess first,
// ties broken by bin excess.
func DetectCapacityOverruns(tours []*records.Tour, rule CapacityRule) []CapacityOverrun {
	out := make([]CapacityOverrun, 0)
	for _, t := range tours {
		if !IsCapacityOverrun(t, rule) {
			continue
		}
		weight, bins := limits(t, rule)
		o := CapacityOverrun{
			TourRef:        refOf(t),
			Rule:           rule,
			RealizedWeight: t.RealizedWeight,
			WeightLimit:    weight,
			RealizedBins:   t.RealizedBins,
			BinLimit:       bins,
		}
		if weight > 0 && t.RealizedWeight > weight {
			o.WeightOverrun = t.RealizedWeight - weight
			o.WeightOverrunPct = Percent(o.WeightOverrun, weight)
		}
		if bins > 0 && t.RealizedBins > bins {
			o.BinOverrun = t.RealizedBins - bins
			o.BinOverrunPct = Percent(o.BinOverrun, bins)
		}
		out = append(out, o)
	}

	slices.SortStableFunc(out, func(a, b CapacityOverrun) int {
		if c := cmp.Compare(b.WeightOverrunPct, a.WeightOverrunPct); c != 0 {
			return c
		}
		if c := cmp.Compare(b.BinOverrunPct, a.BinOverrunPct); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// DurationAnomaly compares realized and planned operational durations.
type DurationAnomaly struct {
	TourRef
	RealizedDuration int     `json:"realizedDuration"`
	PlannedDuration  int     `json:"plannedDuration"`
	Ecart            int     `json:"ecart"`
	EcartPct         float64 `json:"ecartPct"`
}

// DetectDurationDiscrepancies lists tours with matched tasks, largest ecart
// first. With positiveOnly only tours running long are kept.
func DetectDurationDiscrepancies(tours []*records.Tour, positiveOnly bool) []DurationAnomaly {
	out := make([]DurationAnomaly, 0)
	for _, t := range tours {
		if t.TaskCount == 0 {
			continue
		}
		ecart := t.DurationEcart()
		if positiveOnly && ecart <= 0 {
			continue
		}
		out = append(out, DurationAnomaly{
			TourRef:          refOf(t),
			RealizedDuration: t.RealizedDuration,
			PlannedDuration:  t.PlannedOperationalDuration,
			Ecart:            ecart,
			EcartPct:         Percent(float64(ecart), float64(t.PlannedOperationalDuration)),
		})
	}
	slices.SortStableFunc(out, func(a, b DurationAnomaly) int {
		if c := cmp.Compare(b.Ecart, a.Ecart); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// LateStartAnomaly is a tour that left on time or early yet delivered late.
type LateStartAnomaly struct {
	TourRef
	PlannedDeparture  timecodec.TimeOfDay `json:"plannedDeparture"`
	RealizedDeparture timecodec.TimeOfDay `json:"realizedDeparture"`
	LateTasks         int                 `json:"lateTasks"`
	Tasks             int                 `json:"tasks"`
}

// DetectLateStarts expects classified records. Only the realized departure or
// the started timestamp count as an actual departure.
func DetectLateStarts(tours []*records.Tour, recs []records.MergedRecord) []LateStartAnomaly {
	late := make(map[*records.Tour]int)
	total := make(map[*records.Tour]int)
	for _, r := range recs {
		if !r.HasTour() {
			continue
		}
		total[r.Tour]++
		if r.DelayStatus == records.Late {
			late[r.Tour]++
		}
	}

	out := make([]LateStartAnomaly, 0)
	for _, t := range tours {
		departed := t.RealizedDeparture
		if departed.IsZero() {
			departed = t.StartedAt
		}
		if departed.IsZero() || t.PlannedDeparture.IsZero() || departed > t.PlannedDeparture {
			continue
		}
		if late[t] == 0 {
			continue
		}
		out = append(out, LateStartAnomaly{
			TourRef:           refOf(t),
			PlannedDeparture:  t.PlannedDeparture,
			RealizedDeparture: departed,
			LateTasks:         late[t],
			Tasks:             total[t],
		})
	}
	slices.SortStableFunc(out, func(a, b LateStartAnomaly) int {
		if c := cmp.Compare(b.LateTasks, a.LateTasks); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}
