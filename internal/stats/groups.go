package stats

import (
	"cmp"
	"slices"
	"strings"

	"tourstats/internal/records"
)

// GroupDimension selects the grouping key for PerformanceByGroup.
type GroupDimension string

const (
	DimensionCity       GroupDimension = "city"
	DimensionPostalCode GroupDimension = "postalCode"
	DimensionWarehouse  GroupDimension = "warehouse"
	DimensionDepot      GroupDimension = "depot"
)

// BadReviewThreshold is the highest rating counted as a bad review.
const BadReviewThreshold = 3

// GroupPerformance compares planned and realized punctuality for one group.
type GroupPerformance struct {
	Key                  string   `json:"key"`
	Tasks                int      `json:"tasks"`
	Tours                int      `json:"tours"`
	Late                 int      `json:"late"`
	RealizedPunctuality  float64  `json:"realizedPunctuality"`
	PlannedPunctuality   float64  `json:"plannedPunctuality"`
	PunctualityGap       float64  `json:"punctualityGap"`
	AvgDurationEcart     *float64 `json:"avgDurationEcart,omitempty"` // seconds, per distinct tour
	AvgWeightEcart       *float64 `json:"avgWeightEcart,omitempty"`   // kg, per distinct tour
	LateWithBadReviewPct float64  `json:"lateWithBadReviewPct"`
}

func groupKey(r records.MergedRecord, dim GroupDimension) string {
	switch dim {
	case DimensionCity:
		return strings.TrimSpace(r.Task.City)
	case DimensionPostalCode:
		return strings.TrimSpace(r.Task.PostalCode)
	case DimensionWarehouse:
		return strings.TrimSpace(r.Task.Warehouse)
	case DimensionDepot:
		return records.DepotOf(r.Task.Warehouse)
	}
	return ""
}

type groupAcc struct {
	counter       punctualityCounter
	tours         map[*records.Tour]bool
	lateBadReview int
}

// PerformanceByGroup groups classified records by the dimension. Tour
// discrepancies are averaged over distinct tours touching the group, not over
// tasks. Sorted by the planned-minus-realized punctuality gap, largest first.
func PerformanceByGroup(recs []records.MergedRecord, dim GroupDimension) []GroupPerformance {
	groups := make(map[string]*groupAcc)
	for _, r := range recs {
		key := groupKey(r, dim)
		if key == "" {
			continue
		}
		acc, ok := groups[key]
		if !ok {
			acc = &groupAcc{tours: make(map[*records.Tour]bool)}
			groups[key] = acc
		}
		acc.counter.add(r)
		if r.HasTour() {
			acc.tours[r.Tour] = true
		}
		if r.DelayStatus == records.Late && r.Task.Rating != nil && *r.Task.Rating <= BadReviewThreshold {
			acc.lateBadReview++
		}
	}

	out := make([]GroupPerformance, 0, len(groups))
	for key, acc := range groups {
		g := GroupPerformance{
			Key:                  key,
			Tasks:                acc.counter.total,
			Tours:                len(acc.tours),
			Late:                 acc.counter.late,
			RealizedPunctuality:  acc.counter.rate(),
			PlannedPunctuality:   acc.counter.plannedRate(),
			LateWithBadReviewPct: Percent(float64(acc.lateBadReview), float64(acc.counter.late)),
		}
		g.PunctualityGap = round1(g.PlannedPunctuality - g.RealizedPunctuality)

		if len(acc.tours) > 0 {
			var durSum, weightSum float64
			for t := range acc.tours {
				durSum += float64(t.DurationEcart())
				weightSum += t.WeightEcart()
			}
			n := float64(len(acc.tours))
			dur := round1(durSum / n)
			weight := round1(weightSum / n)
			g.AvgDurationEcart = &dur
			g.AvgWeightEcart = &weight
		}
		out = append(out, g)
	}

	slices.SortFunc(out, func(a, b GroupPerformance) int {
		if c := cmp.Compare(b.PunctualityGap, a.PunctualityGap); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}
