package records

import (
	"tourstats/internal/timecodec"
)

// MergedRecord is a task joined with its owning tour. Tour is nil when no tour
// matched; such records are left out of every tour-dependent computation.
type MergedRecord struct {
	Task *Task `json:"task"`
	Tour *Tour `json:"tour,omitempty"`

	DelayStatus          DelayStatus `json:"delayStatus,omitempty"`
	PredictedRetard      int         `json:"predictedRetard"`
	PredictedDelayStatus DelayStatus `json:"predictedDelayStatus,omitempty"`
}

// HasTour reports whether the record matched a tour.
func (r MergedRecord) HasTour() bool {
	return r.Tour != nil
}

// Merge left-joins tasks to tours by key, applies the overnight rollover
// against each tour's start time, derives missing retards and recomputes the
// tour aggregates from the matched tasks. The result has one record per task,
// in input order.
func Merge(tours []*Tour, tasks []*Task) []MergedRecord {
	byKey := make(map[string]*Tour, len(tours))
	for _, t := range tours {
		if _, dup := byKey[t.Key]; !dup {
			byKey[t.Key] = t
		}
	}

	members := make(map[string][]*Task)
	for _, task := range tasks {
		if tour, ok := byKey[task.TourKey]; ok {
			members[tour.Key] = append(members[tour.Key], task)
		}
	}

	for _, tour := range tours {
		if byKey[tour.Key] != tour {
			continue
		}
		matched := members[tour.Key]
		for _, task := range matched {
			applyRollover(task, tour.StartTime)
		}
		aggregate(tour, matched)
	}

	merged := make([]MergedRecord, len(tasks))
	for i, task := range tasks {
		if task.RetardDerived {
			task.Retard = SlotDistance(task.RealizedArrival, task.SlotStart, task.SlotEnd)
			if task.RealizedArrival.IsZero() {
				task.Retard = 0
			}
		}
		merged[i] = MergedRecord{Task: task, Tour: byKey[task.TourKey]}
	}
	return merged
}

// applyRollover moves closure and realized arrival onto the next day when the
// closure sits more than twelve hours before the tour started. Predicted
// arrival and slot bounds are planned clock times; each one is checked on its
// own against the same predicate so the plan stays on the realized timeline,
// and so is a realized arrival whose closure is missing.
func applyRollover(task *Task, start timecodec.TimeOfDay) {
	task.PredictedArrival = timecodec.Rollover(task.PredictedArrival, start)
	task.SlotStart = timecodec.Rollover(task.SlotStart, start)
	task.SlotEnd = timecodec.Rollover(task.SlotEnd, start)

	if task.Closure.IsZero() {
		task.RealizedArrival = timecodec.Rollover(task.RealizedArrival, start)
		return
	}
	if !timecodec.NeedsRollover(task.Closure, start) {
		return
	}
	task.Closure += timecodec.Day
	if !task.RealizedArrival.IsZero() {
		task.RealizedArrival += timecodec.Day
	}
}

func aggregate(tour *Tour, tasks []*Task) {
	tour.TaskCount = len(tasks)
	tour.RealizedWeight = 0
	tour.RealizedBins = 0
	tour.RealizedDuration = 0
	tour.PlannedOperationalDuration = 0
	if len(tasks) == 0 {
		return
	}

	var firstArrival, lastClosure, firstPredicted, lastPredicted timecodec.TimeOfDay
	for _, task := range tasks {
		tour.RealizedWeight += task.Weight
		tour.RealizedBins += task.Items

		if a := task.RealizedArrival; !a.IsZero() && (firstArrival.IsZero() || a < firstArrival) {
			firstArrival = a
		}
		if c := task.Closure; c > lastClosure {
			lastClosure = c
		}
		if p := task.PredictedArrival; !p.IsZero() {
			if firstPredicted.IsZero() || p < firstPredicted {
				firstPredicted = p
			}
			if p > lastPredicted {
				lastPredicted = p
			}
		}
	}

	if !firstArrival.IsZero() && lastClosure > firstArrival {
		tour.RealizedDuration = int(lastClosure - firstArrival)
	}
	if !firstPredicted.IsZero() {
		tour.PlannedOperationalDuration = int(lastPredicted - firstPredicted)
	}
}
