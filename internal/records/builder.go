package records

import (
	"strings"

	"tourstats/internal/schema"
	"tourstats/internal/timecodec"
)

// BuildTours turns normalized tour rows into Tour records. Shadow tours
// (name prefixed with "R") are dropped and counted.
func BuildTours(sheet *schema.Sheet) ([]*Tour, int) {
	tours := make([]*Tour, 0, len(sheet.Rows))
	shadow := 0
	for _, row := range sheet.Rows {
		name := row.Text(schema.FieldName)
		if IsShadowTour(name) {
			shadow++
			continue
		}
		t := &Tour{
			Name:              name,
			Date:              row.Date(schema.FieldDate),
			Warehouse:         row.Text(schema.FieldWarehouse),
			Driver:            row.OptionalText(schema.FieldDriver),
			PlannedWeight:     row.Float(schema.FieldPlannedWeight),
			PlannedBins:       row.Float(schema.FieldPlannedBins),
			WeightCapacity:    row.Float(schema.FieldWeightCapacity),
			BinCapacity:       row.Float(schema.FieldBinCapacity),
			PlannedDuration:   row.Int(schema.FieldPlannedDuration),
			PlannedDistance:   row.Float(schema.FieldPlannedDistance),
			RealizedDistance:  row.Float(schema.FieldRealizedDistance),
			PlannedDeparture:  row.Time(schema.FieldPlannedDeparture),
			RealizedDeparture: row.Time(schema.FieldRealizedDeparture),
			StartedAt:         row.Time(schema.FieldStartedAt),
		}
		t.Key = Key(t.Name, t.Date, t.Warehouse)
		t.StartTime = StartTime(t.RealizedDeparture, t.StartedAt, t.PlannedDeparture)
		tours = append(tours, t)
	}
	return tours, shadow
}

// StartTime returns the first non-zero of realized departure, started
// timestamp and planned departure.
func StartTime(realized, started, planned timecodec.TimeOfDay) timecodec.TimeOfDay {
	for _, t := range []timecodec.TimeOfDay{realized, started, planned} {
		if !t.IsZero() {
			return t
		}
	}
	return 0
}

// IsShadowTour reports whether a tour name marks a backup tour.
func IsShadowTour(name string) bool {
	return strings.HasPrefix(strings.TrimSpace(name), ShadowPrefix)
}

// BuildTasks turns normalized task rows into Task records. When the sheet has
// no delay column the retard is derived later, at merge time.
func BuildTasks(sheet *schema.Sheet) []*Task {
	derive := !sheet.Has(schema.FieldDelaySeconds)
	tasks := make([]*Task, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		name := row.Text(schema.FieldTourName)
		if IsShadowTour(name) {
			continue
		}
		t := &Task{
			TourName:         name,
			Date:             row.Date(schema.FieldDate),
			Warehouse:        row.Text(schema.FieldWarehouse),
			Sequence:         row.Int(schema.FieldSequence),
			Status:           row.Text(schema.FieldStatus),
			Channel:          row.Text(schema.FieldChannel),
			City:             row.Text(schema.FieldCity),
			PostalCode:       row.Text(schema.FieldPostalCode),
			Weight:           row.Float(schema.FieldWeight),
			Items:            row.Float(schema.FieldItems),
			SlotStart:        row.Time(schema.FieldSlotStart),
			SlotEnd:          row.Time(schema.FieldSlotEnd),
			PredictedArrival: row.Time(schema.FieldPredictedArrival),
			RealizedArrival:  row.Time(schema.FieldRealizedArrival),
			Closure:          row.Time(schema.FieldClosure),
			Retard:           row.Int(schema.FieldDelaySeconds),
			RetardDerived:    derive,
			Rating:           row.Rating(schema.FieldRating),
			Comment:          row.OptionalText(schema.FieldComment),
		}
		t.TourKey = Key(t.TourName, t.Date, t.Warehouse)
		tasks = append(tasks, t)
	}
	return tasks
}
