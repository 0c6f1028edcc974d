package records

import (
	"strings"

	"tourstats/internal/timecodec"
)

// ShadowPrefix marks backup tours that never appear in the normalized set.
const ShadowPrefix = "R"

// DelayStatus is the three-way punctuality classification of a stop.
type DelayStatus string

const (
	Late   DelayStatus = "late"
	Early  DelayStatus = "early"
	OnTime DelayStatus = "onTime"
)

// Tour is one planned and executed delivery round.
type Tour struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Date      string  `json:"date"`
	Warehouse string  `json:"warehouse"`
	Driver    *string `json:"driver,omitempty"`

	PlannedWeight    float64 `json:"plannedWeight"`
	PlannedBins      float64 `json:"plannedBins"`
	WeightCapacity   float64 `json:"weightCapacity"`
	BinCapacity      float64 `json:"binCapacity"`
	PlannedDuration  int     `json:"plannedDuration"` // seconds
	PlannedDistance  float64 `json:"plannedDistance"`
	RealizedDistance float64 `json:"realizedDistance"`

	PlannedDeparture  timecodec.TimeOfDay `json:"plannedDeparture"`
	RealizedDeparture timecodec.TimeOfDay `json:"realizedDeparture"`
	StartedAt         timecodec.TimeOfDay `json:"startedAt"`
	StartTime         timecodec.TimeOfDay `json:"startTime"`

	// Derived after merge.
	RealizedWeight             float64 `json:"realizedWeight"`
	RealizedBins               float64 `json:"realizedBins"`
	RealizedDuration           int     `json:"realizedDuration"`
	PlannedOperationalDuration int     `json:"plannedOperationalDuration"`
	TaskCount                  int     `json:"taskCount"`
}

// DriverName returns the driver or "" when unassigned.
func (t *Tour) DriverName() string {
	if t.Driver == nil {
		return ""
	}
	return *t.Driver
}

// Depot returns the coarse grouping of the tour's warehouse.
func (t *Tour) Depot() string {
	return DepotOf(t.Warehouse)
}

// DurationEcart is realized minus planned operational duration, in seconds.
func (t *Tour) DurationEcart() int {
	return t.RealizedDuration - t.PlannedOperationalDuration
}

// WeightEcart is realized minus planned weight.
func (t *Tour) WeightEcart() float64 {
	return t.RealizedWeight - t.PlannedWeight
}

// Task is one delivery stop.
type Task struct {
	TourKey    string `json:"tourKey"`
	TourName   string `json:"tourName"`
	Date       string `json:"date"`
	Warehouse  string `json:"warehouse"`
	Sequence   int    `json:"sequence"`
	Status     string `json:"status"`
	Channel    string `json:"channel,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`

	Weight float64 `json:"weight"`
	Items  float64 `json:"items"`

	SlotStart        timecodec.TimeOfDay `json:"slotStart"`
	SlotEnd          timecodec.TimeOfDay `json:"slotEnd"`
	PredictedArrival timecodec.TimeOfDay `json:"predictedArrival"`
	RealizedArrival  timecodec.TimeOfDay `json:"realizedArrival"`
	Closure          timecodec.TimeOfDay `json:"closure"`

	// Retard is the signed delay in seconds, positive when late.
	Retard        int  `json:"retard"`
	RetardDerived bool `json:"retardDerived,omitempty"`

	Rating  *int    `json:"rating,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// IsCompleted reports whether the stop was delivered.
func (t *Task) IsCompleted() bool {
	switch foldStatus(t.Status) {
	case "completed", "complete", "done", "delivered",
		"termine", "terminee", "livre", "livree", "effectue", "effectuee":
		return true
	}
	return false
}

// IsMobile reports whether the stop was closed from the mobile app.
func (t *Task) IsMobile() bool {
	return strings.Contains(strings.ToLower(t.Channel), "mobile")
}

// Key joins the identity parts of a tour into its unique key.
func Key(name, date, warehouse string) string {
	return name + "|" + date + "|" + warehouse
}

// DepotOf returns the leading whitespace-delimited token of a warehouse name.
func DepotOf(warehouse string) string {
	fields := strings.Fields(warehouse)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SlotDistance is zero when t lies inside [start, end], otherwise the signed
// distance to the nearer slot boundary (positive after the slot).
func SlotDistance(t, start, end timecodec.TimeOfDay) int {
	if start.IsZero() && end.IsZero() {
		return 0
	}
	switch {
	case t > end:
		return int(t - end)
	case t < start:
		return int(t - start)
	}
	return 0
}

var statusFolder = strings.NewReplacer("é", "e", "è", "e", "ê", "e")

func foldStatus(s string) string {
	return statusFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}
