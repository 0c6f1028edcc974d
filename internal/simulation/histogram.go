package simulation

import (
	"tourstats/internal/records"
)

const (
	// FirstHour and LastHour bound the slot-start distribution (inclusive).
	FirstHour = 6
	LastHour  = 22
)

// Histogram tracks how many stops were promised per slot-start hour.
type Histogram struct {
	// Counts[i] is the number of stops whose slot starts at hour FirstHour+i.
	Counts []float64
	// Total is the number of stops with a known slot start.
	Total int
	// Clamped counts stops whose slot hour fell outside the operating day.
	Clamped int
	// MissingSlot counts stops without a slot start.
	MissingSlot int
}

// NewHistogram buckets stops by planned slot-start hour. Hours outside the
// operating day are clamped to its edges so the total is preserved.
func NewHistogram(recs []records.MergedRecord) *Histogram {
	h := &Histogram{
		Counts: make([]float64, LastHour-FirstHour+1),
	}
	for _, r := range recs {
		start := r.Task.SlotStart
		if start.IsZero() {
			continue
		}
		hour := start.Hour()
		if hour < FirstHour || hour > LastHour {
			h.Clamped++
			hour = min(max(hour, FirstHour), LastHour)
		}
		h.Counts[hour-FirstHour]++
		h.Total++
	}
	h.MissingSlot = len(recs) - h.Total
	return h
}

// At returns the count for an absolute hour, zero outside the range.
func (h *Histogram) At(hour int) float64 {
	if hour < FirstHour || hour > LastHour {
		return 0
	}
	return h.Counts[hour-FirstHour]
}
