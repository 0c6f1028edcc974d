package stats

import (
	"fmt"
	"time"

	"tourstats/internal/records"
	"tourstats/internal/timecodec"
)

// Bucket holds status counts for one temporal bucket.
type Bucket struct {
	Total           int     `json:"total"`
	Late            int     `json:"late"`
	Early           int     `json:"early"`
	OnTime          int     `json:"onTime"`
	PunctualityRate float64 `json:"punctualityRate"`
}

func (b *Bucket) add(status records.DelayStatus) {
	b.Total++
	switch status {
	case records.Late:
		b.Late++
	case records.Early:
		b.Early++
	case records.OnTime:
		b.OnTime++
	}
}

func (b *Bucket) finalize() {
	b.PunctualityRate = PunctualityRate(b.OnTime, b.Total)
}

// HourStat buckets stops by realized-arrival hour.
type HourStat struct {
	Hour int `json:"hour"`
	Bucket
}

// WeekdayStat buckets stops by calendar day of week (Sunday = 0).
type WeekdayStat struct {
	Weekday int    `json:"weekday"`
	Label   string `json:"label"`
	Bucket
}

// SlotStat buckets stops by the hour their promised slot starts.
type SlotStat struct {
	Label     string `json:"label"`
	StartHour int    `json:"startHour"`
	EndHour   int    `json:"endHour"`
	Bucket
}

// HistogramBin counts signed delays within tolerance-relative boundaries.
type HistogramBin struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// TemporalResult groups every time-based distribution.
type TemporalResult struct {
	ByHour         []HourStat     `json:"byHour"`
	ByWeekday      []WeekdayStat  `json:"byWeekday"`
	BySlot         []SlotStat     `json:"bySlot"`
	DelayHistogram []HistogramBin `json:"delayHistogram"`
}

// DaySlots is the coarse three-way partition of the delivery day.
var DaySlots = [...]struct{ Start, End int }{{6, 12}, {12, 18}, {18, 24}}

// HistogramBins is the number of delay histogram bins.
const HistogramBins = 7

// DelayBin places a signed retard (seconds) in one of the seven histogram
// bins. The on-time bin [-T, T] is closed; the others are half-open away from it.
func DelayBin(retard, tolerance int) int {
	switch {
	case retard >= -tolerance && retard <= tolerance:
		return 3
	case retard < -3600:
		return 0
	case retard < -1800:
		return 1
	case retard < 0:
		return 2
	case retard <= 1800:
		return 4
	case retard <= 3600:
		return 5
	}
	return 6
}

// HistogramLabels names the seven bins for a tolerance.
func HistogramLabels(tolerance int) [HistogramBins]string {
	t := round1(float64(tolerance) / 60.0)
	return [HistogramBins]string{
		"< -60 min",
		"-60..-30 min",
		fmt.Sprintf("-30..-%g min", t),
		fmt.Sprintf("±%g min", t),
		fmt.Sprintf("%g..30 min", t),
		"30..60 min",
		"> 60 min",
	}
}

// Temporal builds hour, weekday, slot and delay distributions from classified records.
func Temporal(recs []records.MergedRecord, tolerance int) TemporalResult {
	var hours [24]Bucket
	var weekdays [7]Bucket
	var slots [len(DaySlots)]Bucket
	var bins [HistogramBins]int

	for _, r := range recs {
		task := r.Task
		if !task.RealizedArrival.IsZero() {
			hours[task.RealizedArrival.Hour()].add(r.DelayStatus)
		}
		if wd, ok := timecodec.Weekday(task.Date); ok {
			weekdays[wd].add(r.DelayStatus)
		}
		if !task.SlotStart.IsZero() {
			h := task.SlotStart.Hour()
			for i, s := range DaySlots {
				if h >= s.Start && h < s.End {
					slots[i].add(r.DelayStatus)
					break
				}
			}
		}
		bins[DelayBin(task.Retard, tolerance)]++
	}

	res := TemporalResult{
		ByHour:         make([]HourStat, 24),
		ByWeekday:      make([]WeekdayStat, 7),
		BySlot:         make([]SlotStat, len(DaySlots)),
		DelayHistogram: make([]HistogramBin, HistogramBins),
	}
	for h := range hours {
		hours[h].finalize()
		res.ByHour[h] = HourStat{Hour: h, Bucket: hours[h]}
	}
	for d := range weekdays {
		weekdays[d].finalize()
		res.ByWeekday[d] = WeekdayStat{Weekday: d, Label: time.Weekday(d).String(), Bucket: weekdays[d]}
	}
	for i, s := range DaySlots {
		slots[i].finalize()
		res.BySlot[i] = SlotStat{
			Label:     fmt.Sprintf("%02d-%02dh", s.Start, s.End),
			StartHour: s.Start,
			EndHour:   s.End,
			Bucket:    slots[i],
		}
	}
	labels := HistogramLabels(tolerance)
	for i := range bins {
		res.DelayHistogram[i] = HistogramBin{
			Label: labels[i],
			Count: bins[i],
			Share: Percent(float64(bins[i]), float64(len(recs))),
		}
	}
	return res
}
