package visuals

import (
	"fmt"
	"math"
	"strings"

	"tourstats/internal/simulation"
	"tourstats/internal/stats"
)

// CurveBucketMinutes is the resolution demand curves are plotted at.
const CurveBucketMinutes = 30

// xyChart accumulates one xychart-beta block.
type xyChart struct {
	title  string
	labels []string
	yLabel string
	maxY   float64
	series []string
}

func (c *xyChart) add(kind string, values []float64) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.1f", v)
		c.maxY = math.Max(c.maxY, v)
	}
	c.series = append(c.series, fmt.Sprintf("    %s [%s]\n", kind, strings.Join(parts, ", ")))
}

func (c *xyChart) String() string {
	quoted := make([]string, len(c.labels))
	for i, l := range c.labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %q\n", c.title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(quoted, ", ")))
	// Headroom above the tallest series.
	top := int(math.Ceil(c.maxY * 1.2))
	if top < 1 {
		top = 1
	}
	sb.WriteString(fmt.Sprintf("    y-axis %q 0 --> %d\n", c.yLabel, top))
	for _, s := range c.series {
		sb.WriteString(s)
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateHourlyChart plots late stops per realized-arrival hour over the
// operating hours that saw any traffic.
func GenerateHourlyChart(temporal stats.TemporalResult) string {
	first, last := -1, -1
	for _, h := range temporal.ByHour {
		if h.Total > 0 {
			if first < 0 {
				first = h.Hour
			}
			last = h.Hour
		}
	}
	if first < 0 {
		return ""
	}

	c := &xyChart{title: "Stops per arrival hour", yLabel: "Stops"}
	var totals, late []float64
	for _, h := range temporal.ByHour[first : last+1] {
		c.labels = append(c.labels, fmt.Sprintf("%02dh", h.Hour))
		totals = append(totals, float64(h.Total))
		late = append(late, float64(h.Late))
	}
	c.add("bar", totals)
	c.add("line", late)
	return c.String()
}

// GenerateDelayHistogram plots the seven delay bins.
func GenerateDelayHistogram(bins []stats.HistogramBin) string {
	if len(bins) == 0 {
		return ""
	}
	c := &xyChart{title: "Delay distribution", yLabel: "Stops"}
	values := make([]float64, len(bins))
	for i, b := range bins {
		c.labels = append(c.labels, b.Label)
		values[i] = float64(b.Count)
	}
	c.add("bar", values)
	return c.String()
}

// GenerateWorkloadChart plots planned against realized stops per hour.
func GenerateWorkloadChart(w stats.WorkloadResult) string {
	first, last := -1, -1
	for _, h := range w.Hourly {
		if h.Planned > 0 || h.Realized > 0 {
			if first < 0 {
				first = h.Hour
			}
			last = h.Hour
		}
	}
	if first < 0 {
		return ""
	}
	c := &xyChart{title: "Planned vs realized workload", yLabel: "Stops"}
	var planned, realized []float64
	for _, h := range w.Hourly[first : last+1] {
		c.labels = append(c.labels, fmt.Sprintf("%02dh", h.Hour))
		planned = append(planned, float64(h.Planned))
		realized = append(realized, float64(h.Realized))
	}
	c.add("bar", planned)
	c.add("line", realized)
	return c.String()
}

// GenerateDemandChart plots the promise, plan and realized curves in
// half-hour buckets between the first and last non-empty bucket.
func GenerateDemandChart(d *simulation.DemandResult) string {
	if d == nil || d.TotalOrders == 0 {
		return ""
	}
	promise := Bucketize(d.Promise, CurveBucketMinutes)
	plan := Bucketize(d.Plan, CurveBucketMinutes)
	realized := Bucketize(d.Realized, CurveBucketMinutes)
	late := Bucketize(d.RealizedLate, CurveBucketMinutes)

	first, last := -1, -1
	for i := range promise {
		if promise[i] > 0 || plan[i] > 0 || realized[i] > 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return ""
	}

	c := &xyChart{title: "Simulated demand (flexible 2h windows)", yLabel: "Orders per 30 min"}
	for i := first; i <= last; i++ {
		m := i * CurveBucketMinutes
		c.labels = append(c.labels, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	c.add("line", promise[first:last+1])
	c.add("line", plan[first:last+1])
	c.add("line", realized[first:last+1])
	c.add("bar", late[first:last+1])
	return c.String()
}

// Bucketize sums a minute-resolution curve into step-minute buckets.
func Bucketize(curve []float64, step int) []float64 {
	if step <= 1 {
		return curve
	}
	out := make([]float64, (len(curve)+step-1)/step)
	for m, v := range curve {
		out[m/step] += v
	}
	return out
}
