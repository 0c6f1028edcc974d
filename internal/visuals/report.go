package visuals

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tourstats/internal/stats"
	"tourstats/internal/timecodec"
)

// Chart is one titled mermaid block.
type Chart struct {
	Title   string
	Mermaid string
}

// ReportData feeds the HTML report template.
type ReportData struct {
	Title       string
	RunID       string
	GeneratedAt time.Time
	Sources     []string
	Result      *stats.AnalysisResult
	Charts      []Chart
}

// Charts renders every non-empty chart of a result. The demand chart is
// included only when the result carries a simulator run.
func Charts(res *stats.AnalysisResult) []Chart {
	candidates := []Chart{
		{Title: "Arrivals by hour", Mermaid: GenerateHourlyChart(res.Temporal)},
		{Title: "Delay distribution", Mermaid: GenerateDelayHistogram(res.Temporal.DelayHistogram)},
		{Title: "Workload", Mermaid: GenerateWorkloadChart(res.Workload)},
		{Title: "Simulated demand", Mermaid: GenerateDemandChart(res.Demand)},
	}
	out := make([]Chart, 0, len(candidates))
	for _, c := range candidates {
		if c.Mermaid != "" {
			out = append(out, c)
		}
	}
	return out
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"clock":    func(sec int) string { return timecodec.TimeOfDay(sec).String() },
	"unfence":  unfence,
	"optional": optional,
}).Parse(reportHTML))

// RenderReport writes the HTML report.
func RenderReport(w io.Writer, data ReportData) error {
	if data.Result == nil {
		return fmt.Errorf("report has no analysis result")
	}
	return reportTemplate.Execute(w, data)
}

// WriteReport renders the report into dir and returns the file path.
func WriteReport(dir string, data ReportData) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	name := fmt.Sprintf("tourstats-%s.html", data.GeneratedAt.Format("20060102-150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := RenderReport(f, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return path, nil
}

// unfence strips the markdown fence so mermaid.js can render the block.
func unfence(s string) string {
	s = strings.TrimPrefix(s, "```mermaid\n")
	return strings.TrimSuffix(s, "```")
}

func optional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *v)
}

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ccc; padding: .3rem .6rem; text-align: right; }
th:first-child, td:first-child { text-align: left; }
.meta { color: #666; font-size: .9rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">Run {{.RunID}} · {{.GeneratedAt.Format "2006-01-02 15:04"}} · tolerance {{.Result.Tolerance}} s{{range .Sources}} · {{.}}{{end}}</p>

<h2>Indicators</h2>
<table>
<tr><th>Indicator</th><th>Value</th></tr>
{{range .Result.KPIs}}<tr><td>{{.Label}}</td><td>{{printf "%.1f" .Value}} {{.Unit}}</td></tr>
{{end}}</table>

<table>
<tr><th>Planned vs realized</th><th>Planned</th><th>Realized</th><th>Delta</th><th>Delta %</th></tr>
{{range .Result.Comparisons}}<tr><td>{{.Label}}</td><td>{{printf "%.1f" .Planned}}</td><td>{{printf "%.1f" .Realized}}</td><td>{{printf "%.1f" .Delta}}</td><td>{{printf "%.1f" .DeltaPct}}</td></tr>
{{end}}</table>

<h2>Capacity overruns</h2>
{{if .Result.CapacityOverruns}}<table>
<tr><th>Tour</th><th>Date</th><th>Weight</th><th>Limit</th><th>Overrun %</th><th>Bins</th><th>Limit</th><th>Overrun %</th></tr>
{{range .Result.CapacityOverruns}}<tr><td>{{.Name}}</td><td>{{.Date}}</td><td>{{printf "%.1f" .RealizedWeight}}</td><td>{{printf "%.1f" .WeightLimit}}</td><td>{{printf "%.1f" .WeightOverrunPct}}</td><td>{{printf "%.0f" .RealizedBins}}</td><td>{{printf "%.0f" .BinLimit}}</td><td>{{printf "%.1f" .BinOverrunPct}}</td></tr>
{{end}}</table>{{else}}<p>None.</p>{{end}}

<h2>Tours running long</h2>
{{if .Result.DurationOverruns}}<table>
<tr><th>Tour</th><th>Date</th><th>Realized</th><th>Planned</th><th>Ecart</th></tr>
{{range .Result.DurationOverruns}}<tr><td>{{.Name}}</td><td>{{.Date}}</td><td>{{clock .RealizedDuration}}</td><td>{{clock .PlannedDuration}}</td><td>{{clock .Ecart}}</td></tr>
{{end}}</table>{{else}}<p>None.</p>{{end}}

<h2>On-time departures with late stops</h2>
{{if .Result.LateStarts}}<table>
<tr><th>Tour</th><th>Date</th><th>Planned departure</th><th>Departure</th><th>Late stops</th></tr>
{{range .Result.LateStarts}}<tr><td>{{.Name}}</td><td>{{.Date}}</td><td>{{.PlannedDeparture}}</td><td>{{.RealizedDeparture}}</td><td>{{.LateTasks}} / {{.Tasks}}</td></tr>
{{end}}</table>{{else}}<p>None.</p>{{end}}

<h2>Drivers</h2>
<table>
<tr><th>Driver</th><th>Tours</th><th>Stops</th><th>Punctuality %</th><th>Mean late (min)</th><th>Overruns</th><th>Rating</th></tr>
{{range .Result.ByDriver}}<tr><td>{{.Driver}}</td><td>{{.Tours}}</td><td>{{.Tasks}}</td><td>{{printf "%.1f" .PunctualityRate}}</td><td>{{optional .AvgLateDelayMinutes}}</td><td>{{.CapacityOverruns}}</td><td>{{optional .AvgRating}}</td></tr>
{{end}}</table>

<h2>Depots</h2>
<table>
<tr><th>Depot</th><th>Stops</th><th>Realized %</th><th>Planned %</th><th>Gap</th><th>Late with bad review %</th></tr>
{{range .Result.ByDepot}}<tr><td>{{.Key}}</td><td>{{.Tasks}}</td><td>{{printf "%.1f" .RealizedPunctuality}}</td><td>{{printf "%.1f" .PlannedPunctuality}}</td><td>{{printf "%.1f" .PunctualityGap}}</td><td>{{printf "%.1f" .LateWithBadReviewPct}}</td></tr>
{{end}}</table>

<h2>Cities</h2>
<table>
<tr><th>City</th><th>Stops</th><th>Realized %</th><th>Planned %</th><th>Gap</th></tr>
{{range .Result.ByCity}}<tr><td>{{.Key}}</td><td>{{.Tasks}}</td><td>{{printf "%.1f" .RealizedPunctuality}}</td><td>{{printf "%.1f" .PlannedPunctuality}}</td><td>{{printf "%.1f" .PunctualityGap}}</td></tr>
{{end}}</table>

<h2>Daily punctuality</h2>
<p>Status: {{.Result.Stability.Status}} · limits {{printf "%.1f" .Result.Stability.XmR.LNPL}} to {{printf "%.1f" .Result.Stability.XmR.UNPL}} %</p>
<table>
<tr><th>Date</th><th>Stops</th><th>Punctuality %</th></tr>
{{range .Result.Stability.Days}}<tr><td>{{.Date}}</td><td>{{.Tasks}}</td><td>{{printf "%.1f" .PunctualityRate}}</td></tr>
{{end}}</table>

{{range .Charts}}<h2>{{.Title}}</h2>
<pre class="mermaid">{{unfence .Mermaid}}</pre>
{{end}}
{{if .Charts}}<script type="module">
import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs";
mermaid.initialize({ startOnLoad: true });
</script>{{end}}
</body>
</html>
`
