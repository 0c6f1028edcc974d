package mcp

import (
	"context"
	"fmt"
	"strings"

	"tourstats/internal/ingest"
	"tourstats/internal/logging"
	"tourstats/internal/records"
	"tourstats/internal/sheets"
	"tourstats/internal/simulation"
	"tourstats/internal/stats"
	"tourstats/internal/visuals"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	sectionKPIs      = "kpis"
	sectionAnomalies = "anomalies"
	sectionDrivers   = "drivers"
	sectionGeography = "geography"
	sectionGroups    = "groups"
	sectionTemporal  = "temporal"
	sectionWorkload  = "workload"
	sectionStability = "stability"
)

const (
	defaultAnomalyLimit = 50
	defaultStopLimit    = 100
)

func (s *Server) handleLoadExports(ctx context.Context, _ *sdk.CallToolRequest, in LoadExportsInput) (*sdk.CallToolResult, any, error) {
	if strings.TrimSpace(in.ToursPath) == "" || strings.TrimSpace(in.TasksPath) == "" {
		return nil, nil, fmt.Errorf("tours_path and tasks_path are required")
	}
	runID, logger := logging.NewRun("load_exports")

	toursSrc := sheets.Source{Path: in.ToursPath, Sheet: firstNonEmpty(in.ToursSheet, s.cfg.ToursSheet)}
	tasksSrc := sheets.Source{Path: in.TasksPath, Sheet: firstNonEmpty(in.TasksSheet, s.cfg.TasksSheet)}
	tourGrid, taskGrid, err := sheets.LoadPair(ctx, toursSrc, tasksSrc)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read exports")
		return nil, nil, err
	}
	ds, err := ingest.Load(ctx, ingest.Request{Tours: tourGrid, Tasks: taskGrid})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to ingest exports")
		return nil, nil, err
	}
	s.setDataset(ds, []string{in.ToursPath, in.TasksPath})
	logger.Info().Int("tours", len(ds.Tours)).Int("tasks", len(ds.Tasks)).Msg("Exports loaded")

	data := map[string]any{
		"tours":          len(ds.Tours),
		"tasks":          len(ds.Tasks),
		"matchedTasks":   len(ds.Records) - ds.UnmatchedTasks,
		"unmatchedTasks": ds.UnmatchedTasks,
		"dates":          dateSpan(ds.Tours),
	}
	diagnostics := map[string]any{}
	if ds.ShadowTours > 0 {
		diagnostics["shadowToursDropped"] = ds.ShadowTours
	}
	if ds.SkippedTourRows > 0 {
		diagnostics["skippedTourRows"] = ds.SkippedTourRows
	}
	if ds.SkippedTaskRows > 0 {
		diagnostics["skippedTaskRows"] = ds.SkippedTaskRows
	}

	var guidance []string
	if ds.DerivedRetard {
		guidance = append(guidance, "The tasks export has no delay column; delays were derived from realized arrival against slot bounds.")
	}
	if ds.UnmatchedTasks > 0 {
		guidance = append(guidance, fmt.Sprintf("%d tasks matched no tour. They count toward punctuality but not toward tour, driver or workload figures.", ds.UnmatchedTasks))
	}
	return textResult(WrapResponse(data, map[string]any{"runId": runID, "sources": []string{in.ToursPath, in.TasksPath}}, diagnostics, guidance))
}

func (s *Server) handleAnalyze(_ context.Context, _ *sdk.CallToolRequest, in AnalyzeInput) (*sdk.CallToolResult, any, error) {
	session, err := s.activeSession()
	if err != nil {
		return nil, nil, err
	}
	sections, err := normalizeSections(in.Sections)
	if err != nil {
		return nil, nil, err
	}
	res, err := session.Analyze(in.Filter)
	if err != nil {
		return nil, nil, err
	}

	want := func(name string) bool { return sections == nil || sections[name] }
	data := map[string]any{"tours": res.Tours, "tasks": res.Tasks}
	if want(sectionKPIs) {
		data["kpis"] = res.KPIs
		data["comparisons"] = res.Comparisons
	}
	if want(sectionAnomalies) {
		data["capacityOverruns"] = res.CapacityOverruns
		data["durationOverruns"] = res.DurationOverruns
		data["lateStarts"] = res.LateStarts
	}
	if want(sectionDrivers) {
		data["byDriver"] = res.ByDriver
	}
	if want(sectionGeography) {
		data["byCity"] = res.ByCity
		data["byPostalCode"] = res.ByPostalCode
	}
	if want(sectionGroups) {
		data["byWarehouse"] = res.ByWarehouse
		data["byDepot"] = res.ByDepot
	}
	if want(sectionTemporal) {
		data["temporal"] = res.Temporal
	}
	if want(sectionWorkload) {
		data["workload"] = res.Workload
	}
	if want(sectionStability) {
		data["stability"] = res.Stability
	}
	if s.cfg.EnableMermaidCharts {
		charts := make(map[string]string)
		for _, c := range visuals.Charts(res) {
			charts[c.Title] = c.Mermaid
		}
		data["charts"] = charts
	}

	var guidance []string
	if res.Tasks == 0 {
		guidance = append(guidance, "The filter matched no stops; punctuality rates default to 100%.")
	}
	switch res.Stability.Status {
	case stats.StabilityMigrating:
		guidance = append(guidance, "Daily punctuality shifted: 8 or more consecutive days sit on one side of the average.")
	case stats.StabilityVolatile:
		guidance = append(guidance, "Some days fall outside the natural process limits of daily punctuality; see stability.xmr.signals.")
	}
	return textResult(WrapResponse(data, filterContext(in.Filter, res.Tolerance), nil, guidance))
}

func (s *Server) handleSimulate(_ context.Context, _ *sdk.CallToolRequest, in SimulateInput) (*sdk.CallToolResult, any, error) {
	session, err := s.activeSession()
	if err != nil {
		return nil, nil, err
	}
	seed := s.cfg.SimulationSeed
	if in.Seed != nil {
		seed = *in.Seed
	}
	engine := simulation.NewDemandEngine(nil)
	if seed != 0 {
		engine.SetSeed(seed)
	}
	demand, err := session.Simulate(in.Filter, engine)
	if err != nil {
		return nil, nil, err
	}

	step := limitOr(in.ResolutionMinutes, visuals.CurveBucketMinutes)
	data := map[string]any{
		"totalOrders":           demand.TotalOrders,
		"hourlyDistribution":    demand.HourlyDistribution,
		"windows":               demand.Windows,
		"planOffsetMinutes":     demand.PlanOffsetMinutes,
		"realizedOffsetMinutes": demand.RealizedOffsetMinutes,
		"lateProbability":       demand.LateProbability,
		"resolutionMinutes":     step,
		"promise":               visuals.Bucketize(demand.Promise, step),
		"plan":                  visuals.Bucketize(demand.Plan, step),
		"realized":              visuals.Bucketize(demand.Realized, step),
		"realizedLate":          visuals.Bucketize(demand.RealizedLate, step),
	}
	if s.cfg.EnableMermaidCharts {
		data["chart"] = visuals.GenerateDemandChart(demand)
	}
	ctx := filterContext(in.Filter, session.DefaultTolerance())
	ctx["seed"] = seed
	return textResult(WrapResponse(data, ctx, nil, demand.Warnings))
}

func (s *Server) handleListAnomalies(_ context.Context, _ *sdk.CallToolRequest, in AnomaliesInput) (*sdk.CallToolResult, any, error) {
	session, err := s.activeSession()
	if err != nil {
		return nil, nil, err
	}
	tours, recs, err := session.Filtered(in.Filter)
	if err != nil {
		return nil, nil, err
	}

	limit := limitOr(in.Limit, defaultAnomalyLimit)
	var data any
	var total int
	var truncated bool
	switch strings.ToLower(strings.TrimSpace(in.Kind)) {
	case "capacity":
		rule := stats.CapacityRuleHard
		switch strings.ToLower(in.Rule) {
		case "", string(stats.CapacityRuleHard):
		case string(stats.CapacityRulePlanned):
			rule = stats.CapacityRulePlanned
		default:
			return nil, nil, fmt.Errorf("unknown capacity rule %q", in.Rule)
		}
		rows := stats.DetectCapacityOverruns(tours, rule)
		total = len(rows)
		data, truncated = truncate(rows, limit)
	case "duration":
		rows := stats.DetectDurationDiscrepancies(tours, !in.IncludeShorter)
		total = len(rows)
		data, truncated = truncate(rows, limit)
	case "late_start":
		rows := stats.DetectLateStarts(tours, recs)
		total = len(rows)
		data, truncated = truncate(rows, limit)
	default:
		return nil, nil, fmt.Errorf("unknown anomaly kind %q: expected capacity, duration or late_start", in.Kind)
	}

	ctx := filterContext(in.Filter, session.DefaultTolerance())
	ctx["kind"] = in.Kind
	ctx["total"] = total
	var guidance []string
	if truncated {
		guidance = append(guidance, fmt.Sprintf("Showing %d of %d rows; raise limit to see more.", limit, total))
	}
	return textResult(WrapResponse(data, ctx, nil, guidance))
}

// StopRow is the flat listing form of a merged record.
type StopRow struct {
	Tour            string              `json:"tour,omitempty"`
	Date            string              `json:"date"`
	Warehouse       string              `json:"warehouse"`
	Driver          string              `json:"driver,omitempty"`
	Sequence        int                 `json:"sequence"`
	City            string              `json:"city"`
	PostalCode      string              `json:"postalCode"`
	Slot            string              `json:"slot"`
	RealizedArrival string              `json:"realizedArrival"`
	RetardMinutes   float64             `json:"retardMinutes"`
	DelayStatus     records.DelayStatus `json:"delayStatus"`
	Matched         bool                `json:"matched"`
}

func stopRow(r records.MergedRecord) StopRow {
	t := r.Task
	row := StopRow{
		Tour:            t.TourName,
		Date:            t.Date,
		Warehouse:       t.Warehouse,
		Sequence:        t.Sequence,
		City:            t.City,
		PostalCode:      t.PostalCode,
		Slot:            t.SlotStart.String() + "-" + t.SlotEnd.String(),
		RealizedArrival: t.RealizedArrival.String(),
		RetardMinutes:   float64(t.Retard) / 60,
		DelayStatus:     r.DelayStatus,
		Matched:         r.HasTour(),
	}
	if r.HasTour() {
		row.Driver = r.Tour.DriverName()
	}
	return row
}

func (s *Server) handleListStops(_ context.Context, _ *sdk.CallToolRequest, in ListStopsInput) (*sdk.CallToolResult, any, error) {
	session, err := s.activeSession()
	if err != nil {
		return nil, nil, err
	}
	var status records.DelayStatus
	switch strings.ToLower(strings.TrimSpace(in.Status)) {
	case "":
	case "late":
		status = records.Late
	case "early":
		status = records.Early
	case "ontime", "on_time":
		status = records.OnTime
	default:
		return nil, nil, fmt.Errorf("unknown status %q: expected late, early or onTime", in.Status)
	}

	_, recs, err := session.Filtered(in.Filter)
	if err != nil {
		return nil, nil, err
	}
	rows := make([]StopRow, 0)
	for _, r := range recs {
		if status != "" && r.DelayStatus != status {
			continue
		}
		if in.TourName != "" && !strings.EqualFold(r.Task.TourName, in.TourName) {
			continue
		}
		rows = append(rows, stopRow(r))
	}

	limit := limitOr(in.Limit, defaultStopLimit)
	page, truncated := truncate(rows, limit)
	ctx := filterContext(in.Filter, in.Filter.Tolerance(session.DefaultTolerance()))
	ctx["total"] = len(rows)
	var guidance []string
	if truncated {
		guidance = append(guidance, fmt.Sprintf("Showing %d of %d stops; narrow the filter or raise limit.", limit, len(rows)))
	}
	return textResult(WrapResponse(page, ctx, nil, guidance))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// dateSpan returns the first and last tour dates, ISO strings sort as dates.
func dateSpan(tours []*records.Tour) []string {
	if len(tours) == 0 {
		return nil
	}
	first, last := tours[0].Date, tours[0].Date
	for _, t := range tours[1:] {
		if t.Date < first {
			first = t.Date
		}
		if t.Date > last {
			last = t.Date
		}
	}
	return []string{first, last}
}
