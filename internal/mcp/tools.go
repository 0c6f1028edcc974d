package mcp

import (
	"fmt"

	"tourstats/internal/stats"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// LoadExportsInput names the two exports to ingest.
type LoadExportsInput struct {
	ToursPath  string `json:"tours_path" jsonschema:"Path to the tours export (.xlsx, .xls or .csv)"`
	TasksPath  string `json:"tasks_path" jsonschema:"Path to the tasks export (.xlsx, .xls or .csv)"`
	ToursSheet string `json:"tours_sheet,omitempty" jsonschema:"Worksheet holding tours; defaults to the configured or first sheet"`
	TasksSheet string `json:"tasks_sheet,omitempty" jsonschema:"Worksheet holding tasks; defaults to the configured or first sheet"`
}

// AnalyzeInput selects the filter and the result sections to return.
type AnalyzeInput struct {
	Filter   stats.Filter `json:"filter,omitempty" jsonschema:"Optional filter (dateRange, selectedDate, depot, entrepot, city, codePostal, heure, punctualityThreshold, topPostalCodes, excludeMadDelays, madDelays, tours100Mobile)"`
	Sections []string     `json:"sections,omitempty" jsonschema:"Subset of: kpis, anomalies, drivers, geography, groups, temporal, workload, stability. Empty returns everything."`
}

// SimulateInput configures a demand simulation run.
type SimulateInput struct {
	Filter            stats.Filter `json:"filter,omitempty" jsonschema:"Optional filter applied before simulating"`
	Seed              *int64       `json:"seed,omitempty" jsonschema:"Seed for the late-marking step; omit for the configured seed"`
	ResolutionMinutes int          `json:"resolution_minutes,omitempty" jsonschema:"Curve bucket size in minutes (default 30)"`
}

// AnomaliesInput selects one anomaly family.
type AnomaliesInput struct {
	Filter stats.Filter `json:"filter,omitempty" jsonschema:"Optional filter"`
	Kind   string       `json:"kind" jsonschema:"One of: capacity, duration, late_start"`
	Rule   string       `json:"rule,omitempty" jsonschema:"Capacity rule: hard (vehicle limits, default) or planned (10% over plan)"`
	Limit  int          `json:"limit,omitempty" jsonschema:"Maximum rows to return (default 50)"`

	IncludeShorter bool `json:"include_shorter,omitempty" jsonschema:"For kind=duration, also list tours that ran shorter than planned"`
}

// ListStopsInput lists raw merged stops.
type ListStopsInput struct {
	Filter   stats.Filter `json:"filter,omitempty" jsonschema:"Optional filter"`
	Status   string       `json:"status,omitempty" jsonschema:"Only stops with this status: late, early or onTime"`
	TourName string       `json:"tour_name,omitempty" jsonschema:"Only stops of this tour"`
	Limit    int          `json:"limit,omitempty" jsonschema:"Maximum rows to return (default 100)"`
}

func inputSchema[T any]() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		var zero T
		return nil, fmt.Errorf("input schema for %T: %w", zero, err)
	}
	return schema, nil
}

func addTool[In any](server *sdk.Server, name, description string, handler sdk.ToolHandlerFor[In, any]) error {
	schema, err := inputSchema[In]()
	if err != nil {
		return err
	}
	sdk.AddTool(server, &sdk.Tool{Name: name, Description: description, InputSchema: schema}, handler)
	return nil
}

func (s *Server) registerTools(server *sdk.Server) error {
	tools := []func() error{
		func() error {
			return addTool(server, "load_exports",
				"Load a pair of tours/tasks spreadsheet exports, normalize headers and merge stops into tours. Must be called before any analysis tool.",
				s.handleLoadExports)
		},
		func() error {
			return addTool(server, "analyze_tours",
				"Compute punctuality KPIs, anomalies, driver/geography/depot performance, temporal distributions and workload for the loaded exports.",
				s.handleAnalyze)
		},
		func() error {
			return addTool(server, "simulate_demand",
				"Redistribute delivered volume over flexible 2-hour windows every 30 minutes and return promise/plan/realized demand curves.",
				s.handleSimulate)
		},
		func() error {
			return addTool(server, "list_anomalies",
				"List capacity overruns, tours running long, or tours that left on time yet delivered late.",
				s.handleListAnomalies)
		},
		func() error {
			return addTool(server, "list_stops",
				"List merged stops with their punctuality classification, including stops that matched no tour.",
				s.handleListStops)
		},
	}
	for _, register := range tools {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}
