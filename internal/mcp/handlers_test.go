package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tourstats/internal/config"
	"tourstats/internal/stats"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const toursCSV = "Nom,Date,Entrepôt ,Poids (kg),Capacité poids (kg)\n" +
	"T1,10/01/2024,W1,100,120\n" +
	"R-T1,10/01/2024,W1,100,120\n"

const tasksCSV = "Tournée;Date;Entrepôt;Poids;Départ;Arrivée;Arrivée approximative;Heure d'arrivée sur site;Heure de clôture\n" +
	"T1;10/01/2024;W1;140;10:00;11:00;10:16:40;10:50;10:58:20\n" +
	"T9;10/01/2024;W1;5;10:00;11:00;;11:40;11:45\n"

func writeExports(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	toursPath := filepath.Join(dir, "tours.csv")
	tasksPath := filepath.Join(dir, "tasks.csv")
	if err := os.WriteFile(toursPath, []byte(toursCSV), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tasksPath, []byte(tasksCSV), 0644); err != nil {
		t.Fatal(err)
	}
	return toursPath, tasksPath
}

func newTestServer() *Server {
	return NewServer(&config.AppConfig{PunctualityThreshold: stats.DefaultTolerance, SimulationSeed: 42}, "test")
}

func loadedServer(t *testing.T) *Server {
	t.Helper()
	s := newTestServer()
	toursPath, tasksPath := writeExports(t)
	if _, _, err := s.handleLoadExports(context.Background(), nil, LoadExportsInput{ToursPath: toursPath, TasksPath: tasksPath}); err != nil {
		t.Fatalf("Unexpected load error: %v", err)
	}
	return s
}

func decodeEnvelope(t *testing.T, res *sdk.CallToolResult) map[string]any {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("Expected a single content block, got %+v", res)
	}
	text, ok := res.Content[0].(*sdk.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", res.Content[0])
	}
	var env map[string]any
	if err := json.Unmarshal([]byte(text.Text), &env); err != nil {
		t.Fatalf("Invalid JSON payload: %v", err)
	}
	return env
}

func TestHandlers_RequireDataset(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()
	if _, _, err := s.handleAnalyze(ctx, nil, AnalyzeInput{}); err == nil || !strings.Contains(err.Error(), "load_exports") {
		t.Errorf("Expected a load_exports hint, got %v", err)
	}
	if _, _, err := s.handleSimulate(ctx, nil, SimulateInput{}); err == nil {
		t.Error("Expected simulate to fail without a dataset")
	}
	if _, _, err := s.handleLoadExports(ctx, nil, LoadExportsInput{ToursPath: "tours.csv"}); err == nil {
		t.Error("Expected an error without tasks_path")
	}
}

func TestHandleLoadExports(t *testing.T) {
	s := newTestServer()
	toursPath, tasksPath := writeExports(t)
	res, _, err := s.handleLoadExports(context.Background(), nil, LoadExportsInput{ToursPath: toursPath, TasksPath: tasksPath})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	env := decodeEnvelope(t, res)

	data := env["data"].(map[string]any)
	if data["tours"] != 1.0 || data["tasks"] != 2.0 || data["unmatchedTasks"] != 1.0 {
		t.Errorf("Unexpected load summary: %v", data)
	}
	diag := env["diagnostics"].(map[string]any)
	if diag["shadowToursDropped"] != 1.0 {
		t.Errorf("Expected 1 shadow tour dropped, got %v", diag["shadowToursDropped"])
	}
	if guidance := env["guidance"].([]any); len(guidance) != 2 {
		t.Errorf("Expected derived-delay and unmatched guidance, got %v", guidance)
	}
	if _, err := s.activeSession(); err != nil {
		t.Errorf("Expected an active session: %v", err)
	}
}

func TestHandleAnalyze_Sections(t *testing.T) {
	s := loadedServer(t)
	ctx := context.Background()

	res, _, err := s.handleAnalyze(ctx, nil, AnalyzeInput{Sections: []string{"KPIs"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	data := decodeEnvelope(t, res)["data"].(map[string]any)
	if _, ok := data["kpis"]; !ok {
		t.Error("Expected kpis section")
	}
	if _, ok := data["byDriver"]; ok {
		t.Error("Expected byDriver to be left out")
	}

	res, _, err = s.handleAnalyze(ctx, nil, AnalyzeInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	data = decodeEnvelope(t, res)["data"].(map[string]any)
	for _, key := range []string{"capacityOverruns", "byCity", "byDepot", "temporal", "workload"} {
		if _, ok := data[key]; !ok {
			t.Errorf("Expected %s in the full result", key)
		}
	}
	if _, ok := data["charts"]; ok {
		t.Error("Expected no charts when mermaid output is disabled")
	}

	if _, _, err := s.handleAnalyze(ctx, nil, AnalyzeInput{Sections: []string{"weather"}}); err == nil {
		t.Error("Expected an unknown section error")
	}
	bad := stats.Filter{SelectedDate: "10/01/2024"}
	if _, _, err := s.handleAnalyze(ctx, nil, AnalyzeInput{Filter: bad}); err == nil {
		t.Error("Expected a filter validation error")
	}
}

func TestHandleAnalyze_Charts(t *testing.T) {
	s := loadedServer(t)
	s.cfg.EnableMermaidCharts = true
	res, _, err := s.handleAnalyze(context.Background(), nil, AnalyzeInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	charts, ok := decodeEnvelope(t, res)["data"].(map[string]any)["charts"].(map[string]any)
	if !ok || len(charts) == 0 {
		t.Fatal("Expected mermaid charts")
	}
}

func TestHandleListAnomalies(t *testing.T) {
	s := loadedServer(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      AnomaliesInput
		rows    int
		wantErr bool
	}{
		{name: "hard capacity", in: AnomaliesInput{Kind: "capacity"}, rows: 1},
		{name: "planned capacity", in: AnomaliesInput{Kind: "capacity", Rule: "planned"}, rows: 1},
		{name: "late starts", in: AnomaliesInput{Kind: "late_start"}, rows: 0},
		{name: "unknown rule", in: AnomaliesInput{Kind: "capacity", Rule: "soft"}, wantErr: true},
		{name: "unknown kind", in: AnomaliesInput{Kind: "weather"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, err := s.handleListAnomalies(ctx, nil, tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			rows, _ := decodeEnvelope(t, res)["data"].([]any)
			if len(rows) != tt.rows {
				t.Errorf("Expected %d rows, got %d", tt.rows, len(rows))
			}
		})
	}
}

func TestHandleListStops(t *testing.T) {
	s := loadedServer(t)
	res, _, err := s.handleListStops(context.Background(), nil, ListStopsInput{Status: "late"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rows := decodeEnvelope(t, res)["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 late stop, got %d", len(rows))
	}
	row := rows[0].(map[string]any)
	if row["tour"] != "T9" || row["matched"] != false || row["retardMinutes"] != 40.0 {
		t.Errorf("Unexpected late stop: %v", row)
	}

	res, _, err = s.handleListStops(context.Background(), nil, ListStopsInput{Limit: 1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	env := decodeEnvelope(t, res)
	if len(env["data"].([]any)) != 1 || env["context"].(map[string]any)["total"] != 2.0 {
		t.Errorf("Expected a truncated page of 1 out of 2, got %v", env)
	}

	if _, _, err := s.handleListStops(context.Background(), nil, ListStopsInput{Status: "lost"}); err == nil {
		t.Error("Expected an unknown status error")
	}
}

func TestHandleSimulate(t *testing.T) {
	s := loadedServer(t)
	seed := int64(3)
	res, _, err := s.handleSimulate(context.Background(), nil, SimulateInput{Seed: &seed, ResolutionMinutes: 60})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	env := decodeEnvelope(t, res)
	data := env["data"].(map[string]any)
	if data["totalOrders"] != 2.0 {
		t.Errorf("Expected 2 orders, got %v", data["totalOrders"])
	}
	if promise := data["promise"].([]any); len(promise) != 24 {
		t.Errorf("Expected 24 hourly buckets, got %d", len(promise))
	}
	if env["context"].(map[string]any)["seed"] != 3.0 {
		t.Errorf("Expected the explicit seed to win, got %v", env["context"])
	}
}

func TestWrapResponse_DropsEmptySections(t *testing.T) {
	env := WrapResponse([]int{1}, map[string]any{}, nil, nil)
	if env.Context != nil || env.Diagnostics != nil {
		t.Errorf("Expected empty maps to be dropped, got %+v", env)
	}
	text, err := formatResult(env)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, "context") || !strings.Contains(text, `"data"`) {
		t.Errorf("Unexpected encoding: %s", text)
	}
}
