package commands

import (
	"context"
	"fmt"

	"tourstats/internal/config"
	"tourstats/internal/ingest"
	"tourstats/internal/sheets"
	"tourstats/internal/stats"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// sourceFlags are shared by every command that reads the exports.
type sourceFlags struct {
	tours      string
	tasks      string
	toursSheet string
	tasksSheet string
	filters    string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tours, "tours", "", "tours export (.xlsx, .xls or .csv)")
	cmd.Flags().StringVar(&f.tasks, "tasks", "", "tasks export (.xlsx, .xls or .csv)")
	cmd.Flags().StringVar(&f.toursSheet, "tours-sheet", "", "worksheet holding tours (default TOURS_SHEET or the first sheet)")
	cmd.Flags().StringVar(&f.tasksSheet, "tasks-sheet", "", "worksheet holding tasks (default TASKS_SHEET or the first sheet)")
	cmd.Flags().StringVar(&f.filters, "filters", "", "filter file (.yaml, .json or .toml)")
	_ = cmd.MarkFlagRequired("tours")
	_ = cmd.MarkFlagRequired("tasks")
}

func (f *sourceFlags) sources() []string {
	return []string{f.tours, f.tasks}
}

// filter reads the optional filter file.
func (f *sourceFlags) filter() (stats.Filter, error) {
	if f.filters == "" {
		return stats.Filter{}, nil
	}
	return config.LoadFilter(f.filters)
}

// load decodes both exports concurrently and runs the ingestion worker.
func (f *sourceFlags) load(ctx context.Context, logger zerolog.Logger) (*ingest.Dataset, error) {
	toursSheet := f.toursSheet
	if toursSheet == "" {
		toursSheet = cfg.ToursSheet
	}
	tasksSheet := f.tasksSheet
	if tasksSheet == "" {
		tasksSheet = cfg.TasksSheet
	}

	tourGrid, taskGrid, err := sheets.LoadPair(ctx,
		sheets.Source{Path: f.tours, Sheet: toursSheet},
		sheets.Source{Path: f.tasks, Sheet: tasksSheet})
	if err != nil {
		return nil, err
	}
	ds, err := ingest.Load(ctx, ingest.Request{Tours: tourGrid, Tasks: taskGrid})
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int("tours", len(ds.Tours)).
		Int("tasks", len(ds.Tasks)).
		Int("shadowTours", ds.ShadowTours).
		Int("unmatchedTasks", ds.UnmatchedTasks).
		Bool("derivedRetard", ds.DerivedRetard).
		Msg("Exports loaded")
	return ds, nil
}

// analyze loads the exports and analyzes them under the filter file.
func (f *sourceFlags) analyze(ctx context.Context, logger zerolog.Logger) (*stats.AnalysisSession, *stats.AnalysisResult, stats.Filter, error) {
	filter, err := f.filter()
	if err != nil {
		return nil, nil, filter, err
	}
	ds, err := f.load(ctx, logger)
	if err != nil {
		return nil, nil, filter, err
	}
	session := stats.NewAnalysisSession(ds.Tours, ds.Records, cfg.PunctualityThreshold)
	res, err := session.Analyze(filter)
	if err != nil {
		return nil, nil, filter, fmt.Errorf("analyze: %w", err)
	}
	return session, res, filter, nil
}
