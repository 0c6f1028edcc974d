// Package ingest turns the two raw export grids into a merged dataset.
package ingest

import (
	"context"
	"fmt"
	"time"

	"tourstats/internal/records"
	"tourstats/internal/schema"

	"github.com/rs/zerolog/log"
)

// Request carries the decoded cell grids of both exports.
type Request struct {
	Tours schema.Grid
	Tasks schema.Grid
}

// Dataset is the normalized and merged result of one ingestion.
type Dataset struct {
	Tours   []*records.Tour        `json:"tours"`
	Tasks   []*records.Task        `json:"tasks"`
	Records []records.MergedRecord `json:"-"`

	ShadowTours     int  `json:"shadowTours"`
	SkippedTourRows int  `json:"skippedTourRows"`
	SkippedTaskRows int  `json:"skippedTaskRows"`
	UnmatchedTasks  int  `json:"unmatchedTasks"`
	DerivedRetard   bool `json:"derivedRetard"`
}

// Response is posted back by the background worker: exactly one of Dataset
// or Err is set.
type Response struct {
	Dataset *Dataset
	Err     error
}

// Process normalizes both grids, builds records and merges them. Schema and
// empty-dataset errors abort before any record is built.
func Process(req Request) (*Dataset, error) {
	start := time.Now()

	tourSheet, err := schema.Normalize(req.Tours, schema.Tours)
	if err != nil {
		return nil, fmt.Errorf("tours sheet: %w", err)
	}
	taskSheet, err := schema.Normalize(req.Tasks, schema.Tasks)
	if err != nil {
		return nil, fmt.Errorf("tasks sheet: %w", err)
	}

	tours, shadow := records.BuildTours(tourSheet)
	if len(tours) == 0 {
		return nil, fmt.Errorf("tours sheet: %w", &schema.EmptyDatasetError{Kind: schema.KindTours, Skipped: tourSheet.Skipped + shadow})
	}
	tasks := records.BuildTasks(taskSheet)
	if len(tasks) == 0 {
		return nil, fmt.Errorf("tasks sheet: %w", &schema.EmptyDatasetError{Kind: schema.KindTasks, Skipped: taskSheet.Skipped})
	}

	merged := records.Merge(tours, tasks)
	ds := &Dataset{
		Tours:           tours,
		Tasks:           tasks,
		Records:         merged,
		ShadowTours:     shadow,
		SkippedTourRows: tourSheet.Skipped,
		SkippedTaskRows: taskSheet.Skipped,
		DerivedRetard:   !taskSheet.Has(schema.FieldDelaySeconds),
	}
	for _, r := range merged {
		if !r.HasTour() {
			ds.UnmatchedTasks++
		}
	}

	log.Debug().
		Int("tours", len(tours)).
		Int("tasks", len(tasks)).
		Int("shadow_tours", shadow).
		Int("skipped_tour_rows", ds.SkippedTourRows).
		Int("skipped_task_rows", ds.SkippedTaskRows).
		Int("unmatched_tasks", ds.UnmatchedTasks).
		Bool("derived_retard", ds.DerivedRetard).
		Dur("elapsed", time.Since(start)).
		Msg("Ingestion complete")
	return ds, nil
}

// Start runs Process on a background goroutine and posts a single Response.
// The channel is buffered so an abandoned request never blocks the worker.
func Start(req Request) <-chan Response {
	out := make(chan Response, 1)
	go func() {
		defer close(out)
		ds, err := Process(req)
		out <- Response{Dataset: ds, Err: err}
	}()
	return out
}

// Wait blocks until the worker responds or ctx is done.
func Wait(ctx context.Context, ch <-chan Response) (*Dataset, error) {
	select {
	case res := <-ch:
		return res.Dataset, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Load starts a worker and waits for it.
func Load(ctx context.Context, req Request) (*Dataset, error) {
	return Wait(ctx, Start(req))
}
