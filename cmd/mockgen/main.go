package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"tourstats/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, late, overload")
	outDir := flag.String("out", "./.cache", "Output directory for mock exports")
	days := flag.Int("days", 5, "Number of days to generate")
	tours := flag.Int("tours", 6, "Tours per day")
	stops := flag.Int("stops", 10, "Stops per tour")
	start := flag.String("start", "2024-01-08", "First day (YYYY-MM-DD)")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	day, err := time.Parse("2006-01-02", *start)
	if err != nil {
		fmt.Printf("Invalid start date: %v\n", err)
		os.Exit(1)
	}

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Days:         *days,
		ToursPerDay:  *tours,
		StopsPerTour: *stops,
		Start:        day,
		Seed:         *seed,
	}

	fmt.Printf("Generating scenario '%s' (%d days x %d tours x %d stops) to %s...\n", cfg.Scenario, cfg.Days, cfg.ToursPerDay, cfg.StopsPerTour, *outDir)

	toursPath, tasksPath, err := engine.Save(*outDir, engine.Generate(cfg))
	if err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done: %s, %s\n", toursPath, tasksPath)
}
