package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"tourstats/internal/logging"
	"tourstats/internal/stats"
	"tourstats/internal/visuals"

	"github.com/spf13/cobra"
)

var (
	analyzeSource sourceFlags
	analyzeJSON   bool
	analyzeDemand bool
	analyzeSeed   int64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print punctuality KPIs, anomalies and performance tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, logger := logging.NewRun("analyze")
		session, res, filter, err := analyzeSource.analyze(cmd.Context(), logger)
		if err != nil {
			return err
		}
		if analyzeDemand {
			demand, err := session.Simulate(filter, newEngine(cmd, analyzeSeed))
			if err != nil {
				return err
			}
			res = res.WithDemand(demand)
		}
		logger.Info().Int("kpis", len(res.KPIs)).Msg("Analysis complete")

		out := cmd.OutOrStdout()
		if analyzeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		fmt.Fprintf(out, "Run %s: %d tours, %d stops, tolerance %d s\n\n", runID, res.Tours, res.Tasks, res.Tolerance)
		printSummary(out, res)
		if cfg.EnableMermaidCharts {
			for _, c := range visuals.Charts(res) {
				fmt.Fprintf(out, "\n%s\n%s\n", c.Title, c.Mermaid)
			}
		}
		return nil
	},
}

func printSummary(out io.Writer, res *stats.AnalysisResult) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDICATOR\tVALUE\tUNIT")
	for _, k := range res.KPIs {
		fmt.Fprintf(w, "%s\t%.1f\t%s\n", k.Label, k.Value, k.Unit)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PLANNED VS REALIZED\tPLANNED\tREALIZED\tDELTA\tDELTA %")
	for _, c := range res.Comparisons {
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.1f\t%.1f\n", c.Label, c.Planned, c.Realized, c.Delta, c.DeltaPct)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "DRIVER\tTOURS\tSTOPS\tPUNCTUALITY %\tOVERRUNS")
	for _, d := range res.ByDriver {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\t%d\n", d.Driver, d.Tours, d.Tasks, d.PunctualityRate, d.CapacityOverruns)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "DEPOT\tSTOPS\tREALIZED %\tPLANNED %\tGAP")
	for _, g := range res.ByDepot {
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%.1f\n", g.Key, g.Tasks, g.RealizedPunctuality, g.PlannedPunctuality, g.PunctualityGap)
	}
	_ = w.Flush()

	if res.Demand != nil {
		fmt.Fprintf(out, "\nSimulated demand: %d orders over %d windows, plan offset %d min, realized offset %d min, late probability %.2f\n",
			res.Demand.TotalOrders, len(res.Demand.Windows), res.Demand.PlanOffsetMinutes, res.Demand.RealizedOffsetMinutes, res.Demand.LateProbability)
	}
}

func init() {
	analyzeSource.register(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeDemand, "demand", false, "attach a demand simulation run")
	analyzeCmd.Flags().Int64Var(&analyzeSeed, "seed", 0, "simulation seed (default SIMULATION_SEED)")
	rootCmd.AddCommand(analyzeCmd)
}
