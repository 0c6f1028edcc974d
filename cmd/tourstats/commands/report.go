package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"tourstats/internal/logging"
	"tourstats/internal/visuals"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	reportSource sourceFlags
	reportOut    string
	reportTitle  string
	reportOpen   bool
	reportDemand bool
	reportSeed   int64
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the analysis as a standalone HTML report",
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, logger := logging.NewRun("report")
		session, res, filter, err := reportSource.analyze(cmd.Context(), logger)
		if err != nil {
			return err
		}
		if reportDemand {
			demand, err := session.Simulate(filter, newEngine(cmd, reportSeed))
			if err != nil {
				return err
			}
			res = res.WithDemand(demand)
		}

		dir := reportOut
		if dir == "" {
			dir = cfg.ReportDir
		}
		sources := make([]string, 0, 2)
		for _, s := range reportSource.sources() {
			sources = append(sources, filepath.Base(s))
		}
		path, err := visuals.WriteReport(dir, visuals.ReportData{
			Title:       reportTitle,
			RunID:       runID,
			GeneratedAt: time.Now(),
			Sources:     sources,
			Result:      res,
			Charts:      visuals.Charts(res),
		})
		if err != nil {
			return err
		}
		logger.Info().Str("path", path).Msg("Report written")
		fmt.Fprintln(cmd.OutOrStdout(), path)

		if reportOpen {
			if err := browser.OpenFile(path); err != nil {
				logger.Warn().Err(err).Msg("Failed to open report in browser")
			}
		}
		return nil
	},
}

func init() {
	reportSource.register(reportCmd)
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output directory (default <DATA_PATH>/reports)")
	reportCmd.Flags().StringVar(&reportTitle, "title", "Delivery tour analysis", "report title")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "open the report in the default browser")
	reportCmd.Flags().BoolVar(&reportDemand, "demand", true, "include the demand simulation")
	reportCmd.Flags().Int64Var(&reportSeed, "seed", 0, "simulation seed (default SIMULATION_SEED)")
	rootCmd.AddCommand(reportCmd)
}
