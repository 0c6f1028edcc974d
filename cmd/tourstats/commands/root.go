package commands

import (
	"context"
	"os"
	"os/signal"

	"tourstats/internal/config"
	"tourstats/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	logDir  string
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "tourstats",
	Short: "Delivery tour punctuality, anomaly and demand analytics",
	Long: `tourstats reads a pair of tours/tasks spreadsheet exports, merges stops into
their tours and reports punctuality KPIs, capacity and duration anomalies,
driver and geographic performance, workload and a flexible-window demand
simulation. Without a subcommand it serves the same analytics as MCP tools on stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logFile, err := logging.Init(logging.Options{Verbose: verbose, Dir: logDir, Console: true})
		if err != nil {
			return err
		}

		cfg, err = config.Load()
		if err != nil {
			return err
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("logFile", logFile).
			Msg("tourstats starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "log directory (overrides LOGS_FOLDER)")
	rootCmd.Version = Version
}
