package commands

import (
	"tourstats/internal/mcp"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analytics as MCP tools on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	return mcp.NewServer(cfg, Version).Start(cmd.Context())
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
