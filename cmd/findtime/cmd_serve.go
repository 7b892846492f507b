package main

import (
	"findtime/internal/services/api"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  "Start the HTTP API on FINDTIME_API_PORT; backends come from SERVICE_CLICKHOUSE_*, SERVICE_PGSQL_* and SERVICE_REDIS_*",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if backendFlag != "" {
			cmd.PrintErrln("--backend is ignored by serve; set FINDTIME_BACKEND")
		}
		return api.Run(cmd.Context(), root)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
