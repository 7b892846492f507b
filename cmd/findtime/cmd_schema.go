package main

import (
	"fmt"
	"strings"

	"findtime/internal/services/findtime/repo"

	"github.com/spf13/cobra"
)

var schemaApply bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print or apply the grid table DDL",
	Long: `Print the DDL for grid_hourly and grid_daily.

Examples:
  # print the ClickHouse tables
  findtime schema --backend clickhouse

  # create the Postgres tables on SERVICE_PGSQL_DBURL
  findtime schema --backend postgres --apply
`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaApply, "apply", false, "create the tables instead of printing them")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	if !schemaApply {
		b := repo.BackendClickHouse
		if backendFlag != "" {
			var err error
			if b, err = repo.ParseBackend(backendFlag); err != nil {
				return err
			}
		}
		stmts, err := repo.Schema(b)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(stmts, ";\n\n")+";")
		return nil
	}

	s, err := open(cmd.Context(), "schema")
	if err != nil {
		return err
	}
	defer s.close()
	r, err := s.repo()
	if err != nil {
		return err
	}
	if err := r.Migrate(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s schema applied\n", s.opts.Backend)
	return nil
}
