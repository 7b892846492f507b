package main

import (
	"errors"
	"fmt"

	perr "findtime/internal/platform/errors"
	"findtime/internal/services/findtime/domain"

	"github.com/spf13/cobra"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage VARIABLE...",
	Short: "Show the rolled-up time range stored for each variable",
	Long: `Print the first and last hour covered by grid_daily per variable. Queries
outside that range prune nothing and fall through to raw hours.

Examples:
  findtime coverage 2m_temperature total_precipitation
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCoverage,
}

func init() {
	rootCmd.AddCommand(coverageCmd)
}

func runCoverage(cmd *cobra.Command, args []string) error {
	s, err := open(cmd.Context(), "cli")
	if err != nil {
		return err
	}
	defer s.close()
	rp, err := s.repo()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range args {
		short, err := domain.ShortName(name)
		if err != nil {
			return err
		}
		r, err := rp.Coverage(cmd.Context(), short)
		switch {
		case errors.Is(err, perr.ErrNotFound):
			fmt.Fprintf(out, "%s\tno rolled-up days\n", short)
		case err != nil:
			return err
		default:
			fmt.Fprintf(out, "%s\t%s\t%d hours\n", short, r, r.Hours())
		}
	}
	return nil
}
