package main

import (
	"fmt"

	"findtime/internal/core/calendar"
	"findtime/internal/services/findtime/domain"

	"github.com/spf13/cobra"
)

var (
	rollupVariable string
	rollupStart    string
	rollupEnd      string
	rollupMigrate  bool
)

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Recompute grid_daily bounds from grid_hourly",
	Long: `Recompute the per-day min, max, sum and hour counts for every cell on the
days touching --start..--end. Run it after loading or correcting raw hours;
stale bounds make pruning answer from old data.

Examples:
  findtime rollup --variable 2m_temperature --start 2020-01-01 --end 2020-12-31
`,
	RunE: runRollup,
}

func init() {
	f := rollupCmd.Flags()
	f.StringVar(&rollupVariable, "variable", "", "variable name")
	f.StringVar(&rollupStart, "start", "", "first hour, YYYY-MM-DD[ HH]")
	f.StringVar(&rollupEnd, "end", "", "last hour; a bare date means its first hour")
	f.BoolVar(&rollupMigrate, "migrate", false, "create the tables first")
	_ = rollupCmd.MarkFlagRequired("variable")
	_ = rollupCmd.MarkFlagRequired("start")
	_ = rollupCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(rollupCmd)
}

func runRollup(cmd *cobra.Command, _ []string) error {
	r, err := parseRange(rollupStart, rollupEnd)
	if err != nil {
		return err
	}
	variable, err := domain.ShortName(rollupVariable)
	if err != nil {
		return err
	}

	s, err := open(cmd.Context(), "rollup")
	if err != nil {
		return err
	}
	defer s.close()
	rp, err := s.repo()
	if err != nil {
		return err
	}
	if rollupMigrate {
		if err := rp.Migrate(cmd.Context()); err != nil {
			return err
		}
	}
	if err := rp.Rollup(cmd.Context(), variable, r); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rolled up %s over %s\n", variable, r)
	return nil
}

func parseRange(start, end string) (calendar.TimeRange, error) {
	a, err := calendar.ParseTime(start)
	if err != nil {
		return calendar.TimeRange{}, fmt.Errorf("--start: %w", err)
	}
	b, err := calendar.ParseTime(end)
	if err != nil {
		return calendar.TimeRange{}, fmt.Errorf("--end: %w", err)
	}
	return calendar.NewRange(a, b)
}
