package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"findtime/internal/core/calendar"
	perr "findtime/internal/platform/errors"
	"findtime/internal/platform/logger"
	"findtime/internal/services/findtime/domain"
	"findtime/internal/services/findtime/repo"

	"github.com/spf13/cobra"
)

const loadAttempts = 4

var (
	loadFile   string
	loadBatch  int
	loadRollup bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Append hourly grid cells from CSV",
	Long: `Append rows of variable,ts,lat,lon,value to grid_hourly. A header row is
skipped when its second column does not parse as a timestamp.

Examples:
  findtime load --file era5_t2m_2020.csv --rollup
  cat cells.csv | findtime load --file -
`,
	RunE: runLoad,
}

func init() {
	f := loadCmd.Flags()
	f.StringVar(&loadFile, "file", "-", "CSV path, - for stdin")
	f.IntVar(&loadBatch, "batch", 50000, "rows per insert")
	f.BoolVar(&loadRollup, "rollup", false, "recompute grid_daily for the loaded days afterwards")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, _ []string) error {
	in := cmd.InOrStdin()
	if loadFile != "-" {
		fh, err := os.Open(loadFile)
		if err != nil {
			return err
		}
		defer fh.Close()
		in = fh
	}
	if loadBatch <= 0 {
		loadBatch = 50000
	}

	s, err := open(cmd.Context(), "load")
	if err != nil {
		return err
	}
	defer s.close()
	rp, err := s.repo()
	if err != nil {
		return err
	}

	touched := map[string]calendar.TimeRange{}
	batch := make([]repo.HourlyRow, 0, loadBatch)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := loadWithRetry(cmd.Context(), rp, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	rd := csv.NewReader(in)
	rd.FieldsPerRecord = 5
	rd.ReuseRecord = true
	for line := 1; ; line++ {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		row, err := parseRow(rec)
		if err != nil {
			if line == 1 {
				continue
			}
			return fmt.Errorf("line %d: %w", line, err)
		}
		r, seen := touched[row.Variable]
		switch {
		case !seen:
			r = calendar.MustRange(row.TS, row.TS)
		case row.TS.Before(r.Start):
			r.Start = row.TS
		case row.TS.After(r.End):
			r.End = row.TS
		}
		touched[row.Variable] = r
		batch = append(batch, row)
		if len(batch) == loadBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d rows\n", total)

	if !loadRollup {
		return nil
	}
	for v, r := range touched {
		if err := rp.Rollup(cmd.Context(), v, r); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled up %s over %s\n", v, r)
	}
	return nil
}

// loadWithRetry retries a batch on transient backend errors
func loadWithRetry(ctx context.Context, rp repo.Repo, rows []repo.HourlyRow) error {
	wait := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := rp.LoadHourly(ctx, rows)
		if err == nil || attempt == loadAttempts || !perr.Retryable(err) {
			return err
		}
		logger.Get().Warn().Err(err).Int("attempt", attempt).Int("rows", len(rows)).Msg("retrying batch")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func parseRow(rec []string) (repo.HourlyRow, error) {
	ts, err := calendar.ParseTime(rec[1])
	if err != nil {
		return repo.HourlyRow{}, err
	}
	if !ts.Equal(ts.Truncate(time.Hour)) {
		return repo.HourlyRow{}, fmt.Errorf("timestamp %s is not on the hour", rec[1])
	}
	var nums [3]float64
	for i, f := range rec[2:] {
		if nums[i], err = strconv.ParseFloat(f, 64); err != nil {
			return repo.HourlyRow{}, fmt.Errorf("column %d: %w", i+3, err)
		}
	}
	variable, err := domain.ShortName(rec[0])
	if err != nil {
		return repo.HourlyRow{}, err
	}
	return repo.HourlyRow{Variable: variable, TS: ts, Lat: nums[0], Lon: nums[1], Value: nums[2]}, nil
}
