package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"findtime/internal/modkit"
	"findtime/internal/services/findtime/domain"

	"github.com/spf13/cobra"
)

var (
	qIn    domain.FindTimeInput
	qBox   []float64
	qValue float64
	qJSON  bool
	qStats bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Evaluate a threshold predicate over a box and time range",
	Long: `Evaluate "aggregate(variable over box) <predicate> value" for every block
between --start and --end and print the maximal runs.

Examples:
  # hours in 2020 where the box maximum exceeded 300 K
  findtime query --variable 2m_temperature --start 2020-01-01 --end "2020-12-31 23:00" \
    --box 1,9,6,14 --predicate ">" --value 300 --aggregation max

  # same, daily, as JSON with the pruning trace
  findtime query --variable 2m_temperature --start 2020-01-01 --end "2020-12-31 23:00" \
    --box 1,9,6,14 --predicate ">" --value 300 --resolution day --json
`,
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringVar(&qIn.Variable, "variable", "", "variable name, e.g. 2m_temperature")
	f.StringVar(&qIn.Start, "start", "", "first hour, YYYY-MM-DD[ HH[:MM[:SS]]] in UTC")
	f.StringVar(&qIn.End, "end", "", "last hour, inclusive")
	f.Float64SliceVar(&qBox, "box", nil, "min_lat,max_lat,min_lon,max_lon")
	f.StringVar(&qIn.Predicate, "predicate", "", "one of > < == != >= <=")
	f.Float64Var(&qValue, "value", 0, "threshold")
	f.StringVar(&qIn.TemporalResolution, "resolution", "hour", "hour, day, month or year")
	f.StringVar(&qIn.Aggregation, "aggregation", "", "mean, min or max (default FINDTIME_BASELINE_AGG)")
	f.BoolVar(&qIn.IncludePoints, "points", false, "include every block in the output")
	f.BoolVar(&qJSON, "json", false, "print the full result as JSON")
	f.BoolVar(&qStats, "stats", false, "print the per-level pruning trace")
	for _, name := range []string{"variable", "start", "end", "box", "predicate", "value"} {
		_ = queryCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, _ []string) error {
	if len(qBox) != 4 {
		return fmt.Errorf("--box wants 4 values, got %d", len(qBox))
	}
	qIn.MinLat, qIn.MaxLat, qIn.MinLon, qIn.MaxLon = qBox[0], qBox[1], qBox[2], qBox[3]
	qIn.Value = &qValue

	s, err := open(cmd.Context(), "cli")
	if err != nil {
		return err
	}
	defer s.close()

	svc := modkit.MustPortsOf[domain.ServicePort](s.module)
	res, err := svc.FindTime(cmd.Context(), qIn)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if qJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(out, res)
	return nil
}

func printResult(out io.Writer, res domain.FindTimeResult) {
	fmt.Fprintf(out, "%s %s: %d of %d %s blocks true (query %s)\n",
		res.Variable, res.Start.Format(time.DateTime), res.TrueCount, res.Total, res.Resolution, res.QueryID)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tBLOCKS\tVALUE")
	for _, r := range res.Runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", r.Start.Format(time.DateTime), r.End.Format(time.DateTime), r.Count, r.Value)
	}
	_ = tw.Flush()

	for _, p := range res.Points {
		fmt.Fprintf(out, "%s %t\n", p.T.Format(time.DateTime), p.V)
	}

	st := res.Stats
	fmt.Fprintf(out, "pruned=%t resolved=%d oracle_calls=%d baseline_calls=%d baseline_hours=%d took=%.1fms\n",
		st.Pruned, st.Resolved, st.OracleCalls, st.BaselineCalls, st.BaselineHours, st.DurationMs)
	if !qStats {
		return
	}
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tPENDING\tSPANS\tTRUE\tFALSE\tREFINED")
	for _, l := range st.Levels {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", l.Granularity, l.Pending, l.Spans, l.True, l.False, l.Refined)
	}
	_ = tw.Flush()
}
