package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/xb2bismark/internal/duckdb"
)

func newStatsCmd() *cobra.Command {
	var (
		runID  string
		readID string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize runs recorded in a call store",
		Long: `Summarize methylation calls recorded by "extract --db".

By default the most recent run is shown with per-reference call counts.`,
		Example: `  xb2bismark stats --db calls.duckdb
  xb2bismark stats --db calls.duckdb --all
  xb2bismark stats --db calls.duckdb --read SRR1.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, map[string]string{"db": "db"}); err != nil {
				return err
			}
			dbPath := viper.GetString("db")
			if dbPath == "" {
				return usageError{fmt.Errorf("--db is required")}
			}
			store, err := duckdb.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open call store: %w", err)
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			switch {
			case readID != "":
				return printRead(w, store, readID)
			case all:
				return printRuns(w, store)
			default:
				return printRunSummary(w, store, runID)
			}
		},
	}

	cmd.Flags().String("db", "", "DuckDB call store")
	cmd.Flags().StringVar(&runID, "run", "", "Run id (default: latest run)")
	cmd.Flags().StringVar(&readID, "read", "", "List the calls recorded for one read")
	cmd.Flags().BoolVar(&all, "all", false, "List all runs")
	return cmd
}

func printRuns(w io.Writer, store *duckdb.Store) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "#run_id\tinput\tstarted\tfinished\trecords\tmalformed\tcalls")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.Input.Path, formatTime(r.Started), formatTime(r.Finished),
			r.Records, r.Malformed, r.Calls)
	}
	return nil
}

func printRunSummary(w io.Writer, store *duckdb.Store, runID string) error {
	run, err := findRun(store, runID)
	if err != nil {
		return err
	}

	summary, err := store.Summary(run.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run:       %s\n", run.ID)
	fmt.Fprintf(w, "Input:     %s (%d bytes)\n", run.Input.Path, run.Input.Size)
	fmt.Fprintf(w, "Started:   %s\n", formatTime(run.Started))
	fmt.Fprintf(w, "Finished:  %s\n", formatTime(run.Finished))
	fmt.Fprintf(w, "Records:   %d\n", run.Records)
	fmt.Fprintf(w, "Malformed: %d\n", run.Malformed)
	fmt.Fprintf(w, "Calls:     %d\n", run.Calls)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "#chrom\tz\tZ\tmethylated_fraction")
	for _, c := range summary {
		frac := 0.0
		if total := c.Unmethylated + c.Methylated; total > 0 {
			frac = float64(c.Methylated) / float64(total)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\n", c.Chrom, c.Unmethylated, c.Methylated, frac)
	}
	return nil
}

// findRun returns the run with the given id, or the latest run when id is
// empty.
func findRun(store *duckdb.Store, id string) (*duckdb.Run, error) {
	if id == "" {
		run, err := store.LatestRun()
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, fmt.Errorf("no runs recorded")
		}
		return run, nil
	}

	runs, err := store.Runs()
	if err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].ID == id {
			return &runs[i], nil
		}
	}
	return nil, fmt.Errorf("run %s not found", id)
}

func printRead(w io.Writer, store *duckdb.Store, readID string) error {
	calls, err := store.CallsForRead(readID)
	if err != nil {
		return err
	}
	if len(calls) == 0 {
		return fmt.Errorf("no calls recorded for read %s", readID)
	}
	for _, c := range calls {
		fmt.Fprintf(w, "%s\t%c\t%s\t%d\t%c\n", c.ReadID, c.Strand, c.Field1, c.Pos, c.Code)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
