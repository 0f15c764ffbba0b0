package duckdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inodb/xb2bismark/internal/methyl"
)

// Run describes one conversion recorded in the store.
type Run struct {
	ID        string
	Input     FileFingerprint
	Started   time.Time
	Finished  time.Time // zero while the run is in progress
	Records   int64
	Malformed int64
	Calls     int64
}

// StartRun registers a new run for input and returns it with a fresh id.
func (s *Store) StartRun(input string) (*Run, error) {
	fp, err := StatFile(input)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	run := &Run{
		ID:      uuid.NewString(),
		Input:   fp,
		Started: time.Now().UTC(),
	}

	var modTime sql.NullTime
	if !fp.ModTime.IsZero() {
		modTime = sql.NullTime{Time: fp.ModTime.UTC(), Valid: true}
	}

	if _, err := s.db.Exec(`INSERT INTO runs (run_id, input, input_size, input_modtime, started)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, fp.Path, fp.Size, modTime, run.Started); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final counters of a run.
func (s *Store) FinishRun(run *Run, stats methyl.Stats) error {
	run.Finished = time.Now().UTC()
	run.Records = int64(stats.Records)
	run.Malformed = int64(stats.Malformed)
	run.Calls = int64(stats.Calls)

	if _, err := s.db.Exec(`UPDATE runs SET finished=?, records=?, malformed=?, calls=?
		WHERE run_id=?`,
		run.Finished, run.Records, run.Malformed, run.Calls, run.ID); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// Runs returns all recorded runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT
		run_id, input, input_size, input_modtime, started, finished,
		records, malformed, calls
		FROM runs
		ORDER BY started`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                   Run
			size                sql.NullInt64
			modTime, finished   sql.NullTime
			records, bad, calls sql.NullInt64
		)
		if err := rows.Scan(
			&r.ID, &r.Input.Path, &size, &modTime, &r.Started, &finished,
			&records, &bad, &calls,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Input.Size = size.Int64
		r.Input.ModTime = modTime.Time
		r.Finished = finished.Time
		r.Records = records.Int64
		r.Malformed = bad.Int64
		r.Calls = calls.Int64
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recently started run, or nil if the store
// is empty.
func (s *Store) LatestRun() (*Run, error) {
	runs, err := s.Runs()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[len(runs)-1], nil
}
