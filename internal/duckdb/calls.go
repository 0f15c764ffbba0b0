package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/xb2bismark/internal/methyl"
)

// CallAppender batch-inserts the calls of one run using the Appender API.
// It implements methyl.CallWriter.
type CallAppender struct {
	conn     *sql.Conn
	appender *goduckdb.Appender
	runID    string
	closed   bool
}

// NewCallAppender opens an appender on the methylation_calls table for
// runID. Close must be called to release the connection.
func (s *Store) NewCallAppender(runID string) (*CallAppender, error) {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "methylation_calls")
		return err
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create appender: %w", err)
	}

	return &CallAppender{conn: conn, appender: appender, runID: runID}, nil
}

// Write appends a single call.
func (a *CallAppender) Write(c methyl.Call) error {
	if err := a.appender.AppendRow(
		a.runID, c.ReadID, string(c.Strand), c.Field1, c.Pos, string(c.Code),
	); err != nil {
		return fmt.Errorf("append call: %w", err)
	}
	return nil
}

// Flush writes buffered rows to the table.
func (a *CallAppender) Flush() error {
	return a.appender.Flush()
}

// Close flushes and releases the appender and its connection. Calling it
// again is a no-op.
func (a *CallAppender) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	err := a.appender.Close()
	if cerr := a.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// ChromSummary counts calls on one reference for a run.
type ChromSummary struct {
	Chrom        string
	Unmethylated int64
	Methylated   int64
}

// Summary returns per-reference call counts for a run, ordered by
// reference name.
func (s *Store) Summary(runID string) ([]ChromSummary, error) {
	rows, err := s.db.Query(`SELECT
		chrom,
		count(*) FILTER (WHERE code = 'z'),
		count(*) FILTER (WHERE code = 'Z')
		FROM methylation_calls
		WHERE run_id=?
		GROUP BY chrom
		ORDER BY chrom`, runID)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var out []ChromSummary
	for rows.Next() {
		var cs ChromSummary
		if err := rows.Scan(&cs.Chrom, &cs.Unmethylated, &cs.Methylated); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary: %w", err)
	}
	return out, nil
}

// CallsForRead returns every stored call of a read in insertion order.
func (s *Store) CallsForRead(readID string) ([]methyl.Call, error) {
	rows, err := s.db.Query(`SELECT read_id, strand, chrom, pos, code
		FROM methylation_calls
		WHERE read_id=?
		ORDER BY rowid`, readID)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}
	defer rows.Close()

	var calls []methyl.Call
	for rows.Next() {
		var c methyl.Call
		var strand, code string
		if err := rows.Scan(&c.ReadID, &strand, &c.Field1, &c.Pos, &code); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		if strand != "" {
			c.Strand = strand[0]
		}
		if code != "" {
			c.Code = code[0]
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

// ClearRun removes a run and its calls.
func (s *Store) ClearRun(runID string) error {
	if _, err := s.db.Exec("DELETE FROM methylation_calls WHERE run_id=?", runID); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM runs WHERE run_id=?", runID)
	return err
}
