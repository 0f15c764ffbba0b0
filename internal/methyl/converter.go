package methyl

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/xb2bismark/internal/cigar"
	"github.com/inodb/xb2bismark/internal/xbtag"
)

// FilterReason explains why a record produced no calls without an error.
type FilterReason uint8

// Filter reasons.
const (
	Kept FilterReason = iota
	FilteredUnmapped
	FilteredSecondary
)

func (f FilterReason) String() string {
	switch f {
	case FilteredUnmapped:
		return "unmapped"
	case FilteredSecondary:
		return "secondary"
	}
	return "kept"
}

// Filter decides whether a record enters the decoding pipeline.
func Filter(rec *Record) FilterReason {
	if rec.Unmapped() {
		return FilteredUnmapped
	}
	if rec.Secondary() {
		return FilteredSecondary
	}
	return Kept
}

// ErrorPolicy selects what happens to malformed records.
type ErrorPolicy uint8

// Error policies.
const (
	// FailFast aborts the run on the first malformed record.
	FailFast ErrorPolicy = iota
	// SkipMalformed logs and counts malformed records and keeps going.
	SkipMalformed
)

// ParseErrorPolicy parses "fail" or "skip".
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(s) {
	case "", "fail":
		return FailFast, nil
	case "skip":
		return SkipMalformed, nil
	}
	return FailFast, fmt.Errorf("unknown error policy %q (want fail or skip)", s)
}

func (p ErrorPolicy) String() string {
	if p == SkipMalformed {
		return "skip"
	}
	return "fail"
}

// Result is the outcome of converting one record.
type Result struct {
	Record   *Record
	Filtered FilterReason
	Decoded  string // tag expanded to one character per position
	Frame    string // Decoded projected onto the alignment frame
	Calls    []Call
}

// CallWriter receives calls in output order.
type CallWriter interface {
	Write(c Call) error
	Flush() error
}

// FrameWriter receives the intermediate strings of every kept record.
type FrameWriter interface {
	WriteFrame(r *Result) error
}

// Converter runs records through the decoding pipeline.
type Converter struct {
	policy  ErrorPolicy
	workers int
	frames  FrameWriter
	logger  *zap.Logger
	stats   Stats
}

// NewConverter creates a sequential, fail-fast converter.
func NewConverter() *Converter {
	return &Converter{
		workers: 1,
		logger:  zap.NewNop(),
	}
}

// SetErrorPolicy configures how malformed records are handled.
func (c *Converter) SetErrorPolicy(p ErrorPolicy) {
	c.policy = p
}

// SetWorkers sets the number of conversion goroutines. 1 converts records
// sequentially, 0 uses one worker per CPU.
func (c *Converter) SetWorkers(n int) {
	c.workers = n
}

// SetFrameWriter installs a writer for intermediate frames.
func (c *Converter) SetFrameWriter(fw FrameWriter) {
	c.frames = fw
}

// SetLogger sets the logger for warnings and the run summary.
func (c *Converter) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Stats returns the counters of the last ConvertAll run.
func (c *Converter) Stats() Stats {
	return c.stats
}

// Convert runs a single record through the pipeline. Filtered records
// return a Result with no calls and a nil error.
func (c *Converter) Convert(rec *Record) (*Result, error) {
	res := &Result{Record: rec, Filtered: Filter(rec)}
	if res.Filtered != Kept {
		return res, nil
	}

	ops, err := cigar.Parse(rec.Cigar)
	if err != nil {
		return nil, fmt.Errorf("convert read %s at line %d: %w", rec.ReadID, rec.Line, err)
	}

	res.Decoded, err = xbtag.Decode(rec.Tag)
	if err != nil {
		return nil, fmt.Errorf("convert read %s at line %d: %w", rec.ReadID, rec.Line, err)
	}
	res.Frame = cigar.Gapped(ops, res.Decoded)
	res.Calls = Extract(rec, res.Frame)
	return res, nil
}

// ConvertAll converts every record from r and writes the calls to w,
// preserving input order.
func (c *Converter) ConvertAll(r RecordReader, w CallWriter) error {
	c.stats = Stats{}

	var err error
	if c.workers == 1 {
		err = c.convertSequential(r, w)
	} else {
		err = c.convertParallel(r, w)
	}
	if err != nil {
		return err
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush calls: %w", err)
	}

	if c.stats.Records == 0 {
		c.logger.Info("0 records processed")
	}
	c.logger.Info("conversion finished", c.stats.Fields()...)
	return nil
}

func (c *Converter) convertSequential(r RecordReader, w CallWriter) error {
	for {
		rec, err := r.Next()
		if err != nil {
			if !errors.Is(err, ErrMalformedRecord) {
				return fmt.Errorf("read record: %w", err)
			}
			if err := c.collect(WorkResult{Err: err}, w); err != nil {
				return err
			}
			continue
		}
		if rec == nil {
			return nil
		}

		res, err := c.Convert(rec)
		if err := c.collect(WorkResult{Record: rec, Result: res, Err: err}, w); err != nil {
			return err
		}
	}
}

// collect applies the error policy to one result and writes its output.
// It is only ever called from a single goroutine.
func (c *Converter) collect(r WorkResult, w CallWriter) error {
	if r.Err != nil {
		c.stats.Malformed++
		if c.policy == FailFast {
			return r.Err
		}
		c.logger.Warn("skipping malformed record", zap.Error(r.Err))
		return nil
	}

	c.stats.Records++
	res := r.Result
	switch res.Filtered {
	case FilteredUnmapped:
		c.stats.Unmapped++
		return nil
	case FilteredSecondary:
		c.stats.Secondary++
		return nil
	}

	if c.frames != nil {
		if err := c.frames.WriteFrame(res); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
	}

	for _, call := range res.Calls {
		if err := w.Write(call); err != nil {
			return fmt.Errorf("write call: %w", err)
		}
		c.stats.add(call)
	}
	return nil
}
