// Package methyl turns alignment records carrying an XB methylation tag
// into per-cytosine methylation calls.
package methyl

import (
	"errors"
	"strings"
)

// Record is a single alignment as seen by the converter.
type Record struct {
	ReadID string // query name
	Field1 string // passed through to the output, usually the reference name
	Pos    int64  // 1-based leftmost reference position
	Cigar  string
	Tag    string // raw XB tag, optionally prefixed with XB:Z:
	Line   int    // source line or record number, for diagnostics
}

// Unmapped reports whether the record carries no alignment.
func (r *Record) Unmapped() bool {
	return r.Cigar == "*"
}

// Secondary reports whether the tag field carries an XA alternative hit
// marker.
func (r *Record) Secondary() bool {
	return strings.Contains(r.Tag, "XA:")
}

// ErrMalformedRecord is matched by reader errors for records that do not
// have the expected shape.
var ErrMalformedRecord = errors.New("malformed record")

// RecordReader is implemented by the alignment input formats.
type RecordReader interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Close releases the underlying resources.
	Close() error

	// LineNumber returns the current line or record number.
	LineNumber() int
}
