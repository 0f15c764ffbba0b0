// Package alignment reads alignment records for methylation extraction
// from five-column text exports, SAM, or BAM files.
package alignment

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/inodb/xb2bismark/internal/methyl"
)

// MinFields is the number of tab-separated fields a text record needs:
// read id, reference, position, CIGAR and tag.
const MinFields = 5

// TSVReader reads records from a tab-separated export with the columns
// read_id, field1, pos, cigar, tag. Extra columns are ignored.
type TSVReader struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
}

// NewTSVReader opens a text export. Gzipped files are detected by their
// magic bytes. A path of "-" reads stdin.
func NewTSVReader(path string) (*TSVReader, error) {
	if path == "-" {
		return NewTSVReaderFromReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open record file: %w", err)
	}

	r := &TSVReader{file: file}

	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.reader = bufio.NewReader(r.gzipReader)
	} else {
		r.reader = br
	}

	return r, nil
}

// NewTSVReaderFromReader creates a reader over an io.Reader (e.g., stdin).
func NewTSVReaderFromReader(rd io.Reader) *TSVReader {
	return &TSVReader{reader: bufio.NewReader(rd)}
}

// Next reads the next record.
// Returns nil, nil when there are no more records.
func (r *TSVReader) Next() (*methyl.Record, error) {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read record line: %w", err)
		}
		r.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue // Skip empty lines
		}

		return r.parseLine(line)
	}
}

// parseLine parses a single data line into a Record.
func (r *TSVReader) parseLine(line string) (*methyl.Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < MinFields {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", MinFields, len(fields)),
		}
	}

	rec := &methyl.Record{
		ReadID: fields[0],
		Field1: fields[1],
		Cigar:  fields[3],
		Tag:    fields[4],
		Line:   r.lineNumber,
	}

	// Unmapped rows are filtered downstream whatever their position holds.
	if rec.Unmapped() {
		return rec, nil
	}

	pos, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[2]),
		}
	}
	rec.Pos = pos
	return rec, nil
}

// LineNumber returns the current line number being processed.
func (r *TSVReader) LineNumber() int {
	return r.lineNumber
}

// Close closes the reader and underlying file.
func (r *TSVReader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ParseError represents a malformed input record with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("record parse error at line %d: %s", e.Line, e.Message)
}

// Unwrap makes every ParseError match methyl.ErrMalformedRecord.
func (e *ParseError) Unwrap() error { return methyl.ErrMalformedRecord }
