package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/xb2bismark/internal/methyl"
)

// FrameWriter writes the intermediate strings of each converted record,
// which is useful when checking a conversion by hand.
type FrameWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewFrameWriter creates a new tab-delimited frame writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#read_id",
			"field1",
			"pos",
			"cigar",
			"decoded",
			"frame",
		},
	}
}

// WriteHeader writes the header line.
func (fw *FrameWriter) WriteHeader() error {
	_, err := fw.w.WriteString(strings.Join(fw.columns, "\t") + "\n")
	return err
}

// WriteFrame writes one record's decoded tag and alignment frame.
func (fw *FrameWriter) WriteFrame(r *methyl.Result) error {
	rec := r.Record
	values := []string{
		rec.ReadID,
		rec.Field1,
		strconv.FormatInt(rec.Pos, 10),
		rec.Cigar,
		r.Decoded,
		r.Frame,
	}
	_, err := fw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (fw *FrameWriter) Flush() error {
	return fw.w.Flush()
}
