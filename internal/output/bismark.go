// Package output provides writers for methylation calls and intermediate
// frames.
package output

import (
	"bufio"
	"io"
	"strconv"

	"github.com/inodb/xb2bismark/internal/methyl"
)

// HeaderLine is the first line Bismark's methylation extractor writes to
// its context files.
const HeaderLine = "Bismark methylation extractor version v0.24.2"

// CallWriter writes calls in Bismark's five-column context file format:
// read id, strand, reference, position, call code.
type CallWriter struct {
	w   *bufio.Writer
	buf []byte
}

// NewCallWriter creates a new call writer.
func NewCallWriter(w io.Writer) *CallWriter {
	return &CallWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the Bismark version line. Output without it is still
// accepted by downstream Bismark tools.
func (cw *CallWriter) WriteHeader() error {
	_, err := cw.w.WriteString(HeaderLine + "\n")
	return err
}

// Write writes a single call.
func (cw *CallWriter) Write(c methyl.Call) error {
	b := cw.buf[:0]
	b = append(b, c.ReadID...)
	b = append(b, '\t', c.Strand, '\t')
	b = append(b, c.Field1...)
	b = append(b, '\t')
	b = strconv.AppendInt(b, c.Pos, 10)
	b = append(b, '\t', c.Code, '\n')
	cw.buf = b

	_, err := cw.w.Write(b)
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CallWriter) Flush() error {
	return cw.w.Flush()
}

// MultiWriter duplicates calls to several writers.
type MultiWriter []methyl.CallWriter

// Write writes c to every writer, stopping at the first error.
func (m MultiWriter) Write(c methyl.Call) error {
	for _, w := range m {
		if err := w.Write(c); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every writer, stopping at the first error.
func (m MultiWriter) Flush() error {
	for _, w := range m {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
