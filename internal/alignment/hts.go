package alignment

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/inodb/xb2bismark/internal/methyl"
	"github.com/inodb/xb2bismark/internal/xbtag"
)

var (
	xbTag = sam.NewTag("XB")
	xaTag = sam.NewTag("XA")
)

// samSource is satisfied by both *sam.Reader and *bam.Reader.
type samSource interface {
	Read() (*sam.Record, error)
}

// HTSReader reads records from SAM or BAM files.
type HTSReader struct {
	src    samSource
	bam    *bam.Reader
	gz     *gzip.Reader
	file   *os.File
	header *sam.Header
	count  int
}

// NewSAMReader opens a SAM text file, plain or gzipped. A path of "-"
// reads stdin.
func NewSAMReader(path string) (*HTSReader, error) {
	f, rd, err := openInput(path)
	if err != nil {
		return nil, err
	}

	r := &HTSReader{file: f}
	br := bufio.NewReader(rd)
	var in io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		r.gz, err = gzip.NewReader(br)
		if err != nil {
			closeFile(f)
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		in = r.gz
	}

	sr, err := sam.NewReader(in)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("read sam header: %w", err)
	}
	r.src = sr
	r.header = sr.Header()
	return r, nil
}

// NewBAMReader opens a BAM file. A path of "-" reads stdin.
func NewBAMReader(path string) (*HTSReader, error) {
	f, rd, err := openInput(path)
	if err != nil {
		return nil, err
	}
	// rd of zero lets bgzf decompression use GOMAXPROCS goroutines.
	br, err := bam.NewReader(rd, 0)
	if err != nil {
		closeFile(f)
		return nil, fmt.Errorf("read bam header: %w", err)
	}
	return &HTSReader{src: br, bam: br, file: f, header: br.Header()}, nil
}

func openInput(path string) (*os.File, io.Reader, error) {
	if path == "-" {
		return nil, os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open alignment file: %w", err)
	}
	return f, f, nil
}

func closeFile(f *os.File) {
	if f != nil {
		f.Close()
	}
}

// Header returns the SAM header of the input.
func (r *HTSReader) Header() *sam.Header {
	return r.header
}

// Next reads the next record.
// Returns nil, nil when there are no more records.
func (r *HTSReader) Next() (*methyl.Record, error) {
	rec, err := r.src.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read alignment %d: %w", r.count+1, err)
	}
	r.count++
	return FromSAM(rec, r.count), nil
}

// FromSAM maps a SAM record onto the converter's record shape. The tag
// carries the XB field in SAM text form, followed by the XA field when the
// aligner reported alternative hits.
func FromSAM(rec *sam.Record, n int) *methyl.Record {
	var tag string
	if xb := rec.AuxFields.Get(xbTag); xb != nil {
		tag = xbtag.Prefix + fmt.Sprint(xb.Value())
	}
	if xa := rec.AuxFields.Get(xaTag); xa != nil {
		tag += "\t" + xa.String()
	}

	return &methyl.Record{
		ReadID: rec.Name,
		Field1: refName(rec),
		Pos:    int64(rec.Pos) + 1,
		Cigar:  rec.Cigar.String(),
		Tag:    tag,
		Line:   n,
	}
}

func refName(rec *sam.Record) string {
	if rec.Ref == nil {
		return "*"
	}
	return rec.Ref.Name()
}

// LineNumber returns the number of records read so far.
func (r *HTSReader) LineNumber() int {
	return r.count
}

// Close closes the reader and underlying file.
func (r *HTSReader) Close() error {
	if r.bam != nil {
		r.bam.Close()
	}
	if r.gz != nil {
		r.gz.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
