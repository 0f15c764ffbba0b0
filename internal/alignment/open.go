package alignment

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/inodb/xb2bismark/internal/methyl"
)

// Input formats.
const (
	FormatTSV = "tsv"
	FormatSAM = "sam"
	FormatBAM = "bam"
)

// Open returns a reader for path in the given format. An empty format is
// detected from the file.
func Open(path, format string) (methyl.RecordReader, error) {
	if format == "" {
		format = DetectFormat(path)
	}

	switch format {
	case FormatTSV:
		return NewTSVReader(path)
	case FormatSAM:
		return NewSAMReader(path)
	case FormatBAM:
		return NewBAMReader(path)
	}
	return nil, fmt.Errorf("unknown input format %q", format)
}

// DetectFormat detects the input format based on extension or content.
func DetectFormat(path string) string {
	// Check by extension
	lowerPath := strings.ToLower(path)

	if strings.HasSuffix(lowerPath, ".bam") {
		return FormatBAM
	}

	// Handle gzipped files
	lowerPath = strings.TrimSuffix(lowerPath, ".gz")

	switch filepath.Ext(lowerPath) {
	case ".sam":
		return FormatSAM
	case ".txt", ".tsv":
		return FormatTSV
	}

	// stdin cannot be peeked without consuming it
	if path == "-" {
		return FormatTSV
	}

	file, err := os.Open(path)
	if err != nil {
		return FormatTSV
	}
	defer file.Close()

	return sniffFormat(file)
}

var bamMagic = []byte("BAM\x01")

// sniffFormat looks at the first bytes of r. BAM files are BGZF
// compressed and start with the BAM magic once inflated.
func sniffFormat(r io.Reader) string {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil {
		return FormatTSV
	}

	var content io.Reader = br
	if magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return FormatTSV
		}
		defer gz.Close()
		content = gz
	}

	buf := make([]byte, 512)
	n, _ := io.ReadFull(content, buf)
	buf = buf[:n]

	if bytes.HasPrefix(buf, bamMagic) {
		return FormatBAM
	}
	if bytes.HasPrefix(buf, []byte("@HD\t")) || bytes.HasPrefix(buf, []byte("@SQ\t")) {
		return FormatSAM
	}
	return FormatTSV
}
