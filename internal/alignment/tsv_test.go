package alignment

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/xb2bismark/internal/methyl"
)

func TestTSVReader_Sample(t *testing.T) {
	r, err := NewTSVReader(filepath.Join("testdata", "sample_tmp.txt"))
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, &methyl.Record{
		ReadID: "read1", Field1: "chr1", Pos: 100, Cigar: "7M", Tag: "XB:Z:2x3X", Line: 1,
	}, rec)

	rec, err = r.Next()
	require.NoError(t, err)
	assert.True(t, rec.Unmapped())

	// Blank line 3 is skipped, CRLF and extra columns are tolerated.
	rec, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "read3", rec.ReadID)
	assert.Equal(t, "XB:Z:1X3x", rec.Tag)
	assert.Equal(t, 4, rec.Line)

	rec, err = r.Next()
	require.NoError(t, err)
	assert.True(t, rec.Secondary())

	rec, err = r.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 5, r.LineNumber())
}

func TestTSVReader_TooFewFields(t *testing.T) {
	r, err := NewTSVReader(filepath.Join("testdata", "short.txt"))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.NoError(t, err)

	rec, err := r.Next()
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.True(t, errors.Is(err, methyl.ErrMalformedRecord))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
	assert.Contains(t, pe.Message, "found 3")

	rec, err = r.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestTSVReader_InvalidPosition(t *testing.T) {
	r, err := NewTSVReader(filepath.Join("testdata", "badpos.txt"))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, methyl.ErrMalformedRecord))
	assert.Contains(t, err.Error(), "invalid position")
}

func TestTSVReader_UnmappedSkipsPosition(t *testing.T) {
	r := NewTSVReaderFromReader(strings.NewReader(
		"r0\tchr1\t*\t*\tXB:Z:2x\n" +
			"r1\tchr1\t10\t3M\tXB:Z:1x1X\n"))

	rec, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Unmapped())
	assert.Equal(t, "r0", rec.ReadID)
	assert.Zero(t, rec.Pos)

	rec, err = r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(10), rec.Pos)

	// A bad position on a mapped row is still malformed.
	r = NewTSVReaderFromReader(strings.NewReader("r2\tchr1\t*\t3M\tx\n"))
	_, err = r.Next()
	assert.True(t, errors.Is(err, methyl.ErrMalformedRecord))
}

func TestTSVReader_NoTrailingNewline(t *testing.T) {
	r := NewTSVReaderFromReader(strings.NewReader("a\tchr1\t5\t2M\tx1"))

	rec, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "x1", rec.Tag)

	rec, err = r.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestTSVReader_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls_tmp.txt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("g1\tchr9\t7\t3M\tXB:Z:X2\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	r, err := NewTSVReader(path)
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "g1", rec.ReadID)
	assert.Equal(t, int64(7), rec.Pos)
}

func TestTSVReader_MissingFile(t *testing.T) {
	_, err := NewTSVReader(filepath.Join("testdata", "nope.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
