package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/xb2bismark/internal/methyl"
)

func TestCallWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewCallWriter(&buf)

	require.NoError(t, w.Write(methyl.Call{ReadID: "SRR1.1", Strand: '-', Field1: "chr1", Pos: 10468, Code: 'z'}))
	require.NoError(t, w.Write(methyl.Call{ReadID: "SRR1.1", Strand: '+', Field1: "chr1", Pos: 10470, Code: 'Z'}))
	require.NoError(t, w.Flush())

	assert.Equal(t,
		"SRR1.1\t-\tchr1\t10468\tz\n"+
			"SRR1.1\t+\tchr1\t10470\tZ\n",
		buf.String())
}

func TestCallWriter_Header(t *testing.T) {
	var buf bytes.Buffer
	w := NewCallWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())
	assert.True(t, strings.HasPrefix(buf.String(), "Bismark methylation extractor"))
}

func TestCallWriter_NoOutputBeforeFlush(t *testing.T) {
	var buf bytes.Buffer
	w := NewCallWriter(&buf)

	require.NoError(t, w.Write(methyl.Call{ReadID: "r", Strand: '+', Field1: "chrM", Pos: 1, Code: 'Z'}))
	assert.Zero(t, buf.Len())
	require.NoError(t, w.Flush())
	assert.Equal(t, "r\t+\tchrM\t1\tZ\n", buf.String())
}

func TestFrameWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf)

	res := &methyl.Result{
		Record:  &methyl.Record{ReadID: "r1", Field1: "chr2", Pos: 7, Cigar: "3M2D2M"},
		Decoded: ".x.X...",
		Frame:   ".x.--X.",
	}
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteFrame(res))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "#read_id\tfield1\tpos\tcigar\tdecoded\tframe", lines[0])
	assert.Equal(t, "r1\tchr2\t7\t3M2D2M\t.x.X...\t.x.--X.", lines[1])
}

type failWriter struct{ writes int }

func (f *failWriter) Write(methyl.Call) error {
	f.writes++
	return errors.New("full")
}

func (f *failWriter) Flush() error { return errors.New("full") }

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	m := MultiWriter{NewCallWriter(&a), NewCallWriter(&b)}

	require.NoError(t, m.Write(methyl.Call{ReadID: "r", Strand: '-', Field1: "chr1", Pos: 3, Code: 'z'}))
	require.NoError(t, m.Flush())
	assert.Equal(t, a.String(), b.String())
	assert.NotEmpty(t, a.String())

	fw := &failWriter{}
	m = MultiWriter{fw, NewCallWriter(&a)}
	assert.Error(t, m.Write(methyl.Call{}))
	assert.Error(t, m.Flush())
	assert.Equal(t, 1, fw.writes)
}

func TestDerivePath(t *testing.T) {
	assert.Equal(t, "Splice_plus.txt", DerivePath("Splice_plus_tmp.txt"))
	assert.Equal(t, "/data/run1/Splice_minus.txt", DerivePath("/data/run1/Splice_minus_tmp.txt"))
	assert.Equal(t, "", DerivePath("records.txt"))
	assert.Equal(t, "", DerivePath("sample.bam"))
	assert.Equal(t, "", DerivePath("-"))
}
