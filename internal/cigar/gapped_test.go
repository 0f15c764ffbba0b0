package cigar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) Cigar {
	t.Helper()
	c, err := Parse(s)
	require.NoError(t, err)
	return c
}

func TestGapped(t *testing.T) {
	tests := []struct {
		name  string
		cigar string
		src   string
		want  string
	}{
		{"match only", "4M", "ACGT", "ACGT"},
		{"deletion", "3M2D2M", "ACGTAB", "ACG--TA"},
		{"insertion", "2M1I2M", "ACGTA", "ACTA"},
		{"leading deletion", "2D3M", "ACG", "--ACG"},
		{"soft clip kept", "2S3M", "ACGTA", "ACGTA"},
		{"skip", "1M3N1M", "ACGTAG", "ACGTA"},
		{"sequence match codes", "2=1X", "ACG", "ACG"},
		// Consuming the whole buffer resets it to src.
		{"exhausted buffer resets", "5M2M", "ACGTA", "ACGTAAC"},
		{"short buffer clamps", "3M", "AC", "AC"},
		{"empty source", "2D", "", "--"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Gapped(mustParse(t, tt.cigar), tt.src))
		})
	}
}

func TestGapped_FrameLenInvariant(t *testing.T) {
	for _, s := range []string{
		"10M",
		"3M2I5M",
		"4M3D4M",
		"2S6M1I3M2D2M",
		"1M1N1M1P1M",
		"5=1X2I4=",
	} {
		c := mustParse(t, s)
		src := strings.Repeat("ACGTN", 10)
		assert.Len(t, Gapped(c, src), c.FrameLen(), s)
	}
}

func TestGapped_DeletionKeepsBuffer(t *testing.T) {
	c := mustParse(t, "2M3D2M")
	// The match after a deletion continues where the previous match stopped.
	assert.Equal(t, "AB---CD", Gapped(c, "ABCDEF"))
}

func TestTail(t *testing.T) {
	assert.Equal(t, "ACGT", tail("ACGT", 0))
	assert.Equal(t, "GT", tail("ACGT", 2))
	assert.Equal(t, "ACGT", tail("ACGT", 9))
	assert.Equal(t, "GT", tail("ACGT", -2))
	assert.Equal(t, "", tail("ACGT", -4))
	assert.Equal(t, "", tail("ACGT", -7))
}
