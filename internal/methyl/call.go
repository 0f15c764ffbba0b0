package methyl

import (
	"github.com/willf/bitset"

	"github.com/inodb/xb2bismark/internal/xbtag"
)

// Strand and context codes written for CpG calls.
const (
	StrandMinus = '-'
	StrandPlus  = '+'

	CodeUnmethylated = 'z'
	CodeMethylated   = 'Z'
)

// Call is a single methylation call at a genomic position.
type Call struct {
	ReadID string
	Strand byte
	Field1 string
	Pos    int64
	Code   byte
}

// Methylated reports whether the call is a methylated (Z) call.
func (c Call) Methylated() bool {
	return c.Code == CodeMethylated
}

// Extract emits one call per x or X in frame. All unmethylated calls come
// first, followed by all methylated calls, each group in increasing
// position order.
func Extract(rec *Record, frame string) []Call {
	n := uint(len(frame))
	minus := bitset.New(n)
	plus := bitset.New(n)

	for i := 0; i < len(frame); i++ {
		switch frame[i] {
		case xbtag.Unmethylated:
			minus.Set(uint(i))
		case xbtag.Methylated:
			plus.Set(uint(i))
		}
	}

	calls := make([]Call, 0, int(minus.Count()+plus.Count()))
	calls = appendCalls(calls, rec, minus, StrandMinus, CodeUnmethylated)
	calls = appendCalls(calls, rec, plus, StrandPlus, CodeMethylated)
	return calls
}

func appendCalls(calls []Call, rec *Record, offsets *bitset.BitSet, strand, code byte) []Call {
	for i, ok := offsets.NextSet(0); ok; i, ok = offsets.NextSet(i + 1) {
		calls = append(calls, Call{
			ReadID: rec.ReadID,
			Strand: strand,
			Field1: rec.Field1,
			Pos:    rec.Pos + int64(i),
			Code:   code,
		})
	}
	return calls
}
