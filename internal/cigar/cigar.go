// Package cigar parses CIGAR strings and projects character buffers onto
// the alignment frame they describe.
package cigar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the class of a CIGAR operation.
type Kind uint8

// CIGAR operation kinds. The sequence match (=) and mismatch (X) codes are
// folded into Match.
const (
	Match Kind = iota
	Insertion
	Deletion
	Skip
	SoftClip
	HardClip
	Padding
)

var kindNames = [...]string{"Match", "Insertion", "Deletion", "Skip", "SoftClip", "HardClip", "Padding"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// kindOf maps an operation code to its Kind.
func kindOf(code byte) (Kind, bool) {
	switch code {
	case 'M', '=', 'X':
		return Match, true
	case 'I':
		return Insertion, true
	case 'D':
		return Deletion, true
	case 'N':
		return Skip, true
	case 'S':
		return SoftClip, true
	case 'H':
		return HardClip, true
	case 'P':
		return Padding, true
	}
	return 0, false
}

// Op is a single CIGAR operation.
type Op struct {
	Kind Kind
	Len  int
	Code byte // operation letter as written, e.g. '=' for a Match
}

func (o Op) String() string {
	return strconv.Itoa(o.Len) + string(o.Code)
}

// Cigar is an ordered list of CIGAR operations.
type Cigar []Op

// String serializes the operations back to CIGAR notation.
func (c Cigar) String() string {
	var b strings.Builder
	for _, op := range c {
		b.WriteString(strconv.Itoa(op.Len))
		b.WriteByte(op.Code)
	}
	return b.String()
}

// FrameLen returns the number of alignment-frame positions covered by c.
// Every operation except Insertion contributes its length.
func (c Cigar) FrameLen() int {
	n := 0
	for _, op := range c {
		if op.Kind != Insertion {
			n += op.Len
		}
	}
	return n
}

// ErrMalformed is matched by every error returned from Parse.
var ErrMalformed = errors.New("malformed cigar")

// MalformedError describes why a CIGAR string could not be tokenized.
type MalformedError struct {
	Cigar  string
	Offset int
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed cigar %q at offset %d: %s", e.Cigar, e.Offset, e.Reason)
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }

// maxLen bounds run lengths so accumulation cannot overflow.
const maxLen = 1<<31 - 1

// Parse tokenizes a CIGAR string into operations.
func Parse(s string) (Cigar, error) {
	if s == "" {
		return nil, &MalformedError{Cigar: s, Reason: "empty string"}
	}

	var ops Cigar
	for i := 0; i < len(s); {
		n := 0
		start := i
		for i < len(s) && isDigit(s[i]) {
			n = n*10 + int(s[i]-'0')
			if n > maxLen {
				return nil, &MalformedError{Cigar: s, Offset: start, Reason: "run length out of range"}
			}
			i++
		}
		if i == len(s) {
			return nil, &MalformedError{Cigar: s, Offset: start, Reason: "missing operation after run length"}
		}
		kind, ok := kindOf(s[i])
		if !ok {
			return nil, &MalformedError{Cigar: s, Offset: i, Reason: fmt.Sprintf("invalid operation %q", s[i])}
		}
		ops = append(ops, Op{Kind: kind, Len: n, Code: s[i]})
		i++
	}
	return ops, nil
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
