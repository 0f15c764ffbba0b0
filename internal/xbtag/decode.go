// Package xbtag decodes the run-length encoded XB methylation tag written by
// bisulfite aligners into a per-position call string.
//
// A tag such as "2x3X" describes seven reference positions: runs of digits
// count positions without a call, x marks an unmethylated and X a
// methylated cytosine, and any other letter is a position that was
// inspected but not called. The decoded form writes one character per
// position: '.' for no call, and the call letter otherwise.
package xbtag

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Prefix is the SAM auxiliary field prefix carried by raw XB tags.
const Prefix = "XB:Z:"

// Call letters kept verbatim by Decode.
const (
	Unmethylated = 'x'
	Methylated   = 'X'
)

// NoCall is written for every position without a methylation call.
const NoCall = '.'

// MaxLen bounds both a single digit run and the decoded length of a tag.
// It is far beyond the reference span of any single alignment.
const MaxLen = 1 << 24

// ErrMalformed is matched by all tag decoding errors.
var ErrMalformed = errors.New("malformed XB tag")

// MalformedError describes a tag that cannot be decoded.
type MalformedError struct {
	Tag    string
	Reason string
}

func (e *MalformedError) Error() string {
	tag := e.Tag
	if len(tag) > 40 {
		tag = tag[:40] + "..."
	}
	return fmt.Sprintf("malformed XB tag %q: %s", tag, e.Reason)
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }

// StripPrefix removes a leading XB:Z: from tag if present.
func StripPrefix(tag string) string {
	return strings.TrimPrefix(tag, Prefix)
}

type state uint8

const (
	idle state = iota
	inDigitRun
)

type class uint8

const (
	classDigit class = iota
	classCall
	classOther
	classIgnored
)

func classify(r rune) class {
	switch {
	case '0' <= r && r <= '9':
		return classDigit
	case r == Unmethylated || r == Methylated:
		return classCall
	case unicode.IsLetter(r):
		return classOther
	}
	return classIgnored
}

// decoder holds the state of a single left-to-right scan.
type decoder struct {
	state state
	run   int
	out   strings.Builder
}

// flush closes a pending digit run.
func (d *decoder) flush() {
	if d.state == inDigitRun {
		for i := 0; i < d.run; i++ {
			d.out.WriteByte(NoCall)
		}
	}
	d.state = idle
	d.run = 0
}

func (d *decoder) step(r rune) {
	switch classify(r) {
	case classDigit:
		if d.state == idle {
			d.state = inDigitRun
			d.run = 0
		}
		d.run = d.run*10 + int(r-'0')
	case classCall:
		d.flush()
		d.out.WriteByte(byte(r))
	case classOther:
		d.flush()
		d.out.WriteByte(NoCall)
	}
}

// Decode expands a tag payload into its per-position call string. A
// leading XB:Z: is stripped first. Characters that are neither digits nor
// letters are ignored and do not interrupt a digit run. Tags whose runs or
// decoded length exceed MaxLen return a *MalformedError.
func Decode(tag string) (string, error) {
	n, err := Len(tag)
	if err != nil {
		return "", err
	}

	var d decoder
	d.out.Grow(n)
	for _, r := range StripPrefix(tag) {
		d.step(r)
	}
	d.flush()
	return d.out.String(), nil
}

// Len returns the number of positions tag spans once decoded: the sum of
// all digit runs plus the number of letters.
func Len(tag string) (int, error) {
	tag = StripPrefix(tag)

	n, run := 0, 0
	for i, r := range tag {
		switch classify(r) {
		case classDigit:
			run = run*10 + int(r-'0')
			if run > MaxLen {
				return 0, &MalformedError{Tag: tag, Reason: fmt.Sprintf("run length at offset %d out of range", i)}
			}
		case classCall, classOther:
			n += run + 1
			run = 0
		}
		if n > MaxLen {
			return 0, &MalformedError{Tag: tag, Reason: "decoded length out of range"}
		}
	}
	n += run
	if n > MaxLen {
		return 0, &MalformedError{Tag: tag, Reason: "decoded length out of range"}
	}
	return n, nil
}
