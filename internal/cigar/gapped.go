package cigar

import "strings"

// Gap is the placeholder written for each deleted reference position.
const Gap = '-'

// Gapped projects src onto the alignment frame described by c.
//
// Frame-consuming operations take characters from the head of the
// remaining buffer, after which the remaining buffer is recomputed from the
// tail of src itself. Insertions drop characters from the remaining buffer
// without emitting anything, and deletions emit Gap characters.
func Gapped(c Cigar, src string) string {
	var b strings.Builder
	b.Grow(c.FrameLen())

	remain := src
	for _, op := range c {
		switch op.Kind {
		case Insertion:
			remain = tail(remain, len(remain)-op.Len)
		case Deletion:
			for i := 0; i < op.Len; i++ {
				b.WriteByte(Gap)
			}
		default:
			b.WriteString(head(remain, op.Len))
			remain = tail(src, len(remain)-op.Len)
		}
	}
	return b.String()
}

// head returns the first n characters of s, or all of s when it is shorter.
func head(s string, n int) string {
	if n >= len(s) {
		return s
	}
	return s[:n]
}

// tail returns the last k characters of s. A zero k selects the whole
// string and a negative k drops the first -k characters instead, so that
// a fully consumed buffer resets to src.
func tail(s string, k int) string {
	switch {
	case k == 0:
		return s
	case k > 0:
		if k >= len(s) {
			return s
		}
		return s[len(s)-k:]
	default:
		if -k >= len(s) {
			return ""
		}
		return s[-k:]
	}
}
