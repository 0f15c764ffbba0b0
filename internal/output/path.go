package output

import "strings"

// TmpSuffix marks per-strand record exports waiting for conversion, e.g.
// Splice_plus_tmp.txt.
const TmpSuffix = "_tmp.txt"

// DerivePath returns the default output path for input: the same name
// with _tmp.txt replaced by .txt. It returns "" (stdout) for stdin and for
// inputs without the suffix, so an input is never overwritten.
func DerivePath(input string) string {
	if input == "-" || !strings.HasSuffix(input, TmpSuffix) {
		return ""
	}
	return strings.TrimSuffix(input, TmpSuffix) + ".txt"
}
