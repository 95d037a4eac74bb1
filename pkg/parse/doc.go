// Package parse turns raw cleartool output into typed records.
//
// Every function here is pure. cleartool mixes warnings from unrelated
// subsystems into the same stream, so each grammar skips what it does not
// recognize instead of failing, except where a misread would silently
// attribute a result to the wrong path (see ParseStatusLines).
//
// There is one file per output kind; they share nothing but the line splitter.
package parse

import "strings"

const (
	toolPrefix  = "cleartool: "
	warnPrefix  = "cleartool: Warning:"
	errorPrefix = "cleartool: Error:"
)

// lines splits output into lines without trailing carriage returns.
func lines(output string) []string {
	raw := strings.Split(output, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		out = append(out, strings.TrimRight(l, "\r"))
	}
	return out
}
