package parse

import (
	"strings"
)

// ParseCheckouts reads the pathnames printed by `lscheckout -short`, one per line.
func ParseCheckouts(output string) []string {
	var out []string
	for _, line := range lines(output) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, toolPrefix) {
			continue
		}
		out = append(out, line)
	}
	return out
}
