package parse

import (
	"strings"

	"github.com/walteh/ccvcs/pkg/pathkey"
)

// DescribeSeparator splits the name and activity columns of DescribeFormat output.
const DescribeSeparator = " --> "

// ParseDescribe reads "extended-name --> activity" lines into a map keyed by pathkey.Key
// of the element path (the part before "@@"). Paths without an activity get no entry.
func ParseDescribe(output string) map[string]string {
	out := make(map[string]string)
	for _, line := range lines(output) {
		idx := strings.Index(line, DescribeSeparator)
		if idx < 0 {
			continue
		}
		name := line[:idx]
		if at := strings.Index(name, ElementMarker); at >= 0 {
			name = name[:at]
		}
		name = strings.TrimSpace(name)
		activity := strings.TrimSpace(line[idx+len(DescribeSeparator):])
		if name == "" || activity == "" {
			continue
		}
		out[pathkey.Key(name)] = activity
	}
	return out
}

// ParseVersion reads the single version printed by `describe -fmt %Vn` or `%PVn`.
func ParseVersion(output string) string {
	for _, line := range lines(output) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, toolPrefix) {
			continue
		}
		return line
	}
	return ""
}
