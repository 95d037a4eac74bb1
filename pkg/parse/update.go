package parse

import (
	"strings"
)

// UpdateResult is what an `update` log says happened to individual paths.
type UpdateResult struct {
	Loaded    []string // paths that received a new version
	Conflicts []string // paths left for the user to merge
}

const (
	loadedPrefix       = "Loaded "
	keptHijackedPrefix = "Keeping hijacked object "
	conflictWord       = "conflict"
)

// ParseUpdate scans update output. A hijacked file kept while a newer version
// exists, or any line reporting a conflict, counts as a conflict on its quoted path.
func ParseUpdate(output string) UpdateResult {
	var res UpdateResult
	for _, line := range lines(output) {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, loadedPrefix):
			if p := quoted(line); p != "" {
				res.Loaded = append(res.Loaded, p)
			}
		case strings.HasPrefix(line, keptHijackedPrefix),
			strings.Contains(strings.ToLower(line), conflictWord):
			if p := quoted(line); p != "" {
				res.Conflicts = append(res.Conflicts, p)
			}
		}
	}
	return res
}

// quoted returns the first double-quoted substring of line.
func quoted(line string) string {
	start := strings.Index(line, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(line[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return line[start+1 : start+1+end]
}
