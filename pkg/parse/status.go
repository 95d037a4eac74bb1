// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parse

import (
	"strings"

	"github.com/walteh/ccvcs/pkg/pathkey"
	"github.com/walteh/ccvcs/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// ErrBatchMisaligned means a status batch cannot be paired line-by-line with its paths.
var ErrBatchMisaligned = errors.Base("status output does not line up with requested paths")

// Substrings of `ls -directory` output lines.
const (
	ElementMarker         = "@@"
	HijackedMarker        = "[hijacked]"
	CheckedOutRuleMarker  = "Rule: CHECKEDOUT"
	CheckedOutRemovedMark = "checkedout but removed"
)

// ClassifyStatusLine maps one `ls -directory` line to a status.
func ClassifyStatusLine(line string) status.FileStatus {
	switch {
	case !strings.Contains(line, ElementMarker):
		return status.StatusNotAnElement
	case strings.Contains(line, HijackedMarker):
		return status.StatusHijacked
	case strings.Contains(line, CheckedOutRuleMarker), strings.Contains(line, CheckedOutRemovedMark):
		return status.StatusCheckedOut
	default:
		return status.StatusCheckedIn
	}
}

// 📋 ParseStatusLines pairs the output of `ls -directory p1 p2 ...` with paths by index.
//
// Blank lines and interleaved warnings are dropped first. Any error line, or a
// line count that differs from len(paths), fails the whole batch with
// ErrBatchMisaligned. The result is keyed by pathkey.Key.
func ParseStatusLines(output string, paths []string) (map[string]status.FileStatus, error) {
	var kept []string
	for _, line := range lines(output) {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, warnPrefix) {
			continue
		}
		if strings.HasPrefix(line, errorPrefix) {
			return nil, errors.Errorf("%w: %s", ErrBatchMisaligned, strings.TrimPrefix(line, toolPrefix))
		}
		kept = append(kept, line)
	}

	if len(kept) != len(paths) {
		return nil, errors.Errorf("%w: got %d lines for %d paths", ErrBatchMisaligned, len(kept), len(paths))
	}

	out := make(map[string]status.FileStatus, len(paths))
	for i, p := range paths {
		out[pathkey.Key(p)] = ClassifyStatusLine(kept[i])
	}
	return out, nil
}
