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
)

// HistoryParseErrorAction marks a record whose line matched an action but whose fields did not parse.
const HistoryParseErrorAction = "History parsing error"

// Actions recognized in `lshistory` output, in match priority order.
const (
	ActionCreateElement = "create file element"
	ActionCreateBranch  = "create branch"
	ActionCreateVersion = "create version"
	ActionCheckin       = "checkin version"
)

var historyActions = []string{
	ActionCreateElement,
	ActionCreateBranch,
	ActionCreateVersion,
	ActionCheckin,
}

const (
	// commentIndent starts every comment line; the first one also carries an opening quote.
	commentIndent = "  "
	commentQuote  = `"`

	submitterDelimiter = "   "
)

// 📜 VersionRecord is one event of an element's version history.
type VersionRecord struct {
	Action     string   `json:"action"`
	Version    string   `json:"version"`
	Submitter  string   `json:"submitter"`
	ChangeDate string   `json:"change_date"` // tool-native text, not reliably parseable
	Comment    string   `json:"comment,omitempty"`
	Labels     []string `json:"labels,omitempty"`

	// Order is the record's position among parsed records; compare by Order, never by ChangeDate.
	Order int `json:"order"`
}

// IsParseError reports whether the record is a degraded "could not parse" entry.
func (r VersionRecord) IsParseError() bool {
	return r.Action == HistoryParseErrorAction
}

// 📜 ParseHistory parses `lshistory` output.
//
// Indented lines continue the comment of the record before them. Other lines
// are scanned for the known actions; lines with none are dropped, and lines
// with an action but unreadable fields become a HistoryParseErrorAction record
// carrying the raw line as its comment.
func ParseHistory(output string) []VersionRecord {
	var records []VersionRecord

	for _, line := range lines(output) {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if strings.HasPrefix(line, commentIndent) {
			if len(records) == 0 {
				continue
			}
			appendComment(&records[len(records)-1], line)
			continue
		}

		action, idx := matchAction(line)
		if action == "" {
			continue
		}

		rec, ok := parseHistoryDetails(action, line[:idx], line[idx+len(action):])
		if !ok {
			rec = VersionRecord{Action: HistoryParseErrorAction, Comment: line}
		}
		rec.Order = len(records)
		records = append(records, rec)
	}

	return records
}

func matchAction(line string) (string, int) {
	for _, a := range historyActions {
		if idx := strings.Index(line, a); idx >= 0 {
			return a, idx
		}
	}
	return "", -1
}

// parseHistoryDetails reads "date   submitter" from left and "elem@@version" (labels) from right.
func parseHistoryDetails(action, left, right string) (VersionRecord, bool) {
	left = strings.TrimSpace(left)
	sep := strings.Index(left, submitterDelimiter)
	if sep < 0 {
		return VersionRecord{}, false
	}
	date := strings.TrimSpace(left[:sep])
	submitter := strings.TrimSpace(left[sep:])
	if date == "" || submitter == "" {
		return VersionRecord{}, false
	}

	at := strings.Index(right, ElementMarker)
	if at < 0 {
		return VersionRecord{}, false
	}
	rest := right[at+len(ElementMarker):]
	end := strings.Index(rest, commentQuote)
	if end < 0 {
		return VersionRecord{}, false
	}

	return VersionRecord{
		Action:     action,
		Version:    rest[:end],
		Submitter:  submitter,
		ChangeDate: date,
		Labels:     parseLabels(rest[end+1:]),
	}, true
}

func parseLabels(tail string) []string {
	tail = strings.TrimSpace(tail)
	if !strings.HasPrefix(tail, "(") || !strings.HasSuffix(tail, ")") {
		return nil
	}
	var labels []string
	for _, l := range strings.Split(tail[1:len(tail)-1], ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

func appendComment(rec *VersionRecord, line string) {
	text := strings.TrimSpace(line)
	text = strings.TrimPrefix(text, commentQuote)
	text = strings.TrimSuffix(text, commentQuote)
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if rec.Comment == "" {
		rec.Comment = text
		return
	}
	rec.Comment += " " + text
}
