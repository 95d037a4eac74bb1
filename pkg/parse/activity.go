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

import "strings"

// ActivityFieldSeparator delimits the columns of ActivityFormat output.
const ActivityFieldSeparator = " <-> "

const obsoleteLock = "obsolete"

// 🏷️ ActivityInfo is one UCM activity as listed by lsactivity.
type ActivityInfo struct {
	Name         string `json:"name"`        // selector name
	PublicName   string `json:"public_name"` // headline shown to users
	Locked       string `json:"locked,omitempty"`
	IsObsolete   bool   `json:"is_obsolete"`
	ActiveInView string `json:"active_in_view,omitempty"` // view tag, empty if not current anywhere
}

// DisplayName returns the headline, falling back to the selector name.
func (a ActivityInfo) DisplayName() string {
	if a.PublicName != "" {
		return a.PublicName
	}
	return a.Name
}

// ParseActivity reads one lsactivity line. Three fields mean the activity is not
// current in any view, four fields name the view it is current in; anything else is skipped.
func ParseActivity(line string) (ActivityInfo, bool) {
	// split on the bare arrow so empty columns survive trimming
	fields := strings.Split(line, strings.TrimSpace(ActivityFieldSeparator))
	if len(fields) != 3 && len(fields) != 4 {
		return ActivityInfo{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if fields[0] == "" {
		return ActivityInfo{}, false
	}

	info := ActivityInfo{
		Name:       fields[0],
		Locked:     fields[1],
		IsObsolete: fields[1] == obsoleteLock,
		PublicName: fields[2],
	}
	if len(fields) == 4 {
		info.ActiveInView = fields[3]
	}
	return info, true
}

// ParseActivities parses every recognizable line of lsactivity output.
func ParseActivities(output string) []ActivityInfo {
	var out []ActivityInfo
	for _, line := range lines(output) {
		if strings.HasPrefix(line, toolPrefix) {
			continue
		}
		if info, ok := ParseActivity(line); ok {
			out = append(out, info)
		}
	}
	return out
}
