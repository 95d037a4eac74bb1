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

	"gitlab.com/tozd/go/errors"
)

// ErrNoViewTag means lsview output carried no "Tag:" line.
var ErrNoViewTag = errors.Base("view properties have no tag")

const (
	viewTagPrefix        = "Tag:"
	viewTagUUIDPrefix    = "View tag uuid:"
	viewUUIDPrefix       = "View uuid:"
	viewAttributesPrefix = "View attributes:"

	snapshotAttribute = "snapshot"
	ucmAttribute      = "ucmview"
)

// 👓 ViewProperties are the fields read from `lsview -cview -long`.
type ViewProperties struct {
	Tag        string `json:"tag"`
	UUID       string `json:"uuid"`
	IsSnapshot bool   `json:"is_snapshot"`
	IsUCM      bool   `json:"is_ucm"`
}

// ParseViewProperties scans lsview output for the tag, uuid and attributes lines.
// A view whose attributes do not mention "snapshot" is dynamic.
func ParseViewProperties(output string) (ViewProperties, error) {
	var props ViewProperties
	var viewUUID string

	for _, line := range lines(output) {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, viewTagPrefix):
			if f := strings.Fields(strings.TrimPrefix(line, viewTagPrefix)); len(f) > 0 {
				props.Tag = f[0]
			}
		case strings.HasPrefix(line, viewTagUUIDPrefix):
			props.UUID = strings.TrimSpace(strings.TrimPrefix(line, viewTagUUIDPrefix))
		case strings.HasPrefix(line, viewUUIDPrefix):
			viewUUID = strings.TrimSpace(strings.TrimPrefix(line, viewUUIDPrefix))
		case strings.HasPrefix(line, viewAttributesPrefix):
			attrs := strings.TrimPrefix(line, viewAttributesPrefix)
			props.IsSnapshot = strings.Contains(attrs, snapshotAttribute)
			props.IsUCM = strings.Contains(attrs, ucmAttribute)
		}
	}

	if props.UUID == "" {
		props.UUID = viewUUID
	}
	if props.Tag == "" {
		return props, ErrNoViewTag
	}
	return props, nil
}
