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

package status

import "strings"

// 📊 FileStatus is the ClearCase state of one path during a reconciliation pass.
type FileStatus int

const (
	StatusUnknown       FileStatus = iota
	StatusNotAnElement             // view-private, not under version control
	StatusCheckedIn                // element, not checked out
	StatusCheckedOut               // element checked out in this view
	StatusHijacked                 // writable element not checked out
	StatusMergeConflict            // update left the file in conflict
	StatusDeleted                  // element name removed locally
	StatusNew                      // view-private file that belongs in the change set
	StatusIgnored                  // matched an ignore rule
)

var statusNames = map[FileStatus]string{
	StatusUnknown:       "unknown",
	StatusNotAnElement:  "not-an-element",
	StatusCheckedIn:     "checked-in",
	StatusCheckedOut:    "checked-out",
	StatusHijacked:      "hijacked",
	StatusMergeConflict: "merge-conflict",
	StatusDeleted:       "deleted",
	StatusNew:           "new",
	StatusIgnored:       "ignored",
}

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[StatusUnknown]
}

// ParseFileStatus is the inverse of String. Unrecognized names give StatusUnknown.
func ParseFileStatus(name string) FileStatus {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range statusNames {
		if n == name {
			return s
		}
	}
	return StatusUnknown
}

// IsVersioned reports whether the path is a ClearCase element.
func (s FileStatus) IsVersioned() bool {
	switch s {
	case StatusCheckedIn, StatusCheckedOut, StatusHijacked, StatusMergeConflict, StatusDeleted:
		return true
	}
	return false
}

// IsModified reports whether the status contributes a modification to the change set.
func (s FileStatus) IsModified() bool {
	switch s {
	case StatusCheckedOut, StatusHijacked, StatusMergeConflict:
		return true
	}
	return false
}

// MarshalText encodes the status by name.
func (s FileStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *FileStatus) UnmarshalText(text []byte) error {
	*s = ParseFileStatus(string(text))
	return nil
}
