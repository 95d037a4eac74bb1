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

package reconcile

import (
	"sort"

	"github.com/walteh/ccvcs/pkg/pathkey"
	"github.com/walteh/ccvcs/pkg/status"
)

// Kind is how a change is presented to the changelist builder.
type Kind int

const (
	KindAdded       Kind = iota // new, and the user asked to add it
	KindUnversioned             // new, nobody asked to add it yet
	KindModified
	KindRemoved
	KindIgnored
	KindConflicted
)

func (k Kind) String() string {
	switch k {
	case KindAdded:
		return "added"
	case KindUnversioned:
		return "unversioned"
	case KindModified:
		return "modified"
	case KindRemoved:
		return "removed"
	case KindIgnored:
		return "ignored"
	case KindConflicted:
		return "conflicted"
	default:
		return "unknown"
	}
}

// 📄 Change is one entry of a change set.
type Change struct {
	Path     string            `json:"path"`
	Original string            `json:"original,omitempty"` // name known to the VCS when it differs from Path
	Status   status.FileStatus `json:"status"`
	Kind     Kind              `json:"-"`
	KindName string            `json:"kind"`
	IsDir    bool              `json:"is_dir,omitempty"`
	Activity string            `json:"activity,omitempty"`

	// Prior fetches the checked-in content for modified and conflicted files.
	Prior *PriorRevision `json:"-"`
}

// Sink receives the changes of a pass, one call per change.
type Sink interface {
	AddNew(c Change)
	AddChanged(c Change)
	AddRemoved(c Change)
	AddIgnored(c Change)
	AddConflicted(c Change)
}

// 📦 ChangeSet is the output of one reconciliation pass.
type ChangeSet struct {
	PassID  string   `json:"pass_id"`
	Changes []Change `json:"changes"`

	// NewFolders are the unversioned ancestors found for new files.
	NewFolders []string `json:"new_folders,omitempty"`

	// Degraded is set when the pass ran offline from cached results only.
	Degraded bool `json:"degraded,omitempty"`

	// Warnings are non-fatal problems met during the pass.
	Warnings []string `json:"warnings,omitempty"`
}

// Emit hands every change to sink.
func (cs *ChangeSet) Emit(sink Sink) {
	for _, c := range cs.Changes {
		switch c.Kind {
		case KindAdded, KindUnversioned:
			sink.AddNew(c)
		case KindModified:
			sink.AddChanged(c)
		case KindRemoved:
			sink.AddRemoved(c)
		case KindIgnored:
			sink.AddIgnored(c)
		case KindConflicted:
			sink.AddConflicted(c)
		}
	}
}

// Find returns the change recorded for path.
func (cs *ChangeSet) Find(path string) (Change, bool) {
	for _, c := range cs.Changes {
		if pathkey.Equal(c.Path, path) {
			return c, true
		}
	}
	return Change{}, false
}

// ByKind returns the paths of all changes of kind k.
func (cs *ChangeSet) ByKind(k Kind) []string {
	var out []string
	for _, c := range cs.Changes {
		if c.Kind == k {
			out = append(out, c.Path)
		}
	}
	return out
}

func (cs *ChangeSet) add(c Change) {
	c.KindName = c.Kind.String()
	cs.Changes = append(cs.Changes, c)
}

func (cs *ChangeSet) sort() {
	sort.SliceStable(cs.Changes, func(i, j int) bool {
		if cs.Changes[i].Kind != cs.Changes[j].Kind {
			return cs.Changes[i].Kind < cs.Changes[j].Kind
		}
		return pathkey.Key(cs.Changes[i].Path) < pathkey.Key(cs.Changes[j].Path)
	})
}
