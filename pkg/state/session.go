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

// Package state owns the bookkeeping that outlives a reconciliation pass: rename
// edges, explicit add and remove requests, view records, activity associations,
// one-shot status flags and the offline flag.
package state

import (
	"sort"

	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"github.com/walteh/ccvcs/pkg/rename"
	"github.com/walteh/ccvcs/pkg/views"
)

// DefaultFile is the state file location relative to the project root.
const DefaultFile = ".ccvcs/state.json"

// SchemaVersion is written into every state file.
const SchemaVersion = "1.0.0"

// Apriori is a status learned from an operation that just completed, used once
// by the next reconciliation pass instead of asking the tool.
type Apriori int

const (
	AprioriNone Apriori = iota
	AprioriCheckedOut
	AprioriMergeConflict
)

// 🗂️ Session is the per-project state shared by reconciliation passes and
// single-file operations. It is not safe for concurrent use; callers run at most
// one pass or operation against a session at a time.
type Session struct {
	path string

	Renames *rename.Store
	Views   *views.Registry

	// NewFiles are paths the user explicitly asked to add.
	NewFiles *pathkey.Set
	// RemovedFiles and RemovedFolders are deletions waiting for check-in.
	RemovedFiles   *pathkey.Set
	RemovedFolders *pathkey.Set

	// CachedNew and CachedChanged are the last full pass's results, trusted while offline.
	CachedNew     *pathkey.Set
	CachedChanged *pathkey.Set

	offline    bool
	activities map[string]string // pathkey.Key(path) -> activity name
	apriori    map[string]Apriori
}

// 🏗️ New creates an empty session persisted at path. Views are queried through runner.
func New(path string, runner cleartool.Runner) *Session {
	if path == "" {
		path = DefaultFile
	}
	return &Session{
		path:           path,
		Renames:        rename.NewStore(),
		Views:          views.NewRegistry(runner),
		NewFiles:       pathkey.NewSet(),
		RemovedFiles:   pathkey.NewSet(),
		RemovedFolders: pathkey.NewSet(),
		CachedNew:      pathkey.NewSet(),
		CachedChanged:  pathkey.NewSet(),
		activities:     make(map[string]string),
		apriori:        make(map[string]Apriori),
	}
}

// Path returns where the session is persisted.
func (s *Session) Path() string {
	return s.path
}

// Offline reports whether a server-unreachable failure switched the session to degraded mode.
func (s *Session) Offline() bool {
	return s.offline
}

// SetOffline sets or clears the sticky offline flag.
func (s *Session) SetOffline(offline bool) {
	s.offline = offline
}

// FlagCheckedOut records that path was just checked out successfully.
func (s *Session) FlagCheckedOut(path string) {
	s.apriori[pathkey.Key(path)] = AprioriCheckedOut
}

// FlagMergeConflict records that an update left path with a merge conflict.
func (s *Session) FlagMergeConflict(path string) {
	s.apriori[pathkey.Key(path)] = AprioriMergeConflict
}

// TakeApriori returns and clears the one-shot flag of path.
func (s *Session) TakeApriori(path string) Apriori {
	k := pathkey.Key(path)
	a, ok := s.apriori[k]
	if !ok {
		return AprioriNone
	}
	delete(s.apriori, k)
	return a
}

// PeekApriori returns the flag of path without clearing it.
func (s *Session) PeekApriori(path string) Apriori {
	return s.apriori[pathkey.Key(path)]
}

// SetActivity associates path with an activity name.
func (s *Session) SetActivity(path, activity string) {
	s.activities[pathkey.Key(path)] = activity
}

// ActivityOf returns the cached activity of path.
func (s *Session) ActivityOf(path string) (string, bool) {
	a, ok := s.activities[pathkey.Key(path)]
	return a, ok
}

// ForgetActivity drops the cached activity of path.
func (s *Session) ForgetActivity(path string) {
	delete(s.activities, pathkey.Key(path))
}

// Forget drops every piece of bookkeeping about path after a commit or rollback.
func (s *Session) Forget(path string) {
	s.Renames.RemoveEdge(path)
	s.NewFiles.Remove(path)
	s.RemovedFiles.Remove(path)
	s.RemovedFolders.Remove(path)
	s.CachedNew.Remove(path)
	s.CachedChanged.Remove(path)
	s.ForgetActivity(path)
	delete(s.apriori, pathkey.Key(path))
}

func (s *Session) activityEntries() map[string]string {
	out := make(map[string]string, len(s.activities))
	for k, v := range s.activities {
		out[k] = v
	}
	return out
}

func sortedPaths(set *pathkey.Set) []string {
	out := set.Paths()
	sort.Slice(out, func(i, j int) bool { return pathkey.Key(out[i]) < pathkey.Key(out[j]) })
	return out
}
