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

// Package rename tracks files and folders renamed in the working tree but not yet
// committed, so status queries can be made against the name the VCS knows.
package rename

import (
	"maps"
	"sort"

	"github.com/walteh/ccvcs/pkg/pathkey"
	"gitlab.com/tozd/go/errors"
)

// ErrCycle rejects a rename that would make a name both the current name of one
// element and the original name of another, as swapping two files does.
var ErrCycle = errors.Base("rename would form a cycle")

// Edge maps a current working-tree path to the name the VCS knows it by.
type Edge struct {
	Current  string `json:"current"`
	Original string `json:"original"`
}

// Kind tells file edges from folder edges.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
)

// 🔀 Store holds at most one edge per current path for files and for folders.
//
// Edges always point at the first name in a rename chain, a rename back to that
// name drops the edge, and a rename that would leave an original name resolving
// elsewhere is rejected with ErrCycle. So the tables never hold a cycle and
// Resolve is idempotent. Store is not safe for concurrent use; the owning session
// serializes access.
type Store struct {
	files   map[string]Edge
	folders map[string]Edge
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		files:   make(map[string]Edge),
		folders: make(map[string]Edge),
	}
}

func (s *Store) table(kind Kind) map[string]Edge {
	if kind == KindFolder {
		return s.folders
	}
	return s.files
}

// RecordRename notes that the file at oldPath now lives at newPath.
func (s *Store) RecordRename(newPath, oldPath string) error {
	return s.record(KindFile, newPath, oldPath)
}

// RecordFolderRename notes that the folder at oldPath now lives at newPath.
func (s *Store) RecordFolderRename(newPath, oldPath string) error {
	return s.record(KindFolder, newPath, oldPath)
}

// Check reports whether recording the rename would be accepted, without recording it.
func (s *Store) Check(kind Kind, newPath, oldPath string) error {
	c := &Store{files: maps.Clone(s.files), folders: maps.Clone(s.folders)}
	return c.record(kind, newPath, oldPath)
}

func (s *Store) record(kind Kind, newPath, oldPath string) error {
	files, folders := maps.Clone(s.files), maps.Clone(s.folders)
	if err := s.apply(kind, newPath, oldPath); err != nil {
		s.files, s.folders = files, folders
		return err
	}
	return nil
}

func (s *Store) apply(kind Kind, newPath, oldPath string) error {
	tbl := s.table(kind)
	resolvedOld := s.Resolve(oldPath)

	// the old name may be known directly or only through its renamed parent folder
	delete(tbl, pathkey.Key(oldPath))
	if sub, ok := s.substitute(oldPath); ok {
		delete(tbl, pathkey.Key(sub))
	}

	if pathkey.Equal(newPath, resolvedOld) {
		delete(tbl, pathkey.Key(newPath))
		return nil
	}
	tbl[pathkey.Key(newPath)] = Edge{Current: pathkey.Clean(newPath), Original: resolvedOld}

	// every original name must still resolve to itself, and no folder may be
	// renamed to a place inside another renamed folder's old name
	for _, t := range []map[string]Edge{s.files, s.folders} {
		for _, e := range t {
			if got := s.Resolve(e.Original); !pathkey.Equal(got, e.Original) {
				return errors.Errorf("%w: %s -> %s, but %s already resolves to %s", ErrCycle, oldPath, newPath, e.Original, got)
			}
		}
	}
	for _, e := range s.folders {
		for _, f := range s.folders {
			if !pathkey.Equal(e.Current, f.Original) && pathkey.Under(e.Current, f.Original) {
				return errors.Errorf("%w: %s -> %s, but %s lies inside the old name of %s", ErrCycle, oldPath, newPath, e.Current, f.Current)
			}
		}
	}
	return nil
}

// 🔍 Resolve returns the name the VCS knows path by.
//
// A direct file or folder edge wins. Otherwise the deepest renamed folder
// containing path has its new prefix swapped for its old one, and a file edge
// on the substituted path, if any, is followed once more. Paths with no edge
// come back cleaned but otherwise unchanged.
func (s *Store) Resolve(path string) string {
	k := pathkey.Key(path)
	if e, ok := s.files[k]; ok {
		return e.Original
	}
	if e, ok := s.folders[k]; ok {
		return e.Original
	}

	sub, ok := s.substitute(path)
	if !ok {
		return pathkey.Clean(path)
	}
	if e, ok := s.files[pathkey.Key(sub)]; ok {
		return e.Original
	}
	return sub
}

// substitute rewrites path through the deepest folder edge strictly above it.
func (s *Store) substitute(path string) (string, bool) {
	var best Edge
	found := false
	for _, e := range s.folders {
		if pathkey.Equal(path, e.Current) || !pathkey.Under(path, e.Current) {
			continue
		}
		if !found || len(e.Current) > len(best.Current) {
			best, found = e, true
		}
	}
	if !found {
		return "", false
	}
	return pathkey.Rebase(path, best.Current, best.Original), true
}

// IsRenamed reports whether path resolves to a different name.
func (s *Store) IsRenamed(path string) bool {
	return !pathkey.Equal(s.Resolve(path), path)
}

// Lookup returns the edge recorded for exactly path.
func (s *Store) Lookup(path string) (Edge, Kind, bool) {
	k := pathkey.Key(path)
	if e, ok := s.files[k]; ok {
		return e, KindFile, true
	}
	if e, ok := s.folders[k]; ok {
		return e, KindFolder, true
	}
	return Edge{}, KindFile, false
}

// RemoveEdge drops any edge recorded for path, once its rename is committed or rolled back.
func (s *Store) RemoveEdge(path string) bool {
	k := pathkey.Key(path)
	_, hadFile := s.files[k]
	_, hadFolder := s.folders[k]
	delete(s.files, k)
	delete(s.folders, k)
	return hadFile || hadFolder
}

// Len returns the number of file and folder edges.
func (s *Store) Len() int {
	return len(s.files) + len(s.folders)
}

// Files returns the file edges sorted by current path.
func (s *Store) Files() []Edge {
	return sorted(s.files)
}

// Folders returns the folder edges sorted by current path.
func (s *Store) Folders() []Edge {
	return sorted(s.folders)
}

// Load replaces the store contents with persisted edges.
func (s *Store) Load(files, folders []Edge) {
	s.files = make(map[string]Edge, len(files))
	s.folders = make(map[string]Edge, len(folders))
	for _, e := range files {
		if !pathkey.Equal(e.Current, e.Original) {
			s.files[pathkey.Key(e.Current)] = e
		}
	}
	for _, e := range folders {
		if !pathkey.Equal(e.Current, e.Original) {
			s.folders[pathkey.Key(e.Current)] = e
		}
	}
}

func sorted(tbl map[string]Edge) []Edge {
	out := make([]Edge, 0, len(tbl))
	for _, e := range tbl {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return pathkey.Key(out[i].Current) < pathkey.Key(out[j].Current)
	})
	return out
}
