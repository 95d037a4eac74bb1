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

// Package pathkey canonicalizes file paths for use as map keys.
//
// ClearCase compares paths case-insensitively, so every map in this module
// that is keyed by a path goes through Key, for both inserts and lookups.
package pathkey

import (
	"path/filepath"
	"strings"
)

// 🔑 Key returns the canonical form of path: cleaned, forward slashes, lower case.
func Key(path string) string {
	if path == "" {
		return ""
	}
	return strings.ToLower(filepath.ToSlash(filepath.Clean(path)))
}

// Clean returns path cleaned and slash-normalized but with its case kept.
func Clean(path string) string {
	if path == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// Equal reports whether two paths name the same file.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

// 📂 Under reports whether path is dir itself or nested somewhere below it.
func Under(path, dir string) bool {
	p, d := Key(path), Key(dir)
	if p == d {
		return true
	}
	if !strings.HasSuffix(d, "/") {
		d += "/"
	}
	return strings.HasPrefix(p, d)
}

// Rebase replaces the dir prefix of path with newDir. path must be Under dir.
// The remainder keeps the case it had in path.
func Rebase(path, dir, newDir string) string {
	p, d := Clean(path), Clean(dir)
	if len(p) <= len(d) {
		return Clean(newDir)
	}
	return Clean(newDir) + p[len(d):]
}

// Parent returns the parent directory of path, or "" once the filesystem root is reached.
func Parent(path string) string {
	p := Clean(path)
	parent := filepath.ToSlash(filepath.Dir(p))
	if parent == p || parent == "." {
		return ""
	}
	return parent
}

// Set is a case-insensitive set of paths that remembers the first spelling it saw.
type Set struct {
	items map[string]string
	order []string
}

// NewSet creates a set holding paths.
func NewSet(paths ...string) *Set {
	s := &Set{items: make(map[string]string)}
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add inserts path and reports whether it was not present before.
func (s *Set) Add(path string) bool {
	if s.items == nil {
		s.items = make(map[string]string)
	}
	k := Key(path)
	if _, ok := s.items[k]; ok {
		return false
	}
	s.items[k] = Clean(path)
	s.order = append(s.order, k)
	return true
}

// Remove deletes path and reports whether it was present.
func (s *Set) Remove(path string) bool {
	k := Key(path)
	if _, ok := s.items[k]; !ok {
		return false
	}
	delete(s.items, k)
	for i, o := range s.order {
		if o == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Has reports whether path is in the set.
func (s *Set) Has(path string) bool {
	if s == nil || s.items == nil {
		return false
	}
	_, ok := s.items[Key(path)]
	return ok
}

// Len returns the number of paths in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Paths returns the stored paths in insertion order.
func (s *Set) Paths() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}
