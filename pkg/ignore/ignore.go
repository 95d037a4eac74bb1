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

// Package ignore decides which working-tree files are left out of reconciliation.
package ignore

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"gitlab.com/tozd/go/errors"
)

// DefaultPatterns cover the state directory and the files cleartool leaves behind
// after `unco -keep` and merges.
var DefaultPatterns = []string{
	".ccvcs/**",
	"**/*.keep",
	"**/*.keep.[0-9]*",
	"**/*.contrib",
	"**/*.contrib.[0-9]*",
	"**/view.dat",
}

// Predicate reports whether a path should be ignored.
type Predicate interface {
	IsIgnored(path string) bool
}

// 🙈 Matcher ignores paths matching any doublestar pattern. Patterns are matched
// against the path relative to its root; a pattern without a slash also matches
// the base name at any depth.
type Matcher struct {
	roots    []string
	patterns []string
}

// NewMatcher validates patterns and builds a matcher over roots.
func NewMatcher(roots []string, patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, r := range roots {
		m.roots = append(m.roots, pathkey.Clean(r))
	}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid ignore pattern %q", p)
		}
		m.patterns = append(m.patterns, p)
	}
	return m, nil
}

// IsIgnored implements Predicate.
func (m *Matcher) IsIgnored(p string) bool {
	rel := m.relative(p)
	base := path.Base(rel)
	for _, pat := range m.patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
		if !strings.Contains(pat, "/") {
			if ok, _ := doublestar.Match(pat, base); ok {
				return true
			}
		}
	}
	return false
}

// relative returns p relative to the deepest root holding it, or p itself.
func (m *Matcher) relative(p string) string {
	p = pathkey.Clean(p)
	best := ""
	for _, r := range m.roots {
		if pathkey.Under(p, r) && len(r) > len(best) {
			best = r
		}
	}
	if best == "" {
		return strings.TrimPrefix(p, "/")
	}
	return strings.TrimPrefix(p[len(best):], "/")
}

// Patterns returns the active patterns.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Func adapts a function to Predicate.
type Func func(path string) bool

// IsIgnored implements Predicate.
func (f Func) IsIgnored(path string) bool {
	return f(path)
}
