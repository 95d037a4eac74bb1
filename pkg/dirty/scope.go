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

// Package dirty describes which parts of the working tree a reconciliation pass
// has to look at, and supplies such scopes from filesystem events.
package dirty

import (
	"github.com/walteh/ccvcs/pkg/pathkey"
)

// 📍 Scope is the set of paths to reconcile.
type Scope struct {
	// Files are individually dirty files.
	Files []string
	// Dirs are dirty directories whose direct children are looked at.
	Dirs []string
	// RecursiveDirs are walked completely; a scope with any is a full refresh.
	RecursiveDirs []string
}

// IsBatch reports whether the scope is a full refresh, which is what enables
// ancestor propagation of new folders.
func (s Scope) IsBatch() bool {
	return len(s.RecursiveDirs) > 0
}

// Empty reports whether there is nothing to reconcile.
func (s Scope) Empty() bool {
	return len(s.Files) == 0 && len(s.Dirs) == 0 && len(s.RecursiveDirs) == 0
}

// Merge returns the union of two scopes with duplicates dropped.
func (s Scope) Merge(o Scope) Scope {
	return Scope{
		Files:         pathkey.NewSet(append(append([]string(nil), s.Files...), o.Files...)...).Paths(),
		Dirs:          pathkey.NewSet(append(append([]string(nil), s.Dirs...), o.Dirs...)...).Paths(),
		RecursiveDirs: pathkey.NewSet(append(append([]string(nil), s.RecursiveDirs...), o.RecursiveDirs...)...).Paths(),
	}
}

// Full returns a full-refresh scope over roots.
func Full(roots ...string) Scope {
	return Scope{RecursiveDirs: pathkey.NewSet(roots...).Paths()}
}
