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
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"github.com/walteh/ccvcs/pkg/state"
	"github.com/walteh/ccvcs/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// emit turns the pass sets into a change set.
func (e *Engine) emit(ctx context.Context, p *pass) (*ChangeSet, error) {
	s := e.opts.Session
	cs := &ChangeSet{PassID: p.id, NewFolders: p.newFolders.Paths()}

	var activities map[string]string
	if e.opts.UseUCM {
		var err error
		activities, err = e.activities(ctx, append(p.changed.Paths(), p.conflicted.Paths()...))
		if err != nil {
			return nil, errors.Errorf("resolving activities: %w", err)
		}
	}

	for _, n := range p.newFolders.Paths() {
		cs.add(Change{Path: n, Original: p.original[pathkey.Key(n)], Status: status.StatusNew, Kind: e.newKind(n), IsDir: true})
	}
	for _, n := range p.newFiles.Paths() {
		cs.add(Change{Path: n, Original: p.original[pathkey.Key(n)], Status: status.StatusNew, Kind: e.newKind(n)})
	}
	for _, c := range p.changed.Paths() {
		cs.add(e.modified(p, c, status.StatusCheckedOut, KindModified, activities))
	}
	for _, c := range p.hijacked.Paths() {
		cs.add(e.modified(p, c, status.StatusHijacked, KindModified, nil))
	}
	for _, c := range p.conflicted.Paths() {
		cs.add(e.modified(p, c, status.StatusMergeConflict, KindConflicted, activities))
	}
	for _, r := range e.removed(p) {
		cs.add(r)
	}
	for _, i := range p.ignored.Paths() {
		cs.add(Change{Path: i, Status: status.StatusIgnored, Kind: KindIgnored})
	}

	if s.Views != nil && e.opts.UseUCM {
		for _, c := range p.changed.Paths() {
			if _, ok := activities[pathkey.Key(c)]; !ok {
				cs.Warnings = append(cs.Warnings, "no activity known for "+c)
			}
		}
	}

	cs.sort()
	return cs, nil
}

func (e *Engine) newKind(path string) Kind {
	if e.opts.Session.NewFiles.Has(path) {
		return KindAdded
	}
	return KindUnversioned
}

func (e *Engine) modified(p *pass, path string, st status.FileStatus, kind Kind, activities map[string]string) Change {
	element := path
	if o, ok := p.original[pathkey.Key(path)]; ok {
		element = o
	}
	return Change{
		Path:     path,
		Original: p.original[pathkey.Key(path)],
		Status:   st,
		Kind:     kind,
		Activity: activities[pathkey.Key(path)],
		Prior:    NewPriorRevision(e.opts.Runner, path, element, st, e.opts.TempDir),
	}
}

// removed lists the pending deletions that fall inside the pass scope.
func (e *Engine) removed(p *pass) []Change {
	s := e.opts.Session
	var out []Change
	for _, f := range s.RemovedFolders.Paths() {
		if inScope(p, f) {
			out = append(out, Change{Path: f, Status: status.StatusDeleted, Kind: KindRemoved, IsDir: true})
		}
	}
	for _, f := range s.RemovedFiles.Paths() {
		if inScope(p, f) {
			out = append(out, Change{Path: f, Status: status.StatusDeleted, Kind: KindRemoved})
		}
	}
	return out
}

func inScope(p *pass, path string) bool {
	for _, f := range p.scope.Files {
		if pathkey.Equal(f, path) {
			return true
		}
	}
	for _, d := range p.scope.Dirs {
		if pathkey.Equal(pathkey.Parent(path), d) || pathkey.Equal(path, d) {
			return true
		}
	}
	for _, d := range p.scope.RecursiveDirs {
		if pathkey.Under(path, d) {
			return true
		}
	}
	return false
}

// 🏷️ activities resolves the activity of each path: the session cache first, then
// one batched describe, then the current activity of the path's view. Whatever
// is found is cached in the session.
func (e *Engine) activities(ctx context.Context, paths []string) (map[string]string, error) {
	s := e.opts.Session
	out := make(map[string]string, len(paths))

	var missing, elements []string
	for _, p := range paths {
		if a, ok := s.ActivityOf(p); ok {
			out[pathkey.Key(p)] = a
			continue
		}
		missing = append(missing, p)
		elements = append(elements, s.Renames.Resolve(p))
	}

	if len(missing) > 0 {
		described, err := e.describe.Execute(ctx, elements)
		if err != nil {
			return nil, err
		}
		for i, p := range missing {
			name, ok := described[pathkey.Key(elements[i])]
			if ok {
				name = s.Views.PublicName(name)
			} else {
				name, ok = s.Views.ActivityOfViewOfFile(p)
			}
			if !ok {
				continue
			}
			out[pathkey.Key(p)] = name
			s.SetActivity(p, name)
		}
	}

	zerolog.Ctx(ctx).Debug().Int("paths", len(paths)).Int("described", len(missing)).Int("resolved", len(out)).Msg("activities resolved")
	return out, nil
}

// degraded builds a change set from the cached results of earlier passes
// without talking to the server.
func (e *Engine) degraded(ctx context.Context, p *pass) *ChangeSet {
	s := e.opts.Session
	cs := &ChangeSet{PassID: p.id, Degraded: true}

	for _, c := range p.candidates {
		switch s.TakeApriori(c) {
		case state.AprioriCheckedOut:
			p.changed.Add(c)
		case state.AprioriMergeConflict:
			p.conflicted.Add(c)
		}
	}

	for _, n := range s.CachedNew.Paths() {
		if !inScope(p, n) || p.changed.Has(n) || p.conflicted.Has(n) {
			continue
		}
		info, err := os.Stat(n)
		if err != nil {
			continue
		}
		cs.add(Change{Path: n, Status: status.StatusNew, Kind: e.newKind(n), IsDir: info.IsDir()})
	}
	for _, c := range s.CachedChanged.Paths() {
		if inScope(p, c) && !p.conflicted.Has(c) {
			p.changed.Add(c)
		}
	}
	for _, c := range p.changed.Paths() {
		a, _ := s.ActivityOf(c)
		cs.add(Change{Path: c, Status: status.StatusCheckedOut, Kind: KindModified, Activity: a})
	}
	for _, c := range p.conflicted.Paths() {
		a, _ := s.ActivityOf(c)
		cs.add(Change{Path: c, Status: status.StatusMergeConflict, Kind: KindConflicted, Activity: a})
	}
	for _, r := range e.removed(p) {
		cs.add(r)
	}
	for _, i := range p.ignored.Paths() {
		cs.add(Change{Path: i, Status: status.StatusIgnored, Kind: KindIgnored})
	}

	cs.Warnings = append(cs.Warnings, "offline: results come from the last successful pass")
	cs.sort()
	zerolog.Ctx(ctx).Debug().Int("changes", len(cs.Changes)).Msg("degraded change set built")
	return cs
}
