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

// Package reconcile works out which files of a dirty scope are new, modified,
// hijacked, conflicted, removed or ignored, and builds the resulting change set.
//
// A pass walks the scope for writable files, answers what it can from one-shot
// flags left by earlier operations, asks cleartool about the rest under the
// names the VCS knows them by, marks unversioned ancestor folders of new files
// on full refreshes, and only then emits. A failing pass emits nothing.
package reconcile

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/batch"
	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/dirty"
	"github.com/walteh/ccvcs/pkg/ignore"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"github.com/walteh/ccvcs/pkg/state"
	"github.com/walteh/ccvcs/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// ErrOffline means the ClearCase server could not be reached. The session is
// switched to offline mode and later passes use cached results until it is cleared.
var ErrOffline = errors.Base("clearcase server unreachable, session is offline")

// Options configures an Engine.
type Options struct {
	Session *state.Session
	Runner  cleartool.Runner
	Ignore  ignore.Predicate

	// Roots bound ancestor propagation and feed the checkout-list strategy.
	Roots []string

	StatusCeiling         int
	DescribeCeiling       int
	CheckoutListThreshold int

	// UseUCM tags modified files with their activity.
	UseUCM bool

	// TempDir holds fetched prior revisions; empty means os.TempDir.
	TempDir string
}

// ⚙️ Engine runs reconciliation passes against one session.
type Engine struct {
	opts     Options
	status   *batch.StatusProcessor
	describe *batch.DescribeProcessor
	perPath  batch.Strategy
	listing  batch.Strategy
}

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	if opts.Ignore == nil {
		opts.Ignore = ignore.Func(func(string) bool { return false })
	}
	if opts.CheckoutListThreshold == 0 {
		opts.CheckoutListThreshold = batch.DefaultCheckoutListThreshold
	}
	proc := batch.NewStatusProcessor(opts.Runner, opts.StatusCeiling)
	return &Engine{
		opts:     opts,
		status:   proc,
		describe: batch.NewDescribeProcessor(opts.Runner, opts.DescribeCeiling),
		perPath:  batch.NewPerPathStrategy(proc),
		listing:  batch.NewCheckoutListStrategy(opts.Runner, opts.Roots),
	}
}

// pass is the working state of one reconciliation. It is thrown away on failure.
type pass struct {
	id    string
	scope dirty.Scope

	candidates []string
	apriori    []string // flagged candidates settled without a query
	ignored    *pathkey.Set

	newFiles   *pathkey.Set
	changed    *pathkey.Set
	hijacked   *pathkey.Set
	conflicted *pathkey.Set
	newFolders *pathkey.Set

	original map[string]string // pathkey.Key(current) -> resolved name, only when renamed
}

func newPass(scope dirty.Scope) *pass {
	return &pass{
		id:         uuid.NewString(),
		scope:      scope,
		ignored:    pathkey.NewSet(),
		newFiles:   pathkey.NewSet(),
		changed:    pathkey.NewSet(),
		hijacked:   pathkey.NewSet(),
		conflicted: pathkey.NewSet(),
		newFolders: pathkey.NewSet(),
		original:   make(map[string]string),
	}
}

// 🔄 Reconcile runs one pass over scope.
//
// While the session is offline no status queries are made and the change set is
// built from the cached results of the last successful pass, marked Degraded.
// A server-unreachable failure switches the session offline and returns an
// error wrapping ErrOffline; any other failure is returned as is. Either way
// nothing is emitted and the cached results are left alone.
func (e *Engine) Reconcile(ctx context.Context, scope dirty.Scope) (*ChangeSet, error) {
	p := newPass(scope)
	logger := zerolog.Ctx(ctx).With().Str("pass_id", p.id).Logger()
	ctx = logger.WithContext(ctx)

	logger.Debug().
		Int("files", len(scope.Files)).
		Int("dirs", len(scope.Dirs)).
		Int("recursive_dirs", len(scope.RecursiveDirs)).
		Bool("offline", e.opts.Session.Offline()).
		Msg("reconciliation started")

	if err := e.collect(ctx, p); err != nil {
		return nil, errors.Errorf("collecting writable files: %w", err)
	}

	if e.opts.Session.Offline() {
		logger.Warn().Msg("session is offline, using cached results")
		return e.degraded(ctx, p), nil
	}

	cs, err := e.run(ctx, p)
	if err != nil {
		if cleartool.IsServerDown(err) {
			e.opts.Session.SetOffline(true)
			logger.Warn().Err(err).Msg("clearcase server unreachable, switching to offline mode")
			return nil, errors.Join(ErrOffline, err)
		}
		return nil, err
	}

	e.remember(p)

	logger.Info().
		Int("new", p.newFiles.Len()).
		Int("new_folders", p.newFolders.Len()).
		Int("changed", p.changed.Len()).
		Int("hijacked", p.hijacked.Len()).
		Int("conflicted", p.conflicted.Len()).
		Int("ignored", p.ignored.Len()).
		Msg("reconciliation finished")
	return cs, nil
}

func (e *Engine) run(ctx context.Context, p *pass) (*ChangeSet, error) {
	rest := e.applyApriori(ctx, p)

	if err := e.classify(ctx, p, rest); err != nil {
		return nil, errors.Errorf("classifying: %w", err)
	}

	if p.scope.IsBatch() {
		if err := e.propagateNewAncestors(ctx, p); err != nil {
			return nil, errors.Errorf("finding new folders: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.emit(ctx, p)
}

// remember caches the pass results for offline use and clears the apriori flags
// the pass consumed. A full refresh replaces the cache; a partial one updates
// only the paths it looked at.
func (e *Engine) remember(p *pass) {
	s := e.opts.Session
	for _, c := range p.apriori {
		s.TakeApriori(c)
	}
	if p.scope.IsBatch() {
		s.CachedNew = pathkey.NewSet()
		s.CachedChanged = pathkey.NewSet()
	} else {
		for _, c := range p.candidates {
			s.CachedNew.Remove(c)
			s.CachedChanged.Remove(c)
		}
	}
	for _, n := range p.newFiles.Paths() {
		s.CachedNew.Add(n)
	}
	for _, n := range p.newFolders.Paths() {
		s.CachedNew.Add(n)
	}
	for _, c := range append(p.changed.Paths(), p.hijacked.Paths()...) {
		s.CachedChanged.Add(c)
	}
}

// 🧭 StatusOf classifies a single path.
func (e *Engine) StatusOf(ctx context.Context, path string) (status.FileStatus, error) {
	s := e.opts.Session

	switch {
	case e.opts.Ignore.IsIgnored(path):
		return status.StatusIgnored, nil
	case s.RemovedFiles.Has(path), s.RemovedFolders.Has(path):
		return status.StatusDeleted, nil
	}
	switch s.PeekApriori(path) {
	case state.AprioriCheckedOut:
		return status.StatusCheckedOut, nil
	case state.AprioriMergeConflict:
		return status.StatusMergeConflict, nil
	}

	if s.Offline() {
		switch {
		case s.CachedNew.Has(path):
			return status.StatusNew, nil
		case s.CachedChanged.Has(path):
			return status.StatusCheckedOut, nil
		}
		return status.StatusUnknown, ErrOffline
	}

	element := s.Renames.Resolve(path)
	got, err := e.status.Execute(ctx, []string{element})
	if err != nil {
		if cleartool.IsServerDown(err) {
			s.SetOffline(true)
			return status.StatusUnknown, errors.Join(ErrOffline, err)
		}
		return status.StatusUnknown, errors.Errorf("querying status of %s: %w", path, err)
	}

	st := got[pathkey.Key(element)]
	if st == status.StatusNotAnElement {
		if _, err := os.Stat(path); err == nil {
			return status.StatusNew, nil
		}
	}
	return st, nil
}
