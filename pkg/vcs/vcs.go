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


// Package vcs is the entry point of the ClearCase integration: one VCS value per
// project wires the tool runner, the persisted session, the ignore rules and the
// reconciliation engine together and serializes everything that touches them.
package vcs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/batch"
	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/config"
	"github.com/walteh/ccvcs/pkg/dirty"
	"github.com/walteh/ccvcs/pkg/ignore"
	"github.com/walteh/ccvcs/pkg/operation"
	"github.com/walteh/ccvcs/pkg/parse"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"github.com/walteh/ccvcs/pkg/reconcile"
	"github.com/walteh/ccvcs/pkg/state"
	"github.com/walteh/ccvcs/pkg/status"
	"github.com/walteh/ccvcs/pkg/views"
	"gitlab.com/tozd/go/errors"
)

// Options configures New.
type Options struct {
	// Config is required and must have been validated.
	Config *config.Config
	// Runner overrides the cleartool runner built from Config.
	Runner cleartool.Runner
}

// ⚠️ ConfigMismatchWarning reports a root whose view kind disagrees with use_ucm.
type ConfigMismatchWarning struct {
	Root   string
	Tag    string
	UseUCM bool
	IsUCM  bool
}

func (w *ConfigMismatchWarning) Error() string {
	kind := func(ucm bool) string {
		if ucm {
			return "UCM"
		}
		return "base ClearCase"
	}
	return fmt.Sprintf("root %s is in %s view %s but use_ucm is %t", w.Root, kind(w.IsUCM), w.Tag, w.UseUCM)
}

func (w *ConfigMismatchWarning) Unwrap() error {
	return config.ErrUCMMismatch
}

// 🏛️ VCS serves one project. All methods are safe for concurrent use; passes and
// operations run one at a time.
type VCS struct {
	mu sync.Mutex

	cfg      *config.Config
	runner   cleartool.Runner
	session  *state.Session
	ignore   *ignore.Matcher
	engine   *reconcile.Engine
	describe *batch.DescribeProcessor
	operator *operation.Operator

	mismatched map[string]bool // pathkey.Key(root) -> mismatch already reported
}

// 🏗️ New loads the session from the configured state file and wires the engine.
func New(ctx context.Context, opts Options) (*VCS, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.Errorf("config is required")
	}

	runner := opts.Runner
	if runner == nil {
		runner = cleartool.NewExecRunner(cfg.Executable, cfg.TimeoutDuration())
	}

	session := state.New(cfg.StateFile, runner)
	if err := session.Load(ctx); err != nil {
		return nil, errors.Errorf("loading session: %w", err)
	}

	matcher, err := ignore.NewMatcher(cfg.Roots, append(append([]string(nil), ignore.DefaultPatterns...), cfg.Ignore...))
	if err != nil {
		return nil, errors.Errorf("building ignore rules: %w", err)
	}

	operator, err := operation.New(operation.Options{Runner: runner, Session: session})
	if err != nil {
		return nil, errors.Errorf("creating operator: %w", err)
	}

	return &VCS{
		cfg:     cfg,
		runner:  runner,
		session: session,
		ignore:  matcher,
		engine: reconcile.NewEngine(reconcile.Options{
			Session:               session,
			Runner:                runner,
			Ignore:                matcher,
			Roots:                 cfg.Roots,
			StatusCeiling:         cfg.StatusCeiling,
			DescribeCeiling:       cfg.DescribeCeiling,
			CheckoutListThreshold: cfg.CheckoutListThreshold,
			UseUCM:                cfg.UseUCM,
		}),
		describe:   batch.NewDescribeProcessor(runner, cfg.DescribeCeiling),
		operator:   operator,
		mismatched: make(map[string]bool),
	}, nil
}

// Config returns the configuration the VCS was built with.
func (v *VCS) Config() *config.Config {
	return v.cfg
}

// Ignore returns the active ignore rules.
func (v *VCS) Ignore() ignore.Predicate {
	return v.ignore
}

// 🔄 Reconcile runs one pass over scope. See reconcile.Engine.Reconcile.
func (v *VCS) Reconcile(ctx context.Context, scope dirty.Scope) (*reconcile.ChangeSet, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.engine.Reconcile(ctx, scope)
}

// 🧭 StatusOf classifies a single path.
func (v *VCS) StatusOf(ctx context.Context, path string) (status.FileStatus, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.engine.StatusOf(ctx, path)
}

// 📜 HistoryOf returns the version history of path, newest first, asking under
// the name the VCS knows the file by. last <= 0 uses the configured history limit.
func (v *VCS) HistoryOf(ctx context.Context, path string, last int) ([]parse.VersionRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.session.Offline() {
		return nil, errors.WithStack(reconcile.ErrOffline)
	}
	if last <= 0 {
		last = v.cfg.HistoryLimit
	}

	element := v.session.Renames.Resolve(path)
	res, err := v.runner.Run(ctx, cleartool.Command{Args: cleartool.LsHistory(element, last)})
	if err != nil {
		return nil, v.toolFailure(ctx, errors.Errorf("history of %s: %w", path, err))
	}

	records := parse.ParseHistory(res.Output)
	zerolog.Ctx(ctx).Debug().Str("path", path).Str("element", element).Int("records", len(records)).Msg("history parsed")
	return records, nil
}

// 🏷️ ActivityOf returns the public name of the UCM activity path is checked out under: the
// remembered association first, then the tool, then the current activity of the
// view holding path. Without use_ucm only remembered associations are returned.
func (v *VCS) ActivityOf(ctx context.Context, path string) (string, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.session
	if act, ok := s.ActivityOf(path); ok {
		return act, true, nil
	}
	if !v.cfg.UseUCM {
		return "", false, nil
	}

	if !s.Offline() {
		element := s.Renames.Resolve(path)
		ids, err := v.describe.Execute(ctx, []string{element})
		if err != nil {
			return "", false, v.toolFailure(ctx, errors.Errorf("activity of %s: %w", path, err))
		}
		if id := ids[pathkey.Key(element)]; id != "" {
			name := s.Views.PublicName(id)
			s.SetActivity(path, name)
			return name, true, nil
		}
	}

	name, ok := s.Views.ActivityOfViewOfFile(path)
	return name, ok, nil
}

// 👓 ReloadViews refreshes the views of the configured roots and, with use_ucm,
// their activities. Warnings cover UCM views without a current activity and
// roots whose view kind disagrees with use_ucm; a mismatch is reported once and
// again only after it was resolved and came back.
func (v *VCS) ReloadViews(ctx context.Context) (warnings []error, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.session.Views.ReloadViews(ctx, v.cfg.Roots); err != nil {
		return nil, v.toolFailure(ctx, errors.Errorf("reloading views: %w", err))
	}

	if v.cfg.UseUCM {
		warnings, err = v.session.Views.ExtractActivities(ctx)
		if err != nil {
			return nil, v.toolFailure(ctx, errors.Errorf("extracting activities: %w", err))
		}
	}

	for _, view := range v.session.Views.Views() {
		key := pathkey.Key(view.Root)
		mismatch := view.IsUCM != v.cfg.UseUCM
		if mismatch && !v.mismatched[key] {
			warnings = append(warnings, &ConfigMismatchWarning{Root: view.Root, Tag: view.Tag, UseUCM: v.cfg.UseUCM, IsUCM: view.IsUCM})
		}
		v.mismatched[key] = mismatch
	}

	logger := zerolog.Ctx(ctx)
	for _, w := range warnings {
		logger.Warn().Err(w).Msg("view warning")
	}
	return warnings, nil
}

// Views returns the views of the configured roots as last loaded.
func (v *VCS) Views() []views.ViewInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session.Views.Views()
}

// Operate runs fn with exclusive access to the single-file operations.
func (v *VCS) Operate(ctx context.Context, fn func(ctx context.Context, op *operation.Operator) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.toolFailure(ctx, fn(ctx, v.operator))
}

// Offline reports whether the session is in degraded mode.
func (v *VCS) Offline() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session.Offline()
}

// GoOnline clears the offline flag so the next pass asks the tool again.
func (v *VCS) GoOnline(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.session.SetOffline(false)
	zerolog.Ctx(ctx).Info().Msg("session back online")
}

// 💾 Save persists the session.
func (v *VCS) Save(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session.Save(ctx)
}

// 👀 Watch reconciles the configured roots every time filesystem activity under
// them settles, handing each result to handle, until ctx is done. The session
// is saved after every successful pass.
func (v *VCS) Watch(ctx context.Context, debounce time.Duration, handle func(cs *reconcile.ChangeSet, err error)) error {
	w, err := dirty.NewWatcher(ctx, v.cfg.Roots, v.ignore, debounce)
	if err != nil {
		return errors.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	err = w.Run(ctx, func(ctx context.Context, scope dirty.Scope) error {
		cs, err := v.Reconcile(ctx, scope)
		handle(cs, err)
		if err == nil {
			if serr := v.Save(ctx); serr != nil {
				return serr
			}
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// toolFailure switches the session offline when err says the server is down.
func (v *VCS) toolFailure(ctx context.Context, err error) error {
	if err == nil || !cleartool.IsServerDown(err) {
		return err
	}
	if !v.session.Offline() {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("clearcase server unreachable, going offline")
	}
	v.session.SetOffline(true)
	return errors.Join(reconcile.ErrOffline, err)
}
