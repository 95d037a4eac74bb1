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

package dirty

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/ignore"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"gitlab.com/tozd/go/errors"
)

// DefaultDebounce is how long the watcher waits after the last event before
// handing the accumulated scope over.
const DefaultDebounce = 500 * time.Millisecond

// HandlerFunc consumes one accumulated scope. Calls never overlap.
type HandlerFunc func(ctx context.Context, scope Scope) error

// 👀 Watcher turns filesystem events under a set of roots into dirty scopes.
type Watcher struct {
	roots    []string
	ignore   ignore.Predicate
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher starts watching every directory under roots that ignore does not exclude.
func NewWatcher(ctx context.Context, roots []string, ign ignore.Predicate, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if ign == nil {
		ign = ignore.Func(func(string) bool { return false })
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		roots:    roots,
		ignore:   ign,
		debounce: debounce,
		watcher:  fw,
	}
	for _, root := range roots {
		if err := w.addRecursive(ctx, root); err != nil {
			fw.Close()
			return nil, errors.Errorf("watching %s: %w", root, err)
		}
	}
	return w, nil
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) addRecursive(ctx context.Context, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignore.IsIgnored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Errorf("adding watch on %s: %w", path, err)
		}
		zerolog.Ctx(ctx).Trace().Str("dir", path).Msg("watching directory")
		return nil
	})
}

// 🔁 Run delivers a scope to fn every time events go quiet for the debounce
// window, until ctx is done or fn fails.
func (w *Watcher) Run(ctx context.Context, fn HandlerFunc) error {
	logger := zerolog.Ctx(ctx)

	files := pathkey.NewSet()
	dirs := pathkey.NewSet()
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.ignore.IsIgnored(event.Name) {
				continue
			}

			// chmod events are kept: checkouts and hijacks flip the write bit
			w.record(ctx, event, files, dirs)

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Debug().Err(err).Msg("filesystem watcher error")

		case <-fire:
			fire = nil
			scope := Scope{Files: files.Paths(), Dirs: dirs.Paths()}
			files = pathkey.NewSet()
			dirs = pathkey.NewSet()

			logger.Debug().Int("files", len(scope.Files)).Int("dirs", len(scope.Dirs)).Msg("dirty scope ready")
			if err := fn(ctx, scope); err != nil {
				return errors.Errorf("handling dirty scope: %w", err)
			}
		}
	}
}

func (w *Watcher) record(ctx context.Context, event fsnotify.Event, files, dirs *pathkey.Set) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ctx, event.Name); err != nil {
				zerolog.Ctx(ctx).Debug().Err(err).Str("dir", event.Name).Msg("failed to watch new directory")
			}
			dirs.Add(event.Name)
			return
		}
	}
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		// the name is gone; its parent listing is what changed
		if parent := pathkey.Parent(event.Name); parent != "" {
			dirs.Add(parent)
		}
	}
	files.Add(event.Name)
}
