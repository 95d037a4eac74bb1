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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// writable reports whether the owner may write the file. Loaded elements in a
// snapshot view are read-only until checked out or hijacked.
func writable(mode fs.FileMode) bool {
	return mode.Perm()&0200 != 0
}

// collect fills the candidate and ignored lists from the scope.
func (e *Engine) collect(ctx context.Context, p *pass) error {
	seen := make(map[string]bool)
	consider := func(path string, mode fs.FileMode) {
		if !mode.IsRegular() {
			return
		}
		path = filepath.Clean(path)
		if seen[path] {
			return
		}
		seen[path] = true

		if e.opts.Ignore.IsIgnored(path) {
			p.ignored.Add(path)
			return
		}
		if writable(mode) {
			p.candidates = append(p.candidates, path)
		}
	}

	for _, f := range p.scope.Files {
		info, err := os.Lstat(f)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Errorf("stat %s: %w", f, err)
		}
		consider(f, info.Mode())
	}

	for _, d := range p.scope.Dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries, err := os.ReadDir(d)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Errorf("reading directory %s: %w", d, err)
		}
		for _, ent := range entries {
			if ent.IsDir() {
				continue
			}
			info, err := ent.Info()
			if err != nil {
				continue
			}
			consider(filepath.Join(d, ent.Name()), info.Mode())
		}
	}

	for _, root := range p.scope.RecursiveDirs {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == root {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() {
				if err := ctx.Err(); err != nil {
					return err
				}
				if path != root && e.opts.Ignore.IsIgnored(path) {
					return filepath.SkipDir
				}
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			consider(path, info.Mode())
			return nil
		})
		if err != nil {
			return errors.Errorf("walking %s: %w", root, err)
		}
	}

	zerolog.Ctx(ctx).Debug().Int("candidates", len(p.candidates)).Int("ignored", p.ignored.Len()).Msg("writable files collected")
	return nil
}
