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

package operation

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/parse"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"github.com/walteh/ccvcs/pkg/rename"
	"github.com/walteh/ccvcs/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// ➕ Add records an explicit request to add each path at the next check-in.
func (o *Operator) Add(ctx context.Context, targets []Target) error {
	return eachTarget(ctx, "add", targets, func(ctx context.Context, t Target) error {
		if _, err := os.Stat(t.Path); err != nil {
			return errors.Errorf("stat: %w", err)
		}
		o.session.RemovedFiles.Remove(t.Path)
		o.session.RemovedFolders.Remove(t.Path)
		o.session.NewFiles.Add(t.Path)
		return nil
	})
}

// ➖ Delete removes each path from the working tree. Files that were only
// requested for addition are simply forgotten; elements are queued for rmname.
func (o *Operator) Delete(ctx context.Context, targets []Target) error {
	return eachTarget(ctx, "delete", targets, func(ctx context.Context, t Target) error {
		info, statErr := os.Stat(t.Path)
		isDir := t.IsDir || (statErr == nil && info.IsDir())

		if err := os.RemoveAll(t.Path); err != nil {
			return errors.Errorf("removing: %w", err)
		}

		if o.session.NewFiles.Remove(t.Path) || t.Status == status.StatusNotAnElement || t.Status == status.StatusNew {
			o.session.Forget(t.Path)
			return nil
		}
		if isDir {
			o.session.RemovedFolders.Add(t.Path)
		} else {
			o.session.RemovedFiles.Add(t.Path)
		}
		return nil
	})
}

// 🔀 Move renames from to to in the working tree and records the rename so the
// next pass still finds the element under its old name.
func (o *Operator) Move(ctx context.Context, from, to string) error {
	if _, err := os.Stat(to); err == nil {
		return errors.Errorf("moving %s: %s already exists", from, to)
	}
	info, err := os.Stat(from)
	if err != nil {
		return errors.Errorf("moving %s: %w", from, err)
	}

	s := o.session
	kind := rename.KindFile
	if info.IsDir() {
		kind = rename.KindFolder
	}
	if !s.NewFiles.Has(from) {
		if err := s.Renames.Check(kind, to, from); err != nil {
			return errors.Errorf("moving %s: %w", from, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return errors.Errorf("creating parent of %s: %w", to, err)
	}
	if err := os.Rename(from, to); err != nil {
		return errors.Errorf("moving %s: %w", from, err)
	}

	if act, ok := s.ActivityOf(from); ok {
		s.ForgetActivity(from)
		s.SetActivity(to, act)
	}
	if s.NewFiles.Remove(from) {
		s.NewFiles.Add(to)
		return nil
	}
	if kind == rename.KindFolder {
		err = s.Renames.RecordFolderRename(to, from)
	} else {
		err = s.Renames.RecordRename(to, from)
	}
	if err != nil {
		return errors.Errorf("recording rename of %s: %w", from, err)
	}

	zerolog.Ctx(ctx).Debug().Str("from", from).Str("to", to).Bool("dir", info.IsDir()).Msg("rename recorded")
	return nil
}

// ↩️ Rollback undoes local work on each target: renames are moved back, checkouts
// cancelled, hijacked or removed files reloaded, and add requests forgotten.
func (o *Operator) Rollback(ctx context.Context, targets []Target) error {
	return eachTarget(ctx, "rollback", targets, func(ctx context.Context, t Target) error {
		s := o.session
		path := t.Path

		if edge, _, ok := s.Renames.Lookup(path); ok {
			if err := os.Rename(path, edge.Original); err != nil {
				return errors.Errorf("moving back to %s: %w", edge.Original, err)
			}
			s.Renames.RemoveEdge(path)
			s.Forget(path)
			path = edge.Original
		}

		switch {
		case s.NewFiles.Has(path):
			// the file stays as a view-private file
		case s.RemovedFiles.Has(path), s.RemovedFolders.Has(path), t.Status == status.StatusDeleted:
			if _, err := o.run(ctx, cleartool.UpdateOverwrite(s.Renames.Resolve(path))); err != nil {
				return errors.Errorf("reloading removed file: %w", err)
			}
		case t.Status == status.StatusCheckedOut, t.Status == status.StatusMergeConflict:
			if _, err := o.run(ctx, cleartool.Uncheckout(path, false)); err != nil {
				return err
			}
		case t.Status == status.StatusHijacked:
			if _, err := o.run(ctx, cleartool.UpdateOverwrite(path)); err != nil {
				return err
			}
		}

		s.Forget(path)
		return nil
	})
}

// UpdateResult aggregates what update did across targets.
type UpdateResult struct {
	Loaded    []string
	Conflicts []string
}

// 🔃 Update refreshes each target from the VCS. Files reported in conflict are
// flagged so the next pass shows them as merge conflicts without asking again.
func (o *Operator) Update(ctx context.Context, targets []Target) (*UpdateResult, error) {
	out := &UpdateResult{}

	err := eachTarget(ctx, "update", targets, func(ctx context.Context, t Target) error {
		dir := t.Path
		if info, err := os.Stat(t.Path); err != nil || !info.IsDir() {
			dir = filepath.Dir(t.Path)
		}

		res, err := o.runner.Run(ctx, cleartool.Command{Args: cleartool.Update(t.Path), Dir: dir})
		if err != nil {
			return err
		}

		parsed := parse.ParseUpdate(res.Output)
		for _, l := range parsed.Loaded {
			out.Loaded = append(out.Loaded, absolute(dir, l))
		}
		for _, c := range parsed.Conflicts {
			c = absolute(dir, c)
			o.session.FlagMergeConflict(c)
			out.Conflicts = append(out.Conflicts, c)
		}
		return nil
	})

	zerolog.Ctx(ctx).Info().Int("loaded", len(out.Loaded)).Int("conflicts", len(out.Conflicts)).Msg("update finished")
	return out, err
}

func absolute(dir, p string) string {
	if filepath.IsAbs(p) {
		return pathkey.Clean(p)
	}
	return pathkey.Clean(filepath.Join(dir, p))
}
