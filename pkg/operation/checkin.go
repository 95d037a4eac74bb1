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
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"github.com/walteh/ccvcs/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 📝 Checkout checks each target out and flags it for the next pass. A file that
// is already checked out counts as done; hijacked files keep their local content.
func (o *Operator) Checkout(ctx context.Context, targets []Target, comment string) error {
	return eachTarget(ctx, "checkout", targets, func(ctx context.Context, t Target) error {
		element := o.session.Renames.Resolve(t.Path)
		args := cleartool.Checkout(element, comment, o.reserved)
		if t.Status == status.StatusHijacked {
			args = cleartool.CheckoutHijacked(element, comment)
		}
		if _, err := o.run(ctx, args); err != nil {
			if !cleartool.IsAlreadyCheckedOut(err) {
				return err
			}
			zerolog.Ctx(ctx).Debug().Str("path", t.Path).Msg("already checked out")
		}
		o.session.FlagCheckedOut(t.Path)
		return nil
	})
}

// dirCheckouts tracks the directories an operation checked out so they can be
// checked in again once, deepest first, at the end.
type dirCheckouts struct {
	o    *Operator
	dirs *pathkey.Set
}

func (o *Operator) newDirCheckouts() *dirCheckouts {
	return &dirCheckouts{o: o, dirs: pathkey.NewSet()}
}

// ensure checks dir out unless this operation already did. A directory that was
// checked out before the operation started is left to its owner.
func (d *dirCheckouts) ensure(ctx context.Context, dir string) error {
	if dir == "" || d.dirs.Has(dir) {
		return nil
	}
	if _, err := d.o.run(ctx, cleartool.Checkout(dir, "", false)); err != nil {
		if cleartool.IsAlreadyCheckedOut(err) {
			return nil
		}
		return errors.Errorf("checking out directory %s: %w", dir, err)
	}
	d.dirs.Add(dir)
	return nil
}

func (d *dirCheckouts) track(dir string) {
	d.dirs.Add(dir)
}

func (d *dirCheckouts) checkinAll(ctx context.Context, comment string) error {
	dirs := d.dirs.Paths()
	sort.SliceStable(dirs, func(i, j int) bool { return depth(dirs[i]) > depth(dirs[j]) })

	var errs []error
	for _, dir := range dirs {
		if _, err := d.o.run(ctx, cleartool.Checkin(dir, comment)); err != nil {
			errs = append(errs, errors.Errorf("checking in directory %s: %w", dir, err))
		}
	}
	return errors.Join(errs...)
}

func depth(p string) int {
	return strings.Count(pathkey.Clean(p), "/")
}

// ✅ Checkin commits every target: new files and folders become elements,
// removals drop the element name, renames are replayed with mv, and edits are
// checked in. Directories touched along the way are checked in last.
func (o *Operator) Checkin(ctx context.Context, targets []Target, comment string) error {
	dirs := o.newDirCheckouts()

	err := eachTarget(ctx, "checkin", orderForCheckin(targets), func(ctx context.Context, t Target) error {
		switch {
		case o.isRemoved(t):
			return o.checkinRemoval(ctx, dirs, t, comment)
		case o.isNew(t):
			if err := o.checkinAddition(ctx, dirs, t, comment); err != nil {
				return err
			}
		default:
			if edge, _, ok := o.session.Renames.Lookup(t.Path); ok {
				if err := o.replayRename(ctx, dirs, t.Path, edge.Original, comment); err != nil {
					return err
				}
			}
			if err := o.checkinEdit(ctx, t, comment); err != nil {
				return err
			}
		}
		o.session.Forget(t.Path)
		return nil
	})

	return errors.Join(err, dirs.checkinAll(ctx, comment))
}

func (o *Operator) isRemoved(t Target) bool {
	return t.Status == status.StatusDeleted || o.session.RemovedFiles.Has(t.Path) || o.session.RemovedFolders.Has(t.Path)
}

func (o *Operator) isNew(t Target) bool {
	return t.Status == status.StatusNew || t.Status == status.StatusNotAnElement || o.session.NewFiles.Has(t.Path)
}

// orderForCheckin puts new folders first, shallowest first, so their children
// find a checked-out parent.
func orderForCheckin(targets []Target) []Target {
	out := append([]Target(nil), targets...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		if out[i].IsDir {
			return depth(out[i].Path) < depth(out[j].Path)
		}
		return false
	})
	return out
}

func (o *Operator) checkinRemoval(ctx context.Context, dirs *dirCheckouts, t Target, comment string) error {
	element := o.session.Renames.Resolve(t.Path)
	if err := dirs.ensure(ctx, pathkey.Parent(element)); err != nil {
		return err
	}
	if _, err := o.run(ctx, cleartool.Rmname(element, comment)); err != nil {
		return err
	}
	o.session.Forget(t.Path)
	return nil
}

func (o *Operator) checkinAddition(ctx context.Context, dirs *dirCheckouts, t Target, comment string) error {
	if err := dirs.ensure(ctx, pathkey.Parent(t.Path)); err != nil {
		return err
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return errors.Errorf("stat %s: %w", t.Path, err)
	}
	if info.IsDir() {
		return o.addFolder(ctx, dirs, t.Path, comment)
	}

	if _, err := o.run(ctx, cleartool.Mkelem(t.Path, comment)); err != nil {
		return err
	}
	if _, err := o.run(ctx, cleartool.Checkin(t.Path, comment)); err != nil {
		return err
	}
	return nil
}

// addFolder turns a view-private directory into a directory element. mkdir
// needs the name to be free, so the contents are parked next to it meanwhile.
func (o *Operator) addFolder(ctx context.Context, dirs *dirCheckouts, dir, comment string) error {
	parked := dir + ".ccvcs-add"
	if err := os.Rename(dir, parked); err != nil {
		return errors.Errorf("moving %s aside: %w", dir, err)
	}

	if _, err := o.run(ctx, cleartool.Mkdir(dir, comment)); err != nil {
		if rerr := os.Rename(parked, dir); rerr != nil {
			return errors.Join(err, errors.Errorf("restoring %s: %w", dir, rerr))
		}
		return err
	}
	dirs.track(dir)

	entries, err := os.ReadDir(parked)
	if err != nil {
		return errors.Errorf("reading %s: %w", parked, err)
	}
	for _, e := range entries {
		if err := os.Rename(filepath.Join(parked, e.Name()), filepath.Join(dir, e.Name())); err != nil {
			return errors.Errorf("moving %s back: %w", e.Name(), err)
		}
	}
	if err := os.Remove(parked); err != nil {
		return errors.Errorf("removing %s: %w", parked, err)
	}
	return nil
}

// replayRename moves the element from its old name to the current one. The
// working file is put back under the old name first, since mv needs its source.
func (o *Operator) replayRename(ctx context.Context, dirs *dirCheckouts, current, original, comment string) error {
	if err := dirs.ensure(ctx, pathkey.Parent(original)); err != nil {
		return err
	}
	if err := dirs.ensure(ctx, pathkey.Parent(current)); err != nil {
		return err
	}

	if err := os.Rename(current, original); err != nil {
		return errors.Errorf("restoring old name %s: %w", original, err)
	}
	if _, err := o.run(ctx, cleartool.Move(original, current, comment)); err != nil {
		if rerr := os.Rename(original, current); rerr != nil {
			return errors.Join(err, errors.Errorf("restoring %s: %w", current, rerr))
		}
		return err
	}
	o.session.Renames.RemoveEdge(current)
	return nil
}

func (o *Operator) checkinEdit(ctx context.Context, t Target, comment string) error {
	if t.IsDir {
		return nil
	}
	if t.Status == status.StatusHijacked {
		if _, err := o.run(ctx, cleartool.CheckoutHijacked(t.Path, comment)); err != nil && !cleartool.IsAlreadyCheckedOut(err) {
			return err
		}
	}
	if t.Status == status.StatusCheckedIn {
		// nothing was changed under this name; the rename alone was the change
		return nil
	}
	_, err := o.run(ctx, cleartool.Checkin(t.Path, comment))
	return err
}
