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

// Package views keeps per-root view metadata and, for UCM views, the activity
// list and which activity is current in which view.
package views

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/parse"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"gitlab.com/tozd/go/errors"
)

// ErrNoCurrentActivity marks a UCM view with no current activity. It is reported
// as a warning: checkouts in that view cannot be assigned to an activity.
var ErrNoCurrentActivity = errors.Base("ucm view has no current activity")

// 👓 ViewInfo describes the view a VCS root is loaded in.
type ViewInfo struct {
	Root            string
	Tag             string
	UUID            string
	IsSnapshot      bool
	IsUCM           bool
	CurrentActivity *parse.ActivityInfo
}

// Record is the persisted form of a ViewInfo.
type Record struct {
	Root            string `json:"root"`
	Tag             string `json:"tag"`
	UUID            string `json:"uuid"`
	IsSnapshot      bool   `json:"is_snapshot"`
	IsUCM           bool   `json:"is_ucm"`
	CurrentActivity string `json:"current_activity,omitempty"`
}

// Registry maps roots to views and view tags to activities.
type Registry struct {
	runner     cleartool.Runner
	views      map[string]*ViewInfo // by pathkey.Key(root)
	byTag      map[string][]*ViewInfo // one view holds any number of roots
	activities map[string]parse.ActivityInfo // by activity name
}

// NewRegistry creates an empty registry that queries through runner.
func NewRegistry(runner cleartool.Runner) *Registry {
	return &Registry{
		runner:     runner,
		views:      make(map[string]*ViewInfo),
		byTag:      make(map[string][]*ViewInfo),
		activities: make(map[string]parse.ActivityInfo),
	}
}

// 🔄 ReloadViews queries view properties for every root not yet known and drops
// roots that are no longer mapped. A root that cannot be queried is left out and
// its error is returned alongside the others once all roots were tried.
func (r *Registry) ReloadViews(ctx context.Context, roots []string) error {
	logger := zerolog.Ctx(ctx)

	wanted := pathkey.NewSet(roots...)
	for k, v := range r.views {
		if !wanted.Has(v.Root) {
			logger.Debug().Str("root", v.Root).Str("tag", v.Tag).Msg("dropping view of unmapped root")
			delete(r.views, k)
		}
	}

	var errs []error
	for _, root := range wanted.Paths() {
		if _, ok := r.views[pathkey.Key(root)]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res, err := r.runner.Run(ctx, cleartool.Command{Args: cleartool.LsView(), Dir: root})
		if err != nil {
			errs = append(errs, errors.Errorf("querying view of %s: %w", root, err))
			continue
		}
		props, err := parse.ParseViewProperties(res.Output)
		if err != nil {
			errs = append(errs, errors.Errorf("reading view of %s: %w", root, err))
			continue
		}

		r.views[pathkey.Key(root)] = &ViewInfo{
			Root:       root,
			Tag:        props.Tag,
			UUID:       props.UUID,
			IsSnapshot: props.IsSnapshot,
			IsUCM:      props.IsUCM,
		}
		logger.Debug().Str("root", root).Str("tag", props.Tag).Bool("snapshot", props.IsSnapshot).Bool("ucm", props.IsUCM).Msg("view loaded")
	}

	r.reindex()
	return errors.Join(errs...)
}

func (r *Registry) reindex() {
	r.byTag = make(map[string][]*ViewInfo, len(r.views))
	for _, v := range r.sortedViews() {
		r.byTag[v.Tag] = append(r.byTag[v.Tag], v)
	}
}

// 🏷️ ExtractActivities rebuilds the activity list of every UCM view from scratch
// and sets the current activity of each view, for all roots loaded in it. Each
// view tag is queried once. The returned warnings name the UCM views left
// without a current activity; they wrap ErrNoCurrentActivity.
func (r *Registry) ExtractActivities(ctx context.Context) (warnings []error, err error) {
	activities := make(map[string]parse.ActivityInfo)

	tags := r.ucmTags()
	for _, tag := range tags {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("listing activities: %w", err)
		}
		res, err := r.runner.Run(ctx, cleartool.Command{Args: cleartool.LsActivity(tag), Dir: r.byTag[tag][0].Root})
		if err != nil {
			return nil, errors.Errorf("listing activities of view %s: %w", tag, err)
		}
		for _, a := range parse.ParseActivities(res.Output) {
			activities[a.Name] = a
		}
	}

	r.activities = activities
	for _, v := range r.views {
		v.CurrentActivity = nil
	}
	for _, a := range activities {
		if a.ActiveInView == "" {
			continue
		}
		for _, v := range r.byTag[a.ActiveInView] {
			a := a
			v.CurrentActivity = &a
		}
	}

	for _, tag := range tags {
		if r.byTag[tag][0].CurrentActivity == nil {
			warnings = append(warnings, errors.Errorf("view %s: %w", tag, ErrNoCurrentActivity))
		}
	}
	zerolog.Ctx(ctx).Debug().Int("activities", len(activities)).Int("warnings", len(warnings)).Msg("activities extracted")
	return warnings, nil
}

// RootOf returns the deepest registered root containing path.
func (r *Registry) RootOf(path string) (string, bool) {
	best := ""
	for _, v := range r.views {
		if pathkey.Under(path, v.Root) && len(v.Root) > len(best) {
			best = v.Root
		}
	}
	return best, best != ""
}

// ViewOf returns the view of the root containing path.
func (r *Registry) ViewOf(path string) (*ViewInfo, bool) {
	root, ok := r.RootOf(path)
	if !ok {
		return nil, false
	}
	v, ok := r.views[pathkey.Key(root)]
	return v, ok
}

// ViewByTag returns the view with the given tag, as seen from its first root.
func (r *Registry) ViewByTag(tag string) (*ViewInfo, bool) {
	vs := r.byTag[tag]
	if len(vs) == 0 {
		return nil, false
	}
	return vs[0], true
}

// ucmTags returns the distinct tags of the UCM views, sorted.
func (r *Registry) ucmTags() []string {
	var tags []string
	for tag, vs := range r.byTag {
		if vs[0].IsUCM {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// 🔍 ActivityOfViewOfFile returns the public name of the current activity of the
// UCM view holding path.
func (r *Registry) ActivityOfViewOfFile(path string) (string, bool) {
	v, ok := r.ViewOf(path)
	if !ok || !v.IsUCM || v.CurrentActivity == nil {
		return "", false
	}
	return v.CurrentActivity.DisplayName(), true
}

// Activity looks an activity up by its selector name.
func (r *Registry) Activity(name string) (parse.ActivityInfo, bool) {
	a, ok := r.activities[name]
	return a, ok
}

// PublicName returns the name an activity is shown under: its headline when
// the activity is known, else id itself.
func (r *Registry) PublicName(id string) string {
	if a, ok := r.activities[id]; ok {
		return a.DisplayName()
	}
	return id
}

// Activities returns all known activities sorted by name.
func (r *Registry) Activities() []parse.ActivityInfo {
	out := make([]parse.ActivityInfo, 0, len(r.activities))
	for _, a := range r.activities {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Views returns the registered views sorted by root.
func (r *Registry) Views() []ViewInfo {
	out := make([]ViewInfo, 0, len(r.views))
	for _, v := range r.sortedViews() {
		out = append(out, *v)
	}
	return out
}

func (r *Registry) sortedViews() []*ViewInfo {
	out := make([]*ViewInfo, 0, len(r.views))
	for _, v := range r.views {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return pathkey.Key(out[i].Root) < pathkey.Key(out[j].Root) })
	return out
}

// Records returns the views in persisted form.
func (r *Registry) Records() []Record {
	var out []Record
	for _, v := range r.sortedViews() {
		rec := Record{
			Root:       v.Root,
			Tag:        v.Tag,
			UUID:       v.UUID,
			IsSnapshot: v.IsSnapshot,
			IsUCM:      v.IsUCM,
		}
		if v.CurrentActivity != nil {
			rec.CurrentActivity = v.CurrentActivity.Name
		}
		out = append(out, rec)
	}
	return out
}

// Load replaces the registered views with persisted records. Current activities
// come back as bare names until the next ExtractActivities.
func (r *Registry) Load(records []Record) {
	r.views = make(map[string]*ViewInfo, len(records))
	for _, rec := range records {
		v := &ViewInfo{
			Root:       rec.Root,
			Tag:        rec.Tag,
			UUID:       rec.UUID,
			IsSnapshot: rec.IsSnapshot,
			IsUCM:      rec.IsUCM,
		}
		if rec.CurrentActivity != "" {
			v.CurrentActivity = &parse.ActivityInfo{Name: rec.CurrentActivity, ActiveInView: rec.Tag}
		}
		r.views[pathkey.Key(rec.Root)] = v
	}
	r.reindex()
}

// Reset forgets every view and activity so the next reload queries all roots again.
func (r *Registry) Reset() {
	r.views = make(map[string]*ViewInfo)
	r.byTag = make(map[string][]*ViewInfo)
	r.activities = make(map[string]parse.ActivityInfo)
}
