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

	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/batch"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"github.com/walteh/ccvcs/pkg/state"
	"github.com/walteh/ccvcs/pkg/status"
)

// applyApriori settles candidates flagged by a just-finished checkout or update
// and returns the ones that still need a status query. The flags stay set until
// the pass succeeds; remember clears them.
func (e *Engine) applyApriori(ctx context.Context, p *pass) []string {
	var rest []string
	for _, c := range p.candidates {
		switch e.opts.Session.PeekApriori(c) {
		case state.AprioriCheckedOut:
			p.changed.Add(c)
			p.apriori = append(p.apriori, c)
		case state.AprioriMergeConflict:
			p.conflicted.Add(c)
			p.apriori = append(p.apriori, c)
		default:
			rest = append(rest, c)
		}
	}
	// previous-pass statuses are deliberately not reused as priors here
	zerolog.Ctx(ctx).Debug().Int("apriori", len(p.candidates)-len(rest)).Int("to_query", len(rest)).Msg("apriori shortcuts applied")
	return rest
}

// classify queries the VCS for paths under their resolved names and sorts the
// answers into the pass sets.
func (e *Engine) classify(ctx context.Context, p *pass, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	elements := make([]string, 0, len(paths))
	for _, c := range paths {
		el := e.opts.Session.Renames.Resolve(c)
		if !pathkey.Equal(el, c) {
			p.original[pathkey.Key(c)] = el
		}
		elements = append(elements, el)
	}

	strategy := batch.SelectStrategy(ctx, len(elements), e.opts.CheckoutListThreshold, e.perPath, e.listing)
	got, err := strategy.Classify(ctx, elements)
	if err != nil {
		return err
	}

	logger := zerolog.Ctx(ctx)
	for i, c := range paths {
		st, ok := got[pathkey.Key(elements[i])]
		if !ok {
			logger.Debug().Str("path", c).Msg("no status reported")
			continue
		}
		switch st {
		case status.StatusNotAnElement:
			p.newFiles.Add(c)
		case status.StatusCheckedOut:
			p.changed.Add(c)
		case status.StatusHijacked:
			p.hijacked.Add(c)
		}
	}
	return nil
}

// 🌳 propagateNewAncestors marks the unversioned parent folders of new files as
// new too, stopping at the first versioned ancestor or at the root. Each folder
// is queried at most once per pass.
func (e *Engine) propagateNewAncestors(ctx context.Context, p *pass) error {
	visited := pathkey.NewSet()
	logger := zerolog.Ctx(ctx)

	for _, f := range p.newFiles.Paths() {
		for dir := pathkey.Parent(f); dir != ""; dir = pathkey.Parent(dir) {
			if !e.insideRoot(p, dir) {
				break
			}
			if !visited.Add(dir) {
				// already looked at through a sibling; its ancestors were handled then
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			element := e.opts.Session.Renames.Resolve(dir)
			got, err := e.status.Execute(ctx, []string{element})
			if err != nil {
				return err
			}
			if got[pathkey.Key(element)] != status.StatusNotAnElement {
				break
			}
			if !pathkey.Equal(element, dir) {
				p.original[pathkey.Key(dir)] = element
			}
			p.newFolders.Add(dir)
			logger.Debug().Str("dir", dir).Msg("unversioned ancestor folder")
		}
	}
	return nil
}

// insideRoot reports whether dir lies strictly below one of the roots. Roots
// themselves are the project boundary and are never queried.
func (e *Engine) insideRoot(p *pass, dir string) bool {
	for _, r := range e.roots(p) {
		if pathkey.Under(dir, r) && !pathkey.Equal(dir, r) {
			return true
		}
	}
	return false
}

// roots falls back to the walked directories when no roots are configured.
func (e *Engine) roots(p *pass) []string {
	if len(e.opts.Roots) > 0 {
		return e.opts.Roots
	}
	return p.scope.RecursiveDirs
}
