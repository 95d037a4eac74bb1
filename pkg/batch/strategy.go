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

package batch

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/parse"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"github.com/walteh/ccvcs/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🧭 Strategy classifies a set of writable candidate paths.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, paths []string) (map[string]status.FileStatus, error)
}

// PerPathStrategy asks `ls -directory` about every path. It detects hijacked files.
type PerPathStrategy struct {
	proc *StatusProcessor
}

// NewPerPathStrategy wraps a status processor.
func NewPerPathStrategy(proc *StatusProcessor) *PerPathStrategy {
	return &PerPathStrategy{proc: proc}
}

func (s *PerPathStrategy) Name() string { return "per-path" }

func (s *PerPathStrategy) Classify(ctx context.Context, paths []string) (map[string]status.FileStatus, error) {
	return s.proc.Execute(ctx, paths)
}

// CheckoutListStrategy issues one recursive `lscheckout` per root and treats
// every candidate not listed as not an element. Hijacked files are not detected.
type CheckoutListStrategy struct {
	runner cleartool.Runner
	roots  []string
}

// NewCheckoutListStrategy creates a listing strategy over roots.
func NewCheckoutListStrategy(runner cleartool.Runner, roots []string) *CheckoutListStrategy {
	return &CheckoutListStrategy{runner: runner, roots: roots}
}

func (s *CheckoutListStrategy) Name() string { return "checkout-list" }

func (s *CheckoutListStrategy) Classify(ctx context.Context, paths []string) (map[string]status.FileStatus, error) {
	checkedOut := pathkey.NewSet()

	for _, root := range s.roots {
		if !anyUnder(paths, root) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("listing checkouts under %s: %w", root, err)
		}

		res, err := s.runner.Run(ctx, cleartool.Command{Args: cleartool.LsCheckout(root), Dir: root})
		if err != nil {
			return nil, errors.Errorf("listing checkouts under %s: %w", root, err)
		}
		for _, p := range parse.ParseCheckouts(res.Output) {
			if !filepath.IsAbs(p) {
				p = filepath.Join(root, p)
			}
			checkedOut.Add(p)
		}
	}

	out := make(map[string]status.FileStatus, len(paths))
	for _, p := range paths {
		if checkedOut.Has(p) {
			out[pathkey.Key(p)] = status.StatusCheckedOut
		} else {
			out[pathkey.Key(p)] = status.StatusNotAnElement
		}
	}
	return out, nil
}

func anyUnder(paths []string, root string) bool {
	for _, p := range paths {
		if pathkey.Under(p, root) {
			return true
		}
	}
	return false
}

// SelectStrategy picks listing once the candidate count exceeds threshold.
// A threshold <= 0 disables the switch.
func SelectStrategy(ctx context.Context, n, threshold int, perPath, listing Strategy) Strategy {
	chosen := perPath
	if threshold > 0 && n > threshold {
		chosen = listing
	}
	zerolog.Ctx(ctx).Debug().Int("candidates", n).Int("threshold", threshold).Str("strategy", chosen.Name()).Msg("status strategy selected")
	return chosen
}
