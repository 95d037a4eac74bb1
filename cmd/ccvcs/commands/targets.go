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


package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/walteh/ccvcs/pkg/operation"
	"github.com/walteh/ccvcs/pkg/reconcile"
	"github.com/walteh/ccvcs/pkg/vcs"
	"gitlab.com/tozd/go/errors"
)

// absolute resolves command-line paths against the working directory.
func absolute(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return nil, errors.Errorf("resolving %s: %w", a, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

// targets classifies each path so operations know what they are acting on.
// Offline, paths without a cached status go through as unknown.
func targets(ctx context.Context, v *vcs.VCS, args []string) ([]operation.Target, error) {
	paths, err := absolute(args)
	if err != nil {
		return nil, err
	}
	out := make([]operation.Target, 0, len(paths))
	for _, p := range paths {
		st, err := v.StatusOf(ctx, p)
		if err != nil && !errors.Is(err, reconcile.ErrOffline) {
			return nil, errors.Errorf("status of %s: %w", p, err)
		}
		info, statErr := os.Stat(p)
		out = append(out, operation.Target{Path: p, Status: st, IsDir: statErr == nil && info.IsDir()})
	}
	return out, nil
}
