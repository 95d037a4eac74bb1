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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🏃 eachTarget runs fn for every target and keeps going after failures. It
// stops issuing work once ctx is done. All failures are joined into one error.
func eachTarget(ctx context.Context, name string, targets []Target, fn func(ctx context.Context, t Target) error) error {
	logger := zerolog.Ctx(ctx)

	var errs []error
	done := 0
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, errors.Errorf("%s cancelled after %d of %d files: %w", name, done, len(targets), err))
			break
		}
		if err := fn(ctx, t); err != nil {
			logger.Warn().Err(err).Str("path", t.Path).Str("operation", name).Msg("file operation failed")
			errs = append(errs, errors.Errorf("%s %s: %w", name, t.Path, err))
		}
		done++
	}

	logger.Debug().Str("operation", name).Int("files", len(targets)).Int("failed", len(errs)).Msg("operation finished")
	return errors.Join(errs...)
}

// Paths wraps plain paths into targets of unknown status.
func Paths(paths ...string) []Target {
	out := make([]Target, 0, len(paths))
	for _, p := range paths {
		out = append(out, Target{Path: p})
	}
	return out
}
