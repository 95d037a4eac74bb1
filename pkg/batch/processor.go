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

	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/parse"
	"github.com/walteh/ccvcs/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 📊 StatusProcessor runs `ls -directory` over many paths.
type StatusProcessor struct {
	runner  cleartool.Runner
	ceiling int
}

// NewStatusProcessor creates a status processor; ceiling <= 0 uses DefaultStatusCeiling.
func NewStatusProcessor(runner cleartool.Runner, ceiling int) *StatusProcessor {
	if ceiling <= 0 {
		ceiling = DefaultStatusCeiling
	}
	return &StatusProcessor{runner: runner, ceiling: ceiling}
}

// Execute queries every path and returns statuses keyed by pathkey.Key.
// Any tool failure or misaligned batch aborts the whole call. ctx is checked between batches.
func (p *StatusProcessor) Execute(ctx context.Context, paths []string) (map[string]status.FileStatus, error) {
	logger := zerolog.Ctx(ctx)

	paths = unique(paths)
	out := make(map[string]status.FileStatus, len(paths))
	batches := Partition(paths, Overhead(ExecutableOf(p.runner), cleartool.LsDirectory()), p.ceiling)

	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("status batch %d/%d: %w", i+1, len(batches), err)
		}

		res, err := p.runner.Run(ctx, cleartool.Command{Args: cleartool.LsDirectory(b...)})
		if err != nil {
			return nil, errors.Errorf("status batch %d/%d: %w", i+1, len(batches), err)
		}

		parsed, err := parse.ParseStatusLines(res.Output, b)
		if err != nil {
			return nil, errors.Errorf("status batch %d/%d: %w", i+1, len(batches), err)
		}
		for k, v := range parsed {
			out[k] = v
		}

		logger.Debug().Int("batch", i+1).Int("batches", len(batches)).Int("paths", len(b)).Msg("status batch done")
	}

	return out, nil
}

// 🏷️ DescribeProcessor looks up the UCM activity of many checked-out paths.
type DescribeProcessor struct {
	runner  cleartool.Runner
	ceiling int
}

// NewDescribeProcessor creates a describe processor; ceiling <= 0 uses DefaultDescribeCeiling.
func NewDescribeProcessor(runner cleartool.Runner, ceiling int) *DescribeProcessor {
	if ceiling <= 0 {
		ceiling = DefaultDescribeCeiling
	}
	return &DescribeProcessor{runner: runner, ceiling: ceiling}
}

// Execute returns activity ids keyed by pathkey.Key. Paths the tool could not
// describe are simply missing. Only a server-down failure is an error.
func (p *DescribeProcessor) Execute(ctx context.Context, paths []string) (map[string]string, error) {
	paths = unique(paths)
	out := make(map[string]string, len(paths))
	batches := Partition(paths, Overhead(ExecutableOf(p.runner), cleartool.Describe()), p.ceiling)

	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("describe batch %d/%d: %w", i+1, len(batches), err)
		}

		res, err := p.runner.Run(ctx, cleartool.Command{Args: cleartool.Describe(b...), AllowFailure: true})
		if err != nil {
			return nil, errors.Errorf("describe batch %d/%d: %w", i+1, len(batches), err)
		}
		if res.Failure() == cleartool.FailureServerDown {
			return nil, errors.Errorf("describe batch %d/%d: %w", i+1, len(batches), cleartool.ErrServerDown)
		}

		for k, v := range parse.ParseDescribe(res.Output) {
			out[k] = v
		}
	}

	return out, nil
}
