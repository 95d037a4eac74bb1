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
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/parse"
	"github.com/walteh/ccvcs/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🕰️ PriorRevision is the checked-in content a modified file is compared with.
// Nothing is fetched until Version or Content is first called; results are kept.
type PriorRevision struct {
	Path    string // working-tree file
	Element string // name the VCS knows the file by
	Status  status.FileStatus

	runner  cleartool.Runner
	tempDir string

	mu      sync.Mutex
	version string
	content *string
}

// NewPriorRevision prepares a lazy prior revision for path. Checked-out files
// compare against their predecessor, hijacked files against the loaded version.
func NewPriorRevision(runner cleartool.Runner, path, element string, st status.FileStatus, tempDir string) *PriorRevision {
	return &PriorRevision{
		Path:    path,
		Element: element,
		Status:  st,
		runner:  runner,
		tempDir: tempDir,
	}
}

func (p *PriorRevision) format() string {
	if p.Status == status.StatusHijacked {
		return cleartool.VersionFormat
	}
	return cleartool.PredecessorFormat
}

// Version returns the version-extended identifier of the prior revision.
func (p *PriorRevision) Version(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.versionLocked(ctx)
}

func (p *PriorRevision) versionLocked(ctx context.Context) (string, error) {
	if p.version != "" {
		return p.version, nil
	}

	res, err := p.runner.Run(ctx, cleartool.Command{Args: cleartool.DescribeVersion(p.Element, p.format())})
	if err != nil {
		return "", errors.Errorf("describing prior version of %s: %w", p.Path, err)
	}
	v := parse.ParseVersion(res.Output)
	if v == "" {
		return "", errors.Errorf("no prior version reported for %s", p.Path)
	}
	p.version = v
	return v, nil
}

// 📥 Content fetches the prior revision into a temporary file and returns its text.
func (p *PriorRevision) Content(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.content != nil {
		return *p.content, nil
	}

	version, err := p.versionLocked(ctx)
	if err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp(p.tempDir, "ccvcs-prior-*")
	if err != nil {
		return "", errors.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	// get refuses to overwrite, so the target must not exist yet
	target := filepath.Join(dir, uuid.NewString()+filepath.Ext(p.Path))
	ext := cleartool.ExtendedPath(p.Element, version)
	if _, err := p.runner.Run(ctx, cleartool.Command{Args: cleartool.Get(target, ext)}); err != nil {
		return "", errors.Errorf("fetching %s: %w", ext, err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return "", errors.Errorf("reading fetched %s: %w", ext, err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", p.Path).Str("version", version).Int("bytes", len(data)).Msg("prior revision fetched")

	s := string(data)
	p.content = &s
	return s, nil
}

// 🔍 Diff compares the prior revision with the working file line by line.
func (p *PriorRevision) Diff(ctx context.Context) ([]diffmatchpatch.Diff, error) {
	_, diffs, err := p.diff(ctx)
	return diffs, err
}

func (p *PriorRevision) diff(ctx context.Context) (string, []diffmatchpatch.Diff, error) {
	prior, err := p.Content(ctx)
	if err != nil {
		return "", nil, err
	}
	current, err := os.ReadFile(p.Path)
	if err != nil {
		return "", nil, errors.Errorf("reading %s: %w", p.Path, err)
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(prior, string(current))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	return prior, dmp.DiffCleanupSemantic(diffs), nil
}

// Patch renders the difference as a unified-style patch text.
func (p *PriorRevision) Patch(ctx context.Context) (string, error) {
	prior, diffs, err := p.diff(ctx)
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	return dmp.PatchToText(dmp.PatchMake(prior, diffs)), nil
}

// Delta encodes the difference compactly, as diffmatchpatch deltas.
func (p *PriorRevision) Delta(ctx context.Context) (string, error) {
	diffs, err := p.Diff(ctx)
	if err != nil {
		return "", err
	}
	return diffmatchpatch.New().DiffToDelta(diffs), nil
}

// Changed reports whether the working file differs from the prior revision.
func (p *PriorRevision) Changed(ctx context.Context) (bool, error) {
	diffs, err := p.Diff(ctx)
	if err != nil {
		return false, err
	}
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			return true, nil
		}
	}
	return false, nil
}
