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

package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"github.com/walteh/ccvcs/pkg/rename"
	"github.com/walteh/ccvcs/pkg/views"
	"gitlab.com/tozd/go/errors"
)

// File is the on-disk form of a Session.
type File struct {
	SchemaVersion string    `json:"schema_version"`
	LastUpdated   time.Time `json:"last_updated"`
	Offline       bool      `json:"offline"`

	Renames       []rename.Edge `json:"renames"`
	FolderRenames []rename.Edge `json:"folder_renames"`

	NewFiles       []string `json:"new_files"`
	RemovedFiles   []string `json:"removed_files"`
	RemovedFolders []string `json:"removed_folders"`

	CachedNew     []string `json:"cached_new"`
	CachedChanged []string `json:"cached_changed"`

	Views      []views.Record    `json:"views"`
	Activities map[string]string `json:"activities"`
}

// 📥 Load replaces the session contents with the state file. A missing file
// leaves the session empty.
func (s *Session) Load(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", s.path).Msg("loading state")

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("path", s.path).Msg("no state file, starting clean")
			return nil
		}
		return errors.Errorf("reading state file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return errors.Errorf("parsing state file %s: %w", s.path, err)
	}
	if f.SchemaVersion != "" && f.SchemaVersion != SchemaVersion {
		return errors.Errorf("state file %s has schema %s, want %s", s.path, f.SchemaVersion, SchemaVersion)
	}

	s.offline = f.Offline
	s.Renames.Load(f.Renames, f.FolderRenames)
	s.Views.Load(f.Views)
	s.NewFiles = pathkey.NewSet(f.NewFiles...)
	s.RemovedFiles = pathkey.NewSet(f.RemovedFiles...)
	s.RemovedFolders = pathkey.NewSet(f.RemovedFolders...)
	s.CachedNew = pathkey.NewSet(f.CachedNew...)
	s.CachedChanged = pathkey.NewSet(f.CachedChanged...)
	s.activities = make(map[string]string, len(f.Activities))
	for p, a := range f.Activities {
		s.activities[pathkey.Key(p)] = a
	}

	logger.Debug().
		Int("renames", s.Renames.Len()).
		Int("new", s.NewFiles.Len()).
		Int("views", len(f.Views)).
		Bool("offline", s.offline).
		Msg("state loaded")
	return nil
}

// Snapshot returns the persisted form of the session.
func (s *Session) Snapshot() File {
	return File{
		SchemaVersion:  SchemaVersion,
		Offline:        s.offline,
		Renames:        s.Renames.Files(),
		FolderRenames:  s.Renames.Folders(),
		NewFiles:       sortedPaths(s.NewFiles),
		RemovedFiles:   sortedPaths(s.RemovedFiles),
		RemovedFolders: sortedPaths(s.RemovedFolders),
		CachedNew:      sortedPaths(s.CachedNew),
		CachedChanged:  sortedPaths(s.CachedChanged),
		Views:          s.Views.Records(),
		Activities:     s.activityEntries(),
	}
}

// 💾 Save writes the session to its state file through a temp file and rename.
func (s *Session) Save(ctx context.Context) error {
	f := s.Snapshot()
	f.LastUpdated = time.Now()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.Errorf("marshaling state: %w", err)
	}

	if err := WriteFileAtomic(s.path, data); err != nil {
		return errors.Errorf("saving state: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", s.path).Int("bytes", len(data)).Msg("state saved")
	return nil
}

// WriteFileAtomic replaces path with content so readers never see a partial file.
func WriteFileAtomic(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0644); err != nil {
		return errors.Errorf("writing temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("renaming temporary file: %w", err)
	}
	return nil
}
