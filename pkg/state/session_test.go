package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/ccvcs/pkg/testutils"
	"github.com/walteh/ccvcs/pkg/views"
)

func setupTestLogger(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func setupTestDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "ccvcs-state-test-*")
	require.NoError(t, err, "creating temp dir")
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestApriori(t *testing.T) {
	s := New("", testutils.NewScriptedRunner(t))
	assert.Equal(t, DefaultFile, s.Path())

	s.FlagCheckedOut("/v/src/Foo.java")
	s.FlagMergeConflict("/v/src/Bar.java")

	assert.Equal(t, AprioriCheckedOut, s.PeekApriori("/V/SRC/foo.java"))
	assert.Equal(t, AprioriCheckedOut, s.TakeApriori("/v/src/foo.java"))
	assert.Equal(t, AprioriNone, s.TakeApriori("/v/src/Foo.java"), "flags are one-shot")
	assert.Equal(t, AprioriMergeConflict, s.TakeApriori("/v/src/Bar.java"))
}

func TestForget(t *testing.T) {
	s := New("", testutils.NewScriptedRunner(t))
	s.NewFiles.Add("/v/a.c")
	s.CachedNew.Add("/v/a.c")
	s.Renames.RecordRename("/v/a.c", "/v/old.c")
	s.SetActivity("/v/a.c", "act")
	s.FlagCheckedOut("/v/a.c")

	s.Forget("/V/A.C")

	assert.False(t, s.NewFiles.Has("/v/a.c"))
	assert.False(t, s.CachedNew.Has("/v/a.c"))
	assert.Equal(t, 0, s.Renames.Len())
	_, ok := s.ActivityOf("/v/a.c")
	assert.False(t, ok)
	assert.Equal(t, AprioriNone, s.PeekApriori("/v/a.c"))
}

func TestLoadAndSave(t *testing.T) {
	ctx := setupTestLogger(t)

	t.Run("load_nonexistent_creates_clean", func(t *testing.T) {
		dir := setupTestDir(t)
		s := New(filepath.Join(dir, DefaultFile), testutils.NewScriptedRunner(t))

		require.NoError(t, s.Load(ctx), "loading nonexistent state")
		assert.Equal(t, 0, s.NewFiles.Len())
		assert.False(t, s.Offline())
	})

	t.Run("save_and_load", func(t *testing.T) {
		dir := setupTestDir(t)
		path := filepath.Join(dir, DefaultFile)
		s := New(path, testutils.NewScriptedRunner(t))

		s.SetOffline(true)
		s.Renames.RecordRename("/v/src/New.java", "/v/src/Old.java")
		s.Renames.RecordFolderRename("/v/lib", "/v/src2")
		s.NewFiles.Add("/v/src/Added.java")
		s.RemovedFiles.Add("/v/src/Gone.java")
		s.RemovedFolders.Add("/v/legacy")
		s.CachedChanged.Add("/v/src/Edited.java")
		s.SetActivity("/v/src/Edited.java", "fix_login")
		s.Views.Load([]views.Record{{Root: "/v", Tag: "dev", IsUCM: true, CurrentActivity: "fix_login"}})
		s.FlagCheckedOut("/v/src/Edited.java")

		require.NoError(t, s.Save(ctx), "saving state")
		_, err := os.Stat(path + ".tmp")
		assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

		loaded := New(path, testutils.NewScriptedRunner(t))
		require.NoError(t, loaded.Load(ctx), "loading saved state")

		assert.True(t, loaded.Offline())
		assert.Equal(t, "/v/src/Old.java", loaded.Renames.Resolve("/v/src/New.java"))
		assert.Equal(t, "/v/src2/x", loaded.Renames.Resolve("/v/lib/x"))
		assert.True(t, loaded.NewFiles.Has("/v/src/Added.java"))
		assert.True(t, loaded.RemovedFiles.Has("/v/src/Gone.java"))
		assert.True(t, loaded.RemovedFolders.Has("/v/legacy"))
		assert.True(t, loaded.CachedChanged.Has("/v/src/Edited.java"))
		act, ok := loaded.ActivityOf("/v/src/Edited.java")
		assert.True(t, ok)
		assert.Equal(t, "fix_login", act)
		assert.Equal(t, s.Views.Records(), loaded.Views.Records())
		assert.Equal(t, AprioriNone, loaded.PeekApriori("/v/src/Edited.java"), "one-shot flags are not persisted")
	})

	t.Run("schema_mismatch", func(t *testing.T) {
		dir := setupTestDir(t)
		path := filepath.Join(dir, "state.json")
		data, err := json.Marshal(File{SchemaVersion: "0.1.0"})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0644))

		err = New(path, testutils.NewScriptedRunner(t)).Load(ctx)
		assert.ErrorContains(t, err, "schema 0.1.0")
	})

	t.Run("corrupt_file", func(t *testing.T) {
		dir := setupTestDir(t)
		path := filepath.Join(dir, "state.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		err := New(path, testutils.NewScriptedRunner(t)).Load(ctx)
		assert.ErrorContains(t, err, "parsing state file")
	})
}
