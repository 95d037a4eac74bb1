package dirty

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/ccvcs/pkg/ignore"
	"github.com/walteh/ccvcs/pkg/pathkey"
)

func TestScope(t *testing.T) {
	a := Scope{Files: []string{"/v/a.c", "/v/b.c"}}
	b := Scope{Files: []string{"/V/A.C"}, Dirs: []string{"/v/src"}}

	assert.False(t, a.IsBatch())
	assert.True(t, Scope{}.Empty())

	m := a.Merge(b)
	assert.Equal(t, []string{"/v/a.c", "/v/b.c"}, m.Files)
	assert.Equal(t, []string{"/v/src"}, m.Dirs)
	assert.False(t, m.IsBatch())

	full := Full("/v", "/V", "/w")
	assert.True(t, full.IsBatch())
	assert.Equal(t, []string{"/v", "/w"}, full.RecursiveDirs)
}

func TestWatcherDeliversDebouncedScope(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ctx = zerolog.New(zerolog.TestWriter{T: t}).Level(zerolog.DebugLevel).WithContext(ctx)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0755))

	ign, err := ignore.NewMatcher([]string{root}, []string{"build/**", "build"})
	require.NoError(t, err)

	w, err := NewWatcher(ctx, []string{root}, ign, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	scopes := make(chan Scope, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(ctx context.Context, s Scope) error {
			scopes <- s
			return nil
		})
	}()

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Foo.java"), []byte("class Foo {}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Bar.java"), []byte("class Bar {}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "out.class"), []byte("x"), 0644))

	var got Scope
	deadline := time.After(5 * time.Second)
	for !(pathkey.NewSet(got.Files...).Has(filepath.Join(root, "src", "Foo.java")) &&
		pathkey.NewSet(got.Files...).Has(filepath.Join(root, "src", "Bar.java"))) {
		select {
		case s := <-scopes:
			got = got.Merge(s)
		case <-deadline:
			t.Fatalf("no scope delivered, got %+v", got)
		}
	}

	assert.False(t, pathkey.NewSet(got.Files...).Has(filepath.Join(root, "build", "out.class")), "ignored directories are not watched")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
