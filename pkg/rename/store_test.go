package rename

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *Store)
		path  string
		want  string
	}{
		{
			name:  "no_edge",
			setup: func(s *Store) {},
			path:  "/v/src/A.java",
			want:  "/v/src/A.java",
		},
		{
			name:  "direct_file_edge",
			setup: func(s *Store) { s.RecordRename("/v/src/B.java", "/v/src/A.java") },
			path:  "/v/src/B.java",
			want:  "/v/src/A.java",
		},
		{
			name:  "case_insensitive_lookup",
			setup: func(s *Store) { s.RecordRename("/v/src/B.java", "/v/src/A.java") },
			path:  "/V/SRC/b.JAVA",
			want:  "/v/src/A.java",
		},
		{
			name:  "chain_points_to_root",
			setup: func(s *Store) { s.RecordRename("/v/B", "/v/A"); s.RecordRename("/v/C", "/v/B") },
			path:  "/v/C",
			want:  "/v/A",
		},
		{
			name:  "under_renamed_folder",
			setup: func(s *Store) { s.RecordFolderRename("/v/lib", "/v/src") },
			path:  "/v/lib/pkg/A.java",
			want:  "/v/src/pkg/A.java",
		},
		{
			name: "folder_then_file_edge",
			setup: func(s *Store) {
				s.RecordRename("/v/src/B.java", "/v/src/A.java")
				s.RecordFolderRename("/v/lib", "/v/src")
			},
			path: "/v/lib/B.java",
			want: "/v/src/A.java",
		},
		{
			name: "deepest_folder_wins",
			setup: func(s *Store) {
				s.RecordFolderRename("/v/lib", "/v/src")
				s.RecordFolderRename("/v/lib/core2", "/v/src/core")
			},
			path: "/v/lib/core2/x.c",
			want: "/v/src/core/x.c",
		},
		{
			name: "rename_inside_renamed_folder",
			setup: func(s *Store) {
				s.RecordFolderRename("/v/lib", "/v/src")
				s.RecordRename("/v/lib/New.java", "/v/lib/Old.java")
			},
			path: "/v/lib/New.java",
			want: "/v/src/Old.java",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			tt.setup(s)
			got := s.Resolve(tt.path)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, s.Resolve(got), "resolving twice should be a no-op")
		})
	}
}

func TestRenameBackRemovesEdge(t *testing.T) {
	s := NewStore()
	s.RecordRename("/v/A", "/v/B")
	s.RecordRename("/v/B", "/v/A")

	assert.Equal(t, 0, s.Len())
	_, _, ok := s.Lookup("/v/A")
	assert.False(t, ok)
	_, _, ok = s.Lookup("/v/B")
	assert.False(t, ok)

	s.RecordRename("/v/B", "/v/A")
	s.RecordRename("/v/C", "/v/B")
	s.RecordRename("/v/a", "/v/C")
	assert.Equal(t, 0, s.Len(), "a chain ending on its first name leaves nothing")
}

func TestSwapIsRejected(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.RecordRename("/w/tmp", "/w/a"))

	err := s.RecordRename("/w/a", "/w/b")
	require.ErrorIs(t, err, ErrCycle)
	assert.Equal(t, []Edge{{Current: "/w/tmp", Original: "/w/a"}}, s.Files(), "a rejected rename changes nothing")
	assert.ErrorIs(t, s.Check(KindFile, "/w/a", "/w/b"), ErrCycle)

	require.NoError(t, s.RecordFolderRename("/w/lib", "/w/src"))
	assert.ErrorIs(t, s.RecordFolderRename("/w/src", "/w/other"), ErrCycle, "a folder cannot take a renamed folder's old name")
	assert.ErrorIs(t, s.RecordFolderRename("/w", "/w/x"), ErrCycle, "nor cover an original name")
	assert.Len(t, s.Folders(), 1)
}

func TestResolveIsIdempotent(t *testing.T) {
	s := NewStore()
	renames := []struct {
		folder   bool
		from, to string
	}{
		{false, "/w/a", "/w/tmp"},
		{false, "/w/b", "/w/a"},
		{false, "/w/tmp", "/w/b"},
		{true, "/w/src", "/w/lib"},
		{false, "/w/lib/X.java", "/w/lib/Y.java"},
		{true, "/w/lib", "/w/lib2"},
		{false, "/w/lib2/Y.java", "/w/lib2/Z.java"},
		{false, "/w/c", "/w/d"},
		{false, "/w/d", "/w/c"},
	}
	for _, r := range renames {
		if r.folder {
			_ = s.RecordFolderRename(r.to, r.from)
		} else {
			_ = s.RecordRename(r.to, r.from)
		}
	}

	paths := []string{"/w/a", "/w/b", "/w/tmp", "/w/c", "/w/d", "/w/src/X.java", "/w/lib2/Z.java", "/w/lib2/Y.java", "/w/lib/X.java"}
	for _, e := range append(s.Files(), s.Folders()...) {
		paths = append(paths, e.Current, e.Original)
	}
	for _, p := range paths {
		once := s.Resolve(p)
		assert.Equal(t, once, s.Resolve(once), "resolve(resolve(%s))", p)
	}
}

func TestRenameAfterFolderRenameDropsStaleEdge(t *testing.T) {
	s := NewStore()
	s.RecordRename("/v/src/B.java", "/v/src/A.java")
	s.RecordFolderRename("/v/lib", "/v/src")
	s.RecordRename("/v/lib/C.java", "/v/lib/B.java")

	assert.Equal(t, "/v/src/A.java", s.Resolve("/v/lib/C.java"))
	assert.Equal(t, []Edge{{Current: "/v/lib/C.java", Original: "/v/src/A.java"}}, s.Files())
}

func TestRemoveEdgeAndLoad(t *testing.T) {
	s := NewStore()
	s.RecordRename("/v/B", "/v/A")
	s.RecordFolderRename("/v/lib", "/v/src")

	assert.True(t, s.IsRenamed("/v/B"))
	assert.True(t, s.IsRenamed("/v/lib/x"))
	assert.True(t, s.RemoveEdge("/v/b"))
	assert.False(t, s.RemoveEdge("/v/b"))
	assert.False(t, s.IsRenamed("/v/B"))

	loaded := NewStore()
	loaded.Load(s.Files(), append(s.Folders(), Edge{Current: "/v/same", Original: "/V/SAME"}))
	assert.Equal(t, s.Folders(), loaded.Folders(), "self edges are dropped on load")
	assert.Equal(t, "/v/src/x", loaded.Resolve("/v/lib/x"))
}
