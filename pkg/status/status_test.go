package status

import (
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStatusNames(t *testing.T) {
	for st, name := range statusNames {
		assert.Equal(t, name, st.String(), "name should match")
		assert.Equal(t, st, ParseFileStatus(name), "parse should invert String")
	}
	assert.Equal(t, "unknown", FileStatus(99).String(), "out of range should be unknown")
	assert.Equal(t, StatusUnknown, ParseFileStatus("bogus"), "bogus name should be unknown")
}

func TestFileStatusPredicates(t *testing.T) {
	tests := []struct {
		status    FileStatus
		versioned bool
		modified  bool
	}{
		{StatusNotAnElement, false, false},
		{StatusNew, false, false},
		{StatusCheckedIn, true, false},
		{StatusCheckedOut, true, true},
		{StatusHijacked, true, true},
		{StatusMergeConflict, true, true},
		{StatusDeleted, true, false},
		{StatusIgnored, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.versioned, tt.status.IsVersioned(), "versioned should match")
			assert.Equal(t, tt.modified, tt.status.IsModified(), "modified should match")
		})
	}
}

func TestFileStatusJSON(t *testing.T) {
	data, err := json.Marshal(map[string]FileStatus{"a.txt": StatusHijacked})
	require.NoError(t, err, "marshal should succeed")
	assert.JSONEq(t, `{"a.txt":"hijacked"}`, string(data), "status should encode by name")

	var out map[string]FileStatus
	require.NoError(t, json.Unmarshal(data, &out), "unmarshal should succeed")
	assert.Equal(t, StatusHijacked, out["a.txt"], "status should round trip")
}

func TestDefaultFormatter(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	f := NewDefaultFormatter()

	tests := []struct {
		name     string
		path     string
		status   FileStatus
		activity string
		want     string
	}{
		{
			name:   "new_file",
			path:   "src/Foo.java",
			status: StatusNew,
			want:   "    ✓ src/Foo.java                                  new",
		},
		{
			name:     "checked_out_with_activity",
			path:     "src/Bar.java",
			status:   StatusCheckedOut,
			activity: "fix_login",
			want:     "    ⟳ src/Bar.java                                  checked-out     [fix_login]",
		},
		{
			name:   "deleted_file",
			path:   "old.txt",
			status: StatusDeleted,
			want:   "    ✗ old.txt                                       deleted",
		},
		{
			name:   "conflict",
			path:   "x.c",
			status: StatusMergeConflict,
			want:   "    ! x.c                                           merge-conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatFile(tt.path, tt.status, tt.activity), "formatted line should match")
		})
	}

	assert.Empty(t, f.FormatError(nil), "nil error should format as empty")
}
