package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/ccvcs/pkg/status"
)

func TestClassifyStatusLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want status.FileStatus
	}{
		{"checked_out_rule", "a.txt@@1 Rule: CHECKEDOUT", status.StatusCheckedOut},
		{"view_private", "a.txt", status.StatusNotAnElement},
		{"hijacked", `b.txt@@/main/4 [hijacked]          Rule: /main/LATEST`, status.StatusHijacked},
		{"checked_in", `c.txt@@/main/3                     Rule: /main/LATEST`, status.StatusCheckedIn},
		{"checked_out_removed", `d.txt@@/main/CHECKEDOUT from /main/2 [checkedout but removed]`, status.StatusCheckedOut},
		{"checked_out_full", `e.txt@@/main/CHECKEDOUT from /main/2     Rule: CHECKEDOUT`, status.StatusCheckedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatusLine(tt.line), "status should match")
		})
	}
}

func TestParseStatusLines(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		paths   []string
		want    map[string]status.FileStatus
		wantErr error
	}{
		{
			name:   "single_checked_out",
			output: "a.txt@@1 Rule: CHECKEDOUT\n",
			paths:  []string{"a.txt"},
			want:   map[string]status.FileStatus{"a.txt": status.StatusCheckedOut},
		},
		{
			name: "mixed_batch_with_warning_noise",
			output: "src/New1.java\r\n" +
				"cleartool: Warning: Unable to access license server; retrying\n" +
				"src/New2.java\n" +
				"\n" +
				"src/Old.java@@/main/CHECKEDOUT from /main/7  Rule: CHECKEDOUT\n",
			paths: []string{"src/New1.java", "src/New2.java", "src/Old.java"},
			want: map[string]status.FileStatus{
				"src/new1.java": status.StatusNotAnElement,
				"src/new2.java": status.StatusNotAnElement,
				"src/old.java":  status.StatusCheckedOut,
			},
		},
		{
			name:    "short_output",
			output:  "a.txt@@/main/1 Rule: /main/LATEST\n",
			paths:   []string{"a.txt", "b.txt"},
			wantErr: ErrBatchMisaligned,
		},
		{
			name:    "embedded_error",
			output:  "a.txt@@/main/1 Rule: /main/LATEST\ncleartool: Error: Pathname not found: \"b.txt\".\n",
			paths:   []string{"a.txt", "b.txt"},
			wantErr: ErrBatchMisaligned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatusLines(tt.output, tt.paths)
			if tt.wantErr != nil {
				require.Error(t, err, "should fail")
				assert.ErrorIs(t, err, tt.wantErr, "error kind should match")
				return
			}
			require.NoError(t, err, "should parse")
			assert.Len(t, got, len(tt.paths), "one entry per path")
			assert.Equal(t, tt.want, got, "statuses should match")
		})
	}
}
