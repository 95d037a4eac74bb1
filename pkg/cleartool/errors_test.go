package cleartool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/tozd/go/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   Failure
	}{
		{
			name:   "albd_server",
			output: "cleartool: Error: Unable to contact albd_server on host 'ccsrv01'\n",
			want:   FailureServerDown,
		},
		{
			name:   "registry_connect",
			output: "cleartool: Error: Unable to connect to the registry server.\n",
			want:   FailureServerDown,
		},
		{
			name:   "not_vob",
			output: "cleartool: Error: Not a vob object: \"/tmp/x.txt\".\n",
			want:   FailureNotVobObject,
		},
		{
			name:   "already_checked_out",
			output: "cleartool: Error: Element \"Foo.java\" is already checked out to view \"dev_view\".\n",
			want:   FailureAlreadyCheckedOut,
		},
		{
			name:   "other",
			output: "cleartool: Error: Unable to access \"x\": Permission denied.\n",
			want:   FailureOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.output))
		})
	}
}

func TestToolErrorMatching(t *testing.T) {
	down := &ToolError{Args: []string{"ls", "-directory", "a"}, Output: "cleartool: Error: Unable to contact albd_server on host 'x'\n", ExitCode: 1}
	wrapped := errors.Errorf("status batch 1/1: %w", down)

	assert.True(t, IsServerDown(wrapped))
	assert.ErrorIs(t, wrapped, ErrServerDown)
	assert.NotErrorIs(t, wrapped, ErrNotVobObject)
	assert.Equal(t, "cleartool ls: exit status 1: cleartool: Error: Unable to contact albd_server on host 'x'", down.Error())

	var te *ToolError
	assert.True(t, errors.As(wrapped, &te))
	assert.Equal(t, FailureServerDown, te.Failure())

	timeout := &ToolError{Args: []string{"lshistory"}, Err: ErrTimeout}
	assert.ErrorIs(t, timeout, ErrTimeout)
	assert.Equal(t, "cleartool lshistory: cleartool invocation timed out", timeout.Error())
}

func TestCommandBuilders(t *testing.T) {
	assert.Equal(t, []string{"co", "-unreserved", "-nc", "a.c"}, Checkout("a.c", "", false))
	assert.Equal(t, []string{"co", "-reserved", "-c", "fix", "a.c"}, Checkout("a.c", "fix", true))
	assert.Equal(t, []string{"mv", "-nc", "old.c", "new.c"}, Move("old.c", "new.c", ""))
	assert.Equal(t, []string{"lshistory", "-last", "5", "a.c"}, LsHistory("a.c", 5))
	assert.Equal(t, []string{"lshistory", "a.c"}, LsHistory("a.c", 0))
	assert.Equal(t, []string{"get", "-to", "/tmp/prev", "a.c@@/main/3"}, Get("/tmp/prev", ExtendedPath("a.c", "/main/3")))
}
