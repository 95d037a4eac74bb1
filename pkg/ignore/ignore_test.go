package ignore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	m, err := NewMatcher([]string{"/ws/app", "/ws/app/vendor"}, append([]string{"*.log", "build/**", "vendor/**"}, DefaultPatterns...))
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"/ws/app/src/Main.java", false},
		{"/ws/app/src/debug.log", true},
		{"/ws/app/build/classes/Main.class", true},
		{"/ws/app/src/build/x.c", false},
		{"/ws/app/.ccvcs/state.json", true},
		{"/ws/app/src/Main.java.keep", true},
		{"/ws/app/src/Main.java.keep.1", true},
		{"/ws/app/src/Main.java.contrib", true},
		{"/ws/app/vendor/lib.c", false}, // relative to the deeper root, vendor/** does not apply
		{"/elsewhere/trace.log", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.IsIgnored(tt.path))
		})
	}
}

func TestMatcherRejectsBadPattern(t *testing.T) {
	_, err := NewMatcher(nil, []string{"src/[a-"})
	assert.ErrorContains(t, err, "invalid ignore pattern")
}

func TestFunc(t *testing.T) {
	var p Predicate = Func(func(path string) bool { return path == "x" })
	assert.True(t, p.IsIgnored("x"))
	assert.False(t, p.IsIgnored("y"))
}
