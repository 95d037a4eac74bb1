package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseActivity(t *testing.T) {
	tests := []struct {
		name string
		line string
		want ActivityInfo
		ok   bool
	}{
		{
			name: "current_in_view",
			line: "fix_login <-> unlocked <-> Fix login NPE <-> jdoe_dev_view",
			want: ActivityInfo{Name: "fix_login", Locked: "unlocked", PublicName: "Fix login NPE", ActiveInView: "jdoe_dev_view"},
			ok:   true,
		},
		{
			name: "not_current_trailing_separator",
			line: "docs_refresh <-> obsolete <-> Refresh docs <-> ",
			want: ActivityInfo{Name: "docs_refresh", Locked: "obsolete", IsObsolete: true, PublicName: "Refresh docs"},
			ok:   true,
		},
		{
			name: "three_fields",
			line: "spike <-> unlocked <-> Spike",
			want: ActivityInfo{Name: "spike", Locked: "unlocked", PublicName: "Spike"},
			ok:   true,
		},
		{
			name: "empty_headline_and_view",
			line: "name <-> unlocked <->  <-> ",
			want: ActivityInfo{Name: "name", Locked: "unlocked"},
			ok:   true,
		},
		{
			name: "empty_headline_and_view_trimmed",
			line: "name <-> unlocked <->  <->",
			want: ActivityInfo{Name: "name", Locked: "unlocked"},
			ok:   true,
		},
		{
			name: "too_few_fields",
			line: "spike <-> unlocked",
		},
		{
			name: "empty",
			line: "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseActivity(tt.line)
			assert.Equal(t, tt.ok, ok, "ok should match")
			if tt.ok {
				assert.Equal(t, tt.want, got, "activity should match")
			}
		})
	}
}

func TestParseActivities(t *testing.T) {
	output := "a1 <-> unlocked <-> First <-> v1\n" +
		"cleartool: Warning: noise <-> x <-> y\n" +
		"garbage line\n" +
		"a2 <-> locked <-> Second <-> \n"
	got := ParseActivities(output)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "v1", got[0].ActiveInView)
		assert.Equal(t, "Second", got[1].DisplayName())
		assert.Empty(t, got[1].ActiveInView)
	}
}
