package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/dirty"
	"github.com/walteh/ccvcs/pkg/ignore"
	"github.com/walteh/ccvcs/pkg/state"
	"github.com/walteh/ccvcs/pkg/status"
	"github.com/walteh/ccvcs/pkg/testutils"
	"github.com/walteh/ccvcs/pkg/views"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) AddNew(c Change)        { m.Called(c.Path) }
func (m *mockSink) AddChanged(c Change)    { m.Called(c.Path) }
func (m *mockSink) AddRemoved(c Change)    { m.Called(c.Path) }
func (m *mockSink) AddIgnored(c Change)    { m.Called(c.Path) }
func (m *mockSink) AddConflicted(c Change) { m.Called(c.Path) }

func writeFile(t *testing.T, path, content string, mode os.FileMode) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	require.NoError(t, os.Chmod(path, mode))
	return path
}

type fixture struct {
	root    string
	runner  *testutils.ScriptedRunner
	session *state.Session
	engine  *Engine
}

func newFixture(t *testing.T, opts func(o *Options)) *fixture {
	root := t.TempDir()
	runner := testutils.NewScriptedRunner(t)
	session := state.New(filepath.Join(root, state.DefaultFile), runner)
	ign, err := ignore.NewMatcher([]string{root}, append([]string{"build/**", "build"}, ignore.DefaultPatterns...))
	require.NoError(t, err)

	o := Options{
		Session: session,
		Runner:  runner,
		Ignore:  ign,
		Roots:   []string{root},
		TempDir: t.TempDir(),
	}
	if opts != nil {
		opts(&o)
	}
	return &fixture{root: root, runner: runner, session: session, engine: NewEngine(o)}
}

func (f *fixture) path(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

func TestJustCheckedOutSkipsTool(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, nil)
	foo := writeFile(t, f.path("src/Foo.java"), "class Foo {}", 0644)
	f.session.FlagCheckedOut(foo)

	cs, err := f.engine.Reconcile(ctx, dirty.Scope{Files: []string{foo}})
	require.NoError(t, err)

	c, ok := cs.Find(foo)
	require.True(t, ok)
	assert.Equal(t, KindModified, c.Kind)
	assert.Equal(t, status.StatusCheckedOut, c.Status)
	assert.Empty(t, f.runner.Calls(), "no tool invocation")
	assert.Equal(t, state.AprioriNone, f.session.PeekApriori(foo), "flag consumed")
}

func TestFullRefresh(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, nil)

	newA := writeFile(t, f.path("a/b/c/New.java"), "x", 0644)
	newB := writeFile(t, f.path("a/b/c/Other.java"), "x", 0644)
	sib := writeFile(t, f.path("a/b/Sibling.java"), "x", 0644)
	old := writeFile(t, f.path("src/Old.java"), "x", 0644)
	hij := writeFile(t, f.path("src/Hij.java"), "x", 0644)
	writeFile(t, f.path("src/ReadOnly.java"), "x", 0444)
	out := writeFile(t, f.path("src/trace.keep"), "x", 0644)
	writeFile(t, f.path("build/Main.class"), "x", 0644)
	conflict := writeFile(t, f.path("src/Merged.java"), "x", 0644)
	f.session.FlagMergeConflict(conflict)
	f.session.NewFiles.Add(newA)
	f.session.RemovedFiles.Add(f.path("src/Gone.java"))
	f.session.RemovedFiles.Add("/elsewhere/Gone.java")

	f.runner.On("ls", "-directory").Func(testutils.LsDirectoryTable(map[string]string{
		old:             old + "@@/main/CHECKEDOUT from /main/4  Rule: CHECKEDOUT",
		hij:             hij + "@@/main/2 [hijacked]  Rule: /main/LATEST",
		f.path("src"):   f.path("src") + "@@/main/7  Rule: /main/LATEST",
		f.path("a"):     f.path("a"),
		f.path("a/b"):   f.path("a/b"),
		f.path("a/b/c"): f.path("a/b/c"),
	}))

	cs, err := f.engine.Reconcile(ctx, dirty.Full(f.root))
	require.NoError(t, err)
	assert.NotEmpty(t, cs.PassID)
	assert.False(t, cs.Degraded)

	assert.ElementsMatch(t, []string{newA, newB, sib, f.path("a"), f.path("a/b"), f.path("a/b/c")},
		append(cs.ByKind(KindAdded), cs.ByKind(KindUnversioned)...))
	assert.Equal(t, []string{newA}, cs.ByKind(KindAdded), "only explicitly added files count as added")
	assert.ElementsMatch(t, []string{f.path("a"), f.path("a/b"), f.path("a/b/c")}, cs.NewFolders)
	assert.ElementsMatch(t, []string{old, hij}, cs.ByKind(KindModified))
	assert.Equal(t, []string{conflict}, cs.ByKind(KindConflicted))
	assert.Equal(t, []string{f.path("src/Gone.java")}, cs.ByKind(KindRemoved))
	assert.Equal(t, []string{out}, cs.ByKind(KindIgnored))

	for _, dir := range []string{"a", "a/b", "a/b/c"} {
		assert.Len(t, f.runner.CallsWith(f.path(dir)), 1, "%s should be queried exactly once", dir)
	}
	assert.Empty(t, f.runner.CallsWith(f.path("src/ReadOnly.java")), "read-only files are not candidates")
	assert.Empty(t, f.runner.CallsWith(conflict), "flagged files are not queried")
	assert.Empty(t, f.runner.CallsWith(f.root), "the root is the project boundary")
	assert.Empty(t, f.runner.CallsWith(f.path("src")), "no new file lives directly in src")

	hc, _ := cs.Find(hij)
	assert.Equal(t, status.StatusHijacked, hc.Status)
	require.NotNil(t, hc.Prior)

	assert.True(t, f.session.CachedNew.Has(f.path("a/b")))
	assert.True(t, f.session.CachedChanged.Has(old))

	sink := &mockSink{}
	for _, p := range append(cs.ByKind(KindAdded), cs.ByKind(KindUnversioned)...) {
		sink.On("AddNew", p).Once()
	}
	sink.On("AddChanged", old).Once()
	sink.On("AddChanged", hij).Once()
	sink.On("AddConflicted", conflict).Once()
	sink.On("AddRemoved", f.path("src/Gone.java")).Once()
	sink.On("AddIgnored", out).Once()
	cs.Emit(sink)
	sink.AssertExpectations(t)
}

func TestSingleFileScopeDoesNotPropagate(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, nil)
	n := writeFile(t, f.path("deep/dir/New.java"), "x", 0644)
	f.runner.On("ls", "-directory").Func(testutils.LsDirectoryTable(nil))

	cs, err := f.engine.Reconcile(ctx, dirty.Scope{Files: []string{n}})
	require.NoError(t, err)
	assert.Equal(t, []string{n}, cs.ByKind(KindUnversioned))
	assert.Empty(t, cs.NewFolders)
	assert.Equal(t, 1, f.runner.CallCount("ls"))
}

func TestRenamedFileQueriedByOriginalName(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, nil)
	renamed := writeFile(t, f.path("src/NewName.java"), "x", 0644)
	original := f.path("src/OldName.java")
	f.session.Renames.RecordRename(renamed, original)

	f.runner.On("ls", "-directory").Func(testutils.LsDirectoryTable(map[string]string{
		original: original + "@@/main/CHECKEDOUT from /main/1  Rule: CHECKEDOUT",
	}))

	cs, err := f.engine.Reconcile(ctx, dirty.Scope{Files: []string{renamed}})
	require.NoError(t, err)

	c, ok := cs.Find(renamed)
	require.True(t, ok)
	assert.Equal(t, KindModified, c.Kind)
	assert.Equal(t, filepath.ToSlash(original), c.Original)
	assert.Len(t, f.runner.CallsWith(original), 1)
	assert.Empty(t, f.runner.CallsWith(renamed))
}

func TestServerDownGoesOffline(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, nil)
	edited := writeFile(t, f.path("src/Edited.java"), "x", 0644)
	fresh := writeFile(t, f.path("src/Fresh.java"), "x", 0644)

	down := false
	f.runner.On("ls", "-directory").Func(func(cmd cleartool.Command) (string, bool) {
		if down {
			return "cleartool: Error: Unable to contact albd_server on host 'ccsrv01'\n", false
		}
		return testutils.LsDirectoryTable(map[string]string{
			edited:        edited + "@@/main/CHECKEDOUT from /main/1  Rule: CHECKEDOUT",
			f.path("src"): f.path("src") + "@@/main/3  Rule: /main/LATEST",
		})(cmd)
	})

	_, err := f.engine.Reconcile(ctx, dirty.Full(f.root))
	require.NoError(t, err)

	down = true
	cs, err := f.engine.Reconcile(ctx, dirty.Full(f.root))
	require.Error(t, err)
	assert.Nil(t, cs, "a failed pass emits nothing")
	assert.ErrorIs(t, err, ErrOffline)
	assert.ErrorIs(t, err, cleartool.ErrServerDown)
	assert.True(t, f.session.Offline())

	calls := f.runner.CallCount("ls")
	cs, err = f.engine.Reconcile(ctx, dirty.Full(f.root))
	require.NoError(t, err)
	assert.True(t, cs.Degraded)
	assert.Equal(t, calls, f.runner.CallCount("ls"), "offline passes make no status queries")
	assert.Equal(t, []string{edited}, cs.ByKind(KindModified))
	assert.Equal(t, []string{fresh}, cs.ByKind(KindUnversioned))

	st, err := f.engine.StatusOf(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, status.StatusNew, st)
}

func TestOtherToolErrorAborts(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, nil)
	writeFile(t, f.path("src/A.java"), "x", 0644)
	f.runner.On("ls").Fail("cleartool: Error: Unable to access \"src\": Permission denied.\n")

	cs, err := f.engine.Reconcile(ctx, dirty.Full(f.root))
	require.Error(t, err)
	assert.Nil(t, cs)
	assert.NotErrorIs(t, err, ErrOffline)
	assert.False(t, f.session.Offline())
	assert.Equal(t, 0, f.session.CachedNew.Len())
}

func TestFailedPassKeepsAprioriFlags(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, nil)
	merged := writeFile(t, f.path("src/Merged.java"), "x", 0644)
	other := writeFile(t, f.path("src/Other.java"), "x", 0644)
	f.session.FlagMergeConflict(merged)

	denied := true
	f.runner.On("ls", "-directory").Func(func(cmd cleartool.Command) (string, bool) {
		if denied {
			return "cleartool: Error: Unable to access \"src/Other.java\": Permission denied.\n", false
		}
		return testutils.LsDirectoryTable(map[string]string{
			other:         other + "@@/main/3  Rule: /main/LATEST",
			f.path("src"): f.path("src") + "@@/main/7  Rule: /main/LATEST",
		})(cmd)
	})

	_, err := f.engine.Reconcile(ctx, dirty.Full(f.root))
	require.Error(t, err)
	assert.Equal(t, state.AprioriMergeConflict, f.session.PeekApriori(merged), "a failed pass leaves the flag set")

	denied = false
	cs, err := f.engine.Reconcile(ctx, dirty.Full(f.root))
	require.NoError(t, err)
	assert.Equal(t, []string{merged}, cs.ByKind(KindConflicted))
	assert.Equal(t, state.AprioriNone, f.session.PeekApriori(merged), "flag consumed once the pass succeeds")
}

func TestMisalignedBatchAborts(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, nil)
	writeFile(t, f.path("src/A.java"), "x", 0644)
	writeFile(t, f.path("src/B.java"), "x", 0644)
	f.runner.On("ls").Return(f.path("src/A.java") + "\n")

	_, err := f.engine.Reconcile(ctx, dirty.Full(f.root))
	assert.ErrorContains(t, err, "does not line up")
}

func TestCancelledPass(t *testing.T) {
	f := newFixture(t, nil)
	writeFile(t, f.path("src/A.java"), "x", 0644)

	ctx, cancel := context.WithCancel(testutils.Context(t))
	cancel()
	_, err := f.engine.Reconcile(ctx, dirty.Full(f.root))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.runner.Calls())
}

func TestCheckoutListStrategyAboveThreshold(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, func(o *Options) { o.CheckoutListThreshold = 2 })
	a := writeFile(t, f.path("src/A.java"), "x", 0644)
	writeFile(t, f.path("src/B.java"), "x", 0644)
	writeFile(t, f.path("src/C.java"), "x", 0644)

	f.runner.On("lscheckout").Return("src/A.java\n")
	f.runner.On("ls", "-directory").Func(testutils.LsDirectoryTable(map[string]string{
		f.path("src"): f.path("src") + "@@/main/1  Rule: /main/LATEST",
	}))

	cs, err := f.engine.Reconcile(ctx, dirty.Full(f.root))
	require.NoError(t, err)
	assert.Equal(t, []string{a}, cs.ByKind(KindModified))
	assert.Len(t, cs.ByKind(KindUnversioned), 2)
	assert.Equal(t, 1, f.runner.CallCount("lscheckout"))
	assert.Equal(t, 1, f.runner.CallCount("ls"), "only the ancestor check uses ls")
}

func TestActivityTagging(t *testing.T) {
	ctx := testutils.Context(t)
	f := newFixture(t, func(o *Options) { o.UseUCM = true })
	described := writeFile(t, f.path("src/Described.java"), "x", 0644)
	fallback := writeFile(t, f.path("src/Fallback.java"), "x", 0644)

	f.session.Views.Load([]views.Record{{Root: f.root, Tag: "dev_view", IsUCM: true, CurrentActivity: "current_act"}})
	f.runner.On("ls", "-directory").Func(testutils.LsDirectoryTable(map[string]string{
		described: described + "@@/main/CHECKEDOUT from /main/1  Rule: CHECKEDOUT",
		fallback:  fallback + "@@/main/CHECKEDOUT from /main/1  Rule: CHECKEDOUT",
	}))
	f.runner.On("describe", "-fmt", cleartool.DescribeFormat).Return(described + "@@/main/CHECKEDOUT.12 --> fix_login\n")

	cs, err := f.engine.Reconcile(ctx, dirty.Scope{Files: []string{described, fallback}})
	require.NoError(t, err)

	d, _ := cs.Find(described)
	assert.Equal(t, "fix_login", d.Activity)
	fb, _ := cs.Find(fallback)
	assert.Equal(t, "current_act", fb.Activity, "falls back to the view's current activity")

	act, ok := f.session.ActivityOf(described)
	assert.True(t, ok)
	assert.Equal(t, "fix_login", act)

	_, err = f.engine.Reconcile(ctx, dirty.Scope{Files: []string{described, fallback}})
	require.NoError(t, err)
	assert.Equal(t, 1, f.runner.CallCount("describe"), "activities are cached after the first lookup")
}

func TestPriorRevision(t *testing.T) {
	ctx := testutils.Context(t)
	runner := testutils.NewScriptedRunner(t)
	dir := t.TempDir()
	working := writeFile(t, filepath.Join(dir, "Foo.java"), "line one\nline two changed\nline three\n", 0644)

	runner.On("describe", "-fmt", cleartool.PredecessorFormat).Return("/main/dev/3\n")
	runner.On("get", "-to").Func(func(cmd cleartool.Command) (string, bool) {
		if cmd.Args[3] != working+"@@/main/dev/3" {
			return "cleartool: Error: wrong version " + cmd.Args[3], false
		}
		if err := os.WriteFile(cmd.Args[2], []byte("line one\nline two\nline three\n"), 0444); err != nil {
			return err.Error(), false
		}
		return "", true
	})

	prior := NewPriorRevision(runner, working, working, status.StatusCheckedOut, t.TempDir())

	v, err := prior.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/main/dev/3", v)

	changed, err := prior.Changed(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	patch, err := prior.Patch(ctx)
	require.NoError(t, err)
	assert.Contains(t, patch, "+line two changed")
	assert.Contains(t, patch, "-line two")

	delta, err := prior.Delta(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, delta)

	assert.Equal(t, 1, runner.CallCount("describe"))
	assert.Equal(t, 1, runner.CallCount("get"), "content is fetched once")

	hijacked := NewPriorRevision(runner, working, working, status.StatusHijacked, "")
	assert.Equal(t, cleartool.VersionFormat, hijacked.format())
	assert.False(t, strings.Contains(hijacked.format(), "P"))
}

func TestPriorRevisionPatchAppliesToPrior(t *testing.T) {
	ctx := testutils.Context(t)
	runner := testutils.NewScriptedRunner(t)
	dir := t.TempDir()
	const before = "alpha\nbeta\ngamma\n"
	const after = "alpha\nbeta two\ngamma\ndelta\n"
	working := writeFile(t, filepath.Join(dir, "Bar.java"), after, 0644)

	runner.On("describe", "-fmt", cleartool.VersionFormat).Return("/main/7\n")
	runner.On("get", "-to").Func(func(cmd cleartool.Command) (string, bool) {
		if err := os.WriteFile(cmd.Args[2], []byte(before), 0444); err != nil {
			return err.Error(), false
		}
		return "", true
	})

	prior := NewPriorRevision(runner, working, working, status.StatusHijacked, t.TempDir())
	text, err := prior.Patch(ctx)
	require.NoError(t, err)

	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(text)
	require.NoError(t, err)
	applied, ok := dmp.PatchApply(patches, before)
	assert.Equal(t, after, applied)
	for _, o := range ok {
		assert.True(t, o)
	}
	assert.Equal(t, 1, runner.CallCount("get"), "content is fetched once")

	runner2 := testutils.NewScriptedRunner(t)
	runner2.On("describe").Fail("cleartool: Error: Not a vob object: \"Bar.java\".\n")
	_, err = NewPriorRevision(runner2, working, working, status.StatusHijacked, t.TempDir()).Patch(ctx)
	assert.Error(t, err, "a failed fetch surfaces from Patch")
}
