package cleartool

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellRunner(t *testing.T, timeout time.Duration) (*ExecRunner, context.Context) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ctx := zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())
	return NewExecRunner("sh", timeout), ctx
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	runner, ctx := shellRunner(t, 0)

	res, err := runner.Run(ctx, Command{Args: []string{"-c", "echo out; echo err >&2"}})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\nerr\n", res.Output, "stdout comes before stderr")
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	runner, ctx := shellRunner(t, 0)
	script := "echo 'cleartool: Error: Unable to contact albd_server on host x' >&2; exit 3"

	_, err := runner.Run(ctx, Command{Args: []string{"-c", script}})
	require.Error(t, err)
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 3, te.ExitCode)
	assert.True(t, IsServerDown(err))

	res, err := runner.Run(ctx, Command{Args: []string{"-c", script}, AllowFailure: true})
	require.NoError(t, err, "allowed failures come back as results")
	assert.False(t, res.OK)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, FailureServerDown, res.Failure())
}

func TestExecRunnerLargeOutput(t *testing.T) {
	runner, ctx := shellRunner(t, 0)

	// enough on both streams to fill the pipe buffers if they were read one after the other
	script := "i=0; while [ $i -lt 20000 ]; do echo line-$i; echo warn-$i >&2; i=$((i+1)); done"
	res, err := runner.Run(ctx, Command{Args: []string{"-c", script}})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "line-19999\n")
	assert.Contains(t, res.Output, "warn-19999\n")
}

func TestExecRunnerTimeout(t *testing.T) {
	runner, ctx := shellRunner(t, 100*time.Millisecond)

	start := time.Now()
	_, err := runner.Run(ctx, Command{Args: []string{"-c", "exec sleep 10"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecRunnerOrphanHoldingPipes(t *testing.T) {
	runner, ctx := shellRunner(t, 0)
	runner.waitDelay = 200 * time.Millisecond

	// the background sleep inherits stdout and outlives sh
	start := time.Now()
	res, err := runner.Run(ctx, Command{Args: []string{"-c", "echo done; sleep 30 &"}})
	require.NoError(t, err)
	assert.Equal(t, "done\n", res.Output)
	assert.Less(t, time.Since(start), 10*time.Second)

	runner, ctx = shellRunner(t, 100*time.Millisecond)
	runner.waitDelay = 200 * time.Millisecond
	start = time.Now()
	_, err = runner.Run(ctx, Command{Args: []string{"-c", "sleep 30 & exec sleep 30"}})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestExecRunnerMissingExecutable(t *testing.T) {
	ctx := zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background())
	runner := NewExecRunner("/nonexistent/cleartool", 0)

	_, err := runner.Run(ctx, Command{Args: LsView()})
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, -1, te.ExitCode)
}
