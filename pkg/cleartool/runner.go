// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cleartool

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultExecutable is the tool looked up on PATH when no executable is configured.
const DefaultExecutable = "cleartool"

// DefaultTimeout bounds a single tool invocation.
const DefaultTimeout = 5 * time.Minute

// DefaultWaitDelay bounds how long output is still read after the tool exited
// or was killed, when something it started keeps the pipes open.
const DefaultWaitDelay = 5 * time.Second

// 🧾 Command is one invocation of the external tool.
type Command struct {
	Args []string // argument vector, never passed through a shell
	Dir  string   // working directory; view-relative commands need the view root

	// AllowFailure makes a non-zero exit a normal result instead of an error.
	AllowFailure bool
}

// String renders the command for logs only.
func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// 📤 Result holds what the tool printed and whether it exited cleanly.
type Result struct {
	OK       bool
	ExitCode int
	Output   string // stdout followed by stderr
}

// Failure classifies the output of a failed invocation.
func (r *Result) Failure() Failure {
	if r == nil || r.OK {
		return FailureNone
	}
	return Classify(r.Output)
}

// 🏃 Runner executes the external tool.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs the tool as a child process.
type ExecRunner struct {
	executable string
	timeout    time.Duration
	waitDelay  time.Duration
}

// 🏗️ NewExecRunner creates a runner for executable. Zero values pick the defaults.
func NewExecRunner(executable string, timeout time.Duration) *ExecRunner {
	if executable == "" {
		executable = DefaultExecutable
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{
		executable: executable,
		timeout:    timeout,
		waitDelay:  DefaultWaitDelay,
	}
}

// Executable returns the configured tool path.
func (r *ExecRunner) Executable() string {
	return r.executable
}

// Run starts the tool, drains stdout and stderr concurrently and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.executable, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = r.waitDelay

	// the pipes are ours, not exec's, so a grandchild holding the write ends
	// cannot keep Wait or the readers blocked past waitDelay
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, &ToolError{Args: c.Args, ExitCode: -1, Err: errors.Errorf("creating stdout pipe: %w", err)}
	}
	defer outR.Close()
	errR, errW, err := os.Pipe()
	if err != nil {
		outW.Close()
		return nil, &ToolError{Args: c.Args, ExitCode: -1, Err: errors.Errorf("creating stderr pipe: %w", err)}
	}
	defer errR.Close()
	cmd.Stdout = outW
	cmd.Stderr = errW

	start := time.Now()
	startErr := cmd.Start()
	outW.Close()
	errW.Close()
	if startErr != nil {
		return nil, &ToolError{Args: c.Args, ExitCode: -1, Err: errors.Errorf("starting %s: %w", r.executable, startErr)}
	}

	// both pipes are drained concurrently, or a chatty child blocks on a full buffer
	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&outBuf, outR)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, errR)
		return err
	})
	waitErr := cmd.Wait()
	readErr := r.drain(ctx, &g, outR, errR)

	res := &Result{
		OK:     waitErr == nil,
		Output: outBuf.String() + errBuf.String(),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	logger.Debug().
		Strs("args", c.Args).
		Str("dir", c.Dir).
		Dur("duration", time.Since(start)).
		Bool("exit_ok", res.OK).
		Int("exit_code", res.ExitCode).
		Msg("cleartool invocation")

	if ctxErr := runCtx.Err(); ctxErr != nil {
		if ctx.Err() != nil {
			return nil, errors.Errorf("running %s: %w", c, ctx.Err())
		}
		return nil, &ToolError{Args: c.Args, Output: res.Output, ExitCode: res.ExitCode, Err: ErrTimeout}
	}

	if readErr != nil {
		return nil, &ToolError{Args: c.Args, Output: res.Output, ExitCode: res.ExitCode, Err: errors.Errorf("reading output: %w", readErr)}
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, &ToolError{Args: c.Args, Output: res.Output, ExitCode: -1, Err: waitErr}
		}
		if !c.AllowFailure {
			return nil, &ToolError{Args: c.Args, Output: res.Output, ExitCode: res.ExitCode}
		}
	}

	return res, nil
}

// drain waits for the readers. Once waitDelay has passed the pipes are closed
// under them and whatever was read so far is kept.
func (r *ExecRunner) drain(ctx context.Context, g *errgroup.Group, pipes ...*os.File) error {
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	timer := time.NewTimer(r.waitDelay)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		zerolog.Ctx(ctx).Warn().Dur("wait_delay", r.waitDelay).Msg("cleartool output still open after exit, closing pipes")
		for _, p := range pipes {
			p.Close()
		}
		<-done
		return nil
	}
}
