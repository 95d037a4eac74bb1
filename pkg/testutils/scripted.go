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

// Package testutils provides fakes shared by package tests.
package testutils

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/pathkey"
	"gitlab.com/tozd/go/errors"
)

// ReplyFunc computes the reply to one invocation.
type ReplyFunc func(cmd cleartool.Command) (output string, ok bool)

type handler struct {
	prefix []string
	reply  ReplyFunc
	code   int
}

// 🎭 ScriptedRunner is a cleartool.Runner that answers from scripted handlers and
// records every invocation. Unmatched invocations fail the test.
type ScriptedRunner struct {
	t        testing.TB
	mu       sync.Mutex
	handlers []handler
	calls    []cleartool.Command
}

// NewScriptedRunner creates an empty script.
func NewScriptedRunner(t testing.TB) *ScriptedRunner {
	return &ScriptedRunner{t: t}
}

// Reply is returned by On to choose how a matched invocation answers.
type Reply struct {
	r   *ScriptedRunner
	idx int
}

// On registers a handler for invocations whose args start with prefix.
// Handlers are matched in registration order.
func (r *ScriptedRunner) On(prefix ...string) *Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, handler{prefix: prefix, reply: func(cleartool.Command) (string, bool) { return "", true }})
	return &Reply{r: r, idx: len(r.handlers) - 1}
}

// Return answers with output and a clean exit.
func (p *Reply) Return(output string) *ScriptedRunner {
	return p.Func(func(cleartool.Command) (string, bool) { return output, true })
}

// Fail answers with output and exit code 1.
func (p *Reply) Fail(output string) *ScriptedRunner {
	return p.Func(func(cleartool.Command) (string, bool) { return output, false })
}

// Func answers with whatever fn computes from the command.
func (p *Reply) Func(fn ReplyFunc) *ScriptedRunner {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	p.r.handlers[p.idx].reply = fn
	p.r.handlers[p.idx].code = 1
	return p.r
}

// Run implements cleartool.Runner.
func (r *ScriptedRunner) Run(ctx context.Context, cmd cleartool.Command) (*cleartool.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	var h *handler
	for i := range r.handlers {
		if hasPrefix(cmd.Args, r.handlers[i].prefix) {
			h = &r.handlers[i]
			break
		}
	}
	r.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Strs("args", cmd.Args).Msg("scripted cleartool invocation")

	if h == nil {
		r.t.Errorf("unexpected cleartool invocation: %s", cmd)
		return nil, errors.Errorf("unexpected cleartool invocation: %s", cmd)
	}

	output, ok := h.reply(cmd)
	if ok {
		return &cleartool.Result{OK: true, Output: output}, nil
	}
	if !cmd.AllowFailure {
		return nil, &cleartool.ToolError{Args: cmd.Args, Output: output, ExitCode: h.code}
	}
	return &cleartool.Result{OK: false, ExitCode: h.code, Output: output}, nil
}

// Calls returns a copy of the recorded invocations.
func (r *ScriptedRunner) Calls() []cleartool.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cleartool.Command(nil), r.calls...)
}

// CallCount counts recorded invocations whose args start with prefix.
func (r *ScriptedRunner) CallCount(prefix ...string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if hasPrefix(c.Args, prefix) {
			n++
		}
	}
	return n
}

// CallsWith returns the recorded invocations that mention path among their args.
func (r *ScriptedRunner) CallsWith(path string) []cleartool.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []cleartool.Command
	for _, c := range r.calls {
		for _, a := range c.Args {
			if pathkey.Equal(a, path) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func hasPrefix(args, prefix []string) bool {
	if len(prefix) > len(args) {
		return false
	}
	for i := range prefix {
		if args[i] != prefix[i] {
			return false
		}
	}
	return true
}

// 📋 LsDirectoryTable answers `ls -directory` from a table of path -> output line.
// Paths missing from the table answer as view-private (the bare path).
func LsDirectoryTable(table map[string]string) ReplyFunc {
	keyed := make(map[string]string, len(table))
	for p, line := range table {
		keyed[pathkey.Key(p)] = line
	}
	return func(cmd cleartool.Command) (string, bool) {
		var b strings.Builder
		for _, p := range cmd.Args[2:] {
			line, ok := keyed[pathkey.Key(p)]
			if !ok {
				line = p
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		return b.String(), true
	}
}

// Context returns a context carrying a test logger.
func Context(t testing.TB) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}
