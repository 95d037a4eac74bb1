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


package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/reconcile"
	"github.com/walteh/ccvcs/pkg/status"
)

// 🎯 PassSummary counts what a pass reported, by kind.
type PassSummary struct {
	New        int
	Modified   int
	Removed    int
	Ignored    int
	Conflicted int
}

// Total returns the number of reported changes, ignored files excluded.
func (s PassSummary) Total() int {
	return s.New + s.Modified + s.Removed + s.Conflicted
}

// 🎯 Logger prints change sets to the console and mirrors them to zerolog.
// It implements reconcile.Sink.
type Logger struct {
	zlog        zerolog.Logger
	console     io.Writer
	formatter   status.Formatter
	showIgnored bool

	mu      sync.Mutex
	pass    string
	summary PassSummary
}

var _ reconcile.Sink = (*Logger)(nil)

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:      zlog,
		console:   console,
		formatter: status.NewDefaultFormatter(),
	}
}

// ShowIgnored makes AddIgnored print a line; by default ignored files are only counted.
func (l *Logger) ShowIgnored(show bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.showIgnored = show
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 StartPass prints the header of a reconciliation pass and resets the summary.
func (l *Logger) StartPass(passID string, roots []string, degraded bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pass = passID
	l.summary = PassSummary{}

	for _, r := range roots {
		fmt.Fprintf(l.console, "[reconciling %s]\n", color.New(color.FgCyan).Sprint(r))
	}
	if degraded {
		fmt.Fprintf(l.console, "%s %s\n",
			color.New(color.FgMagenta).Sprint("◆"),
			color.New(color.FgYellow).Sprint("offline, showing cached results"))
	}

	l.zlog.Info().
		Str("pass_id", passID).
		Strs("roots", roots).
		Bool("degraded", degraded).
		Msg("starting reconciliation pass")
}

// 📝 EndPass prints the summary line and returns the counts.
func (l *Logger) EndPass() PassSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.summary
	fmt.Fprintf(l.console, "%s %d new %s %d modified %s %d removed %s %d conflicted\n",
		color.New(color.Faint).Sprint("•"), s.New,
		color.New(color.Faint).Sprint("•"), s.Modified,
		color.New(color.Faint).Sprint("•"), s.Removed,
		color.New(color.Faint).Sprint("•"), s.Conflicted)

	l.zlog.Info().
		Str("pass_id", l.pass).
		Int("new", s.New).
		Int("modified", s.Modified).
		Int("removed", s.Removed).
		Int("ignored", s.Ignored).
		Int("conflicted", s.Conflicted).
		Msg("reconciliation pass complete")

	l.pass = ""
	return s
}

func (l *Logger) change(c reconcile.Change, counter *int, print bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	*counter++
	if print {
		fmt.Fprintln(l.console, l.formatter.FormatFile(c.Path, c.Status, c.Activity))
	}

	l.zlog.Debug().
		Str("pass_id", l.pass).
		Str("file", c.Path).
		Str("original", c.Original).
		Str("status", c.Status.String()).
		Str("kind", c.Kind.String()).
		Str("activity", c.Activity).
		Msg("change")
}

// AddNew prints a new file or folder.
func (l *Logger) AddNew(c reconcile.Change) { l.change(c, &l.summary.New, true) }

// AddChanged prints a modified file.
func (l *Logger) AddChanged(c reconcile.Change) { l.change(c, &l.summary.Modified, true) }

// AddRemoved prints a removed file or folder.
func (l *Logger) AddRemoved(c reconcile.Change) { l.change(c, &l.summary.Removed, true) }

// AddConflicted prints a file with an unresolved merge.
func (l *Logger) AddConflicted(c reconcile.Change) { l.change(c, &l.summary.Conflicted, true) }

// AddIgnored counts an ignored file, printing it only when ShowIgnored is set.
func (l *Logger) AddIgnored(c reconcile.Change) {
	l.change(c, &l.summary.Ignored, l.showIgnored)
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("ccvcs")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
