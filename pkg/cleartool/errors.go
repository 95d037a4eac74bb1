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
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrServerDown matches tool errors whose output says the ClearCase server cannot be reached.
	ErrServerDown = errors.Base("clearcase server unreachable")

	// ErrNotVobObject matches tool errors about paths outside any VOB.
	ErrNotVobObject = errors.Base("not a vob object")

	// ErrAlreadyCheckedOut matches checkout attempts on an element that is already checked out.
	ErrAlreadyCheckedOut = errors.Base("already checked out")

	// ErrTimeout is wrapped by a ToolError when the invocation exceeded its deadline.
	ErrTimeout = errors.Base("cleartool invocation timed out")
)

// Failure is the recovery class of a failed invocation.
type Failure int

const (
	FailureNone Failure = iota
	FailureServerDown
	FailureNotVobObject
	FailureAlreadyCheckedOut
	FailureOther
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureServerDown:
		return "server-down"
	case FailureNotVobObject:
		return "not-vob-object"
	case FailureAlreadyCheckedOut:
		return "already-checked-out"
	default:
		return "other"
	}
}

// markers are matched case-insensitively against captured output, in order.
var markers = []struct {
	substr  string
	failure Failure
}{
	{"unable to contact albd_server", FailureServerDown},
	{"unable to connect to", FailureServerDown},
	{"server unavailable", FailureServerDown},
	{"rpc: unable to receive", FailureServerDown},
	{"not a vob object", FailureNotVobObject},
	{"is already checked out", FailureAlreadyCheckedOut},
	{"already checked out", FailureAlreadyCheckedOut},
}

// 🔍 Classify inspects tool output for the known failure signatures.
func Classify(output string) Failure {
	lower := strings.ToLower(output)
	for _, m := range markers {
		if strings.Contains(lower, m.substr) {
			return m.failure
		}
	}
	return FailureOther
}

// 💥 ToolError is a non-zero exit or launch failure of the external tool.
type ToolError struct {
	Args     []string
	Output   string
	ExitCode int
	Err      error // launch, read or timeout cause; nil for a plain non-zero exit
}

func (e *ToolError) Error() string {
	name := "cleartool"
	if len(e.Args) > 0 {
		name += " " + e.Args[0]
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", name, e.Err)
	}
	msg := firstLine(e.Output)
	if msg == "" {
		return fmt.Sprintf("%s: exit status %d", name, e.ExitCode)
	}
	return fmt.Sprintf("%s: exit status %d: %s", name, e.ExitCode, msg)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Failure classifies the captured output.
func (e *ToolError) Failure() Failure {
	return Classify(e.Output)
}

// Is lets errors.Is match the classification sentinels.
func (e *ToolError) Is(target error) bool {
	switch target {
	case ErrServerDown:
		return e.Failure() == FailureServerDown
	case ErrNotVobObject:
		return e.Failure() == FailureNotVobObject
	case ErrAlreadyCheckedOut:
		return e.Failure() == FailureAlreadyCheckedOut
	}
	return false
}

// IsServerDown reports whether err carries a server-unreachable tool failure.
func IsServerDown(err error) bool {
	return errors.Is(err, ErrServerDown)
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// IsNotVobObject reports whether err carries a not-a-vob-object tool failure.
func IsNotVobObject(err error) bool {
	return errors.Is(err, ErrNotVobObject)
}

// IsAlreadyCheckedOut reports whether err carries an already-checked-out tool failure.
func IsAlreadyCheckedOut(err error) bool {
	return errors.Is(err, ErrAlreadyCheckedOut)
}
