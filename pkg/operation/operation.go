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

package operation

import (
	"context"

	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/state"
	"github.com/walteh/ccvcs/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Target is one path an operation works on, with the status it was last seen in.
type Target struct {
	Path   string
	Status status.FileStatus
	IsDir  bool
}

// 🔧 Options contains configuration for the operator
type Options struct {
	// Runner executes cleartool
	Runner cleartool.Runner
	// Session holds the bookkeeping the operations update
	Session *state.Session
	// Reserved makes checkouts reserved instead of unreserved
	Reserved bool
}

// 🎮 Operator runs check-in/out style operations against one session.
type Operator struct {
	runner   cleartool.Runner
	session  *state.Session
	reserved bool
}

// 🏭 New creates a new operator with the given options
func New(opts Options) (*Operator, error) {
	if opts.Runner == nil {
		return nil, errors.Errorf("runner is required")
	}
	if opts.Session == nil {
		return nil, errors.Errorf("session is required")
	}
	return &Operator{
		runner:   opts.Runner,
		session:  opts.Session,
		reserved: opts.Reserved,
	}, nil
}

func (o *Operator) run(ctx context.Context, args []string) (*cleartool.Result, error) {
	return o.runner.Run(ctx, cleartool.Command{Args: args})
}
