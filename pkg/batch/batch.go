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

// Package batch runs per-path cleartool queries in command-line-bounded batches
// and merges the parsed results into one map keyed by pathkey.Key.
package batch

import (
	"github.com/walteh/ccvcs/pkg/cleartool"
	"github.com/walteh/ccvcs/pkg/pathkey"
)

// Defaults for the batching knobs. They are overridable through config.
const (
	DefaultStatusCeiling         = 1000
	DefaultDescribeCeiling       = 500
	DefaultCheckoutListThreshold = 200
)

// Overhead is the serialized length of the fixed part of a command line run
// through executable.
func Overhead(executable string, args []string) int {
	n := len(executable)
	for _, a := range args {
		n += len(a) + 1
	}
	return n
}

// ExecutableOf returns the tool path runner starts, when it tells, else the default.
func ExecutableOf(runner cleartool.Runner) string {
	if r, ok := runner.(interface{ Executable() string }); ok && r.Executable() != "" {
		return r.Executable()
	}
	return cleartool.DefaultExecutable
}

// Cost is the serialized length of a command line made of overhead plus paths.
func Cost(overhead int, paths []string) int {
	n := overhead
	for _, p := range paths {
		n += len(p) + 1
	}
	return n
}

// ✂️ Partition splits paths, in order, into the fewest contiguous batches whose
// Cost stays within ceiling. A path too long to fit even alone gets a batch of its own.
func Partition(paths []string, overhead, ceiling int) [][]string {
	var batches [][]string
	var cur []string
	size := overhead

	for _, p := range paths {
		cost := len(p) + 1
		if len(cur) > 0 && size+cost > ceiling {
			batches = append(batches, cur)
			cur = nil
			size = overhead
		}
		cur = append(cur, p)
		size += cost
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

// unique drops paths that canonicalize to one already seen, keeping order.
func unique(paths []string) []string {
	return pathkey.NewSet(paths...).Paths()
}
