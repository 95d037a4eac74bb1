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


package commands

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/walteh/ccvcs/cmd/ccvcs/opts"
	"github.com/walteh/ccvcs/pkg/dirty"
	"github.com/walteh/ccvcs/pkg/reconcile"
)

func NewWatchCmd(opts *opts.RootOpts) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reconcile continuously as files change",
		Long: `Watch runs a full pass, then a pass over whatever changed each time
filesystem activity under the roots settles. Stop it with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if _, err := runPass(ctx, opts, dirty.Full(opts.Config.Roots...), false, true); err != nil {
				opts.UserLogger.LogValidation(false, "initial pass failed", err)
			}

			return opts.VCS.Watch(ctx, debounce, func(cs *reconcile.ChangeSet, err error) {
				if err != nil {
					opts.UserLogger.LogValidation(false, "pass failed", err)
					return
				}
				if len(cs.Changes) == 0 {
					return
				}
				opts.Console.StartPass(cs.PassID, nil, cs.Degraded)
				cs.Emit(opts.Console)
				opts.Console.EndPass()
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", dirty.DefaultDebounce, "quiet period before a pass runs")
	return cmd
}
