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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/ccvcs/cmd/ccvcs/opts"
	"github.com/walteh/ccvcs/pkg/dirty"
	"github.com/walteh/ccvcs/pkg/status"
)

func NewStatusCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [file...]",
		Short: "Show the status of files",
		Long: `Status prints the ClearCase status of each file given. Without arguments it
reconciles every root and prints the change set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len(args) == 0 {
				_, err := runPass(ctx, opts, dirty.Full(opts.Config.Roots...), false, true)
				return err
			}

			paths, err := absolute(args)
			if err != nil {
				return err
			}
			f := status.NewDefaultFormatter()
			for _, p := range paths {
				st, err := opts.VCS.StatusOf(ctx, p)
				if err != nil {
					fmt.Println(f.FormatError(err))
					continue
				}
				act, _, _ := opts.VCS.ActivityOf(ctx, p)
				fmt.Println(f.FormatFile(p, st, act))
			}
			return opts.Save(ctx)
		},
	}

	return cmd
}
