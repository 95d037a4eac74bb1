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
	"github.com/spf13/cobra"
	"github.com/walteh/ccvcs/cmd/ccvcs/opts"
)

func NewOfflineCmd(opts *opts.RootOpts) *cobra.Command {
	var goOnline bool

	cmd := &cobra.Command{
		Use:   "offline",
		Short: "Show or clear offline mode",
		Long: `A pass that cannot reach the ClearCase server switches the project offline.
Offline passes report cached results only. --clear goes back online.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if goOnline {
				opts.VCS.GoOnline(ctx)
				opts.UserLogger.LogValidation(true, "back online", nil)
				return opts.Save(ctx)
			}

			if opts.VCS.Offline() {
				opts.UserLogger.LogValidation(false, "offline: showing cached results until cleared with --clear", nil)
			} else {
				opts.UserLogger.LogStateChange("online")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&goOnline, "clear", false, "leave offline mode")
	return cmd
}
