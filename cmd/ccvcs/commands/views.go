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

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/walteh/ccvcs/cmd/ccvcs/opts"
	"gitlab.com/tozd/go/errors"
)

func NewActivityCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity <file>...",
		Short: "Show the UCM activity each file is checked out under",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if _, err := opts.VCS.ReloadViews(ctx); err != nil {
				return errors.Errorf("reloading views: %w", err)
			}

			paths, err := absolute(args)
			if err != nil {
				return err
			}
			for _, p := range paths {
				act, ok, err := opts.VCS.ActivityOf(ctx, p)
				if err != nil {
					return errors.Errorf("activity of %s: %w", p, err)
				}
				if !ok {
					act = color.New(color.Faint).Sprint("(none)")
				}
				fmt.Printf("%s  %s\n", p, act)
			}
			return opts.Save(ctx)
		},
	}

	return cmd
}

func NewViewsCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Reload and list the views holding the configured roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			warnings, err := opts.VCS.ReloadViews(ctx)
			if err != nil {
				return errors.Errorf("reloading views: %w", err)
			}

			for _, v := range opts.VCS.Views() {
				kind := "base"
				if v.IsUCM {
					kind = "ucm"
				}
				if v.IsSnapshot {
					kind += ", snapshot"
				} else {
					kind += ", dynamic"
				}
				fmt.Printf("%s %s %s\n", color.New(color.FgMagenta).Sprint("◆"), color.New(color.Bold).Sprint(v.Tag), color.New(color.Faint).Sprintf("(%s)", kind))
				fmt.Printf("    root      %s\n", v.Root)
				if v.CurrentActivity != nil {
					fmt.Printf("    activity  %s\n", v.CurrentActivity.DisplayName())
				}
			}
			opts.UserLogger.LogWarnings(warnings)
			return opts.Save(ctx)
		},
	}

	return cmd
}
