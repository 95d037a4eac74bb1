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
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/walteh/ccvcs/cmd/ccvcs/opts"
	"github.com/walteh/ccvcs/pkg/dirty"
	"github.com/walteh/ccvcs/pkg/reconcile"
	"gitlab.com/tozd/go/errors"
)

func NewReconcileCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		dirs        []string
		showIgnored bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile [file...]",
		Short: "Work out what changed under the view roots",
		Long: `Reconcile classifies files and builds the change set.
Without arguments every configured root is walked. With files or --dir only
those are looked at, and unversioned parent folders are not reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			scope := dirty.Full(opts.Config.Roots...)
			if len(args) > 0 || len(dirs) > 0 {
				files, err := absolute(args)
				if err != nil {
					return err
				}
				d, err := absolute(dirs)
				if err != nil {
					return err
				}
				scope = dirty.Scope{Files: files, Dirs: d}
			}

			cs, err := runPass(ctx, opts, scope, showIgnored, !asJSON)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(cs)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&dirs, "dir", nil, "directories whose direct children are looked at")
	cmd.Flags().BoolVar(&showIgnored, "ignored", false, "list ignored files too")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the change set as JSON")
	return cmd
}

// runPass reconciles scope, prints the change set when asked and saves the session.
func runPass(ctx context.Context, opts *opts.RootOpts, scope dirty.Scope, showIgnored, show bool) (*reconcile.ChangeSet, error) {
	warnings, err := opts.VCS.ReloadViews(ctx)
	if err != nil && !errors.Is(err, reconcile.ErrOffline) {
		return nil, errors.Errorf("reloading views: %w", err)
	}
	opts.UserLogger.LogWarnings(warnings)

	cs, err := opts.VCS.Reconcile(ctx, scope)
	if err != nil {
		if serr := opts.Save(ctx); serr != nil {
			return nil, errors.Join(err, serr)
		}
		return nil, errors.Errorf("reconciling: %w", err)
	}

	if show {
		opts.Console.ShowIgnored(showIgnored)
		opts.Console.StartPass(cs.PassID, scope.RecursiveDirs, cs.Degraded)
		cs.Emit(opts.Console)
		opts.Console.EndPass()
		for _, w := range cs.Warnings {
			opts.UserLogger.LogValidation(false, w, nil)
		}
	}

	return cs, opts.Save(ctx)
}
