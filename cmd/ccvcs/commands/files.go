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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/ccvcs/cmd/ccvcs/opts"
	"github.com/walteh/ccvcs/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// operate classifies args, runs fn under the project lock and saves the session
// whatever the outcome, so partial progress is kept.
func operate(ctx context.Context, opts *opts.RootOpts, name string, args []string, fn func(ctx context.Context, op *operation.Operator, targets []operation.Target) error) error {
	ts, err := targets(ctx, opts.VCS, args)
	if err != nil {
		return err
	}

	opts.Console.Header(fmt.Sprintf("%s %d file(s)", name, len(ts)))
	err = opts.VCS.Operate(ctx, func(ctx context.Context, op *operation.Operator) error {
		return fn(ctx, op, ts)
	})
	if serr := opts.Save(ctx); serr != nil {
		err = errors.Join(err, serr)
	}
	if err != nil {
		return errors.Errorf("%s: %w", name, err)
	}
	opts.UserLogger.LogValidation(true, name+" done", nil)
	return nil
}

func NewCheckoutCmd(opts *opts.RootOpts) *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:   "checkout <file>...",
		Short: "Check files out",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return operate(cmd.Context(), opts, "checkout", args, func(ctx context.Context, op *operation.Operator, ts []operation.Target) error {
				return op.Checkout(ctx, ts, comment)
			})
		},
	}
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "checkout comment")
	return cmd
}

func NewCheckinCmd(opts *opts.RootOpts) *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:   "checkin <file>...",
		Short: "Check in changes, additions, removals and renames",
		Long: `Checkin commits each file given. New files become elements, removed files
are unlinked from their directory, renamed files are moved in the VOB, and
changed files are checked in. Failures are reported at the end; the other
files are still processed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return operate(cmd.Context(), opts, "checkin", args, func(ctx context.Context, op *operation.Operator, ts []operation.Target) error {
				return op.Checkin(ctx, ts, comment)
			})
		},
	}
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "checkin comment")
	return cmd
}

func NewAddCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>...",
		Short: "Mark view-private files to be added on the next checkin",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return operate(cmd.Context(), opts, "add", args, func(ctx context.Context, op *operation.Operator, ts []operation.Target) error {
				return op.Add(ctx, ts)
			})
		},
	}
}

func NewRmCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <file>...",
		Short: "Delete files and queue their removal for the next checkin",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return operate(cmd.Context(), opts, "rm", args, func(ctx context.Context, op *operation.Operator, ts []operation.Target) error {
				return op.Delete(ctx, ts)
			})
		},
	}
}

func NewMvCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <from> <to>",
		Short: "Rename a file or folder; the rename is replayed on checkin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			paths, err := absolute(args)
			if err != nil {
				return err
			}
			err = opts.VCS.Operate(ctx, func(ctx context.Context, op *operation.Operator) error {
				return op.Move(ctx, paths[0], paths[1])
			})
			if serr := opts.Save(ctx); serr != nil {
				err = errors.Join(err, serr)
			}
			return err
		},
	}
}

func NewRollbackCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <file>...",
		Short: "Discard local changes, renames and pending removals",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return operate(cmd.Context(), opts, "rollback", args, func(ctx context.Context, op *operation.Operator, ts []operation.Target) error {
				return op.Rollback(ctx, ts)
			})
		},
	}
}

func NewUpdateCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "update [path...]",
		Short: "Update snapshot view paths from the VOB",
		Long: `Update loads newer versions into a snapshot view. Without arguments every
configured root is updated. Hijacked files the update could not overwrite are
reported as conflicts by the next reconcile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = opts.Config.Roots
			}
			var res *operation.UpdateResult
			err := operate(cmd.Context(), opts, "update", args, func(ctx context.Context, op *operation.Operator, ts []operation.Target) error {
				var err error
				res, err = op.Update(ctx, ts)
				return err
			})
			if res != nil {
				for _, c := range res.Conflicts {
					opts.UserLogger.LogValidation(false, "conflict: "+c, nil)
				}
				opts.UserLogger.LogStateChange(fmt.Sprintf("%d file(s) loaded, %d conflict(s)", len(res.Loaded), len(res.Conflicts)))
			}
			return err
		},
	}
}
