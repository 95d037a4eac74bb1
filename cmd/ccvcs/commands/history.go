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
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/walteh/ccvcs/cmd/ccvcs/opts"
	"gitlab.com/tozd/go/errors"
)

func NewHistoryCmd(opts *opts.RootOpts) *cobra.Command {
	var last int

	cmd := &cobra.Command{
		Use:   "history <file>",
		Short: "Show the version history of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			paths, err := absolute(args)
			if err != nil {
				return err
			}
			recs, err := opts.VCS.HistoryOf(ctx, paths[0], last)
			if err != nil {
				return errors.Errorf("reading history: %w", err)
			}

			for _, r := range recs {
				line := fmt.Sprintf("%s  %-12s %-22s %s",
					color.New(color.Faint).Sprint(r.ChangeDate),
					r.Submitter,
					r.Action,
					color.New(color.FgYellow).Sprint(r.Version))
				if len(r.Labels) > 0 {
					line += " " + color.CyanString("(%s)", strings.Join(r.Labels, ", "))
				}
				fmt.Println(line)
				if r.Comment != "" {
					fmt.Printf("    %s\n", r.Comment)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&last, "last", "n", 0, "only the newest n versions (default: history_limit from config)")
	return cmd
}
