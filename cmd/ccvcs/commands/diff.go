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
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"github.com/walteh/ccvcs/cmd/ccvcs/opts"
	"github.com/walteh/ccvcs/pkg/dirty"
	"github.com/walteh/ccvcs/pkg/reconcile"
	"gitlab.com/tozd/go/errors"
)

func NewDiffCmd(opts *opts.RootOpts) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "diff <file>",
		Short: "Show local changes against the version the file was checked out or hijacked from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			paths, err := absolute(args)
			if err != nil {
				return err
			}
			cs, err := opts.VCS.Reconcile(ctx, dirty.Scope{Files: paths})
			if err != nil {
				return errors.Errorf("reconciling %s: %w", paths[0], err)
			}

			c, ok := cs.Find(paths[0])
			if !ok || c.Prior == nil {
				opts.UserLogger.LogStateChange(fmt.Sprintf("%s has no local modifications", args[0]))
				return opts.Save(ctx)
			}

			version, err := c.Prior.Version(ctx)
			if err != nil {
				return errors.Errorf("resolving prior version: %w", err)
			}
			fmt.Printf("%s %s@@%s\n", color.New(color.Faint).Sprint("---"), c.Prior.Element, version)
			fmt.Printf("%s %s\n", color.New(color.Faint).Sprint("+++"), c.Path)

			out, err := render(ctx, c.Prior, format)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return opts.Save(ctx)
		},
	}

	cmd.Flags().StringVar(&format, "format", "lines", "output format: lines, patch or delta")
	return cmd
}

// render prints the diff line by line, or in one of the diffmatchpatch text forms.
func render(ctx context.Context, p *reconcile.PriorRevision, format string) (string, error) {
	switch format {
	case "patch":
		return p.Patch(ctx)
	case "delta":
		d, err := p.Delta(ctx)
		return d + "\n", err
	case "lines":
	default:
		return "", errors.Errorf("unknown diff format %q", format)
	}

	diffs, err := p.Diff(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, d := range diffs {
		prefix, paint := " ", color.New(color.Faint)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, paint = "+", color.New(color.FgGreen)
		case diffmatchpatch.DiffDelete:
			prefix, paint = "-", color.New(color.FgRed)
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			b.WriteString(paint.Sprint(prefix + strings.TrimSuffix(line, "\n")))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
