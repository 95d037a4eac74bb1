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


package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/ccvcs/cmd/ccvcs/commands"
	"github.com/walteh/ccvcs/cmd/ccvcs/opts"
)

func main() {
	logger := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stderr })).
		With().Timestamp().Logger()
	ctx, stop := signal.NotifyContext(logger.WithContext(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userLogger := opts.NewUserLogger(ctx)
	root := &opts.RootOpts{UserLogger: userLogger}

	rootCmd := &cobra.Command{
		Use:   "ccvcs",
		Short: "Track and commit changes in ClearCase views",
		Long: `ccvcs works out which files under your ClearCase view roots are new,
modified, hijacked, removed or conflicted, and checks them in and out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(root.Debug)
			root.Console = newConsole(root.Debug)
			if skipLoad(cmd) {
				return nil
			}
			return root.Load(cmd.Context())
		},
	}

	addRootFlags(rootCmd, root)

	rootCmd.AddCommand(
		commands.NewStatusCmd(root),
		commands.NewReconcileCmd(root),
		commands.NewHistoryCmd(root),
		commands.NewActivityCmd(root),
		commands.NewViewsCmd(root),
		commands.NewCheckoutCmd(root),
		commands.NewCheckinCmd(root),
		commands.NewAddCmd(root),
		commands.NewRmCmd(root),
		commands.NewMvCmd(root),
		commands.NewRollbackCmd(root),
		commands.NewUpdateCmd(root),
		commands.NewDiffCmd(root),
		commands.NewWatchCmd(root),
		commands.NewOfflineCmd(root),
		newVersionCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		userLogger.LogValidation(false, "Command failed", err)
		stop()
		os.Exit(1)
	}
}
