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

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/smartcopy/cmd/smartcopy/commands"
	"github.com/walteh/smartcopy/cmd/smartcopy/opts"
	"github.com/walteh/smartcopy/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// Process exit codes
const (
	exitOK        = 0
	exitFailure   = 1
	exitNotFound  = 2
	exitCancelled = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := &opts.RootOpts{}
	err := newRootCmd(o).ExecuteContext(ctx)

	code := exitCode(ctx, err)
	switch code {
	case exitOK:
	case exitCancelled:
		// The copy worker is not joined. Exiting abandons it mid-file, which
		// can leave a hidden temp file beside the destination but never a
		// partial file under the final name.
		cursor.Show()
		pterm.Println()
		pterm.Warning.Println("Cancelled, exiting")
	default:
		pterm.Error.Println(err)
	}

	os.Exit(code)
}

func newRootCmd(o *opts.RootOpts) *cobra.Command {
	flags := &rootFlags{}
	syncCmd := commands.NewSyncCmd(o)

	cmd := &cobra.Command{
		Use:   "smartcopy [SRC] [DST]",
		Short: "Verified, resumable file and directory copy",
		Long: `smartcopy copies a file or directory tree, skipping files whose content
already matches, retrying failed files, and showing live progress.

Without a subcommand it runs sync. Missing paths are prompted for.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			built, err := newRootOpts(cmd, flags)
			if err != nil {
				return err
			}
			*o = *built
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return syncCmd.RunE(cmd, args)
		},
	}

	addRootFlags(cmd, flags)

	cmd.AddCommand(
		syncCmd,
		commands.NewMissingCmd(o),
		newVersionCmd(),
	)

	return cmd
}

// exitCode maps the command result to a process exit status
func exitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return exitOK
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		return exitCancelled
	case errors.Is(err, operation.ErrSourceNotFound):
		return exitNotFound
	default:
		return exitFailure
	}
}
