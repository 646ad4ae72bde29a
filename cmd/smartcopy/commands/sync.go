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

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/smartcopy/cmd/smartcopy/opts"
	"github.com/walteh/smartcopy/pkg/operation"
	"github.com/walteh/smartcopy/pkg/status"
	"gitlab.com/tozd/go/errors"
)

func NewSyncCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [SRC] [DST]",
		Short: "Copy SRC to DST, skipping files that already match",
		Long: `Sync copies a file or directory tree and verifies it by content digest.
It will:
1. Size the source so progress has a fixed total
2. Walk the source in lexical order
3. Skip files whose destination digest already matches
4. Copy the rest, retrying each failed file with a fixed delay
5. Stop at the first file that runs out of retries

Running sync again after a failure resumes where it stopped.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), o, args, ptermPrompter{})
		},
	}

	return cmd
}

func runSync(ctx context.Context, o *opts.RootOpts, args []string, p prompter) error {
	src, dst, err := resolvePaths(args, p)
	if err != nil {
		return err
	}

	ok, err := confirm(fmt.Sprintf("Copy %s to %s?", src, dst), o.Yes, p)
	if err != nil {
		return err
	}
	if !ok {
		pterm.Info.Println("Nothing copied")
		return nil
	}

	ctx = zerolog.Ctx(ctx).With().Str("command", "sync").Logger().WithContext(ctx)

	progress := status.NewProgress()
	orch := newOrchestrator(o, progress)

	res, err := execute(ctx, o, progress, func(ctx context.Context) (operation.Result, error) {
		return orch.RunFullSync(ctx, src, dst, o.Config.Retries)
	})
	report(res, err)
	if err != nil {
		return errors.Errorf("syncing %s: %w", src, err)
	}

	return nil
}
