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
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/smartcopy/cmd/smartcopy/opts"
	"github.com/walteh/smartcopy/pkg/operation"
	"github.com/walteh/smartcopy/pkg/planner"
	"github.com/walteh/smartcopy/pkg/status"
	"gitlab.com/tozd/go/errors"
)

func NewMissingCmd(o *opts.RootOpts) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "missing [SRC] [DST]",
		Short: "Copy only files whose names appear nowhere under DST",
		Long: `Missing fills gaps without comparing content.
It will:
1. Collect every file name under DST, in any subdirectory
2. Plan each source file whose name is not in that set
3. Print the plan
4. Copy the plan unless --dry-run is set

A file with the same name but different content counts as present.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMissing(cmd.Context(), o, args, dryRun, ptermPrompter{})
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print the plan without copying")

	return cmd
}

func runMissing(ctx context.Context, o *opts.RootOpts, args []string, dryRun bool, p prompter) error {
	src, dst, err := resolvePaths(args, p)
	if err != nil {
		return err
	}

	ctx = zerolog.Ctx(ctx).With().Str("command", "missing").Logger().WithContext(ctx)

	plan, err := newOrchestrator(o, nil).PlanMissing(ctx, src, dst)
	if err != nil {
		return errors.Errorf("planning %s: %w", src, err)
	}

	printPlan(os.Stdout, plan)
	if plan.Len() == 0 {
		pterm.Success.Println("Nothing is missing")
		return nil
	}
	if dryRun {
		return nil
	}

	ok, err := confirm(fmt.Sprintf("Copy %d missing file(s) to %s?", plan.Len(), plan.Destination), o.Yes, p)
	if err != nil {
		return err
	}
	if !ok {
		pterm.Info.Println("Nothing copied")
		return nil
	}

	progress := status.NewProgress()
	orch := newOrchestrator(o, progress)

	res, err := execute(ctx, o, progress, func(ctx context.Context) (operation.Result, error) {
		return orch.RunMissingOnly(ctx, plan, o.Config.Retries)
	})
	report(res, err)
	if err != nil {
		return errors.Errorf("copying missing files: %w", err)
	}

	return nil
}

// printPlan lists each planned unit and the plan total
func printPlan(w io.Writer, plan *planner.Plan) {
	formatter := status.NewDefaultFileFormatter()
	for _, u := range plan.Units {
		rel, err := filepath.Rel(plan.Destination, u.Destination)
		if err != nil || rel == "." {
			rel = filepath.Base(u.Destination)
		}
		fmt.Fprintln(w, formatter.FormatFileEvent(rel, status.ActionMissing, humanize.IBytes(uint64(u.Size))))
	}
	fmt.Fprintf(w, "%d file(s) missing, %s total\n", plan.Len(), humanize.IBytes(uint64(plan.TotalBytes)))
}
