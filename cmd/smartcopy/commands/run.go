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
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/walteh/smartcopy/cmd/smartcopy/opts"
	"github.com/walteh/smartcopy/pkg/checksum"
	"github.com/walteh/smartcopy/pkg/copier"
	"github.com/walteh/smartcopy/pkg/monitor"
	"github.com/walteh/smartcopy/pkg/operation"
	"github.com/walteh/smartcopy/pkg/status"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// newOrchestrator builds an orchestrator from the loaded config. A nil
// progress is only fit for planning.
func newOrchestrator(o *opts.RootOpts, progress *status.Progress) *operation.Orchestrator {
	options := operation.Options{
		Hasher:     checksum.New(o.Config.HashAlgorithm()),
		QuickCheck: o.Config.QuickCheck,
		Walker:     o.Config.WalkerOptions(),
		Copier:     copier.Options{Delay: time.Duration(o.Config.RetryDelay)},
		Logger:     o.Logger,
	}
	if progress != nil {
		options.Progress = progress
	}
	return operation.New(options)
}

// execute runs fn on a background worker while the monitor samples progress
// on this goroutine's behalf. A worker error does not cut the monitor short,
// it still draws the final frame once the worker closes progress.
func execute(ctx context.Context, o *opts.RootOpts, progress *status.Progress, fn operation.RunFunc) (operation.Result, error) {
	runner := operation.Start(ctx, progress, fn)

	mon := monitor.New(monitor.Options{
		Source:   progress,
		Renderer: monitor.NewRenderer(o.Config.Progress, os.Stderr),
		Interval: time.Duration(o.Config.Interval),
	})

	var res operation.Result
	var g errgroup.Group
	g.Go(func() error {
		return mon.Run(ctx)
	})
	g.Go(func() error {
		var err error
		res, err = runner.Wait(ctx)
		return err
	})

	err := g.Wait()
	return res, err
}

// report prints the outcome of a finished run
func report(res operation.Result, err error) {
	elapsed := res.Elapsed.Round(time.Millisecond)

	switch res.State {
	case operation.StateEmpty:
		pterm.Info.Printfln("Source is empty, nothing to copy (%s)", elapsed)
	case operation.StateCompleted:
		pterm.Success.Printfln("Copied %d file(s), %s, %d unchanged in %s",
			res.Copied, humanize.IBytes(uint64(res.Bytes)), res.Skipped, elapsed)
	case operation.StateFailed:
		if errors.Is(err, operation.ErrSourceNotFound) {
			return
		}
		pterm.Warning.Printfln("Stopped after %s, run the same command again to resume", elapsed)
	}
}
