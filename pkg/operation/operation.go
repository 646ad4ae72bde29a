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

package operation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/smartcopy/pkg/checksum"
	"github.com/walteh/smartcopy/pkg/copier"
	"github.com/walteh/smartcopy/pkg/log"
	"github.com/walteh/smartcopy/pkg/planner"
	"github.com/walteh/smartcopy/pkg/status"
	"github.com/walteh/smartcopy/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

// ErrSourceNotFound is returned when the source path does not exist
var ErrSourceNotFound = errors.New("source not found")

// 🚦 State is the phase of a run
type State int32

const (
	StatePreparing State = iota
	StateSizing
	StateTransferring
	StateCompleted
	StateEmpty
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePreparing:
		return "preparing"
	case StateSizing:
		return "sizing"
	case StateTransferring:
		return "transferring"
	case StateCompleted:
		return "completed"
	case StateEmpty:
		return "empty"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📊 Result summarizes a finished run
type Result struct {
	Elapsed time.Duration
	State   State
	Copied  int   // units written
	Skipped int   // units already matching
	Bytes   int64 // bytes written
}

// 🔧 Options configures an Orchestrator
type Options struct {
	// Hasher compares files in full sync, md5 when nil
	Hasher *checksum.Hasher
	// QuickCheck decides on size alone when sizes differ
	QuickCheck bool
	// Walker controls excludes and symlinks for the source walk
	Walker walker.Options
	// Copier configures retries. Its Status is replaced by Progress.
	Copier copier.Options
	// Progress receives byte, file and status updates, a fresh Progress when nil
	Progress status.Reporter
	// Logger receives per-file console events, discarded when nil
	Logger *log.Logger
}

// 🎮 Orchestrator runs copy operations against one progress reporter
type Orchestrator struct {
	compare  *planner.Comparator
	walkOpts walker.Options
	copier   *copier.Copier
	progress status.Reporter
	logger   *log.Logger
	state    atomic.Int32
}

// 🏭 New creates an orchestrator
func New(opts Options) *Orchestrator {
	if opts.Hasher == nil {
		opts.Hasher = checksum.New(checksum.MD5)
	}
	if opts.Progress == nil {
		opts.Progress = status.NewProgress()
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}

	o := &Orchestrator{
		compare:  planner.NewComparator(opts.Hasher, opts.QuickCheck),
		walkOpts: opts.Walker,
		progress: opts.Progress,
		logger:   opts.Logger,
	}

	copierOpts := opts.Copier
	copierOpts.Status = opts.Progress
	copierOpts.OnRetry = o.logRetry(opts.Copier.OnRetry)
	o.copier = copier.New(copierOpts)

	return o
}

// logRetry turns failed attempts into retrying events, then calls next
func (o *Orchestrator) logRetry(next copier.RetryFunc) copier.RetryFunc {
	return func(ctx context.Context, unit planner.Unit, attempt, retries int, err error) {
		o.logger.LogFileEvent(ctx, log.FileEvent{
			Path:   filepath.Base(unit.Source),
			Action: status.ActionRetrying,
			Detail: fmt.Sprintf("attempt %d/%d: %v", attempt, retries+1, err),
			Size:   unit.Size,
		})
		if next != nil {
			next(ctx, unit, attempt, retries, err)
		}
	}
}

// Progress returns the reporter the orchestrator writes to
func (o *Orchestrator) Progress() status.Reporter {
	return o.progress
}

// State returns the phase of the current or last run
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) setState(ctx context.Context, s State) {
	o.state.Store(int32(s))
	zerolog.Ctx(ctx).Debug().Str("state", s.String()).Msg("run state")
}

// openSource validates the source and returns its walker
func (o *Orchestrator) openSource(source string) (*walker.Walker, error) {
	w, err := walker.New(source, o.walkOpts)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Errorf("%w: %s", ErrSourceNotFound, source)
		}
		return nil, errors.Errorf("opening source: %w", err)
	}
	return w, nil
}

// 🔄 RunFullSync copies every file under source whose destination copy is
// missing or differs. The returned Result always carries the elapsed time.
func (o *Orchestrator) RunFullSync(ctx context.Context, source, destination string, retries int) (Result, error) {
	start := time.Now()
	res := Result{}
	logger := zerolog.Ctx(ctx)

	o.setState(ctx, StatePreparing)
	w, err := o.openSource(source)
	if err != nil {
		res.State = StateFailed
		o.setState(ctx, res.State)
		res.Elapsed = time.Since(start)
		return res, err
	}
	destRoot := planner.ResolveDestination(source, w.IsDir(), destination)

	o.progress.Start()
	o.logger.StartRun(ctx, log.RunOperation{
		Mode:        "sync",
		Source:      w.Root(),
		Destination: destRoot,
		Retries:     retries,
	})

	o.setState(ctx, StateSizing)
	total, err := w.TotalSize(ctx)
	if err != nil {
		return o.finish(ctx, start, source, res, err)
	}
	o.progress.SetTotal(total)
	logger.Debug().Int64("total", total).Msg("sized source")

	if total == 0 {
		res.State = StateEmpty
		o.setState(ctx, res.State)
		res.Elapsed = time.Since(start)
		o.endRun(ctx, res)
		return res, nil
	}

	o.setState(ctx, StateTransferring)
	err = w.Walk(ctx, func(e walker.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		unit := planner.Unit{
			Source:      e.Path,
			Destination: destRoot,
			Size:        e.Size,
		}
		if w.IsDir() {
			unit.Destination = filepath.Join(destRoot, e.RelPath)
		}

		needs, reason := o.compare.NeedsCopy(ctx, unit.Source, unit.Destination)
		return o.transfer(ctx, unit, e.RelPath, needs, reason, retries, &res)
	})

	return o.finish(ctx, start, source, res, err)
}

// 🕳️ PlanMissing builds the reconciliation plan without touching the destination
func (o *Orchestrator) PlanMissing(ctx context.Context, source, destination string) (*planner.Plan, error) {
	if _, err := o.openSource(source); err != nil {
		return nil, err
	}

	plan, err := planner.FindMissing(ctx, source, destination, o.walkOpts)
	if err != nil {
		return nil, errors.Errorf("planning missing files: %w", err)
	}
	return plan, nil
}

// 📋 RunMissingOnly copies every unit of plan without comparing content
func (o *Orchestrator) RunMissingOnly(ctx context.Context, plan *planner.Plan, retries int) (Result, error) {
	start := time.Now()
	res := Result{}

	o.setState(ctx, StatePreparing)
	if plan == nil {
		res.State = StateFailed
		o.setState(ctx, res.State)
		return res, errors.New("plan is required")
	}

	o.progress.Start()
	o.logger.StartRun(ctx, log.RunOperation{
		Mode:        "missing",
		Source:      plan.Source,
		Destination: plan.Destination,
		Retries:     retries,
	})
	o.progress.SetTotal(plan.TotalBytes)

	o.setState(ctx, StateTransferring)
	var err error
	for _, unit := range plan.Units {
		if err = ctx.Err(); err != nil {
			break
		}
		rel, relErr := filepath.Rel(plan.Destination, unit.Destination)
		if relErr != nil || rel == "." {
			rel = filepath.Base(unit.Destination)
		}
		if err = o.transfer(ctx, unit, rel, true, planner.ReasonMissing, retries, &res); err != nil {
			break
		}
	}

	return o.finish(ctx, start, plan.Source, res, err)
}

// transfer copies or skips one unit, then accounts its bytes
func (o *Orchestrator) transfer(ctx context.Context, unit planner.Unit, display string, needs bool, reason string, retries int, res *Result) error {
	if needs {
		if err := o.copier.Copy(ctx, unit, retries); err != nil {
			if ctx.Err() == nil {
				o.progress.Fail(unit.Source, err)
				o.logger.LogFileEvent(ctx, log.FileEvent{
					Path:   display,
					Action: status.ActionFailed,
					Detail: err.Error(),
					Size:   unit.Size,
				})
			}
			return err
		}
		res.Copied++
		res.Bytes += unit.Size
		o.logger.LogFileEvent(ctx, log.FileEvent{
			Path:   display,
			Action: status.ActionCopied,
			Detail: reason,
			Size:   unit.Size,
		})
	} else {
		res.Skipped++
		o.logger.LogFileEvent(ctx, log.FileEvent{
			Path:   display,
			Action: status.ActionSkipped,
			Detail: reason,
			Size:   unit.Size,
		})
	}

	o.progress.Advance(unit.Size)
	o.progress.SetCurrentFile(filepath.Base(unit.Source))
	return nil
}

// finish classifies err into the terminal state of a run
func (o *Orchestrator) finish(ctx context.Context, start time.Time, source string, res Result, err error) (Result, error) {
	switch {
	case err == nil:
		res.State = StateCompleted
		o.progress.Finish()
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		res.State = StateCancelled
		err = errors.Errorf("run cancelled: %w", err)
	default:
		res.State = StateFailed
		var copyErr *copier.CopyError
		if !errors.As(err, &copyErr) {
			o.progress.Fail(source, err)
		}
	}

	o.setState(ctx, res.State)
	res.Elapsed = time.Since(start)
	o.endRun(ctx, res)
	return res, err
}

func (o *Orchestrator) endRun(ctx context.Context, res Result) {
	o.logger.EndRun(ctx, log.RunSummary{
		Copied:  res.Copied,
		Skipped: res.Skipped,
		Bytes:   res.Bytes,
		Outcome: res.State.String(),
	})
}
