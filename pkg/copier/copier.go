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

// Package copier copies single files with a bounded number of retries.
package copier

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/smartcopy/pkg/planner"
	"github.com/walteh/smartcopy/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// DefaultDelay is the fixed pause between attempts
const DefaultDelay = 3 * time.Second

// ErrAttemptsExhausted matches a CopyError whose retry budget ran out
var ErrAttemptsExhausted = errors.New("retry budget exhausted")

// 🚦 Outcome classifies a single copy attempt
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeRetryable
	OutcomeTerminal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Result is the typed result of one attempt
type Result struct {
	Outcome Outcome
	Err     error
}

// ❌ CopyError is returned when a unit could not be copied
type CopyError struct {
	Unit      planner.Unit
	Attempts  int
	Exhausted bool // the retry budget ran out, as opposed to a terminal attempt
	Err       error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copying %s after %d attempt(s): %v", e.Unit.Source, e.Attempts, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrAttemptsExhausted) identify budget exhaustion
func (e *CopyError) Is(target error) bool {
	return e.Exhausted && target == ErrAttemptsExhausted
}

// CopyFunc copies src to dst, which may not exist yet
type CopyFunc func(ctx context.Context, src, dst string) error

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryFunc is told about each failed attempt that will be retried
type RetryFunc func(ctx context.Context, unit planner.Unit, attempt, retries int, err error)

// 🔧 Options configures a Copier
type Options struct {
	// Delay between attempts, DefaultDelay when zero
	Delay time.Duration
	// Status receives transient retry messages, may be nil
	Status status.StatusNotifier
	// CopyFunc overrides the file copy, CopyFile when nil
	CopyFunc CopyFunc
	// Sleep overrides the backoff wait, Sleep when nil
	Sleep SleepFunc
	// OnRetry is called before each backoff wait, may be nil
	OnRetry RetryFunc
}

// 📦 Copier copies units with retries
type Copier struct {
	delay    time.Duration
	status   status.StatusNotifier
	copyFunc CopyFunc
	sleep    SleepFunc
	onRetry  RetryFunc
}

// 🏭 New creates a copier
func New(opts Options) *Copier {
	c := &Copier{
		delay:    opts.Delay,
		status:   opts.Status,
		copyFunc: opts.CopyFunc,
		sleep:    opts.Sleep,
		onRetry:  opts.OnRetry,
	}
	if c.delay <= 0 {
		c.delay = DefaultDelay
	}
	if c.copyFunc == nil {
		c.copyFunc = CopyFile
	}
	if c.sleep == nil {
		c.sleep = Sleep
	}
	if c.status == nil {
		c.status = nopStatus{}
	}
	return c
}

// 🔁 Copy copies unit, making at most retries+1 attempts with a fixed delay
// between them. Any error returned is a *CopyError.
func (c *Copier) Copy(ctx context.Context, unit planner.Unit, retries int) error {
	logger := zerolog.Ctx(ctx).With().Str("src", unit.Source).Str("dst", unit.Destination).Logger()
	retries = max(retries, 0)

	for attempt := 1; ; attempt++ {
		res := c.attempt(ctx, unit)

		switch res.Outcome {
		case OutcomeOK:
			c.status.ClearStatus()
			logger.Debug().Int("attempt", attempt).Msg("copied")
			return nil

		case OutcomeTerminal:
			c.status.ClearStatus()
			return &CopyError{Unit: unit, Attempts: attempt, Err: res.Err}
		}

		if attempt > retries {
			c.status.ClearStatus()
			logger.Error().Err(res.Err).Int("attempts", attempt).Msg("giving up")
			return &CopyError{Unit: unit, Attempts: attempt, Exhausted: true, Err: res.Err}
		}

		msg := fmt.Sprintf("error copying %s: %v, retry %d/%d in %s",
			filepath.Base(unit.Source), res.Err, attempt, retries, c.delay)
		c.status.SetStatus(msg)
		logger.Warn().Err(res.Err).Int("attempt", attempt).Int("retries", retries).Msg("copy failed, retrying")
		if c.onRetry != nil {
			c.onRetry(ctx, unit, attempt, retries, res.Err)
		}

		if err := c.sleep(ctx, c.delay); err != nil {
			c.status.ClearStatus()
			return &CopyError{Unit: unit, Attempts: attempt, Err: err}
		}
	}
}

// attempt makes one copy attempt and classifies the result
func (c *Copier) attempt(ctx context.Context, unit planner.Unit) Result {
	if err := ctx.Err(); err != nil {
		return Result{Outcome: OutcomeTerminal, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(unit.Destination), 0755); err != nil {
		return Result{Outcome: OutcomeRetryable, Err: errors.Errorf("creating parent directories: %w", err)}
	}

	if err := c.copyFunc(ctx, unit.Source, unit.Destination); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{Outcome: OutcomeTerminal, Err: err}
		}
		return Result{Outcome: OutcomeRetryable, Err: err}
	}

	return Result{Outcome: OutcomeOK}
}

// Sleep waits for d, returning early with ctx's error if it is cancelled
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type nopStatus struct{}

func (nopStatus) SetStatus(string) {}
func (nopStatus) ClearStatus()     {}
