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
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/smartcopy/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// RunFunc is one run of the orchestrator
type RunFunc func(ctx context.Context) (Result, error)

// 🏃 Runner executes a run on a dedicated worker goroutine
type Runner struct {
	done   chan struct{}
	result Result
	err    error
}

// ⚡ Start runs fn in the background. The sink is closed once fn returns,
// which is how samplers learn the worker has finished.
func Start(ctx context.Context, sink status.ProgressSink, fn RunFunc) *Runner {
	r := &Runner{done: make(chan struct{})}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sink.Close()
		r.result, r.err = fn(ctx)
		if r.err != nil {
			zerolog.Ctx(ctx).Debug().Err(r.err).Str("state", r.result.State.String()).Msg("worker finished with error")
		}
	}()

	go func() {
		wg.Wait()
		close(r.done)
	}()

	return r
}

// Done is closed once the worker has returned
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// 🔄 Wait blocks until the worker returns or ctx is done. On ctx the worker
// is left running and the caller decides whether to wait for it.
func (r *Runner) Wait(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{State: StateCancelled}, errors.Errorf("operation cancelled: %w", ctx.Err())
	case <-r.done:
		return r.result, r.err
	}
}
