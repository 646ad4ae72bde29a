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

package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/walteh/smartcopy/pkg/status"
)

const (
	// DefaultInterval is how often progress is sampled
	DefaultInterval = time.Second
	// fileNameWidth is the widest file name shown in a frame
	fileNameWidth = 30
	// completeLabel replaces the file name in the final frame
	completeLabel = "Complete"
	// failedLabel replaces it when the run ended on a terminal error
	failedLabel = "Failed"
)

// Source is the progress state the monitor reads
type Source interface {
	Snapshot() status.Snapshot
	Done() <-chan struct{}
}

// 🖼️ Frame is everything shown for one sample
type Frame struct {
	Snapshot   status.Snapshot
	Speed      float64 // bytes per second since the run started
	Host       Sample
	UpPerSec   float64
	DownPerSec float64
	Final      bool
}

// Title renders the one-line summary shown next to the bar
func (f Frame) Title() string {
	name := f.Snapshot.CurrentFile
	if f.Final {
		name = completeLabel
		if f.Snapshot.Err != nil {
			name = failedLabel
		}
	}

	parts := []string{
		fmt.Sprintf("%s/s", humanize.IBytes(uint64(max(f.Speed, 0)))),
		fmt.Sprintf("CPU %.0f%%", f.Host.CPUPercent),
		fmt.Sprintf("RAM %.0f%%", f.Host.MemPercent),
		fmt.Sprintf("↑ %s/s ↓ %s/s", humanize.IBytes(uint64(max(f.UpPerSec, 0))), humanize.IBytes(uint64(max(f.DownPerSec, 0)))),
		"File: " + Truncate(name, fileNameWidth),
	}
	if f.Snapshot.Status != "" && !f.Final {
		parts = append(parts, f.Snapshot.Status)
	}
	return strings.Join(parts, " | ")
}

// Truncate shortens s to at most width runes, marking the cut with "..."
func Truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// Renderer draws frames
type Renderer interface {
	// Update draws an in-flight frame
	Update(f Frame)
	// Stop draws the final frame and releases the terminal
	Stop(f Frame)
}

// 🔧 Options configures a Monitor
type Options struct {
	Source    Source
	Telemetry Telemetry // SystemTelemetry when nil
	Renderer  Renderer
	Interval  time.Duration // DefaultInterval when zero
}

// 📺 Monitor samples a Source until it is done
type Monitor struct {
	source    Source
	telemetry Telemetry
	renderer  Renderer
	interval  time.Duration
	now       func() time.Time

	last     Sample
	lastTime time.Time
}

// 🏭 New creates a monitor
func New(opts Options) *Monitor {
	m := &Monitor{
		source:    opts.Source,
		telemetry: opts.Telemetry,
		renderer:  opts.Renderer,
		interval:  opts.Interval,
		now:       time.Now,
	}
	if m.telemetry == nil {
		m.telemetry = SystemTelemetry{}
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	return m
}

// 🔄 Run samples on every tick until the source is done or ctx is cancelled.
// The final frame is only drawn when the source finishes.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.last, _ = m.telemetry.Sample(ctx)
	m.lastTime = m.now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.source.Done():
			m.renderer.Stop(m.frame(ctx, true))
			return nil
		case <-ticker.C:
			m.renderer.Update(m.frame(ctx, false))
		}
	}
}

// frame samples the source and the host
func (m *Monitor) frame(ctx context.Context, final bool) Frame {
	snap := m.source.Snapshot()
	now := m.now()

	f := Frame{
		Snapshot: snap,
		Final:    final,
	}
	if elapsed := now.Sub(snap.Started).Seconds(); elapsed > 0 {
		f.Speed = float64(snap.Completed) / elapsed
	}

	host, err := m.telemetry.Sample(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("sampling host telemetry")
		host = m.last
	}
	f.Host = host

	if secs := now.Sub(m.lastTime).Seconds(); secs > 0 {
		f.UpPerSec = rate(m.last.BytesSent, host.BytesSent, secs)
		f.DownPerSec = rate(m.last.BytesRecv, host.BytesRecv, secs)
	}
	m.last = host
	m.lastTime = now

	return f
}

// rate is the per-second change between two cumulative counters. Counters
// that went backwards (interface reset) read as zero.
func rate(prev, cur uint64, secs float64) float64 {
	if cur < prev {
		return 0
	}
	return float64(cur-prev) / secs
}
