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

package status

import (
	"sync"
	"sync/atomic"
	"time"
)

// 📈 ProgressSink receives byte-level progress
type ProgressSink interface {
	Advance(n int64)
	SetTotal(n int64)
	Total() int64
	Close()
}

// 📄 FileNotifier receives the name of the file being processed
type FileNotifier interface {
	SetCurrentFile(name string)
}

// 💬 StatusNotifier receives transient status messages
type StatusNotifier interface {
	SetStatus(msg string)
	ClearStatus()
}

// 🎯 Reporter is everything the copy engine writes to while it runs
type Reporter interface {
	ProgressSink
	FileNotifier
	StatusNotifier
	// Fail records the run's terminal error. Only the first call has effect.
	Fail(path string, err error)
	// Start restarts the elapsed clock when the run begins
	Start()
	// Finish marks every byte as accounted for
	Finish()
}

// ❌ TerminalError is the single error that ended a run
type TerminalError struct {
	Path string // source path of the unit that failed
	Err  error
}

func (e *TerminalError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// 📸 Snapshot is a point-in-time read of a Progress
type Snapshot struct {
	Completed   int64
	Total       int64
	CurrentFile string
	Status      string
	Err         *TerminalError
	Started     time.Time
	Done        bool
}

// Elapsed returns the time since the progress was started
func (s Snapshot) Elapsed() time.Duration {
	return time.Since(s.Started)
}

// 🔧 Progress is the shared state between the copy worker (sole writer) and
// any number of display readers.
//
// The counters are atomic and the strings are guarded by a lock, but the
// fields are not updated together: a reader may see a newer byte count next
// to an older file name. That is fine for display and must not be used for
// anything else.
type Progress struct {
	completed atomic.Int64
	total     atomic.Int64

	mu          sync.RWMutex
	started     time.Time
	currentFile string
	status      string
	terminal    *TerminalError

	done      chan struct{}
	closeOnce sync.Once
}

var _ Reporter = (*Progress)(nil)

// 🏭 NewProgress creates an empty progress state
func NewProgress() *Progress {
	return &Progress{
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// Advance adds n completed bytes, never going past the total
func (p *Progress) Advance(n int64) {
	if n <= 0 {
		return
	}
	for {
		cur := p.completed.Load()
		next := min(cur+n, p.total.Load())
		if next <= cur {
			return
		}
		if p.completed.CompareAndSwap(cur, next) {
			return
		}
	}
}

// SetTotal sets the progress denominator
func (p *Progress) SetTotal(n int64) {
	p.total.Store(n)
}

// Total returns the progress denominator
func (p *Progress) Total() int64 {
	return p.total.Load()
}

// Completed returns the bytes accounted for so far
func (p *Progress) Completed() int64 {
	return p.completed.Load()
}

// Start resets the clock so time spent before the run, such as a prompt,
// does not count against throughput
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = time.Now()
}

// Finish marks every byte as accounted for
func (p *Progress) Finish() {
	p.Advance(p.total.Load())
}

// Close signals readers that the worker is done. Safe to call more than once.
func (p *Progress) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// Done is closed once the worker has finished
func (p *Progress) Done() <-chan struct{} {
	return p.done
}

func (p *Progress) SetCurrentFile(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentFile = name
}

func (p *Progress) SetStatus(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = msg
}

func (p *Progress) ClearStatus() {
	p.SetStatus("")
}

func (p *Progress) Fail(path string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminal != nil {
		return
	}
	p.terminal = &TerminalError{Path: path, Err: err}
	p.status = ""
}

// Err returns the terminal error, or nil
func (p *Progress) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.terminal == nil {
		return nil
	}
	return p.terminal
}

// Snapshot reads the current state
func (p *Progress) Snapshot() Snapshot {
	p.mu.RLock()
	s := Snapshot{
		CurrentFile: p.currentFile,
		Status:      p.status,
		Err:         p.terminal,
		Started:     p.started,
	}
	p.mu.RUnlock()

	s.Completed = p.completed.Load()
	s.Total = p.total.Load()
	select {
	case <-p.done:
		s.Done = true
	default:
	}
	return s
}
