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
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressAdvanceNeverExceedsTotal(t *testing.T) {
	p := NewProgress()
	p.SetTotal(100)

	p.Advance(40)
	assert.Equal(t, int64(40), p.Completed())

	p.Advance(80)
	assert.Equal(t, int64(100), p.Completed(), "advance should clamp at total")

	p.Advance(1)
	assert.Equal(t, int64(100), p.Completed())

	p.Advance(-5)
	assert.Equal(t, int64(100), p.Completed(), "negative advance is ignored")
}

func TestProgressFinish(t *testing.T) {
	p := NewProgress()
	p.SetTotal(10)
	p.Advance(3)
	p.Finish()
	assert.Equal(t, int64(10), p.Completed())
}

func TestProgressStartResetsClock(t *testing.T) {
	p := NewProgress()
	created := p.Snapshot().Started

	time.Sleep(20 * time.Millisecond)
	p.Start()

	started := p.Snapshot().Started
	assert.True(t, started.After(created), "start should move the clock forward")
	assert.GreaterOrEqual(t, started.Sub(created), 20*time.Millisecond, "time before start should not count")
}

func TestProgressConcurrentAdvance(t *testing.T) {
	p := NewProgress()
	p.SetTotal(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Advance(1)
				_ = p.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), p.Completed())
}

func TestProgressFailIsSetOnce(t *testing.T) {
	p := NewProgress()
	p.SetStatus("retry 1/3")

	first := assert.AnError
	p.Fail("/src/c.txt", first)
	p.Fail("/src/d.txt", assert.AnError)

	err := p.Err()
	require.Error(t, err)
	var te *TerminalError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "/src/c.txt", te.Path, "first failure should win")
	assert.ErrorIs(t, err, first)

	snap := p.Snapshot()
	assert.Empty(t, snap.Status, "failure should clear the status message")
	assert.NotNil(t, snap.Err)
}

func TestProgressSnapshotAndClose(t *testing.T) {
	p := NewProgress()
	p.SetTotal(5)
	p.Advance(2)
	p.SetCurrentFile("a.txt")
	p.SetStatus("busy")

	snap := p.Snapshot()
	assert.Equal(t, int64(2), snap.Completed)
	assert.Equal(t, int64(5), snap.Total)
	assert.Equal(t, "a.txt", snap.CurrentFile)
	assert.Equal(t, "busy", snap.Status)
	assert.False(t, snap.Done)
	assert.Nil(t, p.Err())

	p.ClearStatus()
	p.Close()
	p.Close()

	snap = p.Snapshot()
	assert.Empty(t, snap.Status)
	assert.True(t, snap.Done)

	select {
	case <-p.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestFormatter(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	f := NewDefaultFileFormatter()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "copied", got: f.FormatFileEvent("a.txt", ActionCopied, ""), want: "✨ Copied a.txt"},
		{name: "skipped", got: f.FormatFileEvent("a.txt", ActionSkipped, "digest matches"), want: "👍 Unchanged a.txt (digest matches)"},
		{name: "retrying", got: f.FormatFileEvent("a.txt", ActionRetrying, "attempt 2/3"), want: "🔁 Retrying a.txt (attempt 2/3)"},
		{name: "failed", got: f.FormatFileEvent("a.txt", ActionFailed, ""), want: "❌ Failed a.txt"},
		{name: "missing", got: f.FormatFileEvent("a.txt", ActionMissing, ""), want: "🕳️  Missing a.txt"},
		{name: "progress_partial", got: f.FormatProgress(512, 2048), want: "⏳ Progress: 512 B/2.0 KiB (25%)"},
		{name: "progress_done", got: f.FormatProgress(2048, 2048), want: "✅ Progress: 2.0 KiB/2.0 KiB (100%)"},
		{name: "progress_empty", got: f.FormatProgress(0, 0), want: "✅ Progress: 0 B/0 B (0%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
