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

package copier

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/smartcopy/pkg/planner"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

// 📝 recordingStatus captures status notifications
type recordingStatus struct {
	mu       sync.Mutex
	messages []string
	current  string
}

func (r *recordingStatus) SetStatus(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	r.current = msg
}

func (r *recordingStatus) ClearStatus() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = ""
}

// 🧪 fakeSleep records requested delays without waiting
type fakeSleep struct {
	delays []time.Duration
	err    error
}

func (f *fakeSleep) sleep(ctx context.Context, d time.Duration) error {
	f.delays = append(f.delays, d)
	return f.err
}

func failingCopy(failures int, calls *int) CopyFunc {
	return func(ctx context.Context, src, dst string) error {
		*calls++
		if *calls <= failures {
			return errors.Errorf("destination locked")
		}
		return CopyFile(ctx, src, dst)
	}
}

func newUnit(t *testing.T, content string) planner.Unit {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "c.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
	require.NoError(t, os.WriteFile(src, []byte(content), 0640))
	return planner.Unit{
		Source:      src,
		Destination: filepath.Join(dir, "dst", "nested", "c.txt"),
		Size:        int64(len(content)),
	}
}

func TestCopyRetryBound(t *testing.T) {
	for _, retries := range []int{0, 1, 2, 5} {
		t.Run(fmt.Sprintf("retries_%d", retries), func(t *testing.T) {
			ctx := testContext(t)
			unit := newUnit(t, "locked")

			var calls int
			sleeper := &fakeSleep{}
			st := &recordingStatus{}
			c := New(Options{
				Delay:    3 * time.Second,
				Status:   st,
				CopyFunc: failingCopy(1000, &calls),
				Sleep:    sleeper.sleep,
			})

			err := c.Copy(ctx, unit, retries)
			require.Error(t, err)

			assert.Equal(t, retries+1, calls, "should make exactly retries+1 attempts")
			assert.Len(t, sleeper.delays, retries, "should pause between attempts only")
			for _, d := range sleeper.delays {
				assert.Equal(t, 3*time.Second, d, "backoff should be constant")
			}

			var copyErr *CopyError
			require.ErrorAs(t, err, &copyErr)
			assert.Equal(t, retries+1, copyErr.Attempts)
			assert.Equal(t, unit.Source, copyErr.Unit.Source)
			assert.ErrorIs(t, err, ErrAttemptsExhausted)
			assert.Contains(t, err.Error(), "c.txt")

			assert.Len(t, st.messages, retries, "one status message per retry")
			assert.Empty(t, st.current, "status should be cleared after final failure")
		})
	}
}

func TestCopySucceedsAfterTransientFailures(t *testing.T) {
	ctx := testContext(t)
	unit := newUnit(t, "eventually")

	var calls int
	sleeper := &fakeSleep{}
	st := &recordingStatus{}
	var retried []int
	c := New(Options{
		Status:   st,
		CopyFunc: failingCopy(2, &calls),
		Sleep:    sleeper.sleep,
		OnRetry: func(ctx context.Context, u planner.Unit, attempt, retries int, err error) {
			assert.Equal(t, unit.Source, u.Source)
			assert.Equal(t, 3, retries)
			assert.ErrorContains(t, err, "destination locked")
			retried = append(retried, attempt)
		},
	})

	require.NoError(t, c.Copy(ctx, unit, 3))
	assert.Equal(t, []int{1, 2}, retried, "each retried attempt should be reported")
	assert.Equal(t, 3, calls)
	assert.Len(t, sleeper.delays, 2)
	assert.Equal(t, DefaultDelay, sleeper.delays[0], "zero delay should fall back to the default")
	require.Len(t, st.messages, 2)
	assert.Contains(t, st.messages[0], "retry 1/3")
	assert.Contains(t, st.messages[1], "retry 2/3")
	assert.Empty(t, st.current, "status should be cleared on success")

	got, err := os.ReadFile(unit.Destination)
	require.NoError(t, err)
	assert.Equal(t, "eventually", string(got))
}

func TestCopyCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()
	unit := newUnit(t, "x")

	var calls int
	c := New(Options{
		CopyFunc: failingCopy(1000, &calls),
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return Sleep(ctx, d)
		},
	})

	err := c.Copy(ctx, unit, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, 1, calls, "no attempt after cancellation")
}

func TestCopyTerminalAttemptIsNotRetried(t *testing.T) {
	ctx := testContext(t)
	unit := newUnit(t, "x")

	var calls int
	c := New(Options{
		CopyFunc: func(ctx context.Context, src, dst string) error {
			calls++
			return errors.Errorf("copying: %w", context.DeadlineExceeded)
		},
		Sleep: (&fakeSleep{}).sleep,
	})

	err := c.Copy(ctx, unit, 3)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAttemptOutcomes(t *testing.T) {
	ctx := testContext(t)
	unit := newUnit(t, "x")

	ok := New(Options{}).attempt(ctx, unit)
	assert.Equal(t, OutcomeOK, ok.Outcome)

	retry := New(Options{CopyFunc: func(context.Context, string, string) error { return assert.AnError }}).attempt(ctx, unit)
	assert.Equal(t, OutcomeRetryable, retry.Outcome)
	assert.ErrorIs(t, retry.Err, assert.AnError)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	terminal := New(Options{}).attempt(cancelled, unit)
	assert.Equal(t, OutcomeTerminal, terminal.Outcome)
	assert.Equal(t, "terminal", terminal.Outcome.String())
}

func TestCopyFilePreservesMetadata(t *testing.T) {
	ctx := testContext(t)
	unit := newUnit(t, "metadata")

	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(unit.Source, mtime, mtime))
	require.NoError(t, os.MkdirAll(filepath.Dir(unit.Destination), 0755))

	require.NoError(t, CopyFile(ctx, unit.Source, unit.Destination))

	srcInfo, err := os.Stat(unit.Source)
	require.NoError(t, err)
	dstInfo, err := os.Stat(unit.Destination)
	require.NoError(t, err)

	assert.Equal(t, srcInfo.Mode().Perm(), dstInfo.Mode().Perm(), "permissions should be preserved")
	assert.True(t, mtime.Equal(dstInfo.ModTime()), "modification time should be preserved")

	entries, err := os.ReadDir(filepath.Dir(unit.Destination))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should remain")
}

func TestCopyFileMissingSourceLeavesNothing(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()

	err := CopyFile(ctx, filepath.Join(dir, "gone.txt"), filepath.Join(dir, "out.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCopyFileOverwritesExisting(t *testing.T) {
	ctx := testContext(t)
	unit := newUnit(t, "new content")
	require.NoError(t, os.MkdirAll(filepath.Dir(unit.Destination), 0755))
	require.NoError(t, os.WriteFile(unit.Destination, []byte("old content that is longer"), 0644))

	require.NoError(t, CopyFile(ctx, unit.Source, unit.Destination))

	got, err := os.ReadFile(unit.Destination)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(got))
}
