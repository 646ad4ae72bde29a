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

package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

// 🧪 createTree writes files (relative path -> content) under a fresh temp dir
func createTree(t *testing.T, files map[string]string) string {
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func collect(t *testing.T, w *Walker) []Entry {
	var entries []Entry
	require.NoError(t, w.Walk(testContext(t), func(e Entry) error {
		entries = append(entries, e)
		return nil
	}))
	return entries
}

func relPaths(entries []Entry) []string {
	var paths []string
	for _, e := range entries {
		paths = append(paths, filepath.ToSlash(e.RelPath))
	}
	return paths
}

func TestWalk(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		excludes []string
		want     []string
		wantSize int64
	}{
		{
			name:     "nested_lexical_order",
			files:    map[string]string{"b.txt": "bb", "a/2.txt": "22", "a/1.txt": "1"},
			want:     []string{"a/1.txt", "a/2.txt", "b.txt"},
			wantSize: 5,
		},
		{
			name:     "empty_directory",
			files:    map[string]string{},
			want:     nil,
			wantSize: 0,
		},
		{
			name:     "file_pattern_excluded",
			files:    map[string]string{"keep.txt": "k", "drop.log": "dd", "sub/drop.log": "d"},
			excludes: []string{"**/*.log"},
			want:     []string{"keep.txt"},
			wantSize: 1,
		},
		{
			name:     "directory_pattern_excluded",
			files:    map[string]string{"keep.txt": "k", "cache/x.bin": "xx", "cache/deep/y.bin": "y"},
			excludes: []string{"cache/"},
			want:     []string{"keep.txt"},
			wantSize: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := createTree(t, tt.files)
			w, err := New(root, Options{Excludes: tt.excludes})
			require.NoError(t, err)

			assert.Equal(t, tt.want, relPaths(collect(t, w)), "walk order should match")

			size, err := w.TotalSize(testContext(t))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, size, "total size should match")
		})
	}
}

func TestWalkSingleFileRoot(t *testing.T) {
	root := createTree(t, map[string]string{"a.txt": "0123456789"})
	w, err := New(filepath.Join(root, "a.txt"), Options{})
	require.NoError(t, err)
	assert.False(t, w.IsDir())

	entries := collect(t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].RelPath, "single file rel path should be its own name")
	assert.Equal(t, int64(10), entries[0].Size)
}

func TestWalkSymlinkPolicy(t *testing.T) {
	root := createTree(t, map[string]string{"real.txt": "12345"})
	outside := createTree(t, map[string]string{"target.txt": "abc"})
	if err := os.Symlink(filepath.Join(outside, "target.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	t.Run("skip", func(t *testing.T) {
		w, err := New(root, Options{Symlinks: SymlinksSkip})
		require.NoError(t, err)
		assert.Equal(t, []string{"real.txt"}, relPaths(collect(t, w)))

		size, err := w.TotalSize(testContext(t))
		require.NoError(t, err)
		assert.Equal(t, int64(5), size, "links should be excluded from totals")
	})

	t.Run("follow", func(t *testing.T) {
		w, err := New(root, Options{Symlinks: SymlinksFollow})
		require.NoError(t, err)
		assert.Equal(t, []string{"link.txt", "real.txt"}, relPaths(collect(t, w)))

		size, err := w.TotalSize(testContext(t))
		require.NoError(t, err)
		assert.Equal(t, int64(8), size, "followed links count their target size")
	})
}

func TestWalkSymlinkedRoot(t *testing.T) {
	target := createTree(t, map[string]string{"a.txt": "aaa", "sub/b.txt": "bb"})
	links := t.TempDir()
	dirLink := filepath.Join(links, "dir")
	fileLink := filepath.Join(links, "file.txt")
	if err := os.Symlink(target, dirLink); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(target, "a.txt"), fileLink))

	tests := []struct {
		name      string
		root      string
		wantDir   bool
		wantRel   []string
		wantPaths []string
	}{
		{
			name:      "directory",
			root:      dirLink,
			wantDir:   true,
			wantRel:   []string{"a.txt", "sub/b.txt"},
			wantPaths: []string{filepath.Join(dirLink, "a.txt"), filepath.Join(dirLink, "sub", "b.txt")},
		},
		{
			name:      "single_file",
			root:      fileLink,
			wantRel:   []string{"file.txt"},
			wantPaths: []string{fileLink},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the policy only covers links below the root
			w, err := New(tt.root, Options{Symlinks: SymlinksSkip})
			require.NoError(t, err)
			assert.Equal(t, tt.wantDir, w.IsDir())

			entries := collect(t, w)
			assert.Equal(t, tt.wantRel, relPaths(entries))

			var paths []string
			for _, e := range entries {
				paths = append(paths, e.Path)
			}
			assert.Equal(t, tt.wantPaths, paths, "paths should stay under the given root")
		})
	}
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	root := createTree(t, map[string]string{"a.txt": "a", "b.txt": "b"})
	w, err := New(root, Options{})
	require.NoError(t, err)

	stop := assert.AnError
	var seen int
	err = w.Walk(testContext(t), func(e Entry) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen, "walk should stop after the first error")
}

func TestWalkCancelled(t *testing.T) {
	root := createTree(t, map[string]string{"a.txt": "a"})
	w, err := New(root, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()
	err = w.Walk(ctx, func(e Entry) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseSymlinkPolicy(t *testing.T) {
	p, err := ParseSymlinkPolicy("")
	require.NoError(t, err)
	assert.Equal(t, SymlinksSkip, p)

	p, err = ParseSymlinkPolicy("follow")
	require.NoError(t, err)
	assert.Equal(t, SymlinksFollow, p)

	_, err = ParseSymlinkPolicy("preserve")
	assert.Error(t, err)
}
