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

// Package walker enumerates the regular files under a source path.
package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔗 SymlinkPolicy controls how symbolic links are treated
type SymlinkPolicy string

const (
	// SymlinksSkip leaves links out of both sizing and copying
	SymlinksSkip SymlinkPolicy = "skip"
	// SymlinksFollow treats a link to a regular file as that file
	SymlinksFollow SymlinkPolicy = "follow"
)

// ParseSymlinkPolicy maps a config value to a policy. An empty value selects SymlinksSkip.
func ParseSymlinkPolicy(s string) (SymlinkPolicy, error) {
	switch SymlinkPolicy(s) {
	case "":
		return SymlinksSkip, nil
	case SymlinksSkip, SymlinksFollow:
		return SymlinkPolicy(s), nil
	default:
		return "", errors.Errorf("unknown symlink policy %q", s)
	}
}

// 📄 Entry is one regular file found under the root
type Entry struct {
	Path    string // Absolute path
	RelPath string // Relative path from root
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
}

// 🔧 Options configures a Walker
type Options struct {
	Excludes []string      // doublestar patterns matched against forward-slash relative paths
	Symlinks SymlinkPolicy // defaults to SymlinksSkip
}

// 🚶 Walker walks a file or directory tree in lexical order
type Walker struct {
	root     string // as given, made absolute
	resolved string // root with symlinks evaluated
	isDir    bool
	opts     Options
}

// 🏭 New creates a walker rooted at root, which must exist
func New(root string, opts Options) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("getting absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, errors.Errorf("stat root: %w", err)
	}

	// an explicitly named root is always followed, the policy only covers links found below it
	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, errors.Errorf("resolving root: %w", err)
	}

	if opts.Symlinks == "" {
		opts.Symlinks = SymlinksSkip
	}

	return &Walker{
		root:     absRoot,
		resolved: resolved,
		isDir:    info.IsDir(),
		opts:     opts,
	}, nil
}

// Root returns the absolute root path as given, links unresolved
func (w *Walker) Root() string {
	return w.root
}

// IsDir reports whether the root is a directory
func (w *Walker) IsDir() bool {
	return w.isDir
}

// 🔄 Walk calls fn for every file under the root. A file root yields exactly one
// entry whose RelPath is its own name. Returning an error from fn stops the walk
// and that error is returned unchanged.
func (w *Walker) Walk(ctx context.Context, fn func(Entry) error) error {
	if !w.isDir {
		entry, ok, err := w.entryFor(w.resolved, w.root, filepath.Base(w.root))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return fn(entry)
	}

	logger := zerolog.Ctx(ctx)

	err := filepath.WalkDir(w.resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subdirectories are skipped, an unreadable root is fatal
			if d != nil && d.IsDir() && path != w.resolved {
				logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable directory")
				return fs.SkipDir
			}
			return errors.Errorf("walking %s: %w", path, err)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if path == w.resolved {
			return nil
		}

		relPath, err := filepath.Rel(w.resolved, path)
		if err != nil {
			return errors.Errorf("getting relative path: %w", err)
		}

		if w.isExcluded(filepath.ToSlash(relPath)) {
			logger.Debug().Str("path", relPath).Msg("excluded by pattern")
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		entry, ok, err := w.entryFor(path, filepath.Join(w.root, relPath), relPath)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return fn(entry)
	})
	if err != nil {
		return err
	}

	return nil
}

// 📏 TotalSize sums the size of every file Walk would yield
func (w *Walker) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	err := w.Walk(ctx, func(e Entry) error {
		total += e.Size
		return nil
	})
	if err != nil {
		return 0, errors.Errorf("calculating total size: %w", err)
	}
	return total, nil
}

// entryFor stats onDisk and builds an Entry reported under path, returning false
// for anything that is not (or, under SymlinksFollow, does not resolve to) a
// regular file
func (w *Walker) entryFor(onDisk, path, relPath string) (Entry, bool, error) {
	info, err := os.Lstat(onDisk)
	if err != nil {
		return Entry{}, false, errors.Errorf("stat %s: %w", onDisk, err)
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		if w.opts.Symlinks != SymlinksFollow {
			return Entry{}, false, nil
		}
		info, err = os.Stat(onDisk)
		if err != nil {
			// dangling link
			return Entry{}, false, nil
		}
	}

	if !info.Mode().IsRegular() {
		return Entry{}, false, nil
	}

	return Entry{
		Path:    path,
		RelPath: relPath,
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}, true, nil
}

// isExcluded checks if a path matches any exclude pattern
func (w *Walker) isExcluded(path string) bool {
	for _, pattern := range w.opts.Excludes {
		// Handle directory patterns (ending with /)
		if dirPattern, ok := strings.CutSuffix(pattern, "/"); ok {
			parts := strings.Split(path, "/")
			for i := 1; i <= len(parts); i++ {
				if matched, _ := doublestar.Match(dirPattern, strings.Join(parts[:i], "/")); matched {
					return true
				}
			}
			continue
		}
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}
