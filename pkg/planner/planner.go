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

// Package planner decides which files need copying.
//
// Two modes are supported. Full sync compares every source file with its
// destination counterpart (existence, then size, then content digest).
// Reconciliation (FindMissing) only looks for source files whose name does not
// appear anywhere under the destination tree, without reading content.
package planner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/smartcopy/pkg/checksum"
	"github.com/walteh/smartcopy/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

// 📦 Unit is one file to transfer
type Unit struct {
	Source      string
	Destination string
	Size        int64
}

// 📋 Plan is an ordered list of units
type Plan struct {
	Source      string // source root as given
	Destination string // resolved destination root
	Units       []Unit
	TotalBytes  int64
}

// Add appends a unit and accounts for its size
func (p *Plan) Add(u Unit) {
	p.Units = append(p.Units, u)
	p.TotalBytes += u.Size
}

// Len returns the number of units
func (p *Plan) Len() int {
	return len(p.Units)
}

// 🎯 ResolveDestination returns the destination root for a source. A directory
// source maps onto destination itself. A file source maps onto destination
// unless destination is an existing directory, in which case the source's
// name is appended.
func ResolveDestination(source string, sourceIsDir bool, destination string) string {
	if sourceIsDir {
		return destination
	}
	if info, err := os.Stat(destination); err == nil && info.IsDir() {
		return filepath.Join(destination, filepath.Base(source))
	}
	return destination
}

// Decision reasons
const (
	ReasonMissing       = "destination missing"
	ReasonSizeDiffers   = "size differs"
	ReasonNoDigest      = "digest unavailable"
	ReasonDigestDiffers = "digest differs"
	ReasonMatch         = "digest matches"
)

// ⚖️ Comparator implements the full-sync copy decision
type Comparator struct {
	hasher     *checksum.Hasher
	quickCheck bool
}

// 🏭 NewComparator creates a comparator. With quickCheck enabled a size
// mismatch decides the copy without hashing either file.
func NewComparator(hasher *checksum.Hasher, quickCheck bool) *Comparator {
	return &Comparator{
		hasher:     hasher,
		quickCheck: quickCheck,
	}
}

// 🔍 NeedsCopy reports whether dst must be (re)written from src, and why.
// Only two present, equal digests produce false.
func (c *Comparator) NeedsCopy(ctx context.Context, src, dst string) (bool, string) {
	dstInfo, err := os.Stat(dst)
	if err != nil {
		if !os.IsNotExist(err) {
			zerolog.Ctx(ctx).Debug().Err(err).Str("path", dst).Msg("stat destination")
		}
		return true, ReasonMissing
	}

	if c.quickCheck {
		if srcInfo, err := os.Stat(src); err == nil && srcInfo.Size() != dstInfo.Size() {
			return true, ReasonSizeDiffers
		}
	}

	srcSum, ok := c.hasher.Digest(ctx, src)
	if !ok {
		return true, ReasonNoDigest
	}
	dstSum, ok := c.hasher.Digest(ctx, dst)
	if !ok {
		return true, ReasonNoDigest
	}
	if srcSum != dstSum {
		return true, ReasonDigestDiffers
	}
	return false, ReasonMatch
}

// 🕳️ FindMissing builds the full plan of source files whose base name does not
// exist anywhere under the destination tree. Content is never compared.
func FindMissing(ctx context.Context, source, destination string, opts walker.Options) (*Plan, error) {
	logger := zerolog.Ctx(ctx)

	src, err := walker.New(source, opts)
	if err != nil {
		return nil, errors.Errorf("opening source: %w", err)
	}

	destRoot := ResolveDestination(source, src.IsDir(), destination)

	searchDir := destination
	if !src.IsDir() {
		if info, err := os.Stat(destination); err != nil || !info.IsDir() {
			searchDir = filepath.Dir(destination)
		}
	}

	names, err := collectNames(ctx, searchDir)
	if err != nil {
		return nil, errors.Errorf("indexing destination: %w", err)
	}
	logger.Debug().Str("dir", searchDir).Int("names", len(names)).Msg("indexed destination")

	plan := &Plan{
		Source:      source,
		Destination: destRoot,
	}

	err = src.Walk(ctx, func(e walker.Entry) error {
		if _, ok := names[filepath.Base(e.Path)]; ok {
			return nil
		}
		target := destRoot
		if src.IsDir() {
			target = filepath.Join(destRoot, e.RelPath)
		}
		plan.Add(Unit{
			Source:      e.Path,
			Destination: target,
			Size:        e.Size,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking source: %w", err)
	}

	logger.Debug().Int("units", plan.Len()).Int64("bytes", plan.TotalBytes).Msg("missing files planned")
	return plan, nil
}

// collectNames returns the base name of every file under dir. A missing dir
// yields an empty set.
func collectNames(ctx context.Context, dir string) (map[string]struct{}, error) {
	names := make(map[string]struct{})

	w, err := walker.New(dir, walker.Options{Symlinks: walker.SymlinksFollow})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return names, nil
		}
		return nil, err
	}

	err = w.Walk(ctx, func(e walker.Entry) error {
		names[filepath.Base(e.Path)] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
