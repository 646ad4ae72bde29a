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

// Package checksum computes content digests used to decide whether a
// destination file already matches its source.
package checksum

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const bufferSize = 64 * 1024 // 64KB buffer

// 🔑 Algorithm names a digest implementation
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
	XXHash Algorithm = "xxhash"
)

// Algorithms lists every supported algorithm in display order
var Algorithms = []Algorithm{MD5, SHA256, XXHash}

// ParseAlgorithm maps a config value to an Algorithm. An empty name selects MD5.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "":
		return MD5, nil
	case MD5, SHA256, XXHash:
		return Algorithm(name), nil
	default:
		return "", errors.Errorf("unknown hash algorithm %q", name)
	}
}

func (a Algorithm) newHash() hash.Hash {
	switch a {
	case SHA256:
		return sha256.New()
	case XXHash:
		return xxhash.New()
	default:
		return md5.New()
	}
}

// 🧮 Hasher computes file digests
type Hasher struct {
	algo Algorithm
}

// 🏭 New creates a hasher for the given algorithm
func New(algo Algorithm) *Hasher {
	if algo == "" {
		algo = MD5
	}
	return &Hasher{algo: algo}
}

// Algorithm returns the algorithm this hasher uses
func (h *Hasher) Algorithm() Algorithm {
	return h.algo
}

// 🔍 Digest returns the hex digest of the file at path. The second return value
// is false when the file could not be read; callers must treat that as
// "cannot confirm equality".
func (h *Hasher) Digest(ctx context.Context, path string) (string, bool) {
	file, err := os.Open(path)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("digest unavailable")
		return "", false
	}
	defer file.Close()

	sum, err := h.Sum(file)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("digest unavailable")
		return "", false
	}
	return sum, true
}

// Sum reads r to EOF in 64KB chunks and returns the hex digest
func (h *Hasher) Sum(r io.Reader) (string, error) {
	digest := h.algo.newHash()
	buffer := make([]byte, bufferSize)

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			if _, err := digest.Write(buffer[:n]); err != nil {
				return "", errors.Errorf("writing to hash: %w", err)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Errorf("reading: %w", err)
		}
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}
