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

package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/smartcopy/pkg/checksum"
	"github.com/walteh/smartcopy/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

// DefaultFile is the config file looked up when none is given
const DefaultFile = ".smartcopy.yaml"

// Progress modes
const (
	ProgressAuto  = "auto"
	ProgressTTY   = "tty"
	ProgressPlain = "plain"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse overlays the file's values onto cfg
	Parse(ctx context.Context, data []byte, cfg *Config) error

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// ⏱️ Duration is a time.Duration written as a string such as "3s"
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return errors.Errorf("parsing duration: %w", err)
	}
	*d = Duration(parsed)
	return nil
}

// 📚 Config represents the complete configuration
type Config struct {
	Retries    int      `json:"retries" yaml:"retries"`
	RetryDelay Duration `json:"retry_delay" yaml:"retry_delay"`
	Hash       string   `json:"hash" yaml:"hash"`
	Symlinks   string   `json:"symlinks" yaml:"symlinks"`
	Exclude    []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Interval   Duration `json:"interval" yaml:"interval"`
	Progress   string   `json:"progress" yaml:"progress"`
	QuickCheck bool     `json:"quick_check" yaml:"quick_check"`
}

// 🏭 Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Retries:    3,
		RetryDelay: Duration(3 * time.Second),
		Hash:       string(checksum.MD5),
		Symlinks:   string(walker.SymlinksSkip),
		Interval:   Duration(time.Second),
		Progress:   ProgressAuto,
		QuickCheck: true,
	}
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg := Default()
	if err := p.Parse(ctx, data, cfg); err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, falling back to Default when path is the
// implicit default file and does not exist
func LoadOrDefault(ctx context.Context, path string, explicit bool) (*Config, error) {
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no config file, using defaults")
			return Default(), nil
		}
	}
	return Load(ctx, path)
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.Retries < 0 {
		return errors.Errorf("retries must not be negative, got %d", cfg.Retries)
	}
	if cfg.RetryDelay <= 0 {
		return errors.Errorf("retry_delay must be positive")
	}
	if cfg.Interval <= 0 {
		return errors.Errorf("interval must be positive")
	}
	if _, err := checksum.ParseAlgorithm(cfg.Hash); err != nil {
		return err
	}
	if _, err := walker.ParseSymlinkPolicy(cfg.Symlinks); err != nil {
		return err
	}
	switch cfg.Progress {
	case "":
		cfg.Progress = ProgressAuto
	case ProgressAuto, ProgressTTY, ProgressPlain:
	default:
		return errors.Errorf("unknown progress mode %q", cfg.Progress)
	}

	// Set defaults
	if cfg.Hash == "" {
		cfg.Hash = string(checksum.MD5)
	}
	if cfg.Symlinks == "" {
		cfg.Symlinks = string(walker.SymlinksSkip)
	}

	return nil
}

// HashAlgorithm returns the configured digest algorithm
func (cfg *Config) HashAlgorithm() checksum.Algorithm {
	algo, _ := checksum.ParseAlgorithm(cfg.Hash)
	return algo
}

// WalkerOptions returns the walker settings
func (cfg *Config) WalkerOptions() walker.Options {
	policy, _ := walker.ParseSymlinkPolicy(cfg.Symlinks)
	return walker.Options{
		Excludes: cfg.Exclude,
		Symlinks: policy,
	}
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("retries=%d delay=%s hash=%s symlinks=%s excludes=%d",
		cfg.Retries, time.Duration(cfg.RetryDelay), cfg.Hash, cfg.Symlinks, len(cfg.Exclude))
}
