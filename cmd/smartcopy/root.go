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

package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/smartcopy/cmd/smartcopy/opts"
	"github.com/walteh/smartcopy/pkg/checksum"
	"github.com/walteh/smartcopy/pkg/config"
	"github.com/walteh/smartcopy/pkg/log"
	"github.com/walteh/smartcopy/pkg/monitor"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/term"
)

// rootFlags holds every persistent flag
type rootFlags struct {
	configFile string
	retries    int
	retryDelay time.Duration
	hash       string
	symlinks   string
	exclude    []string
	interval   time.Duration
	progress   string
	quickCheck bool
	yes        bool
	debug      bool
	verbose    bool
}

func addRootFlags(cmd *cobra.Command, f *rootFlags) {
	defaults := config.Default()
	flags := cmd.PersistentFlags()
	flags.StringVarP(&f.configFile, "config", "c", config.DefaultFile, "config file path")
	flags.IntVarP(&f.retries, "retries", "r", defaults.Retries, "retries per file after the first attempt")
	flags.DurationVar(&f.retryDelay, "retry-delay", time.Duration(defaults.RetryDelay), "wait between attempts")
	flags.StringVar(&f.hash, "hash", defaults.Hash, "digest used to compare files ("+hashNames()+")")
	flags.StringVar(&f.symlinks, "symlinks", defaults.Symlinks, "symlink policy (skip, follow)")
	flags.StringSliceVarP(&f.exclude, "exclude", "e", nil, "glob of source paths to leave out, repeatable")
	flags.DurationVar(&f.interval, "interval", time.Duration(defaults.Interval), "progress sampling interval")
	flags.StringVar(&f.progress, "progress", defaults.Progress, "progress display (auto, tty, plain)")
	flags.BoolVar(&f.quickCheck, "quick-check", defaults.QuickCheck, "treat a size difference as changed without hashing")
	flags.BoolVarP(&f.yes, "yes", "y", false, "skip the confirmation prompt")
	flags.BoolVarP(&f.debug, "debug", "d", false, "enable debug logging")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "print unchanged files and info logs")
}

func hashNames() string {
	names := make([]string, 0, len(checksum.Algorithms))
	for _, algo := range checksum.Algorithms {
		names = append(names, string(algo))
	}
	return strings.Join(names, ", ")
}

// newRootOpts loads the config file and applies any flags set on the command line
func newRootOpts(cmd *cobra.Command, f *rootFlags) (*opts.RootOpts, error) {
	logger := newLogger(f)
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.LoadOrDefault(ctx, f.configFile, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	applyFlags(cmd, f, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating flags: %w", err)
	}
	logger.Debug().Str("config", cfg.String()).Msg("configuration loaded")

	cmd.SetContext(ctx)

	return &opts.RootOpts{
		Config:  cfg,
		Logger:  log.New(consoleWriter(cfg, f), logger, f.verbose),
		Yes:     f.yes,
		Verbose: f.verbose,
	}, nil
}

// applyFlags overrides config values with flags the user set explicitly
func applyFlags(cmd *cobra.Command, f *rootFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("retries") {
		cfg.Retries = f.retries
	}
	if changed("retry-delay") {
		cfg.RetryDelay = config.Duration(f.retryDelay)
	}
	if changed("hash") {
		cfg.Hash = f.hash
	}
	if changed("symlinks") {
		cfg.Symlinks = f.symlinks
	}
	if changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, f.exclude...)
	}
	if changed("interval") {
		cfg.Interval = config.Duration(f.interval)
	}
	if changed("progress") {
		cfg.Progress = f.progress
	}
	if changed("quick-check") {
		cfg.QuickCheck = f.quickCheck
	}
}

func newLogger(f *rootFlags) zerolog.Logger {
	level := zerolog.ErrorLevel
	switch {
	case f.debug:
		level = zerolog.DebugLevel
	case f.verbose:
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// consoleWriter keeps per-file lines off the terminal while a bar is drawn,
// unless the user asked for them
func consoleWriter(cfg *config.Config, f *rootFlags) io.Writer {
	if f.verbose || f.debug {
		return os.Stdout
	}
	switch cfg.Progress {
	case monitor.ModePlain:
		return os.Stdout
	case monitor.ModeTTY:
		return io.Discard
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return io.Discard
	}
	return os.Stdout
}
