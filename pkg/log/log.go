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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/smartcopy/pkg/status"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	actionWidth = 10 // Width for action text
)

// 🎯 FileEvent represents the outcome for one file
type FileEvent struct {
	Path   string        // File path, relative to the run root when known
	Action status.Action // What happened
	Detail string        // Optional reason
	Size   int64         // Bytes accounted for
}

// 📦 RunOperation describes a copy run for logging
type RunOperation struct {
	Mode        string // "sync" or "missing"
	Source      string
	Destination string
	Retries     int
}

// 📊 RunSummary is logged when a run ends
type RunSummary struct {
	Copied  int
	Skipped int
	Bytes   int64
	Outcome string
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	verbose bool
	mu      sync.Mutex
	current *RunOperation
	events  int // file events in the current run
}

// 🏭 New creates a new logger. Skipped files only reach the console when
// verbose is set; they always reach zerolog at debug level.
func New(console io.Writer, zlog zerolog.Logger, verbose bool) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		verbose: verbose,
	}
}

// Discard returns a logger that writes nowhere
func Discard() *Logger {
	return New(io.Discard, zerolog.Nop(), false)
}

// 📝 formatFileEvent formats a file event for display
func (l *Logger) formatFileEvent(ev FileEvent) string {
	var symbol rune
	var symbolColor color.Attribute
	switch ev.Action {
	case status.ActionCopied:
		symbol = '✓'
		symbolColor = color.FgGreen
	case status.ActionRetrying:
		symbol = '⟳'
		symbolColor = color.FgYellow
	case status.ActionFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case status.ActionMissing:
		symbol = '+'
		symbolColor = color.FgCyan
	default:
		symbol = '•'
		symbolColor = color.FgHiBlack
	}

	line := fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, ev.Path),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", actionWidth, string(ev.Action))))
	if ev.Detail != "" {
		line += " " + color.New(color.Faint).Sprint(ev.Detail)
	}
	return line
}

// 📝 LogFileEvent logs the outcome for one file
func (l *Logger) LogFileEvent(ctx context.Context, ev FileEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events++

	level := zerolog.InfoLevel
	switch ev.Action {
	case status.ActionSkipped:
		level = zerolog.DebugLevel
	case status.ActionRetrying:
		level = zerolog.WarnLevel
	case status.ActionFailed:
		level = zerolog.ErrorLevel
	}

	if ev.Action != status.ActionSkipped || l.verbose {
		fmt.Fprintln(l.console, l.formatFileEvent(ev))
	}

	l.zlog.WithLevel(level).
		Str("file", ev.Path).
		Str("action", string(ev.Action)).
		Str("detail", ev.Detail).
		Int64("size", ev.Size).
		Msg("file event")
}

// 📝 StartRun starts a new run
func (l *Logger) StartRun(ctx context.Context, op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &op
	l.events = 0

	fmt.Fprintf(l.console, "[%s %s]\n",
		op.Mode,
		color.New(color.FgCyan).Sprint(op.Source))

	fmt.Fprintf(l.console, "%s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Faint).Sprint("→"),
		color.New(color.Bold).Sprint(op.Destination))

	l.zlog.Info().
		Str("mode", op.Mode).
		Str("source", op.Source).
		Str("destination", op.Destination).
		Int("retries", op.Retries).
		Msg("starting run")
}

// 📝 EndRun ends the current run
func (l *Logger) EndRun(ctx context.Context, summary RunSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	l.zlog.Info().
		Str("mode", l.current.Mode).
		Int("events", l.events).
		Int("copied", summary.Copied).
		Int("skipped", summary.Skipped).
		Int64("bytes", summary.Bytes).
		Str("outcome", summary.Outcome).
		Msg("run complete")

	l.current = nil
	l.events = 0
}
