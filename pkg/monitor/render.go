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

package monitor

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/walteh/smartcopy/pkg/status"
	"golang.org/x/term"
)

// Rendering modes
const (
	ModeAuto  = "auto"
	ModeTTY   = "tty"
	ModePlain = "plain"
)

// 🎯 NewRenderer picks a renderer for mode. Auto draws a bar only when out is
// a terminal.
func NewRenderer(mode string, out *os.File) Renderer {
	switch mode {
	case ModePlain:
		return NewPlainRenderer(out)
	case ModeTTY:
		return NewBarRenderer(out)
	default:
		if term.IsTerminal(int(out.Fd())) {
			return NewBarRenderer(out)
		}
		return NewPlainRenderer(out)
	}
}

// 📊 BarRenderer draws a pterm progress bar titled with the frame summary
type BarRenderer struct {
	writer  io.Writer
	bar     *pterm.ProgressbarPrinter
	current int64
}

// NewBarRenderer creates a bar renderer writing to w
func NewBarRenderer(w io.Writer) *BarRenderer {
	return &BarRenderer{writer: w}
}

// Update draws f. The bar is created lazily once the total is known.
func (r *BarRenderer) Update(f Frame) {
	if r.bar == nil {
		if f.Snapshot.Total <= 0 {
			return
		}
		bar, err := pterm.DefaultProgressbar.
			WithTotal(int(f.Snapshot.Total)).
			WithTitle(f.Title()).
			WithShowCount(false).
			WithWriter(r.writer).
			Start()
		if err != nil {
			return
		}
		r.bar = bar
	}

	r.bar.UpdateTitle(f.Title())
	if delta := f.Snapshot.Completed - r.current; delta > 0 {
		r.bar.Add(int(delta))
		r.current = f.Snapshot.Completed
	}
}

// Stop draws the final frame and stops the bar
func (r *BarRenderer) Stop(f Frame) {
	r.Update(f)
	if r.bar == nil {
		fmt.Fprintln(r.writer, f.Title())
		return
	}
	//nolint:errcheck // progress bar errors are not critical
	r.bar.Stop()
}

// 📝 PlainRenderer writes one line per frame, for logs and pipes
type PlainRenderer struct {
	writer    io.Writer
	formatter status.FileFormatter
}

// NewPlainRenderer creates a line renderer writing to w
func NewPlainRenderer(w io.Writer) *PlainRenderer {
	return &PlainRenderer{
		writer:    w,
		formatter: status.NewDefaultFileFormatter(),
	}
}

func (r *PlainRenderer) Update(f Frame) {
	fmt.Fprintf(r.writer, "%s | %s\n", r.formatter.FormatProgress(f.Snapshot.Completed, f.Snapshot.Total), f.Title())
}

func (r *PlainRenderer) Stop(f Frame) {
	r.Update(f)
}
