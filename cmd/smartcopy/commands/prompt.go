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

package commands

import (
	"os"
	"strings"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when paths are missing and stdin cannot prompt
var ErrNotInteractive = errors.New("source and destination are required when stdin is not a terminal")

// cleanPath trims whitespace and one pair of surrounding double quotes, as
// left behind by dragging a file into a terminal
func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if len(p) >= 2 && strings.HasPrefix(p, `"`) && strings.HasSuffix(p, `"`) {
		p = p[1 : len(p)-1]
	}
	return p
}

// prompter asks the user for missing input
type prompter interface {
	Text(label string) (string, error)
	Confirm(question string) (bool, error)
}

// ptermPrompter prompts on the terminal
type ptermPrompter struct{}

func (ptermPrompter) Text(label string) (string, error) {
	return pterm.DefaultInteractiveTextInput.WithDefaultText(label).Show()
}

func (ptermPrompter) Confirm(question string) (bool, error) {
	return pterm.DefaultInteractiveConfirm.WithDefaultText(question).WithDefaultValue(true).Show()
}

// stdinIsTerminal is replaced in tests
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// 🎯 resolvePaths fills in source and destination from args, prompting for
// whatever is missing
func resolvePaths(args []string, p prompter) (string, string, error) {
	var src, dst string
	if len(args) > 0 {
		src = cleanPath(args[0])
	}
	if len(args) > 1 {
		dst = cleanPath(args[1])
	}

	if (src == "" || dst == "") && !stdinIsTerminal() {
		return "", "", ErrNotInteractive
	}

	var err error
	if src == "" {
		if src, err = p.Text("Source path"); err != nil {
			return "", "", errors.Errorf("reading source path: %w", err)
		}
		src = cleanPath(src)
	}
	if dst == "" {
		if dst, err = p.Text("Destination path"); err != nil {
			return "", "", errors.Errorf("reading destination path: %w", err)
		}
		dst = cleanPath(dst)
	}

	if src == "" || dst == "" {
		return "", "", errors.New("source and destination must not be empty")
	}
	return src, dst, nil
}

// confirm asks before a run starts unless yes is set. Without a terminal the
// run goes ahead.
func confirm(question string, yes bool, p prompter) (bool, error) {
	if yes || !stdinIsTerminal() {
		return true, nil
	}
	ok, err := p.Confirm(question)
	if err != nil {
		return false, errors.Errorf("reading confirmation: %w", err)
	}
	return ok, nil
}
