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

package status

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// 🏷️ Action is what happened to a single file
type Action string

const (
	ActionCopied   Action = "copied"
	ActionSkipped  Action = "skipped"
	ActionRetrying Action = "retrying"
	ActionFailed   Action = "failed"
	ActionMissing  Action = "missing"
)

// FileFormatter defines how file events and progress should be formatted
type FileFormatter interface {
	// FormatFileEvent formats the outcome for one file
	FormatFileEvent(path string, action Action, detail string) string

	// FormatProgress formats a byte progress message
	FormatProgress(completed, total int64) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatFileEvent formats a file event with emojis
func (f *DefaultFileFormatter) FormatFileEvent(path string, action Action, detail string) string {
	var msg string
	switch action {
	case ActionCopied:
		msg = fmt.Sprintf("✨ Copied %s", path)
	case ActionSkipped:
		msg = fmt.Sprintf("👍 Unchanged %s", path)
	case ActionRetrying:
		msg = fmt.Sprintf("🔁 Retrying %s", path)
	case ActionFailed:
		msg = fmt.Sprintf("❌ Failed %s", path)
	case ActionMissing:
		msg = fmt.Sprintf("🕳️  Missing %s", path)
	default:
		msg = fmt.Sprintf("• %s %s", action, path)
	}
	if detail != "" {
		msg += " " + color.New(color.Faint).Sprintf("(%s)", detail)
	}
	return msg
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(completed, total int64) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if completed > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(completed) / float64(total) * 100
	}

	done := humanize.IBytes(uint64(max(completed, 0)))
	all := humanize.IBytes(uint64(max(total, 0)))
	if completed >= total {
		return fmt.Sprintf("✅ Progress: %s/%s (%.0f%%)", done, all, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %s/%s (%.0f%%)", done, all, percentage)
}
