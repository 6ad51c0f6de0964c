// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data structures shared by the audit engine:
// configuration snapshots, baseline rules, findings, reports and plans.
package model // import "github.com/baseliner/baseliner/internal/model"

import "strings"

// ConfigLine is a single normalized line of device configuration.
type ConfigLine struct {
	Raw   string // The line after encoding repair, before trimming.
	Text  string // Raw without trailing whitespace.
	Index int    // Zero-based position within the snapshot.
}

// Snapshot is the ordered sequence of lines of one running configuration.
// A Snapshot is owned by the caller for the duration of one audit.
type Snapshot struct {
	Lines []ConfigLine
}

// Len returns the number of lines, blank lines included.
func (s Snapshot) Len() int {
	return len(s.Lines)
}

// Empty reports whether the snapshot carries no non-blank line.
func (s Snapshot) Empty() bool {
	for _, l := range s.Lines {
		if l.Text != "" {
			return false
		}
	}
	return true
}

// Texts returns the literal-list view of the snapshot: the trimmed text of every line.
func (s Snapshot) Texts() []string {
	out := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.Text
	}
	return out
}

// Joined concatenates all lines with a newline separator.
func (s Snapshot) Joined() string {
	return strings.Join(s.Texts(), "\n")
}

// TrailingSpace is the set of characters stripped from the end of a line to
// form its comparable Text.
const TrailingSpace = " \t\r\n\f\v"

// TrimLine returns the comparable Text of a raw line.
func TrimLine(raw string) string {
	return strings.TrimRight(raw, TrailingSpace)
}

// Append returns a new snapshot with the given texts added as trailing lines.
// The receiver is left untouched.
func (s Snapshot) Append(texts ...string) Snapshot {
	lines := make([]ConfigLine, 0, len(s.Lines)+len(texts))
	lines = append(lines, s.Lines...)
	for _, t := range texts {
		lines = append(lines, ConfigLine{Raw: t, Text: TrimLine(t), Index: len(lines)})
	}
	return Snapshot{Lines: lines}
}
