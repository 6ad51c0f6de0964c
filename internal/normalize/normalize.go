// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package normalize turns raw "show running-config" output into a
// model.Snapshot of comparable lines.
package normalize

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/baseliner/baseliner/internal/model"
)

// Normalize splits raw configuration text into lines. It never fails:
// ill-formed UTF-8 is replaced with U+FFFD sequence by sequence, line
// endings (\n, \r\n, \r) are unified, trailing whitespace is stripped and
// blank lines are kept so line indexes stay stable.
func Normalize(raw []byte) model.Snapshot {
	text, _, err := transform.Bytes(runes.ReplaceIllFormed(), raw)
	if err != nil {
		text = []byte(strings.ToValidUTF8(string(raw), "�"))
	}
	return split(string(text))
}

// String is Normalize for string input.
func String(raw string) model.Snapshot {
	return Normalize([]byte(raw))
}

func split(s string) model.Snapshot {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if s == "" {
		return model.Snapshot{}
	}
	s = strings.TrimSuffix(s, "\n")

	parts := strings.Split(s, "\n")
	lines := make([]model.ConfigLine, len(parts))
	for i, p := range parts {
		lines[i] = model.ConfigLine{
			Raw:   p,
			Text:  model.TrimLine(p),
			Index: i,
		}
	}
	return model.Snapshot{Lines: lines}
}
