// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package normalize

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/baseliner/baseliner/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: []string{}},
		{name: "single line", raw: "hostname R1", want: []string{"hostname R1"}},
		{name: "trailing newline", raw: "hostname R1\n", want: []string{"hostname R1"}},
		{name: "crlf", raw: "hostname R1\r\nno ip http server\r\n", want: []string{"hostname R1", "no ip http server"}},
		{name: "lone cr", raw: "a\rb", want: []string{"a", "b"}},
		{name: "trailing whitespace", raw: "logging host 10.0.0.5   \t\n", want: []string{"logging host 10.0.0.5"}},
		{name: "leading indentation kept", raw: "interface Gi0/1\n shutdown\n", want: []string{"interface Gi0/1", " shutdown"}},
		{name: "blank lines kept", raw: "!\n\nend\n", want: []string{"!", "", "end"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := String(tt.raw)
			got := snap.Texts()
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Texts() = %q, want %q", got, tt.want)
			}
			for i, l := range snap.Lines {
				if l.Index != i {
					t.Errorf("line %d has index %d", i, l.Index)
				}
			}
		})
	}
}

func TestNormalize_ReplacesIllFormedUTF8(t *testing.T) {
	raw := []byte("banner motd ^C\xffAuthorized\xfe only^C\nend")
	snap := Normalize(raw)
	if snap.Len() != 2 {
		t.Fatalf("expected 2 lines, got %d", snap.Len())
	}
	first := snap.Lines[0].Text
	if !utf8.ValidString(first) {
		t.Fatalf("line is not valid UTF-8: %q", first)
	}
	if got := strings.Count(first, "�"); got != 2 {
		t.Fatalf("expected 2 replacement characters, got %d in %q", got, first)
	}
	if !strings.Contains(first, "Authorized") {
		t.Fatalf("surrounding text lost: %q", first)
	}
}

// TestNormalize_PreservesLineCount checks that every input line yields
// exactly one ConfigLine, whatever its content.
func TestNormalize_PreservesLineCount(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("one ConfigLine per input line", prop.ForAll(
		func(lines []string) bool {
			if len(lines) == 0 {
				return String("").Len() == 0
			}
			snap := String(strings.Join(lines, "\n") + "\n")
			if snap.Len() != len(lines) {
				return false
			}
			for i, l := range snap.Lines {
				if l.Text != strings.TrimRight(lines[i], " \t\f\v") {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

func TestNormalize_TrimsLikeAppend(t *testing.T) {
	for _, raw := range []string{"hostname R1 \f", "logging on\v", "end\t \f\v", " exec-timeout 5 0  "} {
		got := String(raw).Lines[0].Text
		want := model.Snapshot{}.Append(raw).Lines[0].Text
		if got != want {
			t.Errorf("%q: normalized %q, appended %q", raw, got, want)
		}
	}
}
