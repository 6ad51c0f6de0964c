// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package compare

import (
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	from := []string{"no ip http server", "logging host 10.0.0.5"}
	to := []string{"hostname R1", "logging host 10.0.0.5"}

	edits := Diff(from, to)
	want := []Edit{
		{Op: Delete, Line: "no ip http server"},
		{Op: Insert, Line: "hostname R1"},
		{Op: Equal, Line: "logging host 10.0.0.5"},
	}
	if !reflect.DeepEqual(edits, want) {
		t.Fatalf("Diff = %+v, want %+v", edits, want)
	}
	ins, del := Stats(edits)
	if ins != 1 || del != 1 {
		t.Fatalf("Stats = %d/%d, want 1/1", ins, del)
	}
}

func TestDiff_Minimal(t *testing.T) {
	from := []string{"b", "b", "b", "b"}
	to := []string{"b", "c", "c", "b", "b"}

	edits := Diff(from, to)
	ins, del := Stats(edits)
	if ins+del != 3 {
		t.Fatalf("Diff used %d edits, want 3: %+v", ins+del, edits)
	}
	got, err := Apply(from, edits)
	if err != nil || !reflect.DeepEqual(got, to) {
		t.Fatalf("Apply = %v, %v", got, err)
	}
}

func TestDiff_Empty(t *testing.T) {
	if edits := Diff(nil, nil); len(edits) != 0 {
		t.Fatalf("expected no edits, got %+v", edits)
	}
	edits := Diff(nil, []string{"a", "b"})
	got, err := Apply(nil, edits)
	if err != nil || !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Apply = %v, %v", got, err)
	}
}

func TestApply_RejectsMismatchedScript(t *testing.T) {
	edits := []Edit{{Op: Equal, Line: "x"}}
	if _, err := Apply([]string{"y"}, edits); err == nil {
		t.Fatalf("expected mismatch error")
	}
	if _, err := Apply([]string{"y", "z"}, []Edit{{Op: Delete, Line: "y"}}); err == nil {
		t.Fatalf("expected error for unconsumed source lines")
	}
}

func TestUnified(t *testing.T) {
	out, err := Unified(
		[]string{"no ip http server", "logging host 10.0.0.5"},
		[]string{"hostname R1", "logging host 10.0.0.5"},
		"Hardening Guide", "Running Config", 3)
	if err != nil {
		t.Fatalf("Unified: %v", err)
	}
	for _, want := range []string{"--- Hardening Guide", "+++ Running Config", "-no ip http server\n", "+hostname R1\n", " logging host 10.0.0.5\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("unified diff missing %q:\n%s", want, out)
		}
	}
}
