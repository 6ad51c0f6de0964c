// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package compare

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Op is the kind of a diff edit.
type Op string

const (
	Equal  Op = "="
	Delete Op = "-"
	Insert Op = "+"
)

// Edit is one line of an edit script.
type Edit struct {
	Op   Op
	Line string
}

// Diff computes a minimal line edit script turning from into to: the number
// of inserted plus deleted lines is len(from)+len(to)-2*LCS(from, to). Common
// leading and trailing lines are matched first, the middle is solved with
// Myers' O(ND) algorithm. The diff is for display only; remediation never
// reads it.
func Diff(from, to []string) []Edit {
	pre := 0
	for pre < len(from) && pre < len(to) && from[pre] == to[pre] {
		pre++
	}
	suf := 0
	for suf < len(from)-pre && suf < len(to)-pre && from[len(from)-1-suf] == to[len(to)-1-suf] {
		suf++
	}

	var edits []Edit
	for _, l := range from[:pre] {
		edits = append(edits, Edit{Op: Equal, Line: l})
	}
	edits = append(edits, myers(from[pre:len(from)-suf], to[pre:len(to)-suf])...)
	for _, l := range from[len(from)-suf:] {
		edits = append(edits, Edit{Op: Equal, Line: l})
	}
	return edits
}

// myers returns a shortest edit script for a to b. Deletions are preferred
// over insertions when both are possible.
func myers(a, b []string) []Edit {
	n, m := len(a), len(b)
	switch {
	case n == 0 && m == 0:
		return nil
	case n == 0:
		return lines(Insert, b)
	case m == 0:
		return lines(Delete, a)
	}

	limit := n + m
	offset := limit
	v := make([]int, 2*limit+2)
	// trace[d] holds v as it was before round d.
	var trace [][]int
	for d := 0; d <= limit; d++ {
		trace = append(trace, append([]int(nil), v...))
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				return backtrack(a, b, trace, offset)
			}
		}
	}
	return nil // unreachable: d = n+m always reaches the end point
}

// backtrack walks the recorded rounds from the end point to the origin and
// returns the edits in forward order.
func backtrack(a, b []string, trace [][]int, offset int) []Edit {
	var rev []Edit
	x, y := len(a), len(b)
	for d := len(trace) - 1; d >= 0; d-- {
		v := trace[d]
		k := x - y
		var prevK int
		if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := v[offset+prevK]
		prevY := prevX - prevK
		for x > prevX && y > prevY {
			rev = append(rev, Edit{Op: Equal, Line: a[x-1]})
			x--
			y--
		}
		if d > 0 {
			if x == prevX {
				rev = append(rev, Edit{Op: Insert, Line: b[y-1]})
			} else {
				rev = append(rev, Edit{Op: Delete, Line: a[x-1]})
			}
			x, y = prevX, prevY
		}
	}
	edits := make([]Edit, len(rev))
	for i, e := range rev {
		edits[len(rev)-1-i] = e
	}
	return edits
}

func lines(op Op, ls []string) []Edit {
	out := make([]Edit, len(ls))
	for i, l := range ls {
		out[i] = Edit{Op: op, Line: l}
	}
	return out
}

// Apply replays an edit script on from and returns the resulting lines.
// It fails when the script does not match from.
func Apply(from []string, edits []Edit) ([]string, error) {
	out := make([]string, 0, len(from))
	i := 0
	for n, e := range edits {
		switch e.Op {
		case Equal, Delete:
			if i >= len(from) || from[i] != e.Line {
				return nil, fmt.Errorf("edit %d (%s %q) does not match source line %d", n, e.Op, e.Line, i)
			}
			if e.Op == Equal {
				out = append(out, e.Line)
			}
			i++
		case Insert:
			out = append(out, e.Line)
		default:
			return nil, fmt.Errorf("edit %d: unknown op %q", n, e.Op)
		}
	}
	if i != len(from) {
		return nil, fmt.Errorf("edit script consumed %d of %d source lines", i, len(from))
	}
	return out, nil
}

// Stats counts inserted and deleted lines of a script.
func Stats(edits []Edit) (inserted, deleted int) {
	for _, e := range edits {
		switch e.Op {
		case Insert:
			inserted++
		case Delete:
			deleted++
		}
	}
	return inserted, deleted
}

// Unified renders a unified diff between two line lists with the given
// file labels and context size.
func Unified(from, to []string, fromLabel, toLabel string, context int) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        withNewlines(from),
		B:        withNewlines(to),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  context,
	}
	return difflib.GetUnifiedDiffString(ud)
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}
