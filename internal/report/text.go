// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package report renders reconciliation outcomes for operators (styled
// text) and for machines (JSON lines).
package report // import "github.com/baseliner/baseliner/internal/report"

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/baseliner/baseliner/internal/i18n"
	"github.com/baseliner/baseliner/internal/model"
	"github.com/baseliner/baseliner/internal/reconcile"
)

type styles struct {
	device    lipgloss.Style
	ok        lipgloss.Style
	missing   lipgloss.Style
	unknown   lipgloss.Style
	dim       lipgloss.Style
	command   lipgloss.Style
	insert    lipgloss.Style
	delete    lipgloss.Style
	hunk      lipgloss.Style
	stateDone lipgloss.Style
	stateFail lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		device:    r.NewStyle().Bold(true),
		ok:        r.NewStyle().Foreground(lipgloss.Color("42")),
		missing:   r.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		unknown:   r.NewStyle().Foreground(lipgloss.Color("214")),
		dim:       r.NewStyle().Foreground(lipgloss.Color("240")),
		command:   r.NewStyle().Foreground(lipgloss.Color("111")).PaddingLeft(6),
		insert:    r.NewStyle().Foreground(lipgloss.Color("42")),
		delete:    r.NewStyle().Foreground(lipgloss.Color("203")),
		hunk:      r.NewStyle().Foreground(lipgloss.Color("111")),
		stateDone: r.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42")).Padding(0, 1),
		stateFail: r.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("203")).Padding(0, 1),
	}
}

// TextSink writes a human-readable block per outcome. Colors are enabled
// only when w is a terminal.
type TextSink struct {
	mu      sync.Mutex
	w       io.Writer
	st      styles
	verbose bool
}

// NewText returns a TextSink. With verbose set, compliant rules are listed too.
func NewText(w io.Writer, verbose bool) *TextSink {
	return &TextSink{w: w, st: newStyles(lipgloss.NewRenderer(w)), verbose: verbose}
}

// Emit implements reconcile.Sink.
func (s *TextSink) Emit(_ context.Context, o reconcile.Outcome) error {
	out := s.Render(o)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, out)
	return err
}

// Render formats one outcome.
func (s *TextSink) Render(o reconcile.Outcome) string {
	res := o.Result
	var b strings.Builder

	state := s.st.stateDone
	if res.State != reconcile.Done {
		state = s.st.stateFail
	}
	fmt.Fprintf(&b, "%s  %s  %s  %s\n",
		s.st.device.Render(o.Device),
		s.st.dim.Render(o.Baseline),
		state.Render(strings.ToUpper(string(res.State))),
		res.Report.Summary())

	for _, f := range res.Report.Findings {
		switch f.Status {
		case model.Compliant:
			if s.verbose {
				fmt.Fprintf(&b, "  %s %s\n", s.st.ok.Render("✓"), f.RuleID)
			}
		case model.Missing:
			fmt.Fprintf(&b, "  %s %s\n", s.st.missing.Render("✗"), f.RuleID)
			for _, c := range f.Remediation {
				b.WriteString(s.st.command.Render(c) + "\n")
			}
		default:
			fmt.Fprintf(&b, "  %s %s %s\n", s.st.unknown.Render("?"), f.RuleID, s.st.dim.Render(i18n.T("report.unknown")))
		}
	}

	if res.Pending && !res.Plan.Empty() {
		fmt.Fprintf(&b, "  %s\n", i18n.T("report.pending", len(res.Plan.Commands)))
	}
	if len(res.Attempted) > 0 {
		fmt.Fprintf(&b, "  %s\n", i18n.T("report.applied", len(res.Applied), len(res.Attempted), res.Cycles))
	}
	if res.Fault {
		fmt.Fprintf(&b, "  %s\n", s.st.missing.Render(i18n.T("report.fault")))
	}
	if res.Err != nil {
		fmt.Fprintf(&b, "  %s %v\n", s.st.missing.Render(i18n.T("report.error")), res.Err)
	}
	return b.String()
}

// RenderDiff colors a unified diff: insertions, deletions and hunk headers.
func (s *TextSink) RenderDiff(unified string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(unified, "\n") {
		if line == "" {
			continue
		}
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			b.WriteString(s.st.device.Render(text))
		case strings.HasPrefix(text, "@@"):
			b.WriteString(s.st.hunk.Render(text))
		case strings.HasPrefix(text, "+"):
			b.WriteString(s.st.insert.Render(text))
		case strings.HasPrefix(text, "-"):
			b.WriteString(s.st.delete.Render(text))
		default:
			b.WriteString(text)
		}
		b.WriteString("\n")
	}
	return b.String()
}
