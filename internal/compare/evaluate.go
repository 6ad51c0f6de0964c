// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package compare evaluates a configuration snapshot against a baseline and
// renders line diffs for humans.
package compare

import (
	"strings"

	"github.com/baseliner/baseliner/internal/model"
)

// Evaluate produces one finding per rule, in baseline order. The result
// depends only on its arguments. Every rule in b is assumed valid: invalid
// patterns are rejected when the baseline is loaded.
func Evaluate(snap model.Snapshot, b *model.Baseline) model.Report {
	rules := b.Rules()
	report := model.Report{Findings: make([]model.Finding, 0, len(rules))}
	if b != nil {
		report.Baseline = b.Name
	}

	empty := snap.Empty()
	var joined *string
	for _, r := range rules {
		var ok bool
		switch {
		case r.Kind == model.LiteralAbsence:
			ok = !containsLine(snap, r.Target)
		case empty:
			ok = false
		case r.Kind == model.LiteralPresence:
			ok = hasLine(snap, r.Target, r.Exact)
		case r.Kind == model.PatternMatch:
			if joined == nil {
				j := snap.Joined()
				joined = &j
			}
			ok = r.Pattern != nil && r.Pattern.MatchString(*joined)
		}
		report.Findings = append(report.Findings, finding(r, ok))
	}
	return report
}

// EvaluateRule evaluates a single rule.
func EvaluateRule(snap model.Snapshot, r model.Rule) model.Finding {
	b, err := model.NewBaseline("", []model.Rule{r})
	if err != nil {
		return model.Finding{RuleID: r.ID, Status: model.Unknown}
	}
	return Evaluate(snap, b).Findings[0]
}

// Unavailable is the report of an audit whose device output could not be
// retrieved: every rule is Unknown and nothing is proposed for remediation.
func Unavailable(b *model.Baseline) model.Report {
	rules := b.Rules()
	report := model.Report{Findings: make([]model.Finding, 0, len(rules))}
	if b != nil {
		report.Baseline = b.Name
	}
	for _, r := range rules {
		report.Findings = append(report.Findings, model.Finding{RuleID: r.ID, Status: model.Unknown})
	}
	return report
}

func finding(r model.Rule, ok bool) model.Finding {
	if ok {
		return model.Finding{RuleID: r.ID, Status: model.Compliant}
	}
	cmds := make([]string, len(r.Remediation))
	copy(cmds, r.Remediation)
	return model.Finding{RuleID: r.ID, Status: model.Missing, Remediation: cmds}
}

// hasLine reports whether a line equals (exact) or contains target.
func hasLine(snap model.Snapshot, target string, exact bool) bool {
	for _, l := range snap.Lines {
		if exact {
			if strings.TrimSpace(l.Text) == strings.TrimSpace(target) {
				return true
			}
			continue
		}
		if strings.Contains(l.Text, target) {
			return true
		}
	}
	return false
}

func containsLine(snap model.Snapshot, target string) bool {
	return hasLine(snap, target, false)
}
