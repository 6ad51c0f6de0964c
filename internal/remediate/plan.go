// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package remediate turns a compliance report into the command batch that
// brings the device back to its baseline.
package remediate

import "github.com/baseliner/baseliner/internal/model"

// DefaultLimit is the default maximum number of commands per apply call.
const DefaultLimit = 50

type planner struct {
	limit int
}

// Option configures Build.
type Option func(*planner)

// WithLimit sets the declared maximum number of commands handed to the
// executor in a single apply call. Values below 1 fall back to DefaultLimit.
func WithLimit(n int) Option {
	return func(p *planner) {
		if n > 0 {
			p.limit = n
		}
	}
}

// Build collects the remediation commands of every Missing finding, in
// report order, keeping only the first occurrence of each command. Unknown
// findings are skipped: without device output there is nothing to correct.
// A fully compliant report yields an empty plan, which callers treat as a
// successful terminal state.
func Build(report model.Report, opts ...Option) model.Plan {
	p := &planner{limit: DefaultLimit}
	for _, o := range opts {
		o(p)
	}

	plan := model.Plan{Limit: p.limit}
	seen := make(map[string]struct{})
	for _, f := range report.Findings {
		if f.Status != model.Missing {
			continue
		}
		plan.Rules = append(plan.Rules, f.RuleID)
		for _, cmd := range f.Remediation {
			if _, dup := seen[cmd]; dup {
				continue
			}
			seen[cmd] = struct{}{}
			plan.Commands = append(plan.Commands, cmd)
		}
	}
	return plan
}

// Remediable reports whether a report contains findings the planner acts on.
func Remediable(report model.Report) bool {
	for _, f := range report.Findings {
		if f.Status == model.Missing {
			return true
		}
	}
	return false
}
