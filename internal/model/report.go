// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "fmt"

// Status is the compliance verdict of one rule.
type Status string

const (
	// Compliant means the rule is satisfied by the snapshot.
	Compliant Status = "compliant"

	// Missing means the rule is not satisfied and remediation applies.
	Missing Status = "missing"

	// Unknown means the device output for the check could not be retrieved.
	Unknown Status = "unknown"
)

// Finding is the result of evaluating one rule against one snapshot.
type Finding struct {
	RuleID      string   `json:"rule_id"`
	Status      Status   `json:"status"`
	Remediation []string `json:"remediation,omitempty"` // Set only when not compliant.
}

// Report is the ordered set of findings of one audit cycle.
type Report struct {
	Baseline string    `json:"baseline"`
	Findings []Finding `json:"findings"`
}

// Counts tallies findings by status.
type Counts struct {
	Compliant int `json:"compliant"`
	Missing   int `json:"missing"`
	Unknown   int `json:"unknown"`
}

// FullyCompliant reports whether every finding is Compliant. A report
// without findings is trivially compliant.
func (r Report) FullyCompliant() bool {
	for _, f := range r.Findings {
		if f.Status != Compliant {
			return false
		}
	}
	return true
}

// Counts returns the number of findings per status.
func (r Report) Counts() Counts {
	var c Counts
	for _, f := range r.Findings {
		switch f.Status {
		case Compliant:
			c.Compliant++
		case Missing:
			c.Missing++
		default:
			c.Unknown++
		}
	}
	return c
}

// Finding returns the finding for a rule identifier.
func (r Report) Finding(ruleID string) (Finding, bool) {
	for _, f := range r.Findings {
		if f.RuleID == ruleID {
			return f, true
		}
	}
	return Finding{}, false
}

// Summary returns a short human-readable summary of the report.
func (r Report) Summary() string {
	if r.FullyCompliant() {
		return fmt.Sprintf("compliant (%d rules)", len(r.Findings))
	}
	c := r.Counts()
	s := fmt.Sprintf("non-compliant: %d missing", c.Missing)
	if c.Unknown > 0 {
		s += fmt.Sprintf(", %d unknown", c.Unknown)
	}
	return s + fmt.Sprintf(" of %d rules", len(r.Findings))
}

// Plan is the ordered, deduplicated command batch that brings a device
// back to its baseline.
type Plan struct {
	Commands []string `json:"commands"`
	Rules    []string `json:"rules"` // Identifiers of the rules the plan remediates.
	Limit    int      `json:"limit"` // Maximum number of commands per apply call.
}

// Empty reports whether the plan carries no command.
func (p Plan) Empty() bool {
	return len(p.Commands) == 0
}

// Batches splits the commands into consecutive apply batches of at most
// Limit commands. A non-positive Limit yields a single batch.
func (p Plan) Batches() [][]string {
	if p.Empty() {
		return nil
	}
	if p.Limit <= 0 || len(p.Commands) <= p.Limit {
		return [][]string{p.Commands}
	}
	var out [][]string
	for start := 0; start < len(p.Commands); start += p.Limit {
		end := start + p.Limit
		if end > len(p.Commands) {
			end = len(p.Commands)
		}
		out = append(out, p.Commands[start:end])
	}
	return out
}
