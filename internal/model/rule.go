// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"errors"
	"fmt"
	"regexp"
)

// RuleKind selects the predicate used to evaluate a rule.
type RuleKind string

const (
	// LiteralPresence requires a line equal to, or containing, the rule target.
	LiteralPresence RuleKind = "present"

	// PatternMatch requires the rule's regular expression to match somewhere
	// in the configuration.
	PatternMatch RuleKind = "pattern"

	// LiteralAbsence requires that no line contains the rule target
	// (e.g. "transport input telnet").
	LiteralAbsence RuleKind = "absent"
)

// Valid reports whether k is a known rule kind.
func (k RuleKind) Valid() bool {
	switch k {
	case LiteralPresence, PatternMatch, LiteralAbsence:
		return true
	}
	return false
}

// ErrDuplicateRule is returned when two rules share an identifier.
var ErrDuplicateRule = errors.New("duplicate rule identifier")

// Rule is a single baseline requirement. Rules are immutable after load.
type Rule struct {
	// ID is the stable key of the rule, e.g. "no-ip-domain-lookup".
	ID string

	// Kind selects the predicate.
	Kind RuleKind

	// Target is the literal for LiteralPresence/LiteralAbsence and the
	// source text of the expression for PatternMatch.
	Target string

	// Exact switches LiteralPresence from substring containment to a
	// whole-line comparison.
	Exact bool

	// Pattern is the compiled Target of a PatternMatch rule.
	Pattern *regexp.Regexp

	// Remediation holds the commands to send when the rule is not satisfied.
	Remediation []string

	// Description is free text shown in reports.
	Description string
}

// Baseline is an ordered collection of rules with unique identifiers.
// A Baseline is read-only once built and may be shared between goroutines.
type Baseline struct {
	Name  string
	rules []Rule
	index map[string]int
}

// NewBaseline builds a baseline from rules, preserving their order.
func NewBaseline(name string, rules []Rule) (*Baseline, error) {
	b := &Baseline{
		Name:  name,
		rules: make([]Rule, 0, len(rules)),
		index: make(map[string]int, len(rules)),
	}
	for _, r := range rules {
		if _, dup := b.index[r.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRule, r.ID)
		}
		b.index[r.ID] = len(b.rules)
		b.rules = append(b.rules, r)
	}
	return b, nil
}

// Len returns the number of rules.
func (b *Baseline) Len() int {
	if b == nil {
		return 0
	}
	return len(b.rules)
}

// Rules returns a copy of the rules in baseline order.
func (b *Baseline) Rules() []Rule {
	if b == nil {
		return nil
	}
	out := make([]Rule, len(b.rules))
	copy(out, b.rules)
	return out
}

// RuleFor looks up a rule by identifier.
func (b *Baseline) RuleFor(id string) (Rule, bool) {
	if b == nil {
		return Rule{}, false
	}
	i, ok := b.index[id]
	if !ok {
		return Rule{}, false
	}
	return b.rules[i], true
}

// Literals returns the literal-list representation of the baseline: the
// targets of all LiteralPresence rules, in order.
func (b *Baseline) Literals() []string {
	if b == nil {
		return nil
	}
	var out []string
	for _, r := range b.rules {
		if r.Kind == LiteralPresence {
			out = append(out, r.Target)
		}
	}
	return out
}
