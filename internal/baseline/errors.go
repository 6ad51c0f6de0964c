// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package baseline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/baseliner/baseliner/internal/model"
)

// ErrDuplicateRule is returned (wrapped in a LoadError) when two rules share
// an identifier.
var ErrDuplicateRule = model.ErrDuplicateRule

// ErrNoRemediation is returned when a rule has nothing to send on failure.
var ErrNoRemediation = errors.New("rule has no remediation command")

// LoadError reports a baseline that could not be read or is malformed.
// It is fatal: no device is contacted with a baseline that failed to load.
type LoadError struct {
	Source string // Name of the baseline source.
	Line   int    // 1-based line of the offending row, 0 when unknown.
	RuleID string // Identifier of the offending rule, if any.
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("baseline ")
	b.WriteString(e.Source)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	if e.RuleID != "" {
		fmt.Fprintf(&b, ": rule %q", e.RuleID)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// InvalidRuleError reports a rule whose pattern does not compile.
// It only ever surfaces during load, wrapped in a LoadError.
type InvalidRuleError struct {
	RuleID  string
	Pattern string
	Err     error
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid pattern %q for rule %q: %v", e.Pattern, e.RuleID, e.Err)
}

func (e *InvalidRuleError) Unwrap() error {
	return e.Err
}
