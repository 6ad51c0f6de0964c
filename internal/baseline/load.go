// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package baseline loads hardening baselines into model.Baseline values.
//
// Three representations are accepted and all end up as the same model.Rule
// values, so the comparator never knows which one was loaded:
//
//   - a literal list: one required configuration line per row;
//   - a rule table: "identifier, pattern, remediation" rows;
//   - a structured YAML rule table with explicit predicate kinds.
package baseline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"text/template"

	"github.com/baseliner/baseliner/internal/logging"
	"github.com/baseliner/baseliner/internal/model"
)

// Format names a baseline representation.
type Format string

const (
	FormatAuto        Format = ""
	FormatLiteralList Format = "list"
	FormatRuleTable   Format = "table"
	FormatYAML        Format = "yaml"
)

// ParseFormat maps a user supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "list", "literal", "literal-list", "txt":
		return FormatLiteralList, nil
	case "table", "rules", "rule-table", "csv":
		return FormatRuleTable, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatAuto, fmt.Errorf("unknown baseline format %q", s)
}

// DetectFormat picks a format from the source name's extension. Unknown
// extensions are treated as literal lists, the simplest representation.
func DetectFormat(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".rules", ".csv", ".tsv":
		return FormatRuleTable
	default:
		return FormatLiteralList
	}
}

type loader struct {
	format Format
	vars   map[string]string
	name   string
}

// Option configures Load.
type Option func(*loader)

// WithFormat forces a format instead of detecting it from the source name.
func WithFormat(f Format) Option {
	return func(l *loader) { l.format = f }
}

// WithVars supplies values for {{.name}} placeholders in rule targets and
// remediation commands. Placeholders are rendered once at load time.
func WithVars(vars map[string]string) Option {
	return func(l *loader) {
		if l.vars == nil {
			l.vars = make(map[string]string, len(vars))
		}
		for k, v := range vars {
			l.vars[k] = v
		}
	}
}

// WithName overrides the baseline name (defaults to the source name).
func WithName(name string) Option {
	return func(l *loader) { l.name = name }
}

// Load reads and validates a baseline. Any failure is a *LoadError.
func Load(ctx context.Context, src Source, opts ...Option) (*model.Baseline, error) {
	l := &loader{}
	for _, o := range opts {
		o(l)
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &LoadError{Source: src.Name(), Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &LoadError{Source: src.Name(), Err: err}
	}
	return l.parse(src.Name(), data)
}

// Parse builds a baseline from in-memory data.
func Parse(name string, data []byte, opts ...Option) (*model.Baseline, error) {
	l := &loader{}
	for _, o := range opts {
		o(l)
	}
	return l.parse(name, data)
}

// rawRule is the format-independent intermediate form of one row.
type rawRule struct {
	line        int
	id          string
	kind        model.RuleKind
	target      string
	exact       bool
	remediation []string
	description string
}

func (l *loader) parse(source string, data []byte) (*model.Baseline, error) {
	format := l.format
	if format == FormatAuto {
		format = DetectFormat(source)
	}

	var (
		raws     []rawRule
		yamlName string
		err      error
	)
	switch format {
	case FormatLiteralList:
		raws, err = parseLiteralList(data)
	case FormatRuleTable:
		raws, err = parseRuleTable(data)
	case FormatYAML:
		yamlName, raws, err = parseYAML(data)
	default:
		err = fmt.Errorf("unsupported baseline format %q", format)
	}
	if err != nil {
		return nil, asLoadError(source, err)
	}

	seen := make(map[string]int, len(raws))
	rules := make([]model.Rule, 0, len(raws))
	for _, rr := range raws {
		if first, dup := seen[rr.id]; dup {
			return nil, &LoadError{Source: source, Line: rr.line, RuleID: rr.id,
				Err: fmt.Errorf("%w (first defined on line %d)", ErrDuplicateRule, first)}
		}
		seen[rr.id] = rr.line

		r, err := l.build(rr)
		if err != nil {
			return nil, &LoadError{Source: source, Line: rr.line, RuleID: rr.id, Err: err}
		}
		rules = append(rules, r)
	}

	name := l.name
	if name == "" {
		name = yamlName
	}
	if name == "" {
		name = source
	}
	b, err := model.NewBaseline(name, rules)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	logging.L.Debug("baseline loaded", "source", source, "format", format, "rules", b.Len())
	return b, nil
}

// build validates a raw row and turns it into an immutable rule.
func (l *loader) build(rr rawRule) (model.Rule, error) {
	if rr.id == "" {
		return model.Rule{}, fmt.Errorf("rule without identifier")
	}
	if !rr.kind.Valid() {
		return model.Rule{}, fmt.Errorf("unknown rule kind %q", rr.kind)
	}

	target, err := l.render(rr.id+"/match", rr.target)
	if err != nil {
		return model.Rule{}, err
	}
	if target == "" {
		return model.Rule{}, fmt.Errorf("empty match target")
	}

	r := model.Rule{
		ID:          rr.id,
		Kind:        rr.kind,
		Target:      target,
		Exact:       rr.exact,
		Description: rr.description,
	}

	if r.Kind == model.PatternMatch {
		re, err := regexp.Compile(target)
		if err != nil {
			return model.Rule{}, &InvalidRuleError{RuleID: rr.id, Pattern: target, Err: err}
		}
		r.Pattern = re
	}

	for i, cmd := range rr.remediation {
		out, err := l.render(fmt.Sprintf("%s/remediation[%d]", rr.id, i), cmd)
		if err != nil {
			return model.Rule{}, err
		}
		if out = strings.TrimSpace(out); out != "" {
			r.Remediation = append(r.Remediation, out)
		}
	}
	if len(r.Remediation) == 0 {
		switch r.Kind {
		case model.LiteralPresence:
			r.Remediation = []string{r.Target}
		case model.LiteralAbsence:
			r.Remediation = []string{"no " + r.Target}
		default:
			return model.Rule{}, ErrNoRemediation
		}
	}
	return r, nil
}

func (l *loader) render(name, text string) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	vars := l.vars
	if vars == nil {
		vars = map[string]string{}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// lineError carries a row number out of the format parsers.
type lineError struct {
	line int
	err  error
}

func (e *lineError) Error() string { return fmt.Sprintf("line %d: %v", e.line, e.err) }
func (e *lineError) Unwrap() error { return e.err }

func asLoadError(source string, err error) error {
	le := &LoadError{Source: source, Err: err}
	if lerr, ok := err.(*lineError); ok {
		le.Line = lerr.line
		le.Err = lerr.err
	}
	return le
}
