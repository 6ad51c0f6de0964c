// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package baseline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/baseliner/baseliner/internal/model"
)

// parseLiteralList reads one required line per row. Blank rows and rows
// starting with '#' are skipped. The row is the rule identifier, the match
// target and the remediation command at once.
func parseLiteralList(data []byte) ([]rawRule, error) {
	var out []rawRule
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, rawRule{
			line:        n,
			id:          line,
			kind:        model.LiteralPresence,
			target:      line,
			remediation: []string{line},
		})
	}
	if err := sc.Err(); err != nil {
		return nil, &lineError{line: n, err: err}
	}
	return out, nil
}

// parseRuleTable reads "identifier, pattern, remediation" rows. Several
// remediation commands are separated by ';'. Patterns may contain unquoted
// commas (e.g. \d{1,3}): the first field is the identifier, the last one the
// remediation and everything in between the pattern, rejoined with the
// separator exactly as written. Only the identifier and the remediation are
// trimmed, the pattern loses surrounding blanks but keeps inner ", ". Bare
// quotes inside a field are literal text. An optional header row starting
// with "identifier" or "id" is skipped.
func parseRuleTable(data []byte) ([]rawRule, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comment = '#'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	if head := firstLine(data); bytes.Contains(head, []byte("\t")) && !bytes.Contains(head, []byte(",")) {
		r.Comma = '\t'
	}

	var out []rawRule
	for row := 0; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &lineError{line: perr.Line, err: perr.Err}
			}
			return nil, err
		}
		line, _ := r.FieldPos(0)
		if row == 0 && isHeader(rec) {
			continue
		}
		if len(rec) < 3 {
			return nil, &lineError{line: line, err: fmt.Errorf("expected 3 fields (identifier, pattern, remediation), got %d", len(rec))}
		}
		pattern := strings.Join(rec[1:len(rec)-1], string(r.Comma))
		out = append(out, rawRule{
			line:        line,
			id:          strings.TrimSpace(rec[0]),
			kind:        model.PatternMatch,
			target:      strings.TrimSpace(pattern),
			remediation: splitCommands(rec[len(rec)-1]),
		})
	}
	return out, nil
}

func firstLine(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i]
	}
	return data
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	h := strings.ToLower(strings.TrimSpace(rec[0]))
	return h == "identifier" || h == "id"
}

func splitCommands(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ";") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// yamlBaseline is the on-disk shape of a structured rule table.
type yamlBaseline struct {
	Name  string     `yaml:"name"`
	Rules []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	ID          string      `yaml:"id"`
	Kind        string      `yaml:"kind"`
	Match       string      `yaml:"match"`
	Exact       bool        `yaml:"exact"`
	Remediation commandList `yaml:"remediation"`
	Description string      `yaml:"description"`
	line        int
}

// UnmarshalYAML records the node position so errors can point at the rule.
func (r *yamlRule) UnmarshalYAML(node *yaml.Node) error {
	type plain yamlRule
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = yamlRule(p)
	r.line = node.Line
	return nil
}

// commandList accepts either a single command or a list of commands.
type commandList []string

func (c *commandList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = splitCommands(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*c = list
		return nil
	}
	return fmt.Errorf("line %d: remediation must be a string or a list of strings", node.Line)
}

func parseYAML(data []byte) (string, []rawRule, error) {
	var doc yamlBaseline
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return "", nil, err
	}

	out := make([]rawRule, 0, len(doc.Rules))
	for _, yr := range doc.Rules {
		kind, err := parseKind(yr.Kind)
		if err != nil {
			return "", nil, &lineError{line: yr.line, err: fmt.Errorf("rule %q: %w", yr.ID, err)}
		}
		out = append(out, rawRule{
			line:        yr.line,
			id:          strings.TrimSpace(yr.ID),
			kind:        kind,
			target:      yr.Match,
			exact:       yr.Exact,
			remediation: []string(yr.Remediation),
			description: yr.Description,
		})
	}
	return doc.Name, out, nil
}

func parseKind(s string) (model.RuleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pattern", "regex", "match":
		return model.PatternMatch, nil
	case "present", "presence", "literal":
		return model.LiteralPresence, nil
	case "absent", "absence", "forbidden":
		return model.LiteralAbsence, nil
	}
	return "", fmt.Errorf("unknown rule kind %q", s)
}
