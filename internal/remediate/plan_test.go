// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package remediate

import (
	"reflect"
	"testing"

	"github.com/baseliner/baseliner/internal/baseline"
	"github.com/baseliner/baseliner/internal/compare"
	"github.com/baseliner/baseliner/internal/model"
	"github.com/baseliner/baseliner/internal/normalize"
)

func TestBuild_LiteralListScenario(t *testing.T) {
	b, err := baseline.Parse("guide.txt", []byte("no ip http server\nlogging host 10.0.0.5\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	report := compare.Evaluate(normalize.String("hostname R1\nlogging host 10.0.0.5\n"), b)

	plan := Build(report)
	if !reflect.DeepEqual(plan.Commands, []string{"no ip http server"}) {
		t.Fatalf("Commands = %v", plan.Commands)
	}
	if !reflect.DeepEqual(plan.Rules, []string{"no ip http server"}) {
		t.Fatalf("Rules = %v", plan.Rules)
	}
	if plan.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want %d", plan.Limit, DefaultLimit)
	}
}

func TestBuild_CompliantReportYieldsEmptyPlan(t *testing.T) {
	report := model.Report{Findings: []model.Finding{{RuleID: "a", Status: model.Compliant}}}
	plan := Build(report)
	if !plan.Empty() || len(plan.Rules) != 0 {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
	if Remediable(report) {
		t.Errorf("compliant report is not remediable")
	}
}

func TestBuild_DeduplicatesInFirstOccurrenceOrder(t *testing.T) {
	report := model.Report{Findings: []model.Finding{
		{RuleID: "timeout", Status: model.Missing, Remediation: []string{"line vty 0 4", "exec-timeout 5 0"}},
		{RuleID: "ok", Status: model.Compliant},
		{RuleID: "telnet", Status: model.Missing, Remediation: []string{"line vty 0 4", "transport input ssh"}},
		{RuleID: "again", Status: model.Missing, Remediation: []string{"exec-timeout 5 0"}},
	}}
	plan := Build(report)
	want := []string{"line vty 0 4", "exec-timeout 5 0", "transport input ssh"}
	if !reflect.DeepEqual(plan.Commands, want) {
		t.Fatalf("Commands = %v, want %v", plan.Commands, want)
	}
	if !reflect.DeepEqual(plan.Rules, []string{"timeout", "telnet", "again"}) {
		t.Fatalf("Rules = %v", plan.Rules)
	}
}

func TestBuild_SkipsUnknownFindings(t *testing.T) {
	report := model.Report{Findings: []model.Finding{
		{RuleID: "u", Status: model.Unknown, Remediation: []string{"should not be sent"}},
	}}
	if plan := Build(report); !plan.Empty() {
		t.Fatalf("unknown findings must not be remediated, got %v", plan.Commands)
	}
	if Remediable(report) {
		t.Errorf("unknown-only report is not remediable")
	}
}

func TestBuild_Limit(t *testing.T) {
	report := model.Report{Findings: []model.Finding{
		{RuleID: "a", Status: model.Missing, Remediation: []string{"1", "2", "3"}},
	}}
	plan := Build(report, WithLimit(2))
	if got := len(plan.Batches()); got != 2 {
		t.Fatalf("expected 2 batches, got %d", got)
	}
	if plan := Build(report, WithLimit(0)); plan.Limit != DefaultLimit {
		t.Fatalf("non-positive limit must fall back to default, got %d", plan.Limit)
	}
}
