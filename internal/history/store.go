// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/baseliner/baseliner/internal/model"
	"github.com/baseliner/baseliner/internal/reconcile"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// runModel maps the audit_runs table.
type runModel struct {
	bun.BaseModel `bun:"table:audit_runs"`
	ID            int64          `bun:"id,pk,autoincrement"`
	Device        string         `bun:"device"`
	Baseline      string         `bun:"baseline"`
	State         string         `bun:"state"`
	Compliant     int            `bun:"compliant"`
	Missing       int            `bun:"missing"`
	Unknown       int            `bun:"unknown"`
	Cycles        int            `bun:"cycles"`
	Fault         bool           `bun:"fault"`
	Pending       bool           `bun:"pending"`
	Error         sql.NullString `bun:"error"`
	Findings      string         `bun:"findings"`
	Plan          string         `bun:"plan"`
	Applied       string         `bun:"applied"`
	Snapshot      []byte         `bun:"snapshot"`
	CreatedAt     time.Time      `bun:"created_at"`
}

// auditLogModel maps the audit_log table.
type auditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Username      string `bun:"username"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

// Run is a stored reconciliation run.
type Run struct {
	ID        int64           `json:"id"`
	Device    string          `json:"device"`
	Baseline  string          `json:"baseline"`
	State     reconcile.State `json:"state"`
	Counts    model.Counts    `json:"counts"`
	Cycles    int             `json:"cycles"`
	Fault     bool            `json:"fault,omitempty"`
	Pending   bool            `json:"pending,omitempty"`
	Error     string          `json:"error,omitempty"`
	Findings  []model.Finding `json:"findings"`
	Plan      []string        `json:"plan,omitempty"`
	Applied   []string        `json:"applied,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Filter narrows ListRuns.
type Filter struct {
	Device string
	Limit  int // 0 means no limit
}

// RecordRun stores the outcome of one run and returns its identifier.
func (s *Store) RecordRun(ctx context.Context, o reconcile.Outcome) (int64, error) {
	res := o.Result
	findings, err := json.Marshal(res.Report.Findings)
	if err != nil {
		return 0, fmt.Errorf("encode findings: %w", err)
	}
	plan, err := json.Marshal(res.Plan.Commands)
	if err != nil {
		return 0, fmt.Errorf("encode plan: %w", err)
	}
	applied, err := json.Marshal(res.Applied)
	if err != nil {
		return 0, fmt.Errorf("encode applied commands: %w", err)
	}
	var snapshot []byte
	if res.Snapshot != "" {
		if snapshot, err = compress([]byte(res.Snapshot)); err != nil {
			return 0, err
		}
	}

	counts := res.Report.Counts()
	m := &runModel{
		Device:    o.Device,
		Baseline:  o.Baseline,
		State:     string(res.State),
		Compliant: counts.Compliant,
		Missing:   counts.Missing,
		Unknown:   counts.Unknown,
		Cycles:    res.Cycles,
		Fault:     res.Fault,
		Pending:   res.Pending,
		Findings:  string(findings),
		Plan:      string(plan),
		Applied:   string(applied),
		Snapshot:  snapshot,
		CreatedAt: time.Now().UTC(),
	}
	if res.Err != nil {
		m.Error = sql.NullString{String: res.Err.Error(), Valid: true}
	}

	if _, err := s.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return 0, fmt.Errorf("record run for %s: %w", o.Device, err)
	}
	return m.ID, nil
}

// ListRuns returns stored runs, most recent first.
func (s *Store) ListRuns(ctx context.Context, f Filter) ([]Run, error) {
	var rows []runModel
	q := s.bun.NewSelect().Model(&rows).
		ExcludeColumn("snapshot").
		OrderExpr("created_at DESC").OrderExpr("id DESC")
	if f.Device != "" {
		q = q.Where("device = ?", f.Device)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]Run, 0, len(rows))
	for _, m := range rows {
		r, err := m.toRun()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Snapshot returns the running configuration captured by a run.
func (s *Store) Snapshot(ctx context.Context, id int64) (string, error) {
	var m runModel
	err := s.bun.NewSelect().Model(&m).Column("snapshot").Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("load snapshot %d: %w", id, err)
	}
	if len(m.Snapshot) == 0 {
		return "", nil
	}
	data, err := decompress(m.Snapshot)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// LogAction records an operator action (remediation pushed, baseline
// changed) in the audit log.
func (s *Store) LogAction(ctx context.Context, action, details string) error {
	m := &auditLogModel{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Username:  currentUser(),
		Action:    action,
		Details:   details,
	}
	_, err := s.bun.NewInsert().Model(m).Exec(ctx)
	return err
}

// AuditEntry is one audit log row.
type AuditEntry struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// AuditLog returns audit log entries, most recent first.
func (s *Store) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	var rows []auditLogModel
	q := s.bun.NewSelect().Model(&rows).OrderExpr("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	out := make([]AuditEntry, 0, len(rows))
	for _, a := range rows {
		out = append(out, AuditEntry{ID: a.ID, Timestamp: a.Timestamp, Username: a.Username, Action: a.Action, Details: a.Details})
	}
	return out, nil
}

// Emit implements reconcile.Sink. Runs that pushed commands are also
// written to the audit log.
func (s *Store) Emit(ctx context.Context, o reconcile.Outcome) error {
	id, err := s.RecordRun(ctx, o)
	if err != nil {
		return err
	}
	if len(o.Result.Applied) > 0 {
		details := fmt.Sprintf("run=%d device=%s commands=%d state=%s", id, o.Device, len(o.Result.Applied), o.Result.State)
		return s.LogAction(ctx, "REMEDIATE", details)
	}
	return nil
}

var _ reconcile.Sink = (*Store)(nil)

func (m runModel) toRun() (Run, error) {
	r := Run{
		ID:        m.ID,
		Device:    m.Device,
		Baseline:  m.Baseline,
		State:     reconcile.State(m.State),
		Counts:    model.Counts{Compliant: m.Compliant, Missing: m.Missing, Unknown: m.Unknown},
		Cycles:    m.Cycles,
		Fault:     m.Fault,
		Pending:   m.Pending,
		Error:     m.Error.String,
		CreatedAt: m.CreatedAt,
	}
	for _, f := range []struct {
		raw  string
		dest any
	}{{m.Findings, &r.Findings}, {m.Plan, &r.Plan}, {m.Applied, &r.Applied}} {
		if f.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw), f.dest); err != nil {
			return Run{}, fmt.Errorf("decode run %d: %w", m.ID, err)
		}
	}
	return r, nil
}

func currentUser() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	if parts := strings.Split(u.Username, `\`); len(parts) > 1 {
		return parts[1]
	}
	return u.Username
}
