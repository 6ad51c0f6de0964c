// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package reconcile drives one device through audit, remediation and
// verification until it matches its baseline or the retry bound is spent.
package reconcile // import "github.com/baseliner/baseliner/internal/reconcile"

import (
	"context"
	"errors"

	"github.com/baseliner/baseliner/internal/model"
)

// ErrInconsistent marks a non-compliant report that produced no command to
// send. It is a baseline authoring fault, not a device failure.
var ErrInconsistent = errors.New("non-compliant report produced an empty remediation plan")

// State is a reconciliation phase.
type State string

const (
	Auditing  State = "auditing"
	Planning  State = "planning"
	Applying  State = "applying"
	Verifying State = "verifying"
	Done      State = "done"
	Failed    State = "failed"
)

// Terminal reports whether the loop stops in s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// Session is the device connection used by the loop. Failures are returned as
// *model.TransportError; anything else is wrapped into one.
type Session interface {
	FetchRunningConfig(ctx context.Context) (string, error)
	ApplyCommands(ctx context.Context, cmds []string) (string, error)
}

// Result is the outcome of one Run.
type Result struct {
	Device    string       `json:"device"`
	State     State        `json:"state"`
	Report    model.Report `json:"report"`
	Plan      model.Plan   `json:"plan"`
	Trace     []State      `json:"trace"`
	Cycles    int          `json:"cycles"`              // Remediation cycles started.
	Attempted []string     `json:"attempted,omitempty"` // Commands handed to the session.
	Applied   []string     `json:"applied,omitempty"`   // Commands confirmed sent.
	Pending   bool         `json:"pending,omitempty"`   // Audit-only run left remediation undone.
	Fault     bool         `json:"fault,omitempty"`     // Consistency fault, see ErrInconsistent.
	Snapshot  string       `json:"-"`                   // Last fetched running configuration.
	Err       error        `json:"-"`
}

// Compliant reports whether the run ended in Done with a compliant report.
func (r Result) Compliant() bool {
	return r.State == Done && r.Report.FullyCompliant()
}

// Outcome is what a Sink receives after each device run.
type Outcome struct {
	Device   string
	Baseline string
	Result   Result
}

// Sink consumes run outcomes: terminal output, JSON, audit history.
type Sink interface {
	Emit(ctx context.Context, o Outcome) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, o Outcome) error

func (f SinkFunc) Emit(ctx context.Context, o Outcome) error { return f(ctx, o) }
