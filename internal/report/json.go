// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package report

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/baseliner/baseliner/internal/model"
	"github.com/baseliner/baseliner/internal/reconcile"
)

// Record is the JSON form of an outcome.
type Record struct {
	Device    string            `json:"device"`
	Baseline  string            `json:"baseline"`
	State     reconcile.State   `json:"state"`
	Compliant bool              `json:"compliant"`
	Counts    model.Counts      `json:"counts"`
	Findings  []model.Finding   `json:"findings"`
	Plan      []string          `json:"plan,omitempty"`
	Attempted []string          `json:"attempted,omitempty"`
	Applied   []string          `json:"applied,omitempty"`
	Cycles    int               `json:"cycles"`
	Trace     []reconcile.State `json:"trace"`
	Pending   bool              `json:"pending,omitempty"`
	Fault     bool              `json:"fault,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// NewRecord converts an outcome.
func NewRecord(o reconcile.Outcome) Record {
	res := o.Result
	r := Record{
		Device:    o.Device,
		Baseline:  o.Baseline,
		State:     res.State,
		Compliant: res.Compliant(),
		Counts:    res.Report.Counts(),
		Findings:  res.Report.Findings,
		Plan:      res.Plan.Commands,
		Attempted: res.Attempted,
		Applied:   res.Applied,
		Cycles:    res.Cycles,
		Trace:     res.Trace,
		Pending:   res.Pending,
		Fault:     res.Fault,
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	return r
}

// JSONSink writes one JSON object per line.
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSON returns a JSONSink writing to w.
func NewJSON(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

// Emit implements reconcile.Sink.
func (s *JSONSink) Emit(_ context.Context, o reconcile.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(NewRecord(o))
}
