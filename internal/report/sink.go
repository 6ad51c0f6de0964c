// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package report

import (
	"context"
	"errors"
	"sync"

	"github.com/baseliner/baseliner/internal/reconcile"
)

// Multi fans an outcome out to every sink and joins their errors.
func Multi(sinks ...reconcile.Sink) reconcile.Sink {
	return reconcile.SinkFunc(func(ctx context.Context, o reconcile.Outcome) error {
		var errs []error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Emit(ctx, o); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Tally counts outcomes by result. It is safe for concurrent use.
type Tally struct {
	mu        sync.Mutex
	total     int
	compliant int
	failed    int
	faults    int
	pending   int
}

// Emit implements reconcile.Sink.
func (t *Tally) Emit(_ context.Context, o reconcile.Outcome) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total++
	res := o.Result
	switch {
	case res.Fault:
		t.faults++
	case res.Pending:
		t.pending++
	case res.State == reconcile.Done:
		t.compliant++
	default:
		t.failed++
	}
	return nil
}

// Counts returns total, compliant, pending, failed and faulted outcomes.
func (t *Tally) Counts() (total, compliant, pending, failed, faults int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total, t.compliant, t.pending, t.failed, t.faults
}

// OK reports whether every device ended compliant.
func (t *Tally) OK() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.compliant == t.total
}
