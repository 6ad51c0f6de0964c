// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package fleet reconciles many devices concurrently. Each device gets its
// own session and loop; the baseline is shared read-only.
package fleet // import "github.com/baseliner/baseliner/internal/fleet"

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/baseliner/baseliner/internal/compare"
	"github.com/baseliner/baseliner/internal/logging"
	"github.com/baseliner/baseliner/internal/model"
	"github.com/baseliner/baseliner/internal/reconcile"
	"github.com/baseliner/baseliner/internal/session"
)

// DefaultConcurrency is the number of devices processed at once.
const DefaultConcurrency = 4

// Conn is an open device session.
type Conn interface {
	reconcile.Session
	io.Closer
}

// Dialer opens a session to a target.
type Dialer func(ctx context.Context, t session.Target) (Conn, error)

// DialSSH is the Dialer backed by package session.
func DialSSH(ctx context.Context, t session.Target) (Conn, error) {
	c, err := session.Dial(ctx, t)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Runner drives one reconciliation loop per target.
type Runner struct {
	Baseline    *model.Baseline
	Dial        Dialer
	Concurrency int
	Options     []reconcile.Option // applied to every loop
	Sink        reconcile.Sink
}

// Run reconciles every target and returns the results in target order.
// A device that cannot be reached ends Failed with every rule Unknown; it
// does not stop the other devices. Only cancellation of ctx is returned as
// an error.
func (r *Runner) Run(ctx context.Context, targets []session.Target) ([]reconcile.Result, error) {
	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]reconcile.Result, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, t := range targets {
		g.Go(func() error {
			results[i] = r.one(gctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}

func (r *Runner) one(ctx context.Context, t session.Target) reconcile.Result {
	opts := append([]reconcile.Option{reconcile.WithHost(t.Host)}, r.Options...)
	if r.Sink != nil {
		opts = append(opts, reconcile.WithSink(r.Sink))
	}

	conn, err := r.dial(ctx, t)
	if err != nil {
		res := reconcile.Result{
			Device: t.Host,
			State:  reconcile.Failed,
			Report: compare.Unavailable(r.Baseline),
			Trace:  []reconcile.State{reconcile.Auditing, reconcile.Failed},
			Err:    err,
		}
		logging.L.Warn("device unreachable", "device", t.Host, "err", err)
		if r.Sink != nil {
			o := reconcile.Outcome{Device: t.Host, Result: res}
			if r.Baseline != nil {
				o.Baseline = r.Baseline.Name
			}
			if serr := r.Sink.Emit(context.WithoutCancel(ctx), o); serr != nil {
				logging.L.Warn("sink failed", "device", t.Host, "err", serr)
			}
		}
		return res
	}
	defer conn.Close()
	return reconcile.New(conn, r.Baseline, opts...).Run(ctx)
}

func (r *Runner) dial(ctx context.Context, t session.Target) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dial := r.Dial
	if dial == nil {
		dial = DialSSH
	}
	return dial(ctx, t)
}
