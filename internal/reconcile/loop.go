// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package reconcile

import (
	"context"
	"errors"
	"fmt"

	clog "github.com/charmbracelet/log"

	"github.com/baseliner/baseliner/internal/compare"
	"github.com/baseliner/baseliner/internal/logging"
	"github.com/baseliner/baseliner/internal/model"
	"github.com/baseliner/baseliner/internal/normalize"
	"github.com/baseliner/baseliner/internal/remediate"
)

// DefaultMaxRetries is the number of extra plan/apply/verify cycles allowed
// after the first verification fails.
const DefaultMaxRetries = 1

// Loop reconciles one device against one baseline. A Loop is not safe for
// concurrent use; run one per device.
type Loop struct {
	session    Session
	baseline   *model.Baseline
	host       string
	apply      bool
	maxRetries int
	limit      int
	logger     *clog.Logger
	sinks      []Sink
}

// Option configures a Loop.
type Option func(*Loop)

// WithApply enables (default) or disables pushing remediation to the device.
func WithApply(apply bool) Option {
	return func(l *Loop) { l.apply = apply }
}

// WithMaxRetries bounds the extra remediation cycles after a failed
// verification. Negative values are treated as zero.
func WithMaxRetries(n int) Option {
	return func(l *Loop) {
		if n < 0 {
			n = 0
		}
		l.maxRetries = n
	}
}

// WithLimit sets the maximum number of commands per apply call.
func WithLimit(n int) Option {
	return func(l *Loop) { l.limit = n }
}

// WithHost names the device in logs, errors and outcomes.
func WithHost(host string) Option {
	return func(l *Loop) { l.host = host }
}

// WithLogger replaces the package logger.
func WithLogger(logger *clog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithSink adds a sink that receives the outcome when Run finishes.
func WithSink(s Sink) Option {
	return func(l *Loop) {
		if s != nil {
			l.sinks = append(l.sinks, s)
		}
	}
}

// New returns a Loop for the given session and baseline.
func New(session Session, baseline *model.Baseline, opts ...Option) *Loop {
	l := &Loop{
		session:    session,
		baseline:   baseline,
		apply:      true,
		maxRetries: DefaultMaxRetries,
		limit:      remediate.DefaultLimit,
		logger:     logging.L,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Run executes the state machine until Done or Failed. It never panics on
// device or baseline content; failures are reported in Result.Err. Sinks are
// called once with the final result; sink errors are logged, not returned.
func (l *Loop) Run(ctx context.Context) Result {
	res := l.run(ctx)
	l.emit(ctx, res)
	return res
}

func (l *Loop) run(ctx context.Context) Result {
	res := Result{Device: l.host}
	log := l.logger.With("device", l.host)

	enter := func(s State) {
		res.State = s
		res.Trace = append(res.Trace, s)
		log.Debug("state", "state", s)
	}
	fail := func(err error) Result {
		enter(Failed)
		res.Err = err
		log.Warn("reconcile failed", "err", err, "cycles", res.Cycles)
		return res
	}

	// Auditing
	enter(Auditing)
	if err := ctx.Err(); err != nil {
		res.Report = compare.Unavailable(l.baseline)
		return fail(err)
	}
	report, raw, err := l.audit(ctx)
	res.Report, res.Snapshot = report, raw
	if err != nil {
		return fail(err)
	}
	if report.FullyCompliant() {
		enter(Done)
		log.Info("compliant", "rules", len(report.Findings))
		return res
	}

	for {
		// Planning
		enter(Planning)
		plan := remediate.Build(res.Report, remediate.WithLimit(l.limit))
		res.Plan = plan
		if plan.Empty() {
			res.Fault = true
			return fail(fmt.Errorf("%w (%s)", ErrInconsistent, res.Report.Summary()))
		}
		if !l.apply {
			enter(Failed)
			res.Pending = true
			log.Info("remediation pending", "commands", len(plan.Commands))
			return res
		}
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		// Applying
		enter(Applying)
		res.Cycles++
		if err := l.applyPlan(ctx, plan, &res); err != nil {
			return fail(err)
		}
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		// Verifying
		enter(Verifying)
		report, raw, err := l.audit(ctx)
		if err != nil {
			return fail(err)
		}
		res.Report, res.Snapshot = report, raw
		if report.FullyCompliant() {
			enter(Done)
			log.Info("remediated", "cycles", res.Cycles, "commands", len(res.Applied))
			return res
		}
		if res.Cycles > l.maxRetries {
			return fail(fmt.Errorf("still non-compliant after %d cycle(s): %s", res.Cycles, report.Summary()))
		}
	}
}

// audit fetches and evaluates the running configuration. On failure the
// returned report marks every rule Unknown.
func (l *Loop) audit(ctx context.Context) (model.Report, string, error) {
	raw, err := l.session.FetchRunningConfig(ctx)
	if err != nil {
		return compare.Unavailable(l.baseline), "", l.transportError(model.OpFetch, err)
	}
	return compare.Evaluate(normalize.String(raw), l.baseline), raw, nil
}

// applyPlan sends the plan batch by batch. A started batch is finished even
// when ctx is cancelled; cancellation is observed between batches.
func (l *Loop) applyPlan(ctx context.Context, plan model.Plan, res *Result) error {
	for _, batch := range plan.Batches() {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Attempted = append(res.Attempted, batch...)
		_, err := l.session.ApplyCommands(context.WithoutCancel(ctx), batch)
		if err != nil {
			terr := l.transportError(model.OpApply, err)
			sent := min(max(terr.Sent, 0), len(batch))
			res.Applied = append(res.Applied, batch[:sent]...)
			return terr
		}
		res.Applied = append(res.Applied, batch...)
	}
	return nil
}

func (l *Loop) transportError(op string, err error) *model.TransportError {
	var terr *model.TransportError
	if errors.As(err, &terr) {
		if terr.Host == "" {
			terr.Host = l.host
		}
		return terr
	}
	return &model.TransportError{Op: op, Host: l.host, Err: err}
}

func (l *Loop) emit(ctx context.Context, res Result) {
	if len(l.sinks) == 0 {
		return
	}
	o := Outcome{Device: l.host, Result: res}
	if l.baseline != nil {
		o.Baseline = l.baseline.Name
	}
	for _, s := range l.sinks {
		if err := s.Emit(context.WithoutCancel(ctx), o); err != nil {
			l.logger.Warn("sink failed", "device", l.host, "err", err)
		}
	}
}
