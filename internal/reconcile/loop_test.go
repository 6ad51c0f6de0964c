// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package reconcile

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"

	clog "github.com/charmbracelet/log"

	"github.com/baseliner/baseliner/internal/baseline"
	"github.com/baseliner/baseliner/internal/model"
)

// fakeDevice is an in-memory router: applied commands are appended to its
// running configuration unless they start with "no " and remove a line.
type fakeDevice struct {
	mu        sync.Mutex
	config    []string
	fetchErr  error
	failAfter int // ApplyCommands fails after this many commands when >= 0.
	ignore    bool
	applied   [][]string
	fetches   int
	onApply   func()
}

func newDevice(lines ...string) *fakeDevice {
	return &fakeDevice{config: lines, failAfter: -1}
}

func (d *fakeDevice) FetchRunningConfig(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fetches++
	if d.fetchErr != nil {
		return "", d.fetchErr
	}
	return strings.Join(d.config, "\n") + "\n", nil
}

func (d *fakeDevice) ApplyCommands(ctx context.Context, cmds []string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applied = append(d.applied, append([]string(nil), cmds...))
	if d.onApply != nil {
		d.onApply()
	}
	for i, c := range cmds {
		if d.failAfter >= 0 && i >= d.failAfter {
			return "", &model.TransportError{Op: model.OpApply, Sent: i, Err: errors.New("connection reset")}
		}
		if d.ignore {
			continue
		}
		d.config = append(d.config, c)
	}
	return "", nil
}

func quietLogger() *clog.Logger {
	return clog.New(io.Discard)
}

func mustBaseline(t *testing.T, list string) *model.Baseline {
	t.Helper()
	b, err := baseline.Parse("guide.txt", []byte(list))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return b
}

func TestRun_AlreadyCompliant(t *testing.T) {
	dev := newDevice("hostname R1", "no ip http server")
	res := New(dev, mustBaseline(t, "no ip http server\n"), WithLogger(quietLogger())).Run(context.Background())

	if res.State != Done || !res.Compliant() {
		t.Fatalf("expected Done, got %s (%v)", res.State, res.Err)
	}
	if !reflect.DeepEqual(res.Trace, []State{Auditing, Done}) {
		t.Errorf("trace = %v", res.Trace)
	}
	if len(dev.applied) != 0 {
		t.Errorf("nothing must be applied to a compliant device")
	}
}

func TestRun_RemediatesAndVerifies(t *testing.T) {
	dev := newDevice("hostname R1", "logging host 10.0.0.5")
	b := mustBaseline(t, "no ip http server\nlogging host 10.0.0.5\n")
	res := New(dev, b, WithHost("r1"), WithLogger(quietLogger())).Run(context.Background())

	if res.State != Done {
		t.Fatalf("expected Done, got %s: %v", res.State, res.Err)
	}
	want := []State{Auditing, Planning, Applying, Verifying, Done}
	if !reflect.DeepEqual(res.Trace, want) {
		t.Errorf("trace = %v, want %v", res.Trace, want)
	}
	if !reflect.DeepEqual(res.Plan.Commands, []string{"no ip http server"}) {
		t.Errorf("plan = %v", res.Plan.Commands)
	}
	if !reflect.DeepEqual(res.Applied, []string{"no ip http server"}) || res.Cycles != 1 {
		t.Errorf("applied = %v, cycles = %d", res.Applied, res.Cycles)
	}
	if res.Device != "r1" {
		t.Errorf("device = %q", res.Device)
	}
}

func TestRun_TransportErrorDuringApply(t *testing.T) {
	dev := newDevice("hostname R1")
	dev.failAfter = 1
	b := mustBaseline(t, "no ip http server\nservice password-encryption\n")
	res := New(dev, b, WithHost("r1"), WithLogger(quietLogger())).Run(context.Background())

	if res.State != Failed {
		t.Fatalf("expected Failed, got %s", res.State)
	}
	var terr *model.TransportError
	if !errors.As(res.Err, &terr) || terr.Op != model.OpApply || terr.Host != "r1" {
		t.Fatalf("expected apply TransportError, got %v", res.Err)
	}
	if res.Report.Counts().Missing != 2 {
		t.Errorf("report must be the pre-apply report, got %+v", res.Report.Counts())
	}
	if !reflect.DeepEqual(res.Attempted, []string{"no ip http server", "service password-encryption"}) {
		t.Errorf("attempted = %v", res.Attempted)
	}
	if !reflect.DeepEqual(res.Applied, []string{"no ip http server"}) {
		t.Errorf("applied = %v", res.Applied)
	}
	if dev.fetches != 1 {
		t.Errorf("no verification after a failed apply, fetches = %d", dev.fetches)
	}
}

func TestRun_FetchFailure(t *testing.T) {
	dev := newDevice()
	dev.fetchErr = errors.New("dial tcp: i/o timeout")
	b := mustBaseline(t, "no ip http server\n")
	res := New(dev, b, WithLogger(quietLogger())).Run(context.Background())

	if res.State != Failed {
		t.Fatalf("expected Failed, got %s", res.State)
	}
	var terr *model.TransportError
	if !errors.As(res.Err, &terr) || terr.Op != model.OpFetch {
		t.Fatalf("plain errors must be wrapped as fetch TransportError, got %v", res.Err)
	}
	if f, _ := res.Report.Finding("no ip http server"); f.Status != model.Unknown {
		t.Errorf("expected Unknown finding, got %s", f.Status)
	}
}

func TestRun_RetryBound(t *testing.T) {
	dev := newDevice("hostname R1")
	dev.ignore = true
	b := mustBaseline(t, "no ip http server\n")

	tests := []struct {
		name    string
		retries int
		cycles  int
	}{
		{"default", DefaultMaxRetries, 2},
		{"no retry", 0, 1},
		{"two retries", 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(dev, b, WithMaxRetries(tt.retries), WithLogger(quietLogger())).Run(context.Background())
			if res.State != Failed || res.Err == nil {
				t.Fatalf("expected Failed with error, got %s", res.State)
			}
			if res.Cycles != tt.cycles {
				t.Errorf("cycles = %d, want %d", res.Cycles, tt.cycles)
			}
			if res.Report.Counts().Missing != 1 {
				t.Errorf("expected residual report, got %+v", res.Report.Counts())
			}
		})
	}
}

func TestRun_ConsistencyFault(t *testing.T) {
	b, err := model.NewBaseline("broken", []model.Rule{{ID: "x", Kind: model.LiteralPresence, Target: "no ip http server"}})
	if err != nil {
		t.Fatalf("NewBaseline: %v", err)
	}
	res := New(newDevice("hostname R1"), b, WithLogger(quietLogger())).Run(context.Background())
	if res.State != Failed || !res.Fault || !errors.Is(res.Err, ErrInconsistent) {
		t.Fatalf("expected consistency fault, got state=%s fault=%v err=%v", res.State, res.Fault, res.Err)
	}
}

func TestRun_AuditOnly(t *testing.T) {
	dev := newDevice("hostname R1")
	res := New(dev, mustBaseline(t, "no ip http server\n"), WithApply(false), WithLogger(quietLogger())).Run(context.Background())
	if res.State != Failed || !res.Pending || res.Err != nil {
		t.Fatalf("expected pending Failed without error, got %+v", res)
	}
	if res.Plan.Empty() || len(dev.applied) != 0 {
		t.Errorf("audit-only run must plan but not apply")
	}
}

func TestRun_EmptyBaseline(t *testing.T) {
	b, _ := model.NewBaseline("empty", nil)
	res := New(newDevice(), b, WithLogger(quietLogger())).Run(context.Background())
	if res.State != Done {
		t.Fatalf("empty baseline is always compliant, got %s", res.State)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dev := newDevice()
	res := New(dev, mustBaseline(t, "no ip http server\n"), WithLogger(quietLogger())).Run(ctx)
	if res.State != Failed || !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected cancelled Failed, got %s %v", res.State, res.Err)
	}
	if dev.fetches != 0 {
		t.Errorf("cancelled run must not touch the device")
	}
}

func TestRun_CancelDuringApplyFinishesBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dev := newDevice("hostname R1")
	dev.onApply = cancel
	b := mustBaseline(t, "no ip http server\nservice password-encryption\nno ip source-route\n")

	res := New(dev, b, WithLimit(2), WithLogger(quietLogger())).Run(ctx)
	if res.State != Failed || !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected cancelled Failed, got %s %v", res.State, res.Err)
	}
	if len(dev.applied) != 1 || len(res.Applied) != 2 {
		t.Fatalf("in-flight batch must complete and the next must not start: batches=%d applied=%v", len(dev.applied), res.Applied)
	}
}

func TestRun_EmitsToSinks(t *testing.T) {
	var got []Outcome
	sink := SinkFunc(func(_ context.Context, o Outcome) error {
		got = append(got, o)
		return errors.New("sink down")
	})
	res := New(newDevice("no ip http server"), mustBaseline(t, "no ip http server\n"),
		WithHost("r1"), WithSink(sink), WithLogger(quietLogger())).Run(context.Background())
	if res.State != Done {
		t.Fatalf("sink errors must not change the result, got %s", res.State)
	}
	if len(got) != 1 || got[0].Device != "r1" || got[0].Baseline != "guide.txt" {
		t.Fatalf("unexpected outcomes %+v", got)
	}
}
