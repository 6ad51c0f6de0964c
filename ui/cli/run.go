// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"github.com/spf13/cobra"

	"github.com/baseliner/baseliner/internal/fleet"
	"github.com/baseliner/baseliner/internal/i18n"
	"github.com/baseliner/baseliner/internal/logging"
	"github.com/baseliner/baseliner/internal/reconcile"
	"github.com/baseliner/baseliner/internal/report"
)

func newAuditCmd(a *app) *cobra.Command {
	var hosts []string
	cmd := &cobra.Command{
		Use:   "audit [host...]",
		Short: "Report baseline compliance without changing devices",
		Long: `Fetch the running configuration of every device and evaluate it against
the baseline. Missing rules are listed with the commands that would fix
them. Exits non-zero when a device is not compliant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.reconcile(cmd, append(hosts, args...), false)
		},
	}
	cmd.Flags().StringSliceVar(&hosts, "host", nil, "device to audit ([user@]host[:port]); overrides the configured devices")
	return cmd
}

func newRemediateCmd(a *app) *cobra.Command {
	var (
		hosts  []string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "remediate [host...]",
		Short: "Push missing baseline configuration and verify",
		Long: `Audit every device, send the commands of the remediation plan in
configuration mode and audit again until the device is compliant or the
retry bound is reached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apply := a.cfg.Remediation.Apply && !dryRun
			return a.reconcile(cmd, append(hosts, args...), apply)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&hosts, "host", nil, "device to remediate ([user@]host[:port]); overrides the configured devices")
	f.BoolVar(&dryRun, "dry-run", false, "plan only, do not send commands")
	f.Int("max-commands", 0, "maximum commands per apply call (default from config)")
	f.Int("retries", 0, "re-apply cycles after the first one (default from config)")
	return cmd
}

// reconcile runs the loop on every target and reports each outcome.
func (a *app) reconcile(cmd *cobra.Command, hosts []string, apply bool) error {
	ctx := cmd.Context()
	b, err := a.loadBaseline(cmd)
	if err != nil {
		return err
	}
	targets, err := a.targets(cmd, hosts)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	tally := &report.Tally{}
	sinks := []reconcile.Sink{a.outputSink(cmd.OutOrStdout()), tally}
	if store != nil {
		sinks = append(sinks, store)
	}

	runner := &fleet.Runner{
		Baseline:    b,
		Dial:        a.dial,
		Concurrency: a.cfg.Concurrency,
		Sink:        report.Multi(sinks...),
		Options: []reconcile.Option{
			reconcile.WithApply(apply),
			reconcile.WithMaxRetries(a.cfg.Remediation.Retries),
			reconcile.WithLimit(a.cfg.Remediation.MaxCommands),
			reconcile.WithLogger(logging.L),
		},
	}
	logging.L.Info("starting run", "baseline", b.Name, "rules", b.Len(), "devices", len(targets), "apply", apply)
	if _, err := runner.Run(ctx, targets); err != nil {
		return err
	}

	total, compliant, pending, failed, faults := tally.Counts()
	if a.cfg.Output != "json" {
		cmd.Println(i18n.T("cli.summary", map[string]interface{}{
			"Total": total, "Compliant": compliant, "Pending": pending, "Failed": failed, "Faults": faults,
		}))
	}
	if !tally.OK() {
		return ErrNonCompliant
	}
	return nil
}
