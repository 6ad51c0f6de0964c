// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/baseliner/baseliner/internal/compare"
	"github.com/baseliner/baseliner/internal/i18n"
	"github.com/baseliner/baseliner/internal/model"
	"github.com/baseliner/baseliner/internal/normalize"
	"github.com/baseliner/baseliner/internal/remediate"
	"github.com/baseliner/baseliner/internal/report"
)

const (
	againstDesired  = "desired"
	againstLiterals = "literals"
)

func newDiffCmd(a *app) *cobra.Command {
	var (
		host    string
		against string
		reverse bool
		context int
	)
	cmd := &cobra.Command{
		Use:   "diff [host]",
		Short: "Show a unified diff between the running config and the baseline",
		Long: `Fetch the running configuration of one device and print a unified diff.
With --against desired (default) the other side is the running config
with the remediation plan appended. With --against literals it is the
list of required lines of the baseline. The diff is informational only.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				host = args[0]
			}
			b, err := a.loadBaseline(cmd)
			if err != nil {
				return err
			}
			running, err := a.fetchOne(cmd, host)
			if err != nil {
				return err
			}
			snap := normalize.String(running)

			from, to := snap.Texts(), target(snap, b, against)
			fromLabel, toLabel := "running-config", b.Name
			if reverse {
				from, to = to, from
				fromLabel, toLabel = toLabel, fromLabel
			}
			ud, err := compare.Unified(from, to, fromLabel, toLabel, context)
			if err != nil {
				return fmt.Errorf("diff: %w", err)
			}
			return a.printDiff(cmd.OutOrStdout(), ud)
		},
	}
	f := cmd.Flags()
	f.StringVar(&host, "host", "", "device to compare ([user@]host[:port])")
	f.StringVar(&against, "against", againstDesired, `compare with "desired" or "literals"`)
	f.BoolVar(&reverse, "reverse", false, "swap the two sides")
	f.IntVar(&context, "context", 3, "lines of context")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if against != againstDesired && against != againstLiterals {
			return fmt.Errorf("--against: unknown value %q (desired, literals)", against)
		}
		return nil
	}
	return cmd
}

// target returns the desired side of a diff.
func target(snap model.Snapshot, b *model.Baseline, against string) []string {
	if against == againstLiterals {
		return b.Literals()
	}
	plan := remediate.Build(compare.Evaluate(snap, b))
	return snap.Append(plan.Commands...).Texts()
}

func (a *app) printDiff(w io.Writer, unified string) error {
	if unified == "" {
		_, err := fmt.Fprintln(w, i18n.T("cli.diff_identical"))
		return err
	}
	if a.cfg.Output == "json" {
		_, err := io.WriteString(w, unified)
		return err
	}
	_, err := io.WriteString(w, report.NewText(w, false).RenderDiff(unified))
	return err
}
