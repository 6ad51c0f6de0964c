// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/baseliner/baseliner/internal/baseline"
	"github.com/baseliner/baseliner/internal/i18n"
)

func newBaselineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Validate and inspect baselines",
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Load the configured baseline and report errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.loadBaseline(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.baseline_ok", b.Name, b.Len()))
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "List the rules of the configured baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.loadBaseline(cmd)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", i18n.T("cli.col_id"), i18n.T("cli.col_kind"), i18n.T("cli.col_match"), i18n.T("cli.col_remediation"))
			for _, r := range b.Rules() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Kind, r.Target, strings.Join(r.Remediation, "; "))
			}
			return w.Flush()
		},
	}

	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in baselines",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range baseline.Profiles() {
				fmt.Fprintln(cmd.OutOrStdout(), "builtin:"+p)
			}
		},
	}

	cmd.AddCommand(checkCmd, showCmd, profilesCmd)
	return cmd
}
