// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/baseliner/baseliner/internal/history"
	"github.com/baseliner/baseliner/internal/i18n"
	"github.com/baseliner/baseliner/internal/logging"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		device   string
		limit    int
		export   string
		snapshot int64
		auditLog bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the runs recorded in the history database, most recent first.
--snapshot prints the running configuration captured by one run,
--export writes the matching runs as compressed JSON and --audit-log
lists the remediation actions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := history.Open(ctx, a.cfg.History.Type, a.cfg.History.Dsn)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer func() {
				if err := st.Close(); err != nil {
					logging.Warnf("close history: %v", err)
				}
			}()

			out := cmd.OutOrStdout()
			f := history.Filter{Device: device, Limit: limit}
			switch {
			case snapshot > 0:
				text, err := st.Snapshot(ctx, snapshot)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, text)
				return err

			case export != "":
				file, err := os.OpenFile(export, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
				if err != nil {
					return fmt.Errorf("create %s: %w", export, err)
				}
				if err := st.Export(ctx, f, file); err != nil {
					_ = file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return err
				}
				cmd.Println(i18n.T("cli.history_exported", export))
				return nil

			case auditLog:
				entries, err := st.AuditLog(ctx, limit)
				if err != nil {
					return err
				}
				if a.cfg.Output == "json" {
					return json.NewEncoder(out).Encode(entries)
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Username, e.Action, e.Details)
				}
				return w.Flush()
			}

			runs, err := st.ListRuns(ctx, f)
			if err != nil {
				return err
			}
			if a.cfg.Output == "json" {
				return json.NewEncoder(out).Encode(runs)
			}
			if len(runs) == 0 {
				cmd.Println(i18n.T("cli.history_empty"))
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				i18n.T("cli.col_run"), i18n.T("cli.col_time"), i18n.T("cli.col_device"),
				i18n.T("cli.col_state"), i18n.T("cli.col_missing"), i18n.T("cli.col_applied"))
			for _, r := range runs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\n",
					r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Device, r.State, r.Counts.Missing, len(r.Applied))
			}
			return w.Flush()
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&device, "device", "", "only runs of this device")
	fl.IntVar(&limit, "limit", 20, "maximum number of entries (0 for all)")
	fl.StringVar(&export, "export", "", "write matching runs to this file (zstd-compressed JSON)")
	fl.Int64Var(&snapshot, "snapshot", 0, "print the running config captured by this run")
	fl.BoolVar(&auditLog, "audit-log", false, "list the audit log instead of runs")
	return cmd
}
