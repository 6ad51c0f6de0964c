// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baseliner/baseliner/internal/i18n"
	"github.com/baseliner/baseliner/internal/logging"
	"github.com/baseliner/baseliner/internal/normalize"
)

func newFetchCmd(a *app) *cobra.Command {
	var host, out string
	cmd := &cobra.Command{
		Use:   "fetch [host]",
		Short: "Print or save the running configuration of one device",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				host = args[0]
			}
			running, err := a.fetchOne(cmd, host)
			if err != nil {
				return err
			}
			text := normalize.String(running).Joined() + "\n"
			if out == "" || out == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			if err := os.WriteFile(out, []byte(text), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			cmd.Println(i18n.T("cli.fetch_saved", out))
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "device to read ([user@]host[:port])")
	cmd.Flags().StringVar(&out, "out", "", "write to this file instead of stdout")
	return cmd
}

// fetchOne reads the running configuration of a single device. Without a
// host the configuration must list exactly one device.
func (a *app) fetchOne(cmd *cobra.Command, host string) (string, error) {
	var hosts []string
	if host != "" {
		hosts = []string{host}
	}
	targets, err := a.targets(cmd, hosts)
	if err != nil {
		return "", err
	}
	if len(targets) != 1 {
		return "", i18n.Error("cli.error_one_device", len(targets))
	}

	ctx := cmd.Context()
	conn, err := a.dial(ctx, targets[0])
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logging.Debugf("close %s: %v", targets[0].Host, cerr)
		}
	}()
	return conn.FetchRunningConfig(ctx)
}
