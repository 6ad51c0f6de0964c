// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/baseliner/baseliner/internal/config"
	"github.com/baseliner/baseliner/internal/i18n"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the configuration file",
	}

	var (
		system bool
		path   string
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to a file",
		Long: `Write the effective configuration (defaults, file, environment and
flags merged) to the user config file, the system config file with
--system, or the path given with --path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := config.WriteConfigFile(&a.cfg, path, system)
			if err != nil {
				return err
			}
			cmd.Println(i18n.T("cli.config_written", written))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&system, "system", false, "write the system-wide config file")
	initCmd.Flags().StringVar(&path, "path", "", "write to this file instead")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
