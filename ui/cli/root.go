// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/baseliner/baseliner/internal/config"
	"github.com/baseliner/baseliner/internal/fleet"
	"github.com/baseliner/baseliner/internal/i18n"
	"github.com/baseliner/baseliner/internal/logging"
)

// ErrNonCompliant is returned when at least one device did not end compliant.
// The message has already been reported per device.
var ErrNonCompliant = errors.New("one or more devices are not compliant")

// flagBindings maps configuration keys to global flags with different names.
var flagBindings = []config.Binding{
	{Key: "baseline.path", Flag: "baseline"},
	{Key: "baseline.format", Flag: "format"},
	{Key: "ssh.user", Flag: "user"},
	{Key: "ssh.key_file", Flag: "key"},
	{Key: "ssh.known_hosts", Flag: "known-hosts"},
	{Key: "ssh.insecure", Flag: "insecure"},
	{Key: "log_level", Flag: "log-level"},
	{Key: "remediation.max_commands", Flag: "max-commands"},
	{Key: "remediation.retries", Flag: "retries"},
	{Key: "history.enabled", Flag: "history"},
}

// app carries state shared by the subcommands of one root command.
type app struct {
	cfgFile     string
	askPassword bool
	verbose     bool

	cfg      config.Config
	password string

	// dial opens device sessions; tests replace it.
	dial fleet.Dialer
}

// Execute runs the CLI entrypoint. The cmd/baseliner main package calls it
// and handles process exit. An interrupt cancels the running command; a
// batch already sent to a device is still completed.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates the root command with all subcommands. Each call
// returns an independent command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{dial: fleet.DialSSH})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseliner",
		Short: "Audit network devices against a hardening baseline",
		Long: `Baseliner reads the running configuration of network devices over SSH,
evaluates it against a hardening baseline and reports every rule that is
not satisfied. The remediate command pushes the missing configuration and
verifies the device afterwards.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	cmd.Version = compositeVersion()

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: baseliner.yaml in the user config dir, /etc/baseliner or .)")
	pf.String("baseline", "", `baseline file, sftp://host/path or builtin:<profile>`)
	pf.String("format", "", "baseline format: list, table or yaml (default: from file extension)")
	pf.String("user", "", "SSH user")
	pf.String("key", "", "SSH private key file")
	pf.BoolVar(&a.askPassword, "ask-password", false, "prompt for the SSH password (or key passphrase)")
	pf.String("known-hosts", "", "known_hosts file used to verify device host keys")
	pf.Bool("insecure", false, "do not verify device host keys")
	pf.Int("concurrency", fleet.DefaultConcurrency, "number of devices processed in parallel")
	pf.StringP("output", "o", "text", `output format ("text", "json")`)
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("language", "", `output language ("en", "de")`)
	pf.Bool("history", false, "record runs in the history database")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "list compliant rules too")

	cmd.AddCommand(
		newAuditCmd(a),
		newRemediateCmd(a),
		newDiffCmd(a),
		newBaselineCmd(a),
		newFetchCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// setup loads the configuration and initializes logging and i18n.
func (a *app) setup(cmd *cobra.Command) error {
	var path *string
	if cmd.Flags().Changed("config") && a.cfgFile != "" {
		if _, err := os.Stat(a.cfgFile); err != nil {
			return fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		path = &a.cfgFile
	}

	c, err := config.LoadConfig[config.Config](cmd, config.Defaults(), path, flagBindings...)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = c

	i18n.Init(c.Language)
	if err := logging.SetLevel(c.LogLevel); err != nil {
		return err
	}
	logging.SetJSON(c.Output == "json")
	return nil
}
