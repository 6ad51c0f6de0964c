// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/baseliner/baseliner/internal/baseline"
	"github.com/baseliner/baseliner/internal/history"
	"github.com/baseliner/baseliner/internal/i18n"
	"github.com/baseliner/baseliner/internal/logging"
	"github.com/baseliner/baseliner/internal/model"
	"github.com/baseliner/baseliner/internal/reconcile"
	"github.com/baseliner/baseliner/internal/report"
	"github.com/baseliner/baseliner/internal/session"
)

// readPassword prompts on stderr and reads a password without echo when
// stdin is a terminal, or a single line otherwise.
func readPassword(in io.Reader, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// credentials prompts for the password once per command when requested.
func (a *app) credentials(cmd *cobra.Command) error {
	if !a.askPassword || a.password != "" {
		return nil
	}
	pw, err := readPassword(cmd.InOrStdin(), i18n.T("cli.password_prompt"))
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	a.password = pw
	return nil
}

// targets builds session targets from explicit hosts or the configured
// device list. Explicit hosts use the global SSH settings.
func (a *app) targets(cmd *cobra.Command, hosts []string) ([]session.Target, error) {
	if err := a.credentials(cmd); err != nil {
		return nil, err
	}
	base := session.Target{
		User:     a.cfg.SSH.User,
		Password: a.password,
		Insecure: a.cfg.SSH.Insecure,
		Timeout:  a.cfg.SSH.Timeout,
	}
	if a.cfg.SSH.KnownHosts != "" {
		base.KnownHosts = []string{a.cfg.SSH.KnownHosts}
	}
	if a.cfg.SSH.KeyFile != "" {
		key, err := os.ReadFile(a.cfg.SSH.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read ssh key: %w", err)
		}
		base.PrivateKey = key
		if a.password != "" {
			base.Passphrase = []byte(a.password)
		}
	}

	var out []session.Target
	if len(hosts) > 0 {
		for _, h := range hosts {
			t := base
			t.Host = h
			if user, host, ok := strings.Cut(h, "@"); ok {
				t.User, t.Host = user, host
			}
			out = append(out, t)
		}
		return out, nil
	}
	for _, d := range a.cfg.Devices {
		t := base
		t.Host, t.Port, t.EnableSecret = d.Host, d.Port, d.EnableSecret
		if d.User != "" {
			t.User = d.User
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, i18n.Error("cli.error_no_devices")
	}
	return out, nil
}

// loadBaseline resolves the configured baseline reference.
func (a *app) loadBaseline(cmd *cobra.Command) (*model.Baseline, error) {
	ref := a.cfg.Baseline.Path
	vars := a.cfg.Baseline.Vars
	if ref == "" {
		return baseline.Default(vars)
	}
	if name, ok := baseline.IsBuiltin(ref); ok {
		return baseline.Profile(name, vars)
	}

	format, err := baseline.ParseFormat(a.cfg.Baseline.Format)
	if err != nil {
		return nil, err
	}
	opts := []baseline.Option{baseline.WithFormat(format), baseline.WithVars(vars)}

	if strings.HasPrefix(ref, "sftp://") {
		return a.loadRemoteBaseline(cmd, ref, opts)
	}
	return baseline.Load(cmd.Context(), baseline.FileSource(ref), opts...)
}

// loadRemoteBaseline reads sftp://[user@]host[:port]/path with the global
// SSH settings.
func (a *app) loadRemoteBaseline(cmd *cobra.Command, ref string, opts []baseline.Option) (*model.Baseline, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, &baseline.LoadError{Source: ref, Err: err}
	}
	host := u.Host
	if u.User != nil {
		host = u.User.Username() + "@" + host
	}
	targets, err := a.targets(cmd, []string{host})
	if err != nil {
		return nil, err
	}
	client, err := session.Dial(cmd.Context(), targets[0])
	if err != nil {
		return nil, &baseline.LoadError{Source: ref, Err: err}
	}
	defer client.Close()
	sc, err := client.SFTP()
	if err != nil {
		return nil, &baseline.LoadError{Source: ref, Err: fmt.Errorf("failed to create sftp client: %w", err)}
	}
	defer sc.Close()
	return baseline.Load(cmd.Context(), baseline.SFTPSource{Client: sc, Host: u.Host, Path: u.Path}, opts...)
}

// outputSink returns the sink for the configured output format.
func (a *app) outputSink(w io.Writer) reconcile.Sink {
	if a.cfg.Output == "json" {
		return report.NewJSON(w)
	}
	return report.NewText(w, a.verbose)
}

// openHistory opens the history store when recording is enabled. The
// returned close function is never nil.
func (a *app) openHistory(ctx context.Context) (*history.Store, func(), error) {
	if !a.cfg.History.Enabled {
		return nil, func() {}, nil
	}
	st, err := history.Open(ctx, a.cfg.History.Type, a.cfg.History.Dsn)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open history: %w", err)
	}
	return st, func() {
		if err := st.Close(); err != nil {
			logging.Warnf("close history: %v", err)
		}
	}, nil
}
