// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	cfg "github.com/baseliner/baseliner/internal/config"
)

func isolate(t *testing.T) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", tmp)
	wd, _ := os.Getwd()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)
	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Baseline.Path != "builtin:cisco-ios" || !got.Remediation.Apply || got.Remediation.Retries != 1 {
		t.Errorf("unexpected defaults %+v", got)
	}
	if got.SSH.Timeout != 10*time.Second {
		t.Errorf("timeout = %s", got.SSH.Timeout)
	}
}

func TestLoadConfig_ReadsExplicitFile(t *testing.T) {
	isolate(t)
	yaml := `baseline:
  path: ./hardening.txt
  vars:
    syslog_host: 10.1.1.1
devices:
  - host: r1.lab
  - host: r2.lab
    port: 2222
    user: netops
ssh:
  user: audit
  timeout: 30s
history:
  enabled: true
  type: postgres
  dsn: postgresql://user@/db
language: de
`
	file := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(file, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), &file)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got.History.Type != "postgres" || !got.History.Enabled {
		t.Fatalf("expected postgres history, got %+v", got.History)
	}
	if got.Language != "de" {
		t.Fatalf("expected de, got %q", got.Language)
	}
	if len(got.Devices) != 2 || got.Devices[1].Port != 2222 || got.Devices[1].User != "netops" {
		t.Fatalf("unexpected devices %+v", got.Devices)
	}
	if got.Baseline.Vars["syslog_host"] != "10.1.1.1" {
		t.Errorf("vars = %v", got.Baseline.Vars)
	}
	if got.SSH.Timeout != 30*time.Second || got.SSH.User != "audit" {
		t.Errorf("ssh = %+v", got.SSH)
	}
}

func TestLoadConfig_EnvAndFlags(t *testing.T) {
	isolate(t)
	t.Setenv("BASELINER_SSH_USER", "from-env")
	t.Setenv("BASELINER_CONCURRENCY", "9")

	cmd := &cobra.Command{}
	cmd.Flags().String("user", "", "")
	cmd.Flags().String("output", "text", "")
	if err := cmd.Flags().Set("output", "json"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	got, err := cfg.LoadConfig[cfg.Config](cmd, cfg.Defaults(), nil, cfg.Binding{Key: "ssh.user", Flag: "user"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.SSH.User != "from-env" {
		t.Errorf("unset flag must not override env, got %q", got.SSH.User)
	}
	if got.Concurrency != 9 || got.Output != "json" {
		t.Errorf("concurrency=%d output=%q", got.Concurrency, got.Output)
	}

	if err := cmd.Flags().Set("user", "from-flag"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	got, _ = cfg.LoadConfig[cfg.Config](cmd, cfg.Defaults(), nil, cfg.Binding{Key: "ssh.user", Flag: "user"})
	if got.SSH.User != "from-flag" {
		t.Errorf("flag must win over env, got %q", got.SSH.User)
	}
}

func TestWriteConfigFile_CreatesFile(t *testing.T) {
	isolate(t)
	c := cfg.Config{Language: "en", Output: "text"}
	c.History.Type = "sqlite"
	c.History.Dsn = "./baseliner.db"

	path, err := cfg.WriteConfigFile(&c, "", false)
	if err != nil {
		t.Fatalf("WriteConfigFile failed: %v", err)
	}
	want, err := cfg.GetConfigPath(false)
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file at %s, stat error: %v", path, err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}

	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), &path)
	if err != nil {
		t.Fatalf("LoadConfig of written file: %v", err)
	}
	if got.History.Dsn != "./baseliner.db" {
		t.Errorf("round trip lost history.dsn: %+v", got.History)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		c    cfg.Config
		ok   bool
	}{
		{"zero", cfg.Config{}, true},
		{"json", cfg.Config{Output: "json"}, true},
		{"bad output", cfg.Config{Output: "xml"}, false},
		{"bad db", cfg.Config{History: cfg.History{Type: "oracle"}}, false},
		{"device without host", cfg.Config{Devices: []cfg.Device{{User: "x"}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.c.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, ok want %v", err, tt.ok)
			}
		})
	}
}
