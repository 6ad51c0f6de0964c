// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads the baseliner configuration from defaults, YAML
// files, BASELINER_* environment variables and command line flags.
package config // import "github.com/baseliner/baseliner/internal/config"

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full configuration.
type Config struct {
	Baseline    Baseline    `mapstructure:"baseline" yaml:"baseline"`
	Devices     []Device    `mapstructure:"devices" yaml:"devices"`
	SSH         SSH         `mapstructure:"ssh" yaml:"ssh"`
	Remediation Remediation `mapstructure:"remediation" yaml:"remediation"`
	History     History     `mapstructure:"history" yaml:"history"`
	Concurrency int         `mapstructure:"concurrency" yaml:"concurrency"`
	Language    string      `mapstructure:"language" yaml:"language"`
	LogLevel    string      `mapstructure:"log_level" yaml:"log_level"`
	Output      string      `mapstructure:"output" yaml:"output"` // text or json
}

// Baseline selects the rule set. Path may be a local file, an
// sftp://host/path reference or builtin:<profile>.
type Baseline struct {
	Path   string            `mapstructure:"path" yaml:"path"`
	Format string            `mapstructure:"format" yaml:"format"`
	Vars   map[string]string `mapstructure:"vars" yaml:"vars,omitempty"`
}

// Device is one audited network device.
type Device struct {
	Host         string `mapstructure:"host" yaml:"host"`
	User         string `mapstructure:"user" yaml:"user,omitempty"`
	Port         int    `mapstructure:"port" yaml:"port,omitempty"`
	EnableSecret string `mapstructure:"enable_secret" yaml:"enable_secret,omitempty"`
}

// SSH holds connection settings shared by all devices.
type SSH struct {
	User       string        `mapstructure:"user" yaml:"user"`
	KeyFile    string        `mapstructure:"key_file" yaml:"key_file,omitempty"`
	KnownHosts string        `mapstructure:"known_hosts" yaml:"known_hosts,omitempty"`
	Insecure   bool          `mapstructure:"insecure" yaml:"insecure"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Remediation controls pushing commands to devices.
type Remediation struct {
	Apply       bool `mapstructure:"apply" yaml:"apply"`
	MaxCommands int  `mapstructure:"max_commands" yaml:"max_commands"`
	Retries     int  `mapstructure:"retries" yaml:"retries"`
}

// History configures the audit history database.
type History struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Type    string `mapstructure:"type" yaml:"type"`
	Dsn     string `mapstructure:"dsn" yaml:"dsn"`
}

// Defaults returns the built-in configuration values keyed by viper path.
func Defaults() map[string]any {
	return map[string]any{
		"baseline.path":            "builtin:cisco-ios",
		"baseline.format":          "",
		"ssh.user":                 "",
		"ssh.key_file":             "",
		"ssh.known_hosts":          defaultKnownHosts(),
		"ssh.insecure":             false,
		"ssh.timeout":              "10s",
		"remediation.apply":        true,
		"remediation.max_commands": 50,
		"remediation.retries":      1,
		"history.enabled":          false,
		"history.type":             "sqlite",
		"history.dsn":              "./baseliner.db",
		"concurrency":              4,
		"language":                 "en",
		"log_level":                "info",
		"output":                   "text",
	}
}

func defaultKnownHosts() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "known_hosts")
}

// Validate checks values viper cannot type-check.
func (c Config) Validate() error {
	var errs []error
	switch c.Output {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("output: unknown format %q (text, json)", c.Output))
	}
	switch c.History.Type {
	case "", "sqlite", "postgres", "mysql":
	default:
		errs = append(errs, fmt.Errorf("history.type: unsupported database %q", c.History.Type))
	}
	if c.Concurrency < 0 {
		errs = append(errs, errors.New("concurrency: must not be negative"))
	}
	if c.Remediation.Retries < 0 {
		errs = append(errs, errors.New("remediation.retries: must not be negative"))
	}
	for i, d := range c.Devices {
		if strings.TrimSpace(d.Host) == "" {
			errs = append(errs, fmt.Errorf("devices[%d]: host is required", i))
		}
	}
	return errors.Join(errs...)
}

// GetConfigPath returns the user (or system-wide) configuration file path.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Baseliner")
		default:
			configDir = "/etc/baseliner"
		}
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(dir, "baseliner")
	}
	return filepath.Join(configDir, "baseliner.yaml"), nil
}

// Binding maps a configuration key to a command line flag whose name differs.
type Binding struct {
	Key  string
	Flag string
}

// LoadConfig layers defaults, the first baseliner.yaml found (explicit path,
// user config dir, /etc/baseliner, current dir), BASELINER_* environment
// variables and the flags of cmd, then decodes the result into T. Flags are
// bound under their own names, except those renamed by a binding.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configPath *string, bindings ...Binding) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("baseliner")
	v.SetConfigType("yaml")
	if configPath != nil && *configPath != "" {
		v.SetConfigFile(*configPath)
	}
	if p, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(p))
	}
	if p, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(p))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix("baseliner")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		renamed := make(map[string]bool, len(bindings))
		for _, b := range bindings {
			renamed[b.Flag] = true
		}
		var bindErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if bindErr == nil && !renamed[f.Name] {
				bindErr = v.BindPFlag(f.Name, f)
			}
		})
		if bindErr != nil {
			return c, bindErr
		}
		for _, b := range bindings {
			if f := cmd.Flags().Lookup(b.Flag); f != nil {
				if err := v.BindPFlag(b.Key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// WriteConfigFile writes c as YAML to path, or to the user (system)
// configuration path when path is empty. The file may hold secrets and is
// created with mode 0600.
func WriteConfigFile[T any](c *T, path string, system bool) (string, error) {
	if path == "" {
		p, err := GetConfigPath(system)
		if err != nil {
			return "", err
		}
		path = p
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
