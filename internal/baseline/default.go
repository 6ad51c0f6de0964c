// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package baseline

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/baseliner/baseliner/internal/model"
)

// profileFS embeds the built-in baselines.
//
//go:embed profiles/*.yaml
var profileFS embed.FS

// DefaultProfile is the profile used when no baseline is configured.
const DefaultProfile = "cisco-ios"

// DefaultVars are the placeholder values of the built-in profiles. Callers
// override them with WithVars (config key baseline.vars).
var DefaultVars = map[string]string{
	"syslog_host":   "192.168.56.102",
	"mgmt_host":     "192.168.56.10",
	"enable_secret": "CHANGE-ME",
	"banner":        "Authorized access only",
}

// Profiles lists the names of the built-in baselines.
func Profiles() []string {
	entries, _ := fs.ReadDir(profileFS, "profiles")
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Profile loads a built-in baseline by name. Vars are layered over DefaultVars.
func Profile(name string, vars map[string]string) (*model.Baseline, error) {
	file := "profiles/" + name + ".yaml"
	data, err := profileFS.ReadFile(file)
	if err != nil {
		return nil, &LoadError{Source: "builtin:" + name, Err: fmt.Errorf("unknown profile (available: %s)", strings.Join(Profiles(), ", "))}
	}
	return Parse("builtin:"+name, data, WithFormat(FormatYAML), WithVars(DefaultVars), WithVars(vars))
}

// Default loads the built-in Cisco IOS hardening baseline.
func Default(vars map[string]string) (*model.Baseline, error) {
	return Profile(DefaultProfile, vars)
}

// IsBuiltin reports whether ref names a built-in profile ("builtin:<name>").
func IsBuiltin(ref string) (string, bool) {
	if name, ok := strings.CutPrefix(ref, "builtin:"); ok {
		return name, true
	}
	return "", false
}
