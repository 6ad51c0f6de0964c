// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars contains variables injected at build time.
package buildvars

// Version is set at link time via `-ldflags -X github.com/baseliner/baseliner/buildvars.Version=...`.
// It is empty for local or development builds.
var Version string

// GitCommit and BuildDate are set at link time like Version.
var (
	GitCommit string
	BuildDate string
)

// VersionOrDefault returns Version if set, otherwise def.
func VersionOrDefault(def string) string {
	if len(Version) > 0 {
		return Version
	}
	return def
}
