// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Baseliner.
//
// Usage:
//
//	go run . [flags]
//	./baseliner audit --host r1
//
// This launches the Baseliner CLI. See --help for options.
package main

import (
	"errors"
	"os"

	"github.com/baseliner/baseliner/internal/logging"
	"github.com/baseliner/baseliner/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		// Non-compliant devices have already been reported.
		if !errors.Is(err, cli.ErrNonCompliant) {
			logging.L.Error("baseliner failed", "err", err)
		}
		os.Exit(1)
	}
}
