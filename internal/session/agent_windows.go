//go:build windows

// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"os"

	"github.com/Microsoft/go-winio"
	"github.com/davidmz/go-pageant"
	"golang.org/x/crypto/ssh/agent"
)

const openSSHAgentPipe = `\\.\pipe\openssh-ssh-agent`

// getSSHAgent prefers a running Pageant (PuTTY, gpg-agent) and falls back to
// the OpenSSH for Windows named pipe, SSH_AUTH_SOCK first.
func getSSHAgent() agent.Agent {
	if pageant.Available() {
		return pageant.New()
	}
	pipe := os.Getenv("SSH_AUTH_SOCK")
	if pipe == "" {
		pipe = openSSHAgentPipe
	}
	conn, err := winio.DialPipe(pipe, nil)
	if err != nil {
		return nil
	}
	return agent.NewClient(conn)
}
