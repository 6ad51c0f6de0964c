// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/baseliner/baseliner/internal/model"
)

const runningConfig = "Building configuration...\r\n\r\nhostname R1\r\nno ip http server\r\nend\r\n"

// mockDevice is an in-process SSH server that behaves like a small IOS box.
type mockDevice struct {
	addr    string
	hostKey ssh.Signer

	mu    sync.Mutex
	lines []string // everything typed into interactive shells
}

func (d *mockDevice) typed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lines...)
}

func newMockDevice(t *testing.T) *mockDevice {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	hostKey, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("NewSignerFromKey: %v", err)
	}
	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "admin" && string(pass) == "secret" {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		},
	}
	config.AddHostKey(hostKey)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen on a port: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	d := &mockDevice{addr: listener.Addr().String(), hostKey: hostKey}
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go d.serve(conn, config)
		}
	}()
	return d
}

func (d *mockDevice) serve(conn net.Conn, config *ssh.ServerConfig) {
	defer conn.Close()
	_, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)
	for nc := range chans {
		if nc.ChannelType() != "session" {
			_ = nc.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, requests, err := nc.Accept()
		if err != nil {
			return
		}
		go d.handle(ch, requests)
	}
}

func exitStatus(ch ssh.Channel, code uint32) {
	_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{code}))
	ch.Close()
}

func (d *mockDevice) handle(ch ssh.Channel, requests <-chan *ssh.Request) {
	for req := range requests {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			_ = ssh.Unmarshal(req.Payload, &payload)
			_ = req.Reply(true, nil)
			if payload.Command != DefaultFetchCommand {
				fmt.Fprintf(ch, "%% Invalid input detected at '^' marker.\r\n")
				exitStatus(ch, 1)
				return
			}
			_, _ = ch.Write([]byte(runningConfig))
			exitStatus(ch, 0)
			return
		case "shell":
			_ = req.Reply(true, nil)
			go d.shell(ch)
		default:
			_ = req.Reply(false, nil)
		}
	}
}

func (d *mockDevice) shell(ch ssh.Channel) {
	sc := bufio.NewScanner(ch)
	for sc.Scan() {
		line := sc.Text()
		d.mu.Lock()
		d.lines = append(d.lines, line)
		d.mu.Unlock()
		fmt.Fprintf(ch, "R1(config)#%s\r\n", line)
		if strings.HasPrefix(line, "bogus") {
			fmt.Fprintf(ch, "                ^\r\n%% Invalid input detected at '^' marker.\r\n")
		}
		if line == "exit" {
			break
		}
	}
	exitStatus(ch, 0)
}

func passwordTarget(d *mockDevice) Target {
	return Target{Host: d.addr, User: "admin", Password: "secret", Insecure: true}
}

func TestFetchRunningConfig(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	d := newMockDevice(t)

	c, err := Dial(context.Background(), passwordTarget(d))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	got, err := c.FetchRunningConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchRunningConfig: %v", err)
	}
	if got != runningConfig {
		t.Errorf("unexpected config %q", got)
	}
}

func TestApplyCommands_WrapsInConfigMode(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	d := newMockDevice(t)
	target := passwordTarget(d)
	target.EnableSecret = "en4ble"

	c, err := Dial(context.Background(), target)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	cmds := []string{"no ip http server", "logging host 10.0.0.5"}
	if _, err := c.ApplyCommands(context.Background(), cmds); err != nil {
		t.Fatalf("ApplyCommands: %v", err)
	}
	want := []string{"enable", "en4ble", "terminal length 0", "configure terminal", "no ip http server", "logging host 10.0.0.5", "end", "exit"}
	if got := d.typed(); !reflect.DeepEqual(got, want) {
		t.Errorf("typed = %v\nwant  %v", got, want)
	}
}

func TestApplyCommands_RejectedCommand(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	d := newMockDevice(t)
	c, err := Dial(context.Background(), passwordTarget(d))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	_, err = c.ApplyCommands(context.Background(), []string{"no ip http server", "bogus command", "logging trap informational"})
	var terr *model.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if terr.Op != model.OpApply || terr.Sent != 1 || !errors.Is(err, ErrRejected) {
		t.Errorf("unexpected error %+v", terr)
	}
}

func TestDial_WrongPassword(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	d := newMockDevice(t)
	target := passwordTarget(d)
	target.Password = "wrong"

	_, err := Dial(context.Background(), target)
	var terr *model.TransportError
	if !errors.As(err, &terr) || terr.Op != model.OpFetch {
		t.Fatalf("expected fetch TransportError, got %v", err)
	}
	if !strings.Contains(err.Error(), "password authentication failed") {
		t.Errorf("unexpected message %q", err)
	}
}

func TestDial_NoAuthMethod(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	_, err := Dial(context.Background(), Target{Host: "192.0.2.1", User: "admin", Insecure: true})
	if !errors.Is(err, ErrNoAuth) {
		t.Fatalf("expected ErrNoAuth, got %v", err)
	}
}

func TestDial_KnownHosts(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	d := newMockDevice(t)
	dir := t.TempDir()

	writeKnownHosts := func(name string, key ssh.PublicKey) string {
		p := filepath.Join(dir, name)
		line := knownhosts.Line([]string{d.addr}, key) + "\n"
		if err := os.WriteFile(p, []byte(line), 0o600); err != nil {
			t.Fatalf("write known_hosts: %v", err)
		}
		return p
	}
	_, otherPriv, _ := ed25519.GenerateKey(rand.Reader)
	other, _ := ssh.NewSignerFromKey(otherPriv)

	tests := []struct {
		name    string
		files   []string
		wantErr string
	}{
		{"trusted", []string{writeKnownHosts("good", d.hostKey.PublicKey())}, ""},
		{"mismatch", []string{writeKnownHosts("bad", other.PublicKey())}, "HOST KEY MISMATCH"},
		{"none configured", nil, "no known_hosts file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := passwordTarget(d)
			target.Insecure = false
			target.KnownHosts = tt.files
			c, err := Dial(context.Background(), target)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Dial: %v", err)
				}
				c.Close()
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTargetAddr(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{Target{Host: "r1"}, "r1:22"},
		{Target{Host: "r1", Port: 2222}, "r1:2222"},
		{Target{Host: "r1:830", Port: 2222}, "r1:830"},
		{Target{Host: "::1"}, "[::1]:22"},
	}
	for _, tt := range tests {
		if got := tt.target.Addr(); got != tt.want {
			t.Errorf("Addr(%+v) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestRejected(t *testing.T) {
	cmds := []string{"a one", "b two", "c three"}
	tests := []struct {
		name   string
		out    string
		idx    int
		reject bool
	}{
		{"clean", "R1(config)#a one\r\nR1(config)#b two\r\n", 0, false},
		{"second", "R1(config)#a one\r\nR1(config)#b two\r\n% Invalid input detected\r\n", 1, true},
		{"before any echo", "% Ambiguous command: \"x\"\r\n", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, _, ok := rejected(tt.out, cmds)
			if ok != tt.reject || idx != tt.idx {
				t.Errorf("rejected() = %d, %v; want %d, %v", idx, ok, tt.idx, tt.reject)
			}
		})
	}
}
