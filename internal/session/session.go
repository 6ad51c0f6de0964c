// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package session connects to network devices over SSH, reads their running
// configuration and pushes configuration commands.
package session // import "github.com/baseliner/baseliner/internal/session"

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/baseliner/baseliner/internal/logging"
	"github.com/baseliner/baseliner/internal/model"
)

// DefaultTimeout bounds the TCP connect and SSH handshake.
const DefaultTimeout = 10 * time.Second

// DefaultFetchCommand prints the running configuration on IOS-like devices.
const DefaultFetchCommand = "show running-config"

// ErrNoAuth is returned when a Target offers no usable authentication method.
var ErrNoAuth = errors.New("no authentication method available (no key, password or ssh agent)")

// Target describes one device connection. It is built by the caller and
// passed by value; the package keeps no connection state of its own.
type Target struct {
	Host         string // host or host:port
	Port         int    // used when Host carries no port; defaults to 22
	User         string
	Password     string
	PrivateKey   []byte // PEM encoded
	Passphrase   []byte
	EnableSecret string

	KnownHosts []string // known_hosts files checked for the device host key
	Insecure   bool     // accept any host key
	Timeout    time.Duration

	FetchCommand string
}

// Addr returns host:port.
func (t Target) Addr() string {
	if _, _, err := net.SplitHostPort(t.Host); err == nil {
		return t.Host
	}
	port := t.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

// Client is an open device session.
type Client struct {
	target Target
	conn   *ssh.Client
}

// Dial connects and authenticates. Authentication methods are tried in the
// order private key, ssh agent, password; a failure other than a rejected
// authentication stops immediately.
func Dial(ctx context.Context, t Target) (*Client, error) {
	hostKeyCallback, err := hostKeyCallback(t)
	if err != nil {
		return nil, &model.TransportError{Op: model.OpFetch, Host: t.Host, Err: err}
	}
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	attempts, err := authAttempts(t)
	if err != nil {
		return nil, &model.TransportError{Op: model.OpFetch, Host: t.Host, Err: err}
	}

	var lastErr error
	for _, a := range attempts {
		config := &ssh.ClientConfig{
			User:            t.User,
			Auth:            a.methods,
			HostKeyCallback: hostKeyCallback,
			Timeout:         timeout,
		}
		conn, err := dial(ctx, t.Addr(), config)
		if err == nil {
			logging.L.Debug("connected", "device", t.Host, "auth", a.name)
			return &Client{target: t, conn: conn}, nil
		}
		if !isAuthError(err) {
			return nil, &model.TransportError{Op: model.OpFetch, Host: t.Host, Err: fmt.Errorf("connection with %s failed: %w", a.name, err)}
		}
		logging.L.Debug("authentication rejected", "device", t.Host, "auth", a.name)
		lastErr = fmt.Errorf("%s authentication failed: %w", a.name, err)
	}
	return nil, &model.TransportError{Op: model.OpFetch, Host: t.Host, Err: lastErr}
}

func dial(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: config.Timeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(deadline)
	} else {
		_ = nc.SetDeadline(time.Now().Add(config.Timeout))
	}
	c, chans, reqs, err := ssh.NewClientConn(nc, addr, config)
	if err != nil {
		nc.Close()
		return nil, err
	}
	_ = nc.SetDeadline(time.Time{})
	return ssh.NewClient(c, chans, reqs), nil
}

type authAttempt struct {
	name    string
	methods []ssh.AuthMethod
}

func authAttempts(t Target) ([]authAttempt, error) {
	var out []authAttempt
	if len(t.PrivateKey) > 0 {
		var signer ssh.Signer
		var err error
		if len(t.Passphrase) > 0 {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(t.PrivateKey, t.Passphrase)
		} else {
			signer, err = ssh.ParsePrivateKey(t.PrivateKey)
		}
		if err != nil {
			return nil, fmt.Errorf("unable to parse private key: %w", err)
		}
		out = append(out, authAttempt{"private key", []ssh.AuthMethod{ssh.PublicKeys(signer)}})
	}
	if ag := getSSHAgent(); ag != nil {
		out = append(out, authAttempt{"ssh agent", []ssh.AuthMethod{ssh.PublicKeysCallback(ag.Signers)}})
	}
	if t.Password != "" {
		pw := t.Password
		out = append(out, authAttempt{"password", []ssh.AuthMethod{
			ssh.Password(pw),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = pw
				}
				return answers, nil
			}),
		}})
	}
	if len(out) == 0 {
		return nil, ErrNoAuth
	}
	return out, nil
}

func isAuthError(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate")
}

func hostKeyCallback(t Target) (ssh.HostKeyCallback, error) {
	if t.Insecure {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if len(t.KnownHosts) == 0 {
		return nil, fmt.Errorf("no known_hosts file configured for %s (set ssh.known_hosts or --insecure)", t.Host)
	}
	cb, err := knownhosts.New(t.KnownHosts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts: %w", err)
	}
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := cb(hostname, remote, key)
		var kerr *knownhosts.KeyError
		if errors.As(err, &kerr) {
			if len(kerr.Want) == 0 {
				return fmt.Errorf("unknown host key for %s (%s)", hostname, ssh.FingerprintSHA256(key))
			}
			return fmt.Errorf("!!! HOST KEY MISMATCH FOR %s !!!\nRemote key presented: %s\nThis could be a man-in-the-middle attack", hostname, ssh.FingerprintSHA256(key))
		}
		return err
	}, nil
}

// Host returns the device host of the session.
func (c *Client) Host() string {
	return c.target.Host
}

// SFTP opens an SFTP subsystem on the connection, e.g. to read a baseline
// stored on a configuration server. The caller closes the returned client.
func (c *Client) SFTP() (*sftp.Client, error) {
	return sftp.NewClient(c.conn)
}

// Close closes the underlying SSH connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
