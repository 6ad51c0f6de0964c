// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/baseliner/baseliner/internal/model"
)

// ErrRejected is wrapped when the device answers a configuration command
// with an error marker.
var ErrRejected = errors.New("command rejected by device")

// rejectMarkers are the IOS error prefixes echoed after a bad command.
var rejectMarkers = []string{"% Invalid input", "% Incomplete command", "% Ambiguous command", "% Unknown command"}

// FetchRunningConfig runs the fetch command and returns its raw output.
func (c *Client) FetchRunningConfig(ctx context.Context) (string, error) {
	cmd := c.target.FetchCommand
	if cmd == "" {
		cmd = DefaultFetchCommand
	}
	out, err := c.run(ctx, func(s *ssh.Session) ([]byte, error) {
		return s.Output(cmd)
	})
	if err != nil {
		return "", &model.TransportError{Op: model.OpFetch, Host: c.target.Host, Err: err}
	}
	return string(out), nil
}

// ApplyCommands enters configuration mode on an interactive shell, sends the
// commands one per line and leaves with "end". The returned error is a
// *model.TransportError whose Sent counts the commands written before the
// failure; a rejected command is reported with Sent set to its position.
func (c *Client) ApplyCommands(ctx context.Context, cmds []string) (string, error) {
	var sent int
	out, err := c.run(ctx, func(s *ssh.Session) ([]byte, error) {
		stdin, err := s.StdinPipe()
		if err != nil {
			return nil, err
		}
		var buf syncBuffer
		s.Stdout = &buf
		s.Stderr = &buf
		if err := s.Shell(); err != nil {
			return nil, err
		}

		w := bufio.NewWriter(stdin)
		writeLine := func(line string) error {
			if _, err := w.WriteString(line + "\n"); err != nil {
				return err
			}
			return w.Flush()
		}
		var prologue []string
		if c.target.EnableSecret != "" {
			prologue = append(prologue, "enable", c.target.EnableSecret)
		}
		prologue = append(prologue, "terminal length 0", "configure terminal")
		for _, l := range prologue {
			if err := writeLine(l); err != nil {
				return buf.Bytes(), err
			}
		}
		for _, cmd := range cmds {
			if err := writeLine(cmd); err != nil {
				return buf.Bytes(), err
			}
			sent++
		}
		for _, l := range []string{"end", "exit"} {
			if err := writeLine(l); err != nil {
				return buf.Bytes(), err
			}
		}
		_ = stdin.Close()
		if err := s.Wait(); err != nil {
			var exitErr *ssh.ExitMissingError
			if !errors.As(err, &exitErr) {
				return buf.Bytes(), err
			}
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		return string(out), &model.TransportError{Op: model.OpApply, Host: c.target.Host, Sent: sent, Err: err}
	}
	if idx, line, ok := rejected(string(out), cmds); ok {
		return string(out), &model.TransportError{Op: model.OpApply, Host: c.target.Host, Sent: idx, Err: fmt.Errorf("%w: %s", ErrRejected, line)}
	}
	return string(out), nil
}

// run opens a session, executes fn and closes the session when ctx ends.
func (c *Client) run(ctx context.Context, fn func(*ssh.Session) ([]byte, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := c.conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer s.Close()

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	out, err := fn(s)
	if err != nil && ctx.Err() != nil {
		return out, ctx.Err()
	}
	return out, err
}

// rejected scans shell output for an error marker and attributes it to the
// last command echoed before it. The returned index is the number of commands
// accepted before the rejected one.
func rejected(out string, cmds []string) (int, string, bool) {
	last := -1
	for _, line := range strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		for _, m := range rejectMarkers {
			if strings.HasPrefix(line, m) {
				if last < 0 {
					return 0, line, true
				}
				return last, fmt.Sprintf("%s (%q)", line, cmds[last]), true
			}
		}
		for i := last + 1; i < len(cmds); i++ {
			if strings.HasSuffix(line, cmds[i]) {
				last = i
				break
			}
		}
	}
	return 0, "", false
}

// syncBuffer is a bytes.Buffer safe for the concurrent stdout/stderr copies
// of an ssh.Session.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

var _ io.Writer = (*syncBuffer)(nil)
