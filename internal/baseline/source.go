// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

package baseline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/sftp"
)

// Source is where a baseline is read from.
type Source interface {
	// Name identifies the source in errors and is used for format detection.
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads a baseline from the local filesystem.
type FileSource string

func (f FileSource) Name() string { return string(f) }

func (f FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(string(f))
}

// BytesSource serves a baseline from memory.
type BytesSource struct {
	Label string
	Data  []byte
}

func (b BytesSource) Name() string { return b.Label }

func (b BytesSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

// SFTPSource reads a baseline kept on a remote configuration server. The
// caller owns the SFTP client and closes it.
type SFTPSource struct {
	Client *sftp.Client
	Host   string
	Path   string
}

func (s SFTPSource) Name() string {
	return fmt.Sprintf("sftp://%s/%s", s.Host, strings.TrimPrefix(s.Path, "/"))
}

func (s SFTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.Client == nil {
		return nil, fmt.Errorf("no sftp client for %s", s.Name())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.Client.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote file %s: %w", s.Path, err)
	}
	return f, nil
}
