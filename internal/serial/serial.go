// Package serial opens the logger's USB serial line in raw 8N1 mode with a
// per-read timeout.
package serial

import (
	"fmt"
	"io"
	"os"
	"time"
)

type Options struct {
	Path        string
	Baud        int
	ReadTimeout time.Duration
}

// Port is an open serial line. Read returns an error wrapping
// os.ErrDeadlineExceeded when no byte arrived within the read timeout.
type Port struct {
	path string
	rw   io.ReadWriteCloser
}

func Open(opts Options) (*Port, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("serial: no device path")
	}
	if opts.ReadTimeout <= 0 {
		return nil, fmt.Errorf("serial %s: read timeout must be > 0", opts.Path)
	}
	rw, err := openPort(opts)
	if err != nil {
		return nil, fmt.Errorf("serial %s: %w", opts.Path, err)
	}
	return &Port{path: opts.Path, rw: rw}, nil
}

func (p *Port) Path() string { return p.path }

func (p *Port) Read(b []byte) (int, error) {
	n, err := p.rw.Read(b)
	if n == 0 && len(b) > 0 && (err == nil || err == io.EOF) {
		return 0, fmt.Errorf("serial %s: read: %w", p.path, os.ErrDeadlineExceeded)
	}
	return n, err
}

func (p *Port) Write(b []byte) (int, error) { return p.rw.Write(b) }

func (p *Port) Close() error { return p.rw.Close() }
