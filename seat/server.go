// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package seat

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/greg904/ginit/internal/fd"
	"golang.org/x/sys/unix"
)

// MaxRequestSize is the maximum size of a request including the terminating
// NUL byte.
const MaxRequestSize = 48

// ClientFD is the descriptor number the client end is inherited as.
const ClientFD = 3

// OpenFlags are the flags device nodes are opened with.
const OpenFlags = unix.O_RDWR | unix.O_NOCTTY | unix.O_NOFOLLOW |
	unix.O_CLOEXEC | unix.O_NONBLOCK

const (
	sendFlags = unix.MSG_DONTWAIT | unix.MSG_NOSIGNAL
	recvFlags = unix.MSG_DONTWAIT | unix.MSG_TRUNC
)

// grantedPayload is the payload of a reply carrying a descriptor.
var grantedPayload = []byte{1}

// Option configures a [Server].
type Option func(*Server)

// WithAllowedPrefixes restricts the paths the server opens to those starting
// with any of the given prefixes. Without this option every path is opened.
func WithAllowedPrefixes(prefixes ...string) Option {
	return func(s *Server) {
		s.allowed = append(s.allowed, prefixes...)
	}
}

// Server is the device broker end.
//
// It is not safe for concurrent use. It is meant to be driven by a single
// event loop that calls [Server.ProcessIncoming] whenever [Server.FD] is
// readable.
type Server struct {
	sock    *fd.FD
	allowed []string
	buf     [MaxRequestSize]byte
}

// NewServer creates a connected socket pair. It returns the server and the
// client end. The caller owns the client end and is expected to pass it to the
// UI process and then close it.
//
// Both ends are close-on-exec.
func NewServer(opts ...Option) (*Server, *fd.FD, error) {
	fds, err := unix.Socketpair(
		unix.AF_UNIX,
		unix.SOCK_DGRAM|unix.SOCK_CLOEXEC,
		0,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create socket pair: %w", err)
	}

	server := &Server{
		sock: fd.New(fds[0]),
	}

	for _, opt := range opts {
		opt(server)
	}

	return server, fd.New(fds[1]), nil
}

// FD returns the raw server descriptor for polling. Ownership stays with the
// server.
func (s *Server) FD() int {
	return s.sock.Int()
}

// Close closes the server end.
func (s *Server) Close() error {
	return s.sock.Close()
}

// ProcessIncoming answers all pending requests without blocking.
//
// Datagrams that are empty, truncated or not NUL terminated are skipped
// without reply. Every other request gets a reply. Failures to open a device
// or to send a reply are logged and do not stop processing. It returns only
// if there is nothing left to receive, or with an error if receiving failed.
func (s *Server) ProcessIncoming() error {
	for {
		n, _, err := unix.Recvfrom(s.sock.Int(), s.buf[:], recvFlags)
		if err != nil {
			switch {
			case errors.Is(err, unix.EINTR):
				continue
			case errors.Is(err, unix.EAGAIN):
				return nil
			default:
				return fmt.Errorf("receive request: %w", err)
			}
		}

		path, err := s.parse(n)
		if err != nil {
			slog.Warn("Skip device request", slog.Any("error", err))
			continue
		}

		s.handle(path)
	}
}

// parse validates the n bytes received. n might exceed the buffer if the
// datagram was truncated.
func (s *Server) parse(n int) (string, error) {
	if n == 0 {
		return "", fmt.Errorf("%w: empty", ErrMalformed)
	}

	if n > len(s.buf) {
		return "", fmt.Errorf("%w: %d bytes exceed limit", ErrMalformed, n)
	}

	end := bytes.IndexByte(s.buf[:n], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: not NUL terminated", ErrMalformed)
	}

	return string(s.buf[:end]), nil
}

func (s *Server) handle(path string) {
	device, err := s.open(path)
	if err != nil {
		slog.Info("Deny device request",
			slog.String("path", path),
			slog.Any("error", err),
		)

		if err := s.reply(nil); err != nil {
			slog.Warn("Drop device reply",
				slog.String("path", path),
				slog.Any("error", err),
			)
		}

		return
	}

	defer func() {
		if err := device.Close(); err != nil {
			slog.Warn("Close device", slog.Any("error", err))
		}
	}()

	if err := s.reply(device); err != nil {
		slog.Warn("Drop device reply",
			slog.String("path", path),
			slog.Any("error", err),
		)

		return
	}

	slog.Debug("Grant device request", slog.String("path", path))
}

func (s *Server) allowedPath(path string) bool {
	if len(s.allowed) == 0 {
		return true
	}

	for _, prefix := range s.allowed {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

func (s *Server) open(path string) (*fd.FD, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: not absolute: %q", ErrMalformed, path)
	}

	if !s.allowedPath(path) {
		return nil, ErrNotAllowed
	}

	for {
		raw, err := unix.Open(path, OpenFlags, 0)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}

		return fd.New(raw), nil
	}
}

// reply sends a granted reply with the given device, or a denied reply if
// device is nil.
func (s *Server) reply(device *fd.FD) error {
	var payload, oob []byte

	if device != nil {
		payload = grantedPayload
		oob = unix.UnixRights(device.Int())
	}

	for {
		err := unix.Sendmsg(s.sock.Int(), payload, oob, nil, sendFlags)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return fmt.Errorf("send reply: %w", err)
		}

		return nil
	}
}
