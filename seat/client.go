// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package seat

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/greg904/ginit/internal/fd"
	"golang.org/x/sys/unix"
)

// Client is the UI process end of the broker.
type Client struct {
	sock *fd.FD
	oob  []byte
}

// NewClient takes ownership of the given client end.
func NewClient(sock *fd.FD) *Client {
	return &Client{
		sock: sock,
		oob:  make([]byte, unix.CmsgSpace(4)),
	}
}

// InheritedClient returns a client for the end inherited as [ClientFD].
func InheritedClient() *Client {
	return NewClient(fd.New(ClientFD))
}

// Close closes the client end.
func (c *Client) Close() error {
	return c.sock.Close()
}

// Open requests the device at the given path and waits for the reply. The
// returned file is opened read-write and non-blocking.
func (c *Client) Open(path string) (*os.File, error) {
	if err := c.Send(path); err != nil {
		return nil, err
	}

	return c.Receive(path)
}

// Send sends a request for the given path without waiting for the reply.
func (c *Client) Send(path string) error {
	if !strings.HasPrefix(path, "/") || strings.IndexByte(path, 0) >= 0 {
		return fmt.Errorf("%w: %q", ErrMalformed, path)
	}

	request := append([]byte(path), 0)
	if len(request) > MaxRequestSize {
		return fmt.Errorf("%w: path exceeds %d bytes", ErrMalformed, MaxRequestSize-1)
	}

	for {
		err := unix.Sendmsg(c.sock.Int(), request, nil, nil, unix.MSG_NOSIGNAL)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}

		return nil
	}
}

// Receive blocks until the next reply arrives. The name is used for the
// returned file.
func (c *Client) Receive(name string) (*os.File, error) {
	var payload [1]byte

	for {
		n, oobn, _, _, err := unix.Recvmsg(c.sock.Int(), payload[:], c.oob, unix.MSG_CMSG_CLOEXEC)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("receive reply: %w", err)
		}

		rights, err := parseRights(c.oob[:oobn])
		if err != nil {
			return nil, err
		}

		if n == 0 || len(rights) == 0 {
			closeAll(rights)
			return nil, fmt.Errorf("%s: %w", name, ErrDenied)
		}

		closeAll(rights[1:])

		return os.NewFile(uintptr(rights[0]), name), nil
	}
}

func parseRights(oob []byte) ([]int, error) {
	if len(oob) == 0 {
		return nil, nil
	}

	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("parse control message: %w", err)
	}

	var rights []int

	for _, msg := range msgs {
		fds, err := unix.ParseUnixRights(&msg)
		if err != nil {
			continue
		}

		rights = append(rights, fds...)
	}

	return rights, nil
}

func closeAll(fds []int) {
	for _, raw := range fds {
		_ = unix.Close(raw)
	}
}
