// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package fd

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// ErrClosed is returned by operations on an [FD] that was already closed or
// released.
var ErrClosed = errors.New("file descriptor already closed")

const invalid = -1

// FD is an exclusively owned file descriptor.
//
// The zero value does not own anything. Use [New] to take ownership of a raw
// descriptor.
type FD struct {
	// slot holds the descriptor number plus one, so the zero value is empty.
	slot atomic.Int64
}

// New takes ownership of the given raw descriptor.
func New(raw int) *FD {
	fd := new(FD)
	if raw >= 0 {
		fd.slot.Store(int64(raw) + 1)
	}

	return fd
}

// Int returns the raw descriptor number, or -1 if the FD does not own one
// anymore. Ownership stays with the FD.
func (f *FD) Int() int {
	if f == nil {
		return invalid
	}

	return int(f.slot.Load()) - 1
}

// Valid returns true if the FD still owns a descriptor.
func (f *FD) Valid() bool {
	return f.Int() >= 0
}

// take atomically gives up ownership and returns the raw descriptor.
func (f *FD) take() (int, bool) {
	if f == nil {
		return invalid, false
	}

	slot := f.slot.Swap(0)
	if slot == 0 {
		return invalid, false
	}

	return int(slot) - 1, true
}

// Close releases the descriptor.
//
// Only the first call issues close(2). Any later call returns [ErrClosed]. A
// failed close(2) still counts as released, since the kernel frees the
// descriptor number in any case.
func (f *FD) Close() error {
	raw, ok := f.take()
	if !ok {
		return ErrClosed
	}

	if err := unix.Close(raw); err != nil {
		return fmt.Errorf("close fd %d: %w", raw, err)
	}

	return nil
}

// Release gives up ownership without closing and returns the raw
// descriptor. The caller is responsible for it from now on.
func (f *FD) Release() (int, error) {
	raw, ok := f.take()
	if !ok {
		return invalid, ErrClosed
	}

	return raw, nil
}

// Dup creates a new [FD] referring to the same open file description. The new
// descriptor has close-on-exec set.
func (f *FD) Dup() (*FD, error) {
	raw := f.Int()
	if raw < 0 {
		return nil, ErrClosed
	}

	dup, err := unix.FcntlInt(uintptr(raw), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("dup fd %d: %w", raw, err)
	}

	return New(dup), nil
}

// File moves ownership into a new [os.File] with the given name.
func (f *FD) File(name string) (*os.File, error) {
	raw, err := f.Release()
	if err != nil {
		return nil, err
	}

	return os.NewFile(uintptr(raw), name), nil
}

// String implements [fmt.Stringer].
func (f *FD) String() string {
	raw := f.Int()
	if raw < 0 {
		return "fd(closed)"
	}

	return fmt.Sprintf("fd(%d)", raw)
}
