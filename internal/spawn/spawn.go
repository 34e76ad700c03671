// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package spawn

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"syscall"

	"github.com/greg904/ginit/internal/fd"
	"golang.org/x/sys/unix"
)

// closedFD marks a child descriptor slot that must be closed in the child.
const closedFD = ^uintptr(0)

// ErrInvalidCtty is returned if the controlling terminal is requested
// without a descriptor for it in the child.
var ErrInvalidCtty = errors.New("controlling terminal not among child descriptors")

// Credential is the identity the child assumes before exec.
type Credential struct {
	UID    uint32
	GID    uint32
	Groups []uint32
}

// PreExec describes the steps run in the child between creation and exec.
//
// The steps run in this order: new session, controlling terminal,
// supplementary groups, group id, user id, descriptor rewiring, working
// directory.
type PreExec struct {
	// Credential drops privileges if not nil. Supplementary groups are set
	// before the group and user ids.
	Credential *Credential

	// Dir is the working directory of the child. Empty keeps the parent's.
	Dir string

	// Setsid starts a new session.
	Setsid bool

	// Setctty makes the child descriptor Ctty the controlling terminal. It
	// requires Setsid.
	Setctty bool
	Ctty    int

	// Files maps child descriptor numbers to descriptors of the parent.
	// Descriptors 0, 1 and 2 default to the parent's standard descriptors.
	// All other descriptors of the parent are not inherited, as long as they
	// are close-on-exec. The parent keeps ownership of the given descriptors.
	Files map[int]*fd.FD
}

func (p *PreExec) procAttr(envv []string) (*syscall.ProcAttr, error) {
	attr := &syscall.ProcAttr{
		Env: envv,
		Sys: new(syscall.SysProcAttr),
	}

	files := []uintptr{
		uintptr(syscall.Stdin),
		uintptr(syscall.Stdout),
		uintptr(syscall.Stderr),
	}

	if p == nil {
		attr.Files = files

		return attr, nil
	}

	attr.Dir = p.Dir
	attr.Sys.Setsid = p.Setsid
	attr.Sys.Setctty = p.Setctty
	attr.Sys.Ctty = p.Ctty

	for _, childFD := range slices.Sorted(maps.Keys(p.Files)) {
		parentFD := p.Files[childFD]
		if childFD < 0 || !parentFD.Valid() {
			return nil, fmt.Errorf("child fd %d: %w", childFD, fd.ErrClosed)
		}

		for len(files) <= childFD {
			files = append(files, closedFD)
		}

		files[childFD] = uintptr(parentFD.Int())
	}

	if p.Setctty && (p.Ctty < 0 || p.Ctty >= len(files) || files[p.Ctty] == closedFD) {
		return nil, ErrInvalidCtty
	}

	attr.Files = files

	if p.Credential != nil {
		attr.Sys.Credential = &syscall.Credential{
			Uid:    p.Credential.UID,
			Gid:    p.Credential.GID,
			Groups: p.Credential.Groups,
		}
	}

	return attr, nil
}

// Spawn starts the program at path with the given arguments and environment
// and returns its process id.
//
// The new process is not waited for. The caller must reap it, e.g. with a
// wait4(2) loop for any child.
func Spawn(path string, argv, envv []string, hook *PreExec) (int, error) {
	attr, err := hook.procAttr(envv)
	if err != nil {
		return 0, &Error{Path: path, Err: err}
	}

	if len(argv) == 0 {
		argv = []string{path}
	}

	pid, err := syscall.ForkExec(path, argv, attr)
	if err != nil {
		return 0, &Error{Path: path, Err: err}
	}

	return pid, nil
}

// SpawnAndWait runs [Spawn] and blocks until that one child exited.
//
// It returns the exit status of the child. A child terminated by a signal
// yields 128 plus the signal number, like a shell does.
//
// It must not be used while another goroutine reaps arbitrary children, since
// that might collect the status first.
func SpawnAndWait(path string, argv, envv []string, hook *PreExec) (int, error) {
	pid, err := Spawn(path, argv, envv, hook)
	if err != nil {
		return 0, err
	}

	return Wait(pid)
}

// Wait blocks until the child with the given pid exited and returns its exit
// status. Interrupted waits are retried.
func Wait(pid int) (int, error) {
	var status unix.WaitStatus

	for {
		_, err := unix.Wait4(pid, &status, 0, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return 0, fmt.Errorf("wait for pid %d: %w", pid, err)
		}

		return ExitStatus(status), nil
	}
}

// ExitStatus converts a wait status into a shell-like exit status.
func ExitStatus(status unix.WaitStatus) int {
	if status.Signaled() {
		return 128 + int(status.Signal())
	}

	return status.ExitStatus()
}
