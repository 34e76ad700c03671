// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"github.com/greg904/ginit/internal/spawn"
	"golang.org/x/sys/unix"
)

// Kernel is the set of kernel operations the system lifecycle depends on.
//
// Each method maps to one system call (or one well-defined sequence of them)
// and reports failure as an error wrapping the errno. [LinuxKernel] is the
// real implementation.
type Kernel interface {
	// Mount attaches a file system.
	Mount(source, target, fsType string, flags uintptr, data string) error

	// Unmount detaches the file system mounted at target.
	Unmount(target string) error

	// MountTable returns the currently active mount points in mount order.
	MountTable() ([]string, error)

	// Spawn starts a new process and returns its pid.
	Spawn(path string, argv, envv []string, hook *spawn.PreExec) (int, error)

	// Wait collects the status of a child, like wait4(2) does.
	Wait(pid int, options int) (int, unix.WaitStatus, error)

	// Kill sends the signal to the process or process group, like kill(2)
	// does.
	Kill(pid int, sig unix.Signal) error

	// Sync flushes all file system caches to disk.
	Sync()

	// ReadKernelLog returns the content of the kernel ring buffer.
	ReadKernelLog() ([]byte, error)

	// Reboot issues the given reboot(2) command. It only returns on error.
	Reboot(cmd int) error
}
