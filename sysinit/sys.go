// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"fmt"
	"os"

	"github.com/greg904/ginit/internal/mounts"
	"github.com/greg904/ginit/internal/spawn"
	"golang.org/x/sys/unix"
)

const (
	rebootCmdPowerOff = unix.LINUX_REBOOT_CMD_POWER_OFF
	rebootCmdRestart  = unix.LINUX_REBOOT_CMD_RESTART
)

// LinuxKernel implements [Kernel] with actual system calls.
type LinuxKernel struct{}

var _ Kernel = LinuxKernel{}

// Mount implements [Kernel].
func (LinuxKernel) Mount(source, target, fsType string, flags uintptr, data string) error {
	if err := unix.Mount(source, target, fsType, flags, data); err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	return nil
}

// Unmount implements [Kernel].
func (LinuxKernel) Unmount(target string) error {
	if err := unix.Unmount(target, 0); err != nil {
		return fmt.Errorf("umount: %w", err)
	}

	return nil
}

// MountTable implements [Kernel].
func (LinuxKernel) MountTable() ([]string, error) {
	return mounts.Read()
}

// Spawn implements [Kernel].
func (LinuxKernel) Spawn(path string, argv, envv []string, hook *spawn.PreExec) (int, error) {
	return spawn.Spawn(path, argv, envv, hook)
}

// Wait implements [Kernel].
func (LinuxKernel) Wait(pid int, options int) (int, unix.WaitStatus, error) {
	var status unix.WaitStatus

	wpid, err := unix.Wait4(pid, &status, options, nil)
	if err != nil {
		return wpid, status, fmt.Errorf("wait4: %w", err)
	}

	return wpid, status, nil
}

// Kill implements [Kernel].
func (LinuxKernel) Kill(pid int, sig unix.Signal) error {
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("kill: %w", err)
	}

	return nil
}

// Sync implements [Kernel].
func (LinuxKernel) Sync() {
	unix.Sync()
}

// ReadKernelLog implements [Kernel].
func (LinuxKernel) ReadKernelLog() ([]byte, error) {
	size, err := unix.Klogctl(unix.SYSLOG_ACTION_SIZE_BUFFER, nil)
	if err != nil {
		return nil, fmt.Errorf("klogctl size: %w", err)
	}

	buf := make([]byte, size)

	n, err := unix.Klogctl(unix.SYSLOG_ACTION_READ_ALL, buf)
	if err != nil {
		return nil, fmt.Errorf("klogctl read: %w", err)
	}

	return buf[:n], nil
}

// Reboot implements [Kernel].
func (LinuxKernel) Reboot(cmd int) error {
	if err := unix.Reboot(cmd); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}

	return nil
}

// IsPidOne returns true if the running process has PID 1.
func IsPidOne() bool {
	return os.Getpid() == 1
}
