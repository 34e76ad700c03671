// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSystem_Shutdown_Order(t *testing.T) {
	kernel := newFakeKernel()
	kernel.mounted = []string{"/", "/dev", "/dev/pts", "/run", "/proc"}

	sys := New(testConfig(), kernel)
	require.NoError(t, sys.Shutdown())

	assert.Equal(t, []string{
		"sync",
		"kill -1 SIGTERM",
		"wait",
		"umount /proc",
		"umount /run",
		"umount /dev/pts",
		"umount /dev",
		"remount /",
		"sync",
		"reboot",
	}, kernel.calls)
}

func TestSystem_Shutdown_RebootCmd(t *testing.T) {
	tests := []struct {
		name     string
		restart  bool
		expected int
	}{
		{
			name:     "power off",
			expected: unix.LINUX_REBOOT_CMD_POWER_OFF,
		},
		{
			name:     "restart",
			restart:  true,
			expected: unix.LINUX_REBOOT_CMD_RESTART,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Restart = tt.restart

			kernel := newFakeKernel()

			require.NoError(t, New(cfg, kernel).Shutdown())
			assert.Equal(t, []int{tt.expected}, kernel.reboots)
		})
	}
}

func TestSystem_Shutdown_Once(t *testing.T) {
	kernel := newFakeKernel()
	kernel.rebootErr = unix.EPERM

	sys := New(testConfig(), kernel)

	err := sys.Shutdown()
	require.ErrorIs(t, err, unix.EPERM)
	require.ErrorIs(t, err, &StepError{})

	assert.Equal(t, err, sys.Shutdown(), "same result on later calls")
	assert.Len(t, kernel.reboots, 1)
}

func TestSystem_Shutdown_Termination(t *testing.T) {
	tests := []struct {
		name          string
		killErr       error
		waits         []waitResult
		expectedWaits int
	}{
		{
			name:          "nothing left",
			killErr:       unix.ESRCH,
			expectedWaits: 1,
		},
		{
			name:          "children exit",
			waits:         []waitResult{{pid: 7}, {pid: 8}},
			expectedWaits: 3,
		},
		{
			name:          "interrupted",
			waits:         []waitResult{{err: unix.EINTR}, {pid: 7}},
			expectedWaits: 3,
		},
		{
			name:          "wait failure",
			waits:         []waitResult{{pid: -1, err: unix.EINVAL}, {pid: 7}},
			expectedWaits: 1,
		},
		{
			name:          "kill failure",
			killErr:       unix.EPERM,
			waits:         []waitResult{{pid: 7}},
			expectedWaits: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kernel := newFakeKernel()
			kernel.killErr = tt.killErr
			kernel.queueWait(tt.waits...)
			kernel.mounted = []string{"/", "/tmp"}

			sys := New(testConfig(), kernel)
			require.NoError(t, sys.Shutdown())

			assert.Len(t, kernel.callsWithPrefix("wait"), tt.expectedWaits)
			assert.Equal(t, []string{"/"}, kernel.mountTable(),
				"unmount must happen in any case")
			assert.Len(t, kernel.reboots, 1)
		})
	}
}

func TestSystem_Shutdown_KillTimeout(t *testing.T) {
	kernel := newFakeKernel()

	killed := make(chan struct{})

	kernel.waitFn = func(_, _ int) (int, unix.WaitStatus, error) {
		select {
		case <-killed:
			return -1, 0, unix.ECHILD
		case <-time.After(10 * time.Second):
			return -1, 0, unix.ETIMEDOUT
		}
	}

	cfg := testConfig()
	cfg.KillTimeout = 20 * time.Millisecond

	sys := New(cfg, &killNotifyingKernel{fakeKernel: kernel, killed: killed})
	require.NoError(t, sys.Shutdown())

	assert.Equal(t, []string{
		"kill -1 SIGTERM",
		"kill -1 SIGKILL",
	}, kernel.callsWithPrefix("kill"))
}

// killNotifyingKernel closes killed once SIGKILL is sent.
type killNotifyingKernel struct {
	*fakeKernel
	killed chan struct{}
}

func (k *killNotifyingKernel) Kill(pid int, sig unix.Signal) error {
	err := k.fakeKernel.Kill(pid, sig)

	if sig == unix.SIGKILL {
		close(k.killed)
	}

	return err
}

func TestSystem_Shutdown_UnmountFailureContinues(t *testing.T) {
	kernel := newFakeKernel()
	kernel.mounted = []string{"/", "/dev", "/proc"}

	sys := New(testConfig(), &busyKernel{fakeKernel: kernel, busy: "/proc"})
	require.NoError(t, sys.Shutdown())

	assert.Equal(t, []string{"/", "/proc"}, kernel.mountTable())
	assert.Len(t, kernel.reboots, 1)
}

// busyKernel fails to unmount the busy target.
type busyKernel struct {
	*fakeKernel
	busy string
}

func (k *busyKernel) Unmount(target string) error {
	if target == k.busy {
		return unix.EBUSY
	}

	return k.fakeKernel.Unmount(target)
}

func TestSystem_Shutdown_KernelLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dmesg")

	cfg := testConfig()
	cfg.KernelLog = path

	kernel := newFakeKernel()
	require.NoError(t, New(cfg, kernel).Shutdown())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<6>kernel: booted\n", string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(kernelLogMode), info.Mode().Perm())
}
