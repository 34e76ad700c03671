// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build integration_sysinit

package sysinit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/greg904/ginit/sysinit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestLinuxKernel_Mount(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		fsType      string
		expectedErr error
	}{
		{
			name:        "missing fstype",
			source:      "none",
			expectedErr: unix.ENODEV,
		},
		{
			name:        "unknown fstype",
			source:      "none",
			fsType:      "nofs",
			expectedErr: unix.ENODEV,
		},
		{
			name:   "tmpfs",
			source: "none",
			fsType: string(sysinit.FSTypeTmp),
		},
	}

	kernel := sysinit.LinuxKernel{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := t.TempDir()

			err := kernel.Mount(tt.source, target, tt.fsType, 0, "")
			require.ErrorIs(t, err, tt.expectedErr)

			if tt.expectedErr != nil {
				return
			}

			table, err := kernel.MountTable()
			require.NoError(t, err)
			assert.Contains(t, table, target)

			require.NoError(t, os.WriteFile(filepath.Join(target, "file"), nil, 0o600))

			require.NoError(t, kernel.Unmount(target))

			table, err = kernel.MountTable()
			require.NoError(t, err)
			assert.NotContains(t, table, target)
			assert.NoFileExists(t, filepath.Join(target, "file"))
		})
	}
}

func TestLinuxKernel_MountTableOrder(t *testing.T) {
	kernel := sysinit.LinuxKernel{}

	parent := t.TempDir()
	child := filepath.Join(parent, "child")

	require.NoError(t, kernel.Mount("none", parent, "tmpfs", 0, ""))
	t.Cleanup(func() { _ = unix.Unmount(parent, unix.MNT_DETACH) })

	require.NoError(t, os.Mkdir(child, 0o755))
	require.NoError(t, kernel.Mount("none", child, "tmpfs", 0, ""))
	t.Cleanup(func() { _ = unix.Unmount(child, 0) })

	table, err := kernel.MountTable()
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(table), 3)
	assert.Equal(t, "/", table[0])
	assert.Equal(t, []string{parent, child}, table[len(table)-2:])

	err = kernel.Unmount(parent)
	require.ErrorIs(t, err, unix.EBUSY, "parent must be unmounted last")
}
