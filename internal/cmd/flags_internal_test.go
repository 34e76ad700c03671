// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMkinitramfsArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    *mkinitramfsFlags
		expectedErr error
	}{
		{
			name: "defaults",
			args: []string{"/build/ginit"},
			expected: &mkinitramfsFlags{
				InitPath:   "/build/ginit",
				OutputPath: "initramfs.cpio",
			},
		},
		{
			name: "all flags",
			args: []string{
				"-o", "-",
				"--file", "usr/bin/sway=/usr/bin/sway",
				"--file", "etc/hosts=/etc/hosts",
				"--symlink", "bin=usr/bin",
				"--debug",
				"/build/ginit",
			},
			expected: &mkinitramfsFlags{
				InitPath:   "/build/ginit",
				OutputPath: "-",
				Files: PairList{
					{Name: "usr/bin/sway", Value: "/usr/bin/sway"},
					{Name: "etc/hosts", Value: "/etc/hosts"},
				},
				Symlinks: PairList{
					{Name: "bin", Value: "usr/bin"},
				},
				Debug: true,
			},
		},
		{
			name: "version without binary",
			args: []string{"--version"},
			expected: &mkinitramfsFlags{
				OutputPath: "initramfs.cpio",
				Version:    true,
			},
		},
		{
			name:        "help",
			args:        []string{"--help"},
			expectedErr: pflag.ErrHelp,
		},
		{
			name:        "no binary",
			args:        []string{"-o", "out.cpio"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "too many binaries",
			args:        []string{"/build/ginit", "/build/other"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "invalid file",
			args:        []string{"--file", "/usr/bin/sway", "/build/ginit"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "unknown flag",
			args:        []string{"--kernel", "vmlinuz", "/build/ginit"},
			expectedErr: &ParseArgsError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer

			actual, err := parseMkinitramfsArgs(tt.args, &output)
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestMkinitramfsFlags_LogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, (&mkinitramfsFlags{}).logLevel())
	assert.Equal(t, slog.LevelDebug, (&mkinitramfsFlags{Debug: true}).logLevel())
}
