// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgsError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseArgsError
		expected string
	}{
		{
			name:     "message only",
			err:      &ParseArgsError{msg: "exactly one ginit binary expected"},
			expected: "exactly one ginit binary expected",
		},
		{
			name:     "wrapped",
			err:      &ParseArgsError{msg: "flag parse", err: assert.AnError},
			expected: "flag parse: " + assert.AnError.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			require.ErrorIs(t, tt.err, &ParseArgsError{})
		})
	}
}

func TestHandleParseArgsError(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		expectedExitCode int
	}{
		{
			name: "help",
			err:  pflag.ErrHelp,
		},
		{
			name:             "parse args error",
			err:              &ParseArgsError{msg: "flag parse"},
			expectedExitCode: -1,
		},
		{
			name:             "other error",
			err:              assert.AnError,
			expectedExitCode: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedExitCode, handleParseArgsError(tt.err))
		})
	}
}
