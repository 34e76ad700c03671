// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit_test

import (
	"fmt"
	"testing"

	"github.com/greg904/ginit/sysinit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepError(t *testing.T) {
	err := fmt.Errorf("session: %w", &sysinit.StepError{
		Step: "device broker",
		Err:  assert.AnError,
	})

	require.ErrorIs(t, err, &sysinit.StepError{})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, "session: device broker: "+assert.AnError.Error(), err.Error())

	var stepErr *sysinit.StepError

	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "device broker", stepErr.Step)
}
