// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPidOne is returned if the process is expected to be run as PID 1
	// but is not.
	ErrNotPidOne = errors.New("process does not have ID 1")
	// ErrPanic is returned if boot, late init or the event loop panicked.
	ErrPanic = errors.New("function panicked")
	// ErrInvalidConfig is returned if the configuration can not be used.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnknownMountFlag is returned for mount flag names that do not exist.
	ErrUnknownMountFlag = errors.New("unknown mount flag")
	// ErrUnknownPhase is returned for mount phase names that do not exist.
	ErrUnknownPhase = errors.New("unknown mount phase")
	// ErrPollFailure is returned if a descriptor of the event loop reports an
	// error condition.
	ErrPollFailure = errors.New("poll error condition")
)

// StepError names the step of the system lifecycle that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (*StepError) Is(other error) bool {
	_, ok := other.(*StepError)
	return ok
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepError(step string, err error) error {
	if err == nil {
		return nil
	}

	return &StepError{Step: step, Err: err}
}
