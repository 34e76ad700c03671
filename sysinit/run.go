// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Run is the entry point for an actual init system.
//
// It boots the system, starts late init in the background and runs the event
// loop until the UI process exits. Then it shuts the system down in any case,
// even if boot failed or anything panicked. It only returns if powering off
// failed. The returned error contains everything that went wrong.
//
// It must be run as PID 1. Use [IsPidOne] to check before.
func Run(ctx context.Context, cfg Config, kernel Kernel) error {
	sys := New(cfg, kernel)

	sessionErr := sys.runSession(ctx)
	if sessionErr != nil {
		slog.Error("Session failed", slog.Any("error", sessionErr))
	}

	return errors.Join(sessionErr, sys.Shutdown())
}

// runSession runs boot, late init and the event loop. Panics are returned as
// [ErrPanic]. Late init is cancelled and waited for before it returns.
func (s *System) runSession(ctx context.Context) error {
	return guard(func() error {
		session, err := s.Boot()
		if err != nil {
			return err
		}
		defer session.Close()

		lateCtx, cancel := context.WithCancel(ctx)
		lateDone := make(chan struct{})

		go func() {
			defer close(lateDone)

			_ = s.LateInit(lateCtx)
		}()

		defer func() {
			cancel()
			<-lateDone
		}()

		return s.Loop(ctx, session)
	})()
}

// guard returns a function that runs fn and returns a panic of fn as
// [ErrPanic].
func guard(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			if recoveredErr, ok := rec.(error); ok {
				err = fmt.Errorf("%w: %w", ErrPanic, recoveredErr)
			} else {
				err = fmt.Errorf("%w: %v", ErrPanic, rec)
			}
		}()

		return fn()
	}
}
