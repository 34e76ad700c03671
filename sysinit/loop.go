// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/greg904/ginit/internal/spawn"
	"golang.org/x/sys/unix"
)

const pollErrorEvents = unix.POLLERR | unix.POLLHUP | unix.POLLNVAL

// Loop runs until the UI process of the given session exited.
//
// It waits for exited children and device broker requests at the same time.
// Every exited child is reaped. It returns nil once the UI process was
// reaped, or an error if waiting failed, any descriptor reports an error
// condition, the device broker failed to receive or the context is done.
func (s *System) Loop(ctx context.Context, session *Session) error {
	notifier, err := newChildNotifier()
	if err != nil {
		return stepError("event loop", err)
	}

	defer func() {
		if err := notifier.Close(); err != nil {
			slog.Warn("Close child notifier", slog.Any("error", err))
		}
	}()

	pollFDs := []unix.PollFd{
		{Fd: int32(notifier.FD()), Events: unix.POLLIN},
	}

	if session.Seat != nil {
		pollFDs = append(pollFDs, unix.PollFd{
			Fd:     int32(session.Seat.FD()),
			Events: unix.POLLIN,
		})
	}

	heartbeat := s.cfg.Heartbeat
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}

	timeout := int(heartbeat.Milliseconds())

	// Children might have exited before the notifier was set up.
	wake := true

	for {
		if wake {
			done, err := s.reap(session.UIPid)
			if done {
				return nil
			}

			if err != nil {
				return stepError("event loop", err)
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		for idx := range pollFDs {
			pollFDs[idx].Revents = 0
		}

		n, err := unix.Poll(pollFDs, timeout)
		if errors.Is(err, unix.EINTR) {
			wake = false
			continue
		}

		if err != nil {
			return stepError("event loop", fmt.Errorf("poll: %w", err))
		}

		if n == 0 {
			slog.Debug("Event loop heartbeat")

			wake = true

			continue
		}

		for _, pollFD := range pollFDs {
			if pollFD.Revents&pollErrorEvents != 0 {
				return stepError("event loop", fmt.Errorf(
					"%w: fd %d: events %#x",
					ErrPollFailure, pollFD.Fd, pollFD.Revents,
				))
			}
		}

		wake = pollFDs[0].Revents&unix.POLLIN != 0
		if wake {
			if err := notifier.Drain(); err != nil {
				return stepError("event loop", err)
			}
		}

		if len(pollFDs) > 1 && pollFDs[1].Revents&unix.POLLIN != 0 {
			if err := session.Seat.ProcessIncoming(); err != nil {
				return stepError("device broker", err)
			}
		}
	}
}

// reap collects all exited children without blocking. It returns true if the
// child with the given pid was among them.
func (s *System) reap(uiPid int) (bool, error) {
	found := false

	for {
		pid, status, err := s.kernel.Wait(-1, unix.WNOHANG)

		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			return found, nil
		case err != nil:
			return found, fmt.Errorf("reap: %w", err)
		case pid <= 0:
			return found, nil
		}

		if pid != uiPid {
			slog.Debug("Child reaped",
				slog.Int("pid", pid),
				slog.Int("status", spawn.ExitStatus(status)),
			)

			continue
		}

		found = true

		slog.Info("UI process exited",
			slog.Int("pid", pid),
			slog.Int("status", spawn.ExitStatus(status)),
		)
	}
}
