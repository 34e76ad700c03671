// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

const (
	kernelLogMode = 0o600
	rootMount     = "/"
)

// Shutdown leaves the machine with no process alive and no file system
// mounted and powers off.
//
// It runs only once. Any later call returns the result of the first one.
// Every step is attempted regardless of failures of earlier ones. It only
// returns if the final reboot(2) call failed.
func (s *System) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.shutdownErr = s.shutdown()
	})

	return s.shutdownErr
}

func (s *System) shutdown() error {
	slog.Info("Shutting down")

	if s.cfg.KernelLog != "" {
		if err := s.saveKernelLog(s.cfg.KernelLog); err != nil {
			slog.Warn("Kernel log not saved", slog.Any("error", err))
		}
	}

	flushOutput()

	s.kernel.Sync()

	logSurvivors()

	if err := s.terminateAll(); err != nil {
		slog.Error("Termination broadcast failed", slog.Any("error", err))
	} else {
		s.reapAll()
	}

	s.unmountAll()

	err := s.kernel.Mount("", rootMount, "", unix.MS_REMOUNT|unix.MS_RDONLY, "")
	if err != nil {
		slog.Warn("Remount root read-only failed", slog.Any("error", err))
	}

	s.kernel.Sync()

	flushOutput()

	if err := s.kernel.Reboot(s.cfg.rebootCmd()); err != nil {
		slog.Error("Power off failed", slog.Any("error", err))
		return stepError("power off", err)
	}

	return nil
}

func (s *System) saveKernelLog(path string) error {
	data, err := s.kernel.ReadKernelLog()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, kernelLogMode); err != nil {
		return fmt.Errorf("write kernel log: %w", err)
	}

	slog.Debug("Kernel log saved",
		slog.String("path", path),
		slog.String("size", humanize.IBytes(uint64(len(data)))),
	)

	return nil
}

func flushOutput() {
	for _, file := range []*os.File{os.Stdout, os.Stderr} {
		// Terminals and pipes can not be synced, which is fine.
		_ = file.Sync()
	}
}

// terminateAll sends SIGTERM to every process. No process to signal is not an
// error.
func (s *System) terminateAll() error {
	err := s.kernel.Kill(-1, unix.SIGTERM)
	if err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}

	return nil
}

// reapAll waits until there is no child left.
//
// If a kill timeout is configured, SIGKILL is sent to every process once the
// timeout passed.
func (s *System) reapAll() {
	if s.cfg.KillTimeout > 0 {
		timer := time.AfterFunc(s.cfg.KillTimeout, func() {
			slog.Warn("Processes left after timeout, killing",
				slog.Duration("timeout", s.cfg.KillTimeout),
			)

			err := s.kernel.Kill(-1, unix.SIGKILL)
			if err != nil && !errors.Is(err, unix.ESRCH) {
				slog.Error("Kill broadcast failed", slog.Any("error", err))
			}
		})
		defer timer.Stop()
	}

	for {
		pid, _, err := s.kernel.Wait(-1, 0)

		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			return
		case err != nil:
			slog.Error("Wait for processes failed", slog.Any("error", err))
			return
		}

		slog.Debug("Process exited", slog.Int("pid", pid))
	}
}

// unmountAll unmounts every file system in exact reverse mount order. The
// root file system is kept.
func (s *System) unmountAll() {
	mountPoints, err := s.kernel.MountTable()
	if err != nil {
		slog.Error("Read mount table failed", slog.Any("error", err))
		return
	}

	for _, target := range slices.Backward(mountPoints) {
		if target == rootMount {
			continue
		}

		if err := s.kernel.Unmount(target); err != nil {
			slog.Warn("Unmount failed",
				slog.String("target", target),
				slog.Any("error", err),
			)

			continue
		}

		slog.Debug("Unmounted", slog.String("target", target))
	}
}
