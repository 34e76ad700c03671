// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/greg904/ginit/internal/fd"
	"github.com/greg904/ginit/internal/spawn"
	"github.com/greg904/ginit/seat"
	"golang.org/x/sys/unix"
)

const (
	bootLogMode    = 0o600
	runtimeDirMode = 0o700
	serviceDirMode = 0o755
)

// Boot brings the machine to a state where the event loop can run.
//
// The steps are best effort: failures are logged and the next step is
// attempted anyway. Only if the UI process can not be started, an error is
// returned, since there is no session without it.
//
// Late init is not part of boot. Run [System.LateInit] once the session is
// returned.
func (s *System) Boot() (*Session, error) {
	_ = mountAll(s.kernel, s.cfg.Mounts, PhaseEarly)

	if s.cfg.BootLog != "" {
		if err := redirectOutput(s.cfg.BootLog); err != nil {
			slog.Warn("Boot log redirection failed", slog.Any("error", err))
		}
	}

	_ = CreateSymlinks(s.cfg.Symlinks)

	session := new(Session)

	server, client, err := seat.NewServer(
		seat.WithAllowedPrefixes(s.cfg.Seat.AllowedPrefixes...),
	)
	if err != nil {
		slog.Error("Device broker not available", slog.Any("error", err))
	} else {
		session.Seat = server
		session.cleanup.add(server.Close)

		// The UI process owns its own copy once spawned.
		defer closeLogged(client, "device broker client")
	}

	if dir := s.cfg.UI.RuntimeDir; dir != "" {
		if err := createRuntimeDir(dir, s.cfg.UI.UID, s.cfg.UI.GID); err != nil {
			slog.Warn("Runtime dir creation failed", slog.Any("error", err))
		}
	}

	pid, err := s.spawnUI(client)
	if err != nil {
		session.Close()
		return nil, stepError("start ui", err)
	}

	session.UIPid = pid

	slog.Info("UI process started",
		slog.String("path", s.cfg.UI.Path),
		slog.Int("pid", pid),
	)

	return session, nil
}

func (s *System) spawnUI(client *fd.FD) (int, error) {
	ui := s.cfg.UI

	hook := &spawn.PreExec{
		Credential: &spawn.Credential{
			UID:    ui.UID,
			GID:    ui.GID,
			Groups: ui.Groups,
		},
		Dir:   ui.Home,
		Files: make(map[int]*fd.FD),
	}

	if client.Valid() {
		hook.Files[seat.ClientFD] = client
	}

	if ui.TTY != "" {
		tty, err := openTTY(ui.TTY)
		if err != nil {
			slog.Warn("Terminal not available", slog.Any("error", err))
		} else {
			defer closeLogged(tty, "terminal")

			hook.Setsid = true
			hook.Setctty = true
			hook.Ctty = 0

			for _, stdio := range []int{0, 1, 2} {
				hook.Files[stdio] = tty
			}
		}
	}

	return s.kernel.Spawn(ui.Path, ui.argv(), ui.Env, hook)
}

// closeLogged closes the descriptor and logs a failure. A descriptor that was
// already released is fine.
func closeLogged(handle *fd.FD, name string) {
	if err := handle.Close(); err != nil && !errors.Is(err, fd.ErrClosed) {
		slog.Warn("Close failed",
			slog.String("name", name),
			slog.Any("error", err),
		)
	}
}

func openTTY(path string) (*fd.FD, error) {
	raw, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return fd.New(raw), nil
}

// redirectOutput replaces stdout and stderr by the given file. The file is
// truncated.
func redirectOutput(path string) error {
	raw, err := unix.Open(
		path,
		unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC|unix.O_CLOEXEC,
		bootLogMode,
	)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	file := fd.New(raw)
	defer closeLogged(file, "boot log")

	for _, target := range []int{syscall.Stdout, syscall.Stderr} {
		if err := unix.Dup3(raw, target, 0); err != nil {
			return fmt.Errorf("dup3 to %d: %w", target, err)
		}
	}

	return nil
}

func createRuntimeDir(path string, uid, gid uint32) error {
	if err := os.MkdirAll(filepath.Dir(path), serviceDirMode); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	if err := createDir(path, runtimeDirMode); err != nil {
		return err
	}

	if err := os.Chown(path, int(uid), int(gid)); err != nil {
		return fmt.Errorf("chown %s: %w", path, err)
	}

	return nil
}
