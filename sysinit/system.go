// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"sync"

	"github.com/greg904/ginit/seat"
)

// System drives the lifecycle of the machine: boot, the event loop and
// shutdown.
type System struct {
	cfg    Config
	kernel Kernel

	// procSys is the root of the sysctl files.
	procSys string

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a new [System] for the given configuration that uses the given
// kernel for all system calls that change the machine state.
func New(cfg Config, kernel Kernel) *System {
	return &System{
		cfg:     cfg,
		kernel:  kernel,
		procSys: ProcSysPath,
	}
}

// Session is the state of a booted system.
type Session struct {
	// UIPid is the process id of the UI process. The session ends when it
	// exits.
	UIPid int

	// Seat is the device broker serving the UI process. It might be nil.
	Seat *seat.Server

	cleanup cleanup
}

// Close releases all resources of the session.
func (s *Session) Close() {
	s.cleanup.run()
}
