// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sysinit implements PID 1 of a single user machine.
//
// The machine boots into exactly one graphical session, run by the UI
// process. [System.Boot] mounts the early file systems, creates the /dev
// symlinks, sets up the device broker of package seat and starts the UI
// process with dropped privileges. [System.LateInit] applies late mounts,
// sysctl values and the network configuration while the session already
// runs, then starts background services. [System.Loop] reaps every exited
// child and serves device requests until the UI process exits.
// [System.Shutdown] terminates all processes, unmounts everything in reverse
// mount order and powers off.
//
// [Run] ties it all together and makes sure shutdown happens in any case:
//
//	cfg, err := sysinit.ParseConfig(data)
//	if err != nil {
//		cfg = sysinit.DefaultConfig()
//	}
//
//	err = sysinit.Run(ctx, cfg, sysinit.LinuxKernel{})
//
// All kernel operations that change machine state go through the [Kernel]
// interface, so the lifecycle can be tested without root privileges.
package sysinit
