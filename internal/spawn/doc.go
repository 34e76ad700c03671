// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package spawn starts new program images with a minimal pre-exec stage.
//
// The pre-exec stage is described by [PreExec] as data instead of code. The
// Go runtime creates the child with clone(CLONE_VFORK|CLONE_VM), runs the
// described steps (new session, controlling terminal, descriptor rewiring,
// privilege drop, working directory) without any allocation and suspends
// the parent until the child either called execve(2) or exited. If any step
// or the exec itself fails, the child exits immediately and the failure is
// returned to the caller as an [*Error].
package spawn
