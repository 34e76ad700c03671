// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package fd provides an exclusively owned file descriptor.
//
// An [FD] is released exactly once, no matter how many times [FD.Close] is
// called or which code path calls it. Ownership is never shared implicitly:
// handing an [FD] to another function transfers it. If both sides need
// access, [FD.Dup] mints a second [FD] for the same open file description.
package fd
