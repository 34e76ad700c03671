// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package initramfs builds a bootable initramfs with ginit as "/init". The
// initramfs is a CPIO archive in the "newc" format the kernel unpacks into
// its root file system.
package initramfs
