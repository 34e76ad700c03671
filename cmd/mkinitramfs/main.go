// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command mkinitramfs packs ginit into a bootable initramfs.
package main

import (
	"os"

	"github.com/greg904/ginit/internal/cmd"
)

func main() {
	os.Exit(cmd.RunMkinitramfs(os.Args[1:], cmd.IO{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}))
}
