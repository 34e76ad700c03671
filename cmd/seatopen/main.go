// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command seatopen requests devices from the ginit device broker and reports
// whether they were granted.
package main

import (
	"os"

	"github.com/greg904/ginit/internal/cmd"
)

func main() {
	os.Exit(cmd.RunSeatOpen(os.Args[1:], cmd.IO{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}))
}
