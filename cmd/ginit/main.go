// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command ginit is PID 1 of a single user machine. Its configuration is
// compiled in from config.yaml.
package main

import (
	"context"
	_ "embed"
	"os"

	"github.com/greg904/ginit/internal/cmd"
)

//go:embed config.yaml
var config []byte

func main() {
	os.Exit(cmd.RunGinit(context.Background(), config, cmd.IO{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}))
}
