// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"io"
	"log"
	"log/slog"
)

// setupLogging installs a text handler for the given level as default
// [slog.Logger]. Output of the standard [log] package is prefixed with the
// program name, so lines of third-party code can be told apart.
func setupLogging(writer io.Writer, name string, level slog.Level) {
	log.SetOutput(writer)
	log.SetFlags(log.Lmicroseconds)
	log.SetPrefix(name + ": ")

	slog.SetDefault(slog.New(slog.NewTextHandler(
		writer,
		&slog.HandlerOptions{
			Level: level,
		},
	)))
}
