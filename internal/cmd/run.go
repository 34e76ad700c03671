// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/spf13/pflag"
)

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func handleParseArgsError(err error) int {
	// [pflag.ErrHelp] is returned when help is requested. So exit without
	// error in this case.
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}

	// Parsing already prints errors, so we just exit without an error.
	if !errors.Is(err, &ParseArgsError{}) {
		slog.Error(err.Error())
	}

	return -1
}

func printVersion(output io.Writer) int {
	buildInfo, err := getBuildInfo()
	if err != nil {
		slog.Error(err.Error())
		return -1
	}

	fmt.Fprintf(output, "Version: %s\n", buildInfo.Main.Version)

	return 0
}

func getBuildInfo() (*debug.BuildInfo, error) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, ErrReadBuildInfo
	}

	return buildInfo, nil
}
