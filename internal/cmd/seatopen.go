// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/greg904/ginit/seat"
	"github.com/spf13/pflag"
)

// deviceOpener opens devices via the device broker.
type deviceOpener interface {
	Open(path string) (deviceFile, error)
}

type deviceFile interface {
	io.Closer
	Fd() uintptr
}

type clientOpener struct {
	client *seat.Client
}

func (o clientOpener) Open(path string) (deviceFile, error) {
	return o.client.Open(path)
}

// seatOpen requests every path in order and reports the result on output.
// It returns an error if any request was not granted.
func seatOpen(opener deviceOpener, paths []string, output io.Writer) error {
	var errs []error

	for _, path := range paths {
		file, err := opener.Open(path)
		if err != nil {
			fmt.Fprintf(output, "%s: %v\n", path, err)
			errs = append(errs, err)

			continue
		}

		fmt.Fprintf(output, "%s: granted as fd %d\n", path, file.Fd())

		_ = file.Close()
	}

	if len(errs) > 0 {
		slog.Debug("Requests failed", slog.Int("count", len(errs)))
	}

	return errors.Join(errs...)
}

// RunSeatOpen is the main entry point for the seatopen command. It is run by
// the UI process or its children, which inherit the device broker client on
// descriptor [seat.ClientFD].
func RunSeatOpen(args []string, cfg IO) int {
	setupLogging(cfg.Stderr, "seatopen", slog.LevelInfo)

	var debug bool

	flagSet := pflag.NewFlagSet("seatopen", pflag.ContinueOnError)
	flagSet.SetOutput(cfg.Stderr)
	flagSet.Usage = func() {
		fmt.Fprintln(cfg.Stderr, "Usage: seatopen [--debug] device...")
		flagSet.PrintDefaults()
	}
	flagSet.BoolVar(&debug, "debug", false, "enable debug output")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}

		return -1
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return -1
	}

	if debug {
		setupLogging(cfg.Stderr, "seatopen", slog.LevelDebug)
	}

	client := seat.InheritedClient()
	defer client.Close()

	if err := seatOpen(clientOpener{client}, flagSet.Args(), cfg.Stdout); err != nil {
		return 1
	}

	return 0
}
