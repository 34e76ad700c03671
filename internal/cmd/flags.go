// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"
)

const mkinitramfsUsage = `Usage of 'mkinitramfs':
    mkinitramfs [flags...] ginit

Packs the given ginit binary as /init into a CPIO archive that can be used
as initramfs. Additional files and symbolic links can be added:

    mkinitramfs -o initramfs.cpio --file usr/bin/sway=/usr/bin/sway ./ginit
`

// mkinitramfsFlags are the parsed arguments of mkinitramfs.
type mkinitramfsFlags struct {
	InitPath   string
	OutputPath string
	Files      PairList
	Symlinks   PairList
	Debug      bool
	Version    bool
}

func (f *mkinitramfsFlags) logLevel() slog.Level {
	if f.Debug {
		return slog.LevelDebug
	}

	return slog.LevelInfo
}

func parseMkinitramfsArgs(args []string, output io.Writer) (*mkinitramfsFlags, error) {
	flags := new(mkinitramfsFlags)

	flagSet := pflag.NewFlagSet("mkinitramfs", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, mkinitramfsUsage)
		flagSet.PrintDefaults()
	}

	flagSet.StringVarP(&flags.OutputPath, "output", "o", "initramfs.cpio",
		"path of the archive to write")
	flagSet.Var(&flags.Files, "file",
		"additional file as archive-path=host-path, may be repeated")
	flagSet.Var(&flags.Symlinks, "symlink",
		"symbolic link as archive-path=target, may be repeated")
	flagSet.BoolVar(&flags.Debug, "debug", false, "enable debug output")
	flagSet.BoolVar(&flags.Version, "version", false, "show version and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}

		return nil, &ParseArgsError{msg: "flag parse", err: err}
	}

	if flags.Version {
		return flags, nil
	}

	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return nil, &ParseArgsError{msg: "exactly one ginit binary expected"}
	}

	initPath, err := AbsoluteFilePath(flagSet.Arg(0))
	if err != nil {
		return nil, &ParseArgsError{msg: "ginit binary", err: err}
	}

	flags.InitPath = initPath

	return flags, nil
}

// validate checks all host files are present.
func (f *mkinitramfsFlags) validate() error {
	if err := ValidateFilePath(f.InitPath); err != nil {
		return fmt.Errorf("ginit binary: %w", err)
	}

	for _, file := range f.Files {
		if err := ValidateFilePath(file.Value); err != nil {
			return fmt.Errorf("additional file: %w", err)
		}
	}

	return nil
}
