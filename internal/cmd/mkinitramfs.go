// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/greg904/ginit/internal/initramfs"
)

const stdoutPath = "-"

func newArchive(flags *mkinitramfsFlags) (*initramfs.Archive, error) {
	archive, err := initramfs.New(flags.InitPath)
	if err != nil {
		return nil, fmt.Errorf("new archive: %w", err)
	}

	for _, file := range flags.Files {
		if err := archive.AddFile(file.Name, file.Value, 0); err != nil {
			return nil, err
		}
	}

	for _, link := range flags.Symlinks {
		if err := archive.AddSymlink(link.Name, link.Value); err != nil {
			return nil, err
		}
	}

	return archive, nil
}

func writeArchive(archive *initramfs.Archive, path string, stdout io.Writer) (int64, error) {
	if path == stdoutPath {
		return archive.WriteTo(stdout)
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create archive file: %w", err)
	}

	size, err := archive.WriteTo(file)

	err = errors.Join(err, file.Close())
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("write archive: %w", err)
	}

	return size, nil
}

func mkinitramfs(flags *mkinitramfsFlags, cfg IO) error {
	if err := flags.validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	archive, err := newArchive(flags)
	if err != nil {
		return err
	}

	size, err := writeArchive(archive, flags.OutputPath, cfg.Stdout)
	if err != nil {
		return err
	}

	slog.Info("Created initramfs archive",
		slog.String("path", flags.OutputPath),
		slog.String("size", humanize.IBytes(uint64(size))),
	)

	return nil
}

// RunMkinitramfs is the main entry point for the mkinitramfs command.
func RunMkinitramfs(args []string, cfg IO) int {
	setupLogging(cfg.Stderr, "mkinitramfs", slog.LevelInfo)

	flags, err := parseMkinitramfsArgs(args, cfg.Stderr)
	if err != nil {
		return handleParseArgsError(err)
	}

	if flags.Version {
		return printVersion(cfg.Stdout)
	}

	setupLogging(cfg.Stderr, "mkinitramfs", flags.logLevel())

	if err := mkinitramfs(flags, cfg); err != nil {
		slog.Error(err.Error())
		return -1
	}

	return 0
}
