// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// DevSymlinks returns a map with well-known symlinks for /dev.
func DevSymlinks() Symlinks {
	return Symlinks{
		"/dev/core":   "/proc/kcore",
		"/dev/fd":     "/proc/self/fd/",
		"/dev/rtc":    "rtc0",
		"/dev/stdin":  "/proc/self/fd/0",
		"/dev/stdout": "/proc/self/fd/1",
		"/dev/stderr": "/proc/self/fd/2",
	}
}

// Symlinks is a collection of symbolic links. Keys are symbolic links to
// create with the value being the target to link to.
type Symlinks map[string]string

// CreateSymlinks creates the given symbolic links in lexicographic order of
// the links.
//
// A failing link does not stop the others from being created. All errors are
// returned joined.
//
// This must be run after all file systems the links are placed in have been
// mounted.
func CreateSymlinks(symlinks Symlinks) error {
	var errs []error

	for link, target := range sortedMap(symlinks) {
		if err := os.Symlink(target, link); err != nil {
			slog.Warn("Symlink failed",
				slog.String("link", link),
				slog.Any("error", err),
			)

			errs = append(errs, fmt.Errorf("create symlink %s: %w", link, err))
		}
	}

	return errors.Join(errs...)
}
