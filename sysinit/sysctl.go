// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ProcSysPath is where the kernel exposes its sysctl knobs.
const ProcSysPath = "/proc/sys"

// Sysctl is a set of kernel knobs. Keys use the dotted notation, like
// "vm.dirty_ratio".
type Sysctl map[string]string

// sysctlPath returns the file path of the given key below root.
func sysctlPath(root, key string) string {
	return filepath.Join(root, strings.ReplaceAll(key, ".", "/"))
}

// Apply writes all values below the given root in lexicographic order of the
// keys.
//
// A failing key does not stop the others from being written. All errors are
// returned joined.
func (s Sysctl) Apply(root string) error {
	var errs []error

	for key, value := range sortedMap(s) {
		if err := writeSysctl(sysctlPath(root, key), value); err != nil {
			slog.Warn("Sysctl failed",
				slog.String("key", key),
				slog.Any("error", err),
			)

			errs = append(errs, err)

			continue
		}

		slog.Debug("Sysctl set",
			slog.String("key", key),
			slog.String("value", value),
		)
	}

	return errors.Join(errs...)
}

// writeSysctl writes the value with a single write, as the kernel expects for
// these files. The file must exist.
func writeSysctl(path, value string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(value); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
