// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"log/slog"
	"slices"
)

// cleanup is a stack of functions releasing resources.
type cleanup []func() error

func (c *cleanup) add(fn func() error) {
	*c = append(*c, fn)
}

// run runs all functions in reverse order of adding them and empties the
// stack. Errors are logged.
func (c *cleanup) run() {
	fns := *c
	*c = nil

	slices.Reverse(fns)

	for _, fn := range fns {
		if err := fn(); err != nil {
			slog.Error("Cleanup failed", slog.Any("error", err))
		}
	}
}
