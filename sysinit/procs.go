// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"log/slog"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// kthreadd is the parent of all kernel threads.
const kthreadd = 2

// logSurvivors logs the user space processes still running besides this one.
// It does nothing unless debug logging is enabled.
func logSurvivors() {
	ctx := context.Background()

	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		slog.Debug("List processes failed", slog.Any("error", err))
		return
	}

	self := int32(os.Getpid())

	for _, proc := range procs {
		if proc.Pid == self || proc.Pid == kthreadd {
			continue
		}

		if ppid, err := proc.PpidWithContext(ctx); err == nil && ppid == kthreadd {
			continue
		}

		name, err := proc.NameWithContext(ctx)
		if err != nil {
			name = "unknown"
		}

		slog.Debug("Process still running",
			slog.Int("pid", int(proc.Pid)),
			slog.String("name", name),
		)
	}
}
