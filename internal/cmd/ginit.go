// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"log/slog"

	"github.com/greg904/ginit/sysinit"
)

// RunGinit is the main entry point for ginit. The config is the YAML
// configuration compiled into the binary.
//
// It only returns if the process is not PID 1 or if powering off failed.
func RunGinit(ctx context.Context, config []byte, cfg IO) int {
	setupLogging(cfg.Stderr, "ginit", slog.LevelInfo)

	if !sysinit.IsPidOne() {
		slog.Error(sysinit.ErrNotPidOne.Error())
		return -1
	}

	sysCfg := loadConfig(config)

	setupLogging(cfg.Stderr, "ginit", sysCfg.LogLevel)

	if err := sysinit.Run(ctx, sysCfg, sysinit.LinuxKernel{}); err != nil {
		return -1
	}

	return 0
}

// loadConfig parses the config. An invalid config is replaced by the
// defaults, since PID 1 must bring the machine down cleanly in any case.
func loadConfig(data []byte) sysinit.Config {
	cfg, err := sysinit.ParseConfig(data)
	if err != nil {
		slog.Error("Config invalid, using defaults", slog.Any("error", err))
		return sysinit.DefaultConfig()
	}

	return cfg
}
