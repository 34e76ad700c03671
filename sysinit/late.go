// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

// LateInit runs everything that is not needed before the session starts.
//
// Late mounts followed by sysctl values run concurrently with the network
// configuration. Once both are done, the background services are started.
// Failures are logged and do not stop the other steps. The returned error
// is the first failure, if any.
//
// Panics are recovered from and returned as [ErrPanic], so LateInit is safe
// to run in its own goroutine.
func (s *System) LateInit(ctx context.Context) error {
	var group errgroup.Group

	group.Go(guard(func() error {
		mountErr := stepError("late mounts", mountAll(s.kernel, s.cfg.Mounts, PhaseLate))
		sysctlErr := stepError("sysctl", s.cfg.Sysctl.Apply(s.procSys))

		return errors.Join(mountErr, sysctlErr)
	}))

	group.Go(guard(func() error {
		if len(s.cfg.Network) == 0 {
			return nil
		}

		return stepError("network", ConfigureNetwork(s.cfg.Network))
	}))

	groupErr := group.Wait()

	servicesErr := guard(func() error {
		return stepError("services", s.startServices(ctx))
	})()

	err := errors.Join(groupErr, servicesErr)
	if err != nil {
		slog.Warn("Late init incomplete", slog.Any("error", err))
	} else {
		slog.Info("Late init done")
	}

	return err
}

func (s *System) startServices(ctx context.Context) error {
	var errs []error

	for _, service := range s.cfg.Services {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		if err := s.startService(service); err != nil {
			slog.Warn("Service not started",
				slog.String("path", service.Path),
				slog.Any("error", err),
			)

			errs = append(errs, err)

			continue
		}

		if err := sleep(ctx, service.Settle); err != nil {
			return errors.Join(append(errs, err)...)
		}
	}

	return errors.Join(errs...)
}

func (s *System) startService(service Service) error {
	for _, dir := range service.Dirs {
		if err := os.MkdirAll(dir, serviceDirMode); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	argv := append([]string{service.Path}, service.Args...)

	pid, err := s.kernel.Spawn(service.Path, argv, service.Env, nil)
	if err != nil {
		return err
	}

	slog.Info("Service started",
		slog.String("path", service.Path),
		slog.Int("pid", pid),
	)

	return nil
}

// sleep waits for the given duration or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
