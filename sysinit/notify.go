// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/greg904/ginit/internal/fd"
	"golang.org/x/sys/unix"
)

// childNotifier turns SIGCHLD into a readable eventfd, so child termination
// can be waited for together with other descriptors.
type childNotifier struct {
	efd     *fd.FD
	signals chan os.Signal
	done    chan struct{}
	wg      sync.WaitGroup
}

func newChildNotifier() (*childNotifier, error) {
	raw, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	notifier := &childNotifier{
		efd: fd.New(raw),
		// Signals coalesce. Every wake up reaps all exited children.
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}

	signal.Notify(notifier.signals, unix.SIGCHLD)

	notifier.wg.Add(1)

	go notifier.forward()

	return notifier, nil
}

func (n *childNotifier) forward() {
	defer n.wg.Done()

	var one [8]byte

	binary.NativeEndian.PutUint64(one[:], 1)

	for {
		select {
		case <-n.done:
			return
		case <-n.signals:
			// EAGAIN means the counter is saturated, which is readable
			// anyway.
			_, err := unix.Write(n.efd.Int(), one[:])
			if err != nil && !errors.Is(err, unix.EAGAIN) {
				return
			}
		}
	}
}

// FD returns the raw eventfd for polling.
func (n *childNotifier) FD() int {
	return n.efd.Int()
}

// Drain resets the eventfd counter.
func (n *childNotifier) Drain() error {
	var buf [8]byte

	for {
		_, err := unix.Read(n.efd.Int(), buf[:])

		switch {
		case err == nil, errors.Is(err, unix.EAGAIN):
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		default:
			return fmt.Errorf("read eventfd: %w", err)
		}
	}
}

// Close stops the signal delivery and the forwarding goroutine and closes the
// eventfd.
func (n *childNotifier) Close() error {
	signal.Stop(n.signals)
	close(n.done)
	n.wg.Wait()

	return n.efd.Close()
}
