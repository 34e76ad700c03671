// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"fmt"
	"slices"
	"sync"

	"github.com/greg904/ginit/internal/spawn"
	"golang.org/x/sys/unix"
)

type waitResult struct {
	pid    int
	status unix.WaitStatus
	err    error
}

type spawnCall struct {
	path string
	argv []string
	envv []string
	hook *spawn.PreExec
	// files records which child descriptors were valid at spawn time.
	files []int
}

// fakeKernel records all operations and keeps a simulated mount table.
type fakeKernel struct {
	mu sync.Mutex

	mounted []string
	calls   []string
	spawns  []spawnCall
	waits   []waitResult
	reboots []int

	mountErrs map[string]error
	spawnPid  int
	spawnErr  error
	spawnFn   func()
	killErr   error
	rebootErr error
	waitFn    func(pid, options int) (int, unix.WaitStatus, error)
}

var _ Kernel = (*fakeKernel)(nil)

func newFakeKernel() *fakeKernel {
	return &fakeKernel{
		mounted:   []string{"/"},
		mountErrs: map[string]error{},
		spawnPid:  42,
	}
}

func (k *fakeKernel) record(format string, args ...any) {
	k.calls = append(k.calls, fmt.Sprintf(format, args...))
}

func (k *fakeKernel) Mount(_, target, _ string, flags uintptr, _ string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if flags&unix.MS_REMOUNT != 0 {
		k.record("remount %s", target)
		return nil
	}

	if err := k.mountErrs[target]; err != nil {
		return err
	}

	k.record("mount %s", target)
	k.mounted = append(k.mounted, target)

	return nil
}

func (k *fakeKernel) Unmount(target string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	idx := slices.Index(k.mounted, target)
	if idx < 0 {
		return unix.EINVAL
	}

	k.record("umount %s", target)
	k.mounted = slices.Delete(k.mounted, idx, idx+1)

	return nil
}

func (k *fakeKernel) MountTable() ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	return slices.Clone(k.mounted), nil
}

func (k *fakeKernel) Spawn(path string, argv, envv []string, hook *spawn.PreExec) (int, error) {
	if k.spawnFn != nil {
		k.spawnFn()
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	call := spawnCall{path: path, argv: argv, envv: envv, hook: hook}

	if hook != nil {
		for childFD, parentFD := range hook.Files {
			if parentFD.Valid() {
				call.files = append(call.files, childFD)
			}
		}

		slices.Sort(call.files)
	}

	k.spawns = append(k.spawns, call)
	k.record("spawn %s", path)

	if k.spawnErr != nil {
		return 0, k.spawnErr
	}

	return k.spawnPid + len(k.spawns) - 1, nil
}

func (k *fakeKernel) queueWait(results ...waitResult) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.waits = append(k.waits, results...)
}

func (k *fakeKernel) Wait(pid, options int) (int, unix.WaitStatus, error) {
	k.mu.Lock()
	waitFn := k.waitFn
	k.mu.Unlock()

	if waitFn != nil {
		return waitFn(pid, options)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.record("wait")

	if len(k.waits) > 0 {
		result := k.waits[0]
		k.waits = k.waits[1:]

		return result.pid, result.status, result.err
	}

	if options&unix.WNOHANG != 0 {
		return 0, 0, nil
	}

	return -1, 0, unix.ECHILD
}

func (k *fakeKernel) Kill(pid int, sig unix.Signal) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.record("kill %d %s", pid, unix.SignalName(sig))

	return k.killErr
}

func (k *fakeKernel) Sync() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.record("sync")
}

func (k *fakeKernel) ReadKernelLog() ([]byte, error) {
	return []byte("<6>kernel: booted\n"), nil
}

func (k *fakeKernel) Reboot(cmd int) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.record("reboot")
	k.reboots = append(k.reboots, cmd)

	return k.rebootErr
}

func (k *fakeKernel) mountTable() []string {
	table, _ := k.MountTable()
	return table
}

// callsWithPrefix returns all recorded calls starting with the given prefix.
func (k *fakeKernel) callsWithPrefix(prefix string) []string {
	k.mu.Lock()
	defer k.mu.Unlock()

	var calls []string

	for _, call := range k.calls {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			calls = append(calls, call)
		}
	}

	return calls
}
