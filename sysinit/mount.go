// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

// FSType is a file system type.
type FSType string

// File system types used by the default configuration.
const (
	FSTypeDevPts FSType = "devpts"
	FSTypeDevTmp FSType = "devtmpfs"
	FSTypeProc   FSType = "proc"
	FSTypeSys    FSType = "sysfs"
	FSTypeTmp    FSType = "tmpfs"
	FSTypeVFAT   FSType = "vfat"
)

// Phase determines when a mount is applied.
type Phase int

const (
	// PhaseEarly mounts are applied before the UI process is started.
	PhaseEarly Phase = iota
	// PhaseLate mounts are applied in the background after the UI process
	// was started.
	PhaseLate
)

var phaseNames = map[Phase]string{
	PhaseEarly: "early",
	PhaseLate:  "late",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}

	return fmt.Sprintf("phase(%d)", int(p))
}

// UnmarshalYAML implements [yaml.Unmarshaler].
func (p *Phase) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}

	for phase, phaseName := range phaseNames {
		if strings.EqualFold(name, phaseName) {
			*p = phase
			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrUnknownPhase, name)
}

// MountFlags are flags as defined by mount(2).
type MountFlags uintptr

var mountFlagNames = map[string]MountFlags{
	"bind":        unix.MS_BIND,
	"dirsync":     unix.MS_DIRSYNC,
	"lazytime":    unix.MS_LAZYTIME,
	"noatime":     unix.MS_NOATIME,
	"nodev":       unix.MS_NODEV,
	"nodiratime":  unix.MS_NODIRATIME,
	"noexec":      unix.MS_NOEXEC,
	"nosuid":      unix.MS_NOSUID,
	"rdonly":      unix.MS_RDONLY,
	"rec":         unix.MS_REC,
	"relatime":    unix.MS_RELATIME,
	"silent":      unix.MS_SILENT,
	"strictatime": unix.MS_STRICTATIME,
	"sync":        unix.MS_SYNCHRONOUS,
}

// ParseMountFlags combines the flags of the given names.
func ParseMountFlags(names ...string) (MountFlags, error) {
	var flags MountFlags

	for _, name := range names {
		flag, exists := mountFlagNames[strings.ToLower(name)]
		if !exists {
			return 0, fmt.Errorf("%w: %q", ErrUnknownMountFlag, name)
		}

		flags |= flag
	}

	return flags, nil
}

// UnmarshalYAML implements [yaml.Unmarshaler]. The flags are given as a
// sequence of names.
func (f *MountFlags) UnmarshalYAML(node *yaml.Node) error {
	var names []string
	if err := node.Decode(&names); err != nil {
		return err
	}

	flags, err := ParseMountFlags(names...)
	if err != nil {
		return err
	}

	*f = flags

	return nil
}

// Names returns the names of the set flags in lexicographic order.
func (f MountFlags) Names() []string {
	var names []string

	for name, flag := range sortedMap(mountFlagNames) {
		if f&flag == flag {
			names = append(names, name)
		}
	}

	return names
}

// MountRecord is a single configured mount.
type MountRecord struct {
	// Source is the device to mount. Empty means "none", which is fine for
	// all pseudo file systems.
	Source string `yaml:"source"`

	// Target is the absolute path to mount at.
	Target string `yaml:"target"`

	// FSType is the file system type.
	FSType FSType `yaml:"fstype"`

	// Flags are optional mount flags.
	Flags MountFlags `yaml:"flags"`

	// Data are optional additional parameters that depend on the [FSType].
	Data string `yaml:"data"`

	// CreateMode makes the target directory to be created with exactly this
	// mode before mounting, if it does not exist yet.
	CreateMode *fs.FileMode `yaml:"create_mode"`

	// Phase is the boot phase the mount is applied in.
	Phase Phase `yaml:"phase"`
}

func (m MountRecord) source() string {
	if m.Source == "" {
		return "none"
	}

	return m.Source
}

// LogValue implements [slog.LogValuer].
func (m MountRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", m.source()),
		slog.String("target", m.Target),
		slog.String("fstype", string(m.FSType)),
		slog.String("flags", strings.Join(m.Flags.Names(), ",")),
	)
}

// mountsOf returns the records of the given phase in configuration order.
func mountsOf(records []MountRecord, phase Phase) []MountRecord {
	return slices.DeleteFunc(slices.Clone(records), func(m MountRecord) bool {
		return m.Phase != phase
	})
}

// createDir creates the directory with exactly the given mode. An
// existing directory is fine.
//
// The mode is taken as raw permission bits as used by chmod(2), so 0o1744
// sets the sticky bit.
func createDir(path string, mode fs.FileMode) error {
	err := unix.Mkdir(path, uint32(mode))
	if errors.Is(err, unix.EEXIST) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}

	// Mkdir is subject to the umask.
	if err := unix.Chmod(path, uint32(mode)); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}

	return nil
}

// mountAll mounts the records of the given phase in configuration order.
//
// Failures are logged and do not stop the sequence. The errors are returned
// joined.
func mountAll(kernel Kernel, records []MountRecord, phase Phase) error {
	var errs []error

	for _, record := range mountsOf(records, phase) {
		if err := mountRecord(kernel, record); err != nil {
			slog.Warn("Mount failed",
				slog.Any("mount", record),
				slog.Any("error", err),
			)

			errs = append(errs, err)

			continue
		}

		slog.Debug("Mounted", slog.Any("mount", record))
	}

	return errors.Join(errs...)
}

func mountRecord(kernel Kernel, record MountRecord) error {
	if record.CreateMode != nil {
		if err := createDir(record.Target, *record.CreateMode); err != nil {
			return err
		}
	}

	err := kernel.Mount(
		record.source(),
		record.Target,
		string(record.FSType),
		uintptr(record.Flags),
		record.Data,
	)
	if err != nil {
		return fmt.Errorf("mount %s: %w", record.Target, err)
	}

	return nil
}
