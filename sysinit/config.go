// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultHeartbeat is the default maximum time the event loop sleeps.
	DefaultHeartbeat = 30 * time.Second

	defaultUID = 1000
	defaultGID = 1000
)

// UIConfig describes the UI process and the identity it runs with.
type UIConfig struct {
	// Path is the absolute path of the executable.
	Path string `yaml:"path"`

	// Args are the arguments following the program name.
	Args []string `yaml:"args"`

	// Env is the complete environment in "KEY=value" form.
	Env []string `yaml:"env"`

	UID    uint32   `yaml:"uid"`
	GID    uint32   `yaml:"gid"`
	Groups []uint32 `yaml:"groups"`

	// Home is the working directory of the UI process.
	Home string `yaml:"home"`

	// RuntimeDir is created with mode 0700 and owned by UID and GID, if set.
	RuntimeDir string `yaml:"runtime_dir"`

	// TTY is an optional terminal that becomes the controlling terminal and
	// standard input and output of the UI process.
	TTY string `yaml:"tty"`
}

func (u UIConfig) argv() []string {
	return append([]string{u.Path}, u.Args...)
}

// SeatConfig configures the device broker.
type SeatConfig struct {
	// AllowedPrefixes restricts the device paths handed out. Empty allows
	// every path.
	AllowedPrefixes []string `yaml:"allowed_prefixes"`
}

// Service is a background process started once after late init.
type Service struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
	Env  []string `yaml:"env"`

	// Dirs are created with mode 0755 before the service is started.
	Dirs []string `yaml:"dirs"`

	// Settle is the time to wait after starting the service before the next
	// one is started.
	Settle time.Duration `yaml:"settle"`
}

// Config is the complete boot time configuration.
//
// Decoded from YAML, lists replace the defaults while maps extend them.
type Config struct {
	LogLevel slog.Level `yaml:"log_level"`

	// BootLog is a file stdout and stderr are redirected to after early
	// mounts. Empty keeps them.
	BootLog string `yaml:"boot_log"`

	// KernelLog is a file the kernel ring buffer is saved to on shutdown.
	// Empty disables it.
	KernelLog string `yaml:"kernel_log"`

	Mounts   []MountRecord `yaml:"mounts"`
	Symlinks Symlinks      `yaml:"symlinks"`
	UI       UIConfig      `yaml:"ui"`
	Seat     SeatConfig    `yaml:"seat"`
	Sysctl   Sysctl        `yaml:"sysctl"`
	Network  []Interface   `yaml:"network"`
	Services []Service     `yaml:"services"`

	// Heartbeat is the maximum time the event loop sleeps without checking
	// for exited children.
	Heartbeat time.Duration `yaml:"heartbeat"`

	// KillTimeout is the time processes get to exit after the termination
	// signal on shutdown, before they are killed. Zero waits forever.
	KillTimeout time.Duration `yaml:"kill_timeout"`

	// Restart reboots instead of powering off.
	Restart bool `yaml:"restart"`
}

func fileMode(mode fs.FileMode) *fs.FileMode {
	return &mode
}

// EarlyMounts returns the pseudo file systems required before anything else
// can run.
func EarlyMounts() []MountRecord {
	tmpfsFlags := mustMountFlags("noatime", "nodev", "noexec", "nosuid")
	devFlags := mustMountFlags("noatime", "noexec", "nosuid")

	return []MountRecord{
		{Target: "/dev", FSType: FSTypeDevTmp, Flags: devFlags},
		{Target: "/dev/shm", FSType: FSTypeTmp, Flags: tmpfsFlags, CreateMode: fileMode(0o1744)},
		{Target: "/dev/pts", FSType: FSTypeDevPts, Flags: devFlags, CreateMode: fileMode(0o744)},
		{Target: "/tmp", FSType: FSTypeTmp, Flags: tmpfsFlags},
		{Target: "/run", FSType: FSTypeTmp, Flags: tmpfsFlags},
		{Target: "/proc", FSType: FSTypeProc},
		{Target: "/sys", FSType: FSTypeSys},
	}
}

func mustMountFlags(names ...string) MountFlags {
	flags, err := ParseMountFlags(names...)
	if err != nil {
		panic(err)
	}

	return flags
}

// DefaultConfig returns the configuration used for everything not given
// explicitly.
func DefaultConfig() Config {
	return Config{
		LogLevel: slog.LevelInfo,
		Mounts:   EarlyMounts(),
		Symlinks: DevSymlinks(),
		UI: UIConfig{
			UID:        defaultUID,
			GID:        defaultGID,
			RuntimeDir: fmt.Sprintf("/run/user/%d", defaultUID),
		},
		Seat: SeatConfig{
			AllowedPrefixes: []string{"/dev/dri/", "/dev/input/", "/dev/tty"},
		},
		Sysctl: Sysctl{},
		Network: []Interface{
			{Name: "lo"},
		},
		Heartbeat: DefaultHeartbeat,
	}
}

// ParseConfig decodes the YAML data on top of [DefaultConfig] and validates
// the result. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for values that can not work.
func (c *Config) Validate() error {
	if !filepath.IsAbs(c.UI.Path) {
		return fmt.Errorf("%w: ui path must be absolute: %q", ErrInvalidConfig, c.UI.Path)
	}

	if c.Heartbeat <= 0 {
		return fmt.Errorf("%w: heartbeat must be positive", ErrInvalidConfig)
	}

	if c.KillTimeout < 0 {
		return fmt.Errorf("%w: kill timeout must not be negative", ErrInvalidConfig)
	}

	for _, record := range c.Mounts {
		if !filepath.IsAbs(record.Target) {
			return fmt.Errorf("%w: mount target must be absolute: %q", ErrInvalidConfig, record.Target)
		}

		if record.FSType == "" {
			return fmt.Errorf("%w: mount %s: missing fstype", ErrInvalidConfig, record.Target)
		}

		if _, known := phaseNames[record.Phase]; !known {
			return fmt.Errorf("%w: mount %s: %w", ErrInvalidConfig, record.Target, ErrUnknownPhase)
		}
	}

	for _, iface := range c.Network {
		if err := iface.validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	for _, service := range c.Services {
		if !filepath.IsAbs(service.Path) {
			return fmt.Errorf("%w: service path must be absolute: %q", ErrInvalidConfig, service.Path)
		}
	}

	return nil
}

// rebootCmd returns the reboot(2) command for the final step of shutdown.
func (c *Config) rebootCmd() int {
	if c.Restart {
		return rebootCmdRestart
	}

	return rebootCmdPowerOff
}
