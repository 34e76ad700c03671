// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// InitPath is where the kernel looks for the init program.
	InitPath = "init"

	initMode       fs.FileMode = 0o755
	defaultDirMode fs.FileMode = 0o755
)

// StandardDirs returns the directories ginit needs to exist as mount points
// or for its log files, with their modes.
func StandardDirs() map[string]fs.FileMode {
	return map[string]fs.FileMode{
		"boot":    defaultDirMode,
		"dev":     defaultDirMode,
		"proc":    0o555,
		"run":     defaultDirMode,
		"sys":     0o555,
		"tmp":     fs.ModeSticky | 0o777,
		"var/log": defaultDirMode,
	}
}

// Archive is the file tree of an initramfs.
//
// Create a new instance using [New]. Additional files can be added with
// [Archive.AddFile]. Once ready, write the [Archive] with [Archive.WriteTo].
// Files are read only while writing.
type Archive struct {
	tree Tree
}

// New creates a new [Archive] with the [StandardDirs] and "/init" copied from
// the given file path.
func New(initSource string) (*Archive, error) {
	archive := new(Archive)

	for dir, mode := range StandardDirs() {
		if err := archive.AddDir(dir, mode); err != nil {
			return nil, err
		}
	}

	if err := archive.AddFile(InitPath, initSource, initMode); err != nil {
		return nil, err
	}

	return archive, nil
}

// AddDir adds the directory with the given mode. Parents are created as
// needed.
func (a *Archive) AddDir(name string, mode fs.FileMode) error {
	if _, err := a.tree.Mkdir(name, mode); err != nil {
		return fmt.Errorf("add dir %s: %w", name, err)
	}

	return nil
}

// AddFile adds the file at the source path on the host as name. A mode of 0
// keeps the mode of the source file.
func (a *Archive) AddFile(name, source string, mode fs.FileMode) error {
	absSource, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("abs path for %s: %w", source, err)
	}

	err = a.tree.Add(name, &TreeNode{
		Type:   TreeNodeTypeRegular,
		Source: absSource,
		Mode:   mode,
	})
	if err != nil {
		return fmt.Errorf("add file %s: %w", name, err)
	}

	return nil
}

// AddSymlink adds a symbolic link at name pointing to target.
func (a *Archive) AddSymlink(name, target string) error {
	err := a.tree.Add(name, &TreeNode{
		Type:   TreeNodeTypeLink,
		Source: target,
	})
	if err != nil {
		return fmt.Errorf("add link %s: %w", name, err)
	}

	return nil
}

// WriteTo writes the [Archive] as CPIO archive to the given writer. It
// returns the number of bytes written.
func (a *Archive) WriteTo(writer io.Writer) (int64, error) {
	counter := &countingWriter{writer: writer}
	cpioWriter := NewCPIOWriter(counter)

	err := a.writeTo(cpioWriter, os.DirFS("/"))

	// Close writes the trailer, so it must not be skipped.
	err = errors.Join(err, cpioWriter.Close())

	return counter.n, err
}

// writeTo writes all entries into the given writer. Regular files are copied
// from the given sourceFS.
func (a *Archive) writeTo(writer Writer, sourceFS fs.FS) error {
	for name, node := range a.tree.All() {
		var err error

		switch node.Type {
		case TreeNodeTypeDirectory:
			err = writer.WriteDirectory(name, node.Mode)
		case TreeNodeTypeLink:
			err = writer.WriteLink(name, node.Source)
		case TreeNodeTypeRegular:
			err = writeRegular(writer, sourceFS, name, node)
		default:
			err = fmt.Errorf("unknown node type %d", node.Type)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func writeRegular(writer Writer, sourceFS fs.FS, name string, node *TreeNode) error {
	// Cut leading / since fs.FS considers it invalid.
	source, err := sourceFS.Open(strings.TrimPrefix(node.Source, "/"))
	if err != nil {
		return fmt.Errorf("open %s: %w", node.Source, err)
	}
	defer source.Close()

	return writer.WriteRegular(name, source, node.Mode)
}

type countingWriter struct {
	writer io.Writer
	n      int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.writer.Write(p)
	w.n += int64(n)

	return n, err //nolint:wrapcheck
}
