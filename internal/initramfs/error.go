// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import "errors"

var (
	// ErrNotRegularFile is returned if the source of a file is not a regular
	// file.
	ErrNotRegularFile = errors.New("not a regular file")
	// ErrNodeExists is returned if a tree node exists that was not expected.
	ErrNodeExists = errors.New("tree node already exists")
	// ErrNodeNotDir is returned if a tree node is supposed to be a directory
	// but is not.
	ErrNodeNotDir = errors.New("tree node is not a directory")
	// ErrInvalidPath is returned for paths that can not be placed in the
	// archive.
	ErrInvalidPath = errors.New("invalid path")
)
