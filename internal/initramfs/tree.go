// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"fmt"
	"io/fs"
	"iter"
	"maps"
	"path"
	"slices"
	"strings"
)

// TreeNodeType defines the type of a [TreeNode].
type TreeNodeType int

const (
	// TreeNodeTypeDirectory is a directory.
	TreeNodeTypeDirectory TreeNodeType = iota

	// TreeNodeTypeRegular is a regular file. It is copied completely into the
	// archive.
	TreeNodeTypeRegular

	// TreeNodeTypeLink is a symbolic link.
	TreeNodeTypeLink
)

// TreeNode is a single node in a [Tree].
type TreeNode struct {
	Type TreeNodeType

	// Source is the path of the file to copy for regular files and the
	// target for links.
	Source string

	// Mode is the mode of directories and regular files. A regular file with
	// mode 0 keeps the mode of its source.
	Mode fs.FileMode

	children map[string]*TreeNode
}

// IsDir returns true if the node is a directory.
func (n *TreeNode) IsDir() bool {
	return n.Type == TreeNodeTypeDirectory
}

// Tree represents a simple file tree. Paths are slash separated and relative
// to the root. A leading slash is ignored.
type Tree struct {
	root TreeNode
}

// splitPath returns the elements of the cleaned path. Cleaning it as absolute
// path makes sure it never leaves the root.
func splitPath(name string) []string {
	cleaned := path.Clean("/" + name)
	if cleaned == "/" {
		return nil
	}

	return strings.Split(cleaned[1:], "/")
}

// Mkdir adds a directory node with the given mode for the given path.
// Non existing parents are created with mode 0755. An existing directory is
// kept as it is. If any of the path elements exists but is not a directory
// [ErrNodeNotDir] is returned.
func (t *Tree) Mkdir(name string, mode fs.FileMode) (*TreeNode, error) {
	parts := splitPath(name)
	node := &t.root

	for idx, part := range parts {
		child, exists := node.children[part]
		if !exists {
			child = &TreeNode{Type: TreeNodeTypeDirectory, Mode: defaultDirMode}
			if idx == len(parts)-1 {
				child.Mode = mode
			}

			if node.children == nil {
				node.children = make(map[string]*TreeNode)
			}

			node.children[part] = child
		}

		if !child.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotDir, path.Join(parts[:idx+1]...))
		}

		node = child
	}

	return node, nil
}

// Add adds the given node for the given path. Parent directories are created
// as needed. If there is already a node at the path, [ErrNodeExists] is
// returned.
func (t *Tree) Add(name string, node *TreeNode) error {
	dir, base := path.Split(path.Clean("/" + name))
	if base == "" {
		return fmt.Errorf("%w: %s", ErrInvalidPath, name)
	}

	parent, err := t.Mkdir(dir, defaultDirMode)
	if err != nil {
		return err
	}

	if _, exists := parent.children[base]; exists {
		return fmt.Errorf("%w: %s", ErrNodeExists, name)
	}

	if parent.children == nil {
		parent.children = make(map[string]*TreeNode)
	}

	parent.children[base] = node

	return nil
}

// All returns an iterator over all nodes but the root, breadth first and in
// lexicographic order per directory. Directories are always yielded before
// their content. Paths have no leading slash.
func (t *Tree) All() iter.Seq2[string, *TreeNode] {
	return func(yield func(string, *TreeNode) bool) {
		type dir struct {
			path string
			node *TreeNode
		}

		queue := []dir{{node: &t.root}}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			for _, name := range slices.Sorted(maps.Keys(current.node.children)) {
				child := current.node.children[name]
				childPath := path.Join(current.path, name)

				if !yield(childPath, child) {
					return
				}

				if child.IsDir() {
					queue = append(queue, dir{path: childPath, node: child})
				}
			}
		}
	}
}
