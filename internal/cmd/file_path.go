// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AbsoluteFilePath returns the absolute representation of the given
// non-empty path.
func AbsoluteFilePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyFilePath
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}

	return path, nil
}

// ValidateFilePath checks that the given path is an existing regular file.
func ValidateFilePath(name string) error {
	stat, err := os.Stat(name)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if !stat.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegularFile, name)
	}

	return nil
}

// Pair is a single "name=value" argument.
type Pair struct {
	Name  string
	Value string
}

// PairList is a flag value collecting "name=value" arguments in the given
// order. Multiple pairs can be given separated by comma.
type PairList []Pair

func (p *PairList) String() string {
	parts := make([]string, 0, len(*p))
	for _, pair := range *p {
		parts = append(parts, pair.Name+"="+pair.Value)
	}

	return strings.Join(parts, ",")
}

func (p *PairList) Set(s string) error {
	for _, e := range strings.Split(s, ",") {
		name, value, found := strings.Cut(e, "=")
		if !found || name == "" || value == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPair, e)
		}

		*p = append(*p, Pair{Name: name, Value: value})
	}

	return nil
}

// Type implements [pflag.Value].
func (*PairList) Type() string {
	return "name=value"
}
