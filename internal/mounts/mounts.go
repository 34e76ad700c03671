// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mounts reads the mount points of the current mount namespace.
package mounts

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Path is the kernel provided mount table of the calling process.
const Path = "/proc/self/mounts"

// DefaultBufferSize is the read buffer size used by [Read]. Device and mount
// point of a line must fit into it. Longer lines cause [ErrLineTooLong].
const DefaultBufferSize = 4096

var (
	// ErrLineTooLong is returned if the mount point of a line does not fit
	// into the buffer.
	ErrLineTooLong = errors.New("mount table line too long")

	// ErrMalformedLine is returned if a line has no mount point field.
	ErrMalformedLine = errors.New("malformed mount table line")
)

// Read returns the mount points listed in [Path] in table order.
func Read() ([]string, error) {
	file, err := os.Open(Path)
	if err != nil {
		return nil, fmt.Errorf("open mount table: %w", err)
	}
	defer file.Close()

	return Parse(file, DefaultBufferSize)
}

// Parse returns the second whitespace separated field of every line of r in
// order, with octal escapes like "\040" decoded.
//
// The buffer size bounds the length of the leading part of a line up to and
// including the mount point. The remainder of longer lines, like long mount
// options, is skipped. Empty lines are ignored.
func Parse(r io.Reader, bufferSize int) ([]string, error) {
	reader := bufio.NewReaderSize(r, bufferSize)

	var mountPoints []string

	for {
		line, err := reader.ReadSlice('\n')
		truncated := errors.Is(err, bufio.ErrBufferFull)

		if err != nil && !truncated && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read mount table: %w", err)
		}

		mountPoint, parseErr := mountPointOf(line, truncated)
		if parseErr != nil {
			return nil, parseErr
		}

		if mountPoint != "" {
			mountPoints = append(mountPoints, mountPoint)
		}

		if truncated {
			err = skipLine(reader)
			if err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("read mount table: %w", err)
			}
		}

		if errors.Is(err, io.EOF) {
			return mountPoints, nil
		}
	}
}

// mountPointOf returns the decoded second field of the line. The line is
// truncated if it did not fit into the buffer. An empty line yields an empty
// string.
func mountPointOf(line []byte, truncated bool) (string, error) {
	fields := bytes.Fields(line)
	if len(fields) == 0 && !truncated {
		return "", nil
	}

	// Without a following field, the mount point might continue beyond the
	// buffer.
	complete := len(fields) > 2 || isSpace(line[len(line)-1])
	if truncated && (len(fields) < 2 || !complete) {
		return "", ErrLineTooLong
	}

	if len(fields) < 2 {
		return "", fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}

	return unescape(fields[1]), nil
}

// skipLine discards everything up to and including the next newline.
func skipLine(reader *bufio.Reader) error {
	for {
		_, err := reader.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

// unescape decodes the three digit octal escapes the kernel uses for space,
// tab, newline and backslash. Anything else is kept as is.
func unescape(field []byte) string {
	if bytes.IndexByte(field, '\\') < 0 {
		return string(field)
	}

	out := make([]byte, 0, len(field))

	for i := 0; i < len(field); i++ {
		if field[i] == '\\' && i+3 < len(field) && isOctal(field[i+1:i+4]) {
			out = append(out, (field[i+1]-'0')<<6|(field[i+2]-'0')<<3|(field[i+3]-'0'))
			i += 3

			continue
		}

		out = append(out, field[i])
	}

	return string(out)
}

func isOctal(digits []byte) bool {
	for _, d := range digits {
		if d < '0' || d > '7' {
			return false
		}
	}

	return digits[0] <= '3'
}
