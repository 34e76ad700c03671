// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package fd_test

import (
	"io"
	"testing"

	"github.com/greg904/ginit/internal/fd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newPipe(t *testing.T) (*fd.FD, *fd.FD) {
	t.Helper()

	var fds [2]int

	err := unix.Pipe2(fds[:], unix.O_CLOEXEC)
	require.NoError(t, err, "must create pipe")

	reader, writer := fd.New(fds[0]), fd.New(fds[1])

	t.Cleanup(func() {
		_ = reader.Close()
		_ = writer.Close()
	})

	return reader, writer
}

func isOpen(raw int) bool {
	_, err := unix.FcntlInt(uintptr(raw), unix.F_GETFD, 0)
	return err == nil
}

func TestFD_Close(t *testing.T) {
	reader, _ := newPipe(t)
	raw := reader.Int()

	require.NoError(t, reader.Close())
	assert.False(t, isOpen(raw), "descriptor should be closed")
	assert.False(t, reader.Valid())
	assert.Equal(t, -1, reader.Int())

	assert.ErrorIs(t, reader.Close(), fd.ErrClosed, "second close")
}

func TestFD_CloseDeferredAfterExplicit(t *testing.T) {
	reader, writer := newPipe(t)

	// A descriptor number freed by the first close may be reused right away.
	// A second close must never hit the new owner.
	func() {
		defer reader.Close()

		require.NoError(t, reader.Close())
	}()

	var fds [2]int

	require.NoError(t, unix.Pipe2(fds[:], unix.O_CLOEXEC))

	other := fd.New(fds[0])
	defer other.Close()
	defer unix.Close(fds[1])

	assert.True(t, isOpen(other.Int()), "reused descriptor must stay open")
	assert.True(t, writer.Valid())
}

func TestFD_Release(t *testing.T) {
	reader, _ := newPipe(t)
	raw := reader.Int()

	released, err := reader.Release()
	require.NoError(t, err)
	assert.Equal(t, raw, released)
	assert.True(t, isOpen(raw), "released descriptor stays open")

	assert.ErrorIs(t, reader.Close(), fd.ErrClosed)

	_, err = reader.Release()
	require.ErrorIs(t, err, fd.ErrClosed)

	require.NoError(t, unix.Close(raw))
}

func TestFD_Dup(t *testing.T) {
	reader, writer := newPipe(t)

	dup, err := writer.Dup()
	require.NoError(t, err)

	defer dup.Close()

	assert.NotEqual(t, writer.Int(), dup.Int())

	flags, err := unix.FcntlInt(uintptr(dup.Int()), unix.F_GETFD, 0)
	require.NoError(t, err)
	assert.NotZero(t, flags&unix.FD_CLOEXEC, "dup must be close-on-exec")

	require.NoError(t, writer.Close())

	_, err = unix.Write(dup.Int(), []byte("x"))
	require.NoError(t, err, "dup must stay usable after original is closed")

	buf := make([]byte, 1)
	n, err := unix.Read(reader.Int(), buf)
	require.NoError(t, err)
	assert.Equal(t, "x", string(buf[:n]))

	_, err = writer.Dup()
	require.ErrorIs(t, err, fd.ErrClosed)
}

func TestFD_File(t *testing.T) {
	reader, writer := newPipe(t)

	file, err := writer.File("pipe")
	require.NoError(t, err)
	assert.False(t, writer.Valid(), "ownership moved to file")

	_, err = file.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, file.Close())

	readFile, err := reader.File("pipe-read")
	require.NoError(t, err)

	defer readFile.Close()

	data, err := io.ReadAll(readFile)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFD_Nil(t *testing.T) {
	var nilFD *fd.FD

	assert.Equal(t, -1, nilFD.Int())
	assert.False(t, nilFD.Valid())
	assert.ErrorIs(t, nilFD.Close(), fd.ErrClosed)
	assert.Equal(t, "fd(closed)", nilFD.String())
}

func TestFD_ZeroValue(t *testing.T) {
	var zero fd.FD

	assert.False(t, zero.Valid())
	assert.ErrorIs(t, zero.Close(), fd.ErrClosed)
	assert.False(t, fd.New(-1).Valid())
}
