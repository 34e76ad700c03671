// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seat provides a minimal device broker standing in for a seat
// manager.
//
// The [Server] hands out descriptors of device nodes (GPU, input devices) to
// exactly one client, the UI process, so the client does not need any
// privileges to open them. Server and client are connected by an unnamed
// datagram socket pair created by [NewServer]. The client end is inherited by
// the UI process as descriptor [ClientFD].
//
// Protocol: a request is a single datagram holding an absolute, NUL
// terminated path of at most [MaxRequestSize] bytes. A reply is either a
// datagram of one byte carrying the opened descriptor as SCM_RIGHTS
// ancillary data, or an empty datagram if the device could not be opened.
// There are no sequence numbers. Replies are sent in request order.
package seat
