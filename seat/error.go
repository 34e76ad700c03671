// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package seat

import "errors"

var (
	// ErrDenied is returned by the [Client] if the server did not hand out a
	// descriptor for the requested path.
	ErrDenied = errors.New("device access denied")

	// ErrMalformed is returned for requests that violate the protocol.
	ErrMalformed = errors.New("malformed request")

	// ErrNotAllowed is returned for paths outside the allowed prefixes.
	ErrNotAllowed = errors.New("path not allowed")
)
