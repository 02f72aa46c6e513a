// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP response reading for the chat
// API client. The chat service answers with small HTML pages and JSON
// bodies; bounding every read keeps a misbehaving server from
// exhausting memory.
package netutil

import (
	"io"
)

// MaxResponseSize bounds response body reads: 16 MB. Room pages are
// the largest legitimate responses and stay well under a megabyte; the
// limit is generous so it never interferes with normal operation.
const MaxResponseSize int64 = 16 << 20

// ReadResponse reads a response body up to MaxResponseSize bytes. Use
// instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}
