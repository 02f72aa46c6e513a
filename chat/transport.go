// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Socket is the read side of a push connection. *websocket.Conn
// satisfies it; tests substitute an in-memory implementation.
type Socket interface {
	// ReadMessage blocks until the next frame arrives and returns its
	// type and payload.
	ReadMessage() (messageType int, payload []byte, err error)

	// Close tears down the connection. A blocked ReadMessage returns
	// with an error.
	Close() error
}

// A SocketDialer establishes push connections. The default dialer uses
// gorilla/websocket; tests substitute one that hands back a canned
// Socket.
type SocketDialer interface {
	DialSocket(ctx context.Context, socketURL string, header http.Header) (Socket, error)
}

// websocketDialer is the production SocketDialer.
type websocketDialer struct{}

func (websocketDialer) DialSocket(ctx context.Context, socketURL string, header http.Header) (Socket, error) {
	conn, response, err := websocket.DefaultDialer.DialContext(ctx, socketURL, header)
	if err != nil {
		if response != nil {
			return nil, fmt.Errorf("chat: dialing %s: %s: %w", socketURL, response.Status, err)
		}
		return nil, fmt.Errorf("chat: dialing %s: %w", socketURL, err)
	}
	return conn, nil
}
