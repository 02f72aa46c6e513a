// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat is the client for the chat service's HTTP API and push
// socket.
//
// A Client holds the HTTP transport and chat domain; JoinRoom performs
// the room bootstrap (page fetch, session fkey extraction, socket URL
// negotiation) and returns a Room whose push stream is already being
// decoded. Room methods wrap the request/response endpoints: posting,
// editing and deleting messages, history fetches, and user and room
// metadata.
//
// Decoding of the push stream itself — classification, correlation,
// ordering, dispatch — lives in package stream; a Room feeds each
// received frame to its stream.Decoder and delivers the events through
// its stream.Registry.
package chat
