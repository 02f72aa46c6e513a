// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"errors"
	"fmt"
)

// RoomNotFoundError indicates that a room does not exist, or that the
// calling account cannot see it.
type RoomNotFoundError struct {
	RoomID int
}

func (e *RoomNotFoundError) Error() string {
	return fmt.Sprintf("chat: room %d does not exist or cannot be viewed", e.RoomID)
}

// PermissionError indicates that the calling account can read a room
// but is not allowed to post in it. The service reports this in two
// ways: the room page carries no input box, or a post request comes
// back 404 after privileges were revoked mid-session.
type PermissionError struct {
	RoomID int
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("chat: no permission to post in room %d", e.RoomID)
}

// ServerError reports a response the client has no mapping for: an
// unexpected status code on an otherwise well-formed request.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("unexpected status %d from chat service", e.Status)
}

// Sentinel errors for message edit and delete failures. The service
// reports these conditions in the response body rather than the status
// code; Room.EditMessage and Room.DeleteMessage translate them.
var (
	// ErrMessageNotFound indicates that the message id was never
	// assigned to a message.
	ErrMessageNotFound = errors.New("chat: message id was never assigned to a message")

	// ErrMessageTooOld indicates that the window for modifying the
	// message has passed.
	ErrMessageTooOld = errors.New("chat: message is too old to modify")

	// ErrNotYourMessage indicates that the message was posted by a
	// different account.
	ErrNotYourMessage = errors.New("chat: message was posted by another user")

	// ErrMessageDeleted indicates that the message has already been
	// deleted and can no longer be edited.
	ErrMessageDeleted = errors.New("chat: message has been deleted")
)
