// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"fmt"
	"time"
)

// Kind identifies one of the closed set of semantic event variants.
// It is the key type for listener registration on a Registry.
type Kind int

const (
	// KindMessagePosted is a new message, including replies and
	// mentions (which the correlation passes collapse into posted or
	// edited events).
	KindMessagePosted Kind = iota
	// KindMessageEdited is an edit to an existing message.
	KindMessageEdited
	// KindMessageDeleted is a message deletion.
	KindMessageDeleted
	// KindMessageStarred is a change to a message's star count.
	KindMessageStarred
	// KindMessagesMoved is a bulk move of messages into or out of
	// the room.
	KindMessagesMoved
	// KindUserEntered is a user entering the room.
	KindUserEntered
	// KindUserLeft is a user leaving the room.
	KindUserLeft

	kindCount
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMessagePosted:
		return "message_posted"
	case KindMessageEdited:
		return "message_edited"
	case KindMessageDeleted:
		return "message_deleted"
	case KindMessageStarred:
		return "message_starred"
	case KindMessagesMoved:
		return "messages_moved"
	case KindUserEntered:
		return "user_entered"
	case KindUserLeft:
		return "user_left"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// EventInfo carries the fields common to every event variant.
type EventInfo struct {
	// ID is the protocol-assigned sequence id of the raw record the
	// event was built from. Zero when the record carried no id.
	ID int64

	// Time is the event timestamp converted to local wall-clock time.
	Time time.Time
}

// Event is the closed set of semantic events produced by a Decoder.
// The concrete types are MessagePosted, MessageEdited, MessageDeleted,
// MessageStarred, MessagesMoved, UserEntered, and UserLeft; no other
// implementations exist.
type Event interface {
	// Kind returns the variant tag used for listener routing.
	Kind() Kind
	// Info returns the sequence id and timestamp common to all events.
	Info() EventInfo

	isEvent()
}

// MessagePosted reports a new message in the room.
type MessagePosted struct {
	EventInfo
	Message Message
}

// MessageEdited reports an edit to an existing message.
type MessageEdited struct {
	EventInfo
	Message Message
}

// MessageDeleted reports a message deletion. The wrapped message has
// no content (the service omits it for deletions).
type MessageDeleted struct {
	EventInfo
	Message Message
}

// MessageStarred reports a change to a message's star count. The
// wrapped message has no author fields (the service omits them for
// star records).
type MessageStarred struct {
	EventInfo
	Message Message
}

// MessagesMoved reports a bulk move of messages between rooms. The
// direction is implicit in which room id matches the watched room:
// for a move out of the watched room, SourceRoomID is the watched
// room; for a move in, DestRoomID is.
//
// The room fields on the side the move announcement could not be
// correlated with remain zero: the service only emits the announcement
// message in the room the mover acted from, and a frame may carry the
// move records without it.
type MessagesMoved struct {
	EventInfo

	// Messages are the moved messages, in wire arrival order.
	Messages []Message

	SourceRoomID   int
	SourceRoomName string
	DestRoomID     int
	DestRoomName   string

	// MoverUserID and MoverUsername identify the user who performed
	// the move, taken from the move announcement message.
	MoverUserID   int
	MoverUsername string
}

// UserEntered reports a user entering the room.
type UserEntered struct {
	EventInfo
	RoomID   int
	RoomName string
	UserID   int
	Username string
}

// UserLeft reports a user leaving the room.
type UserLeft struct {
	EventInfo
	RoomID   int
	RoomName string
	UserID   int
	Username string
}

// Kind implementations for the closed variant set.

func (MessagePosted) Kind() Kind  { return KindMessagePosted }
func (MessageEdited) Kind() Kind  { return KindMessageEdited }
func (MessageDeleted) Kind() Kind { return KindMessageDeleted }
func (MessageStarred) Kind() Kind { return KindMessageStarred }
func (MessagesMoved) Kind() Kind  { return KindMessagesMoved }
func (UserEntered) Kind() Kind    { return KindUserEntered }
func (UserLeft) Kind() Kind       { return KindUserLeft }

func (e MessagePosted) Info() EventInfo  { return e.EventInfo }
func (e MessageEdited) Info() EventInfo  { return e.EventInfo }
func (e MessageDeleted) Info() EventInfo { return e.EventInfo }
func (e MessageStarred) Info() EventInfo { return e.EventInfo }
func (e MessagesMoved) Info() EventInfo  { return e.EventInfo }
func (e UserEntered) Info() EventInfo    { return e.EventInfo }
func (e UserLeft) Info() EventInfo       { return e.EventInfo }

func (MessagePosted) isEvent()  {}
func (MessageEdited) isEvent()  {}
func (MessageDeleted) isEvent() {}
func (MessageStarred) isEvent() {}
func (MessagesMoved) isEvent()  {}
func (UserEntered) isEvent()    {}
func (UserLeft) isEvent()       {}
