// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"regexp"
	"strings"
	"time"
)

// Message is an immutable snapshot of a chat message as carried by one
// raw push record. Fields the record did not carry are left at their
// zero value; the wire protocol omits fields rather than sending null.
type Message struct {
	// ID is the message id. Distinct from the event sequence id: a
	// message keeps its id across edits, stars, and deletion.
	ID int64

	// Time is the message timestamp in local wall-clock time.
	Time time.Time

	RoomID   int
	RoomName string

	// UserID and Username identify the author. Absent on star-only
	// records, which the service strips of author information.
	UserID   int
	Username string

	// Content is the message text with container markup removed.
	// Empty for deleted messages (the service omits the field).
	Content string

	// FixedFont is true when the message was posted in fixed-width
	// formatting.
	FixedFont bool

	// Edits is the edit count. Zero unless the message was edited.
	Edits int

	// Stars is the star count. Zero unless the message was starred.
	Stars int

	// ParentID is the id of the message this one replies to. Zero
	// unless the message is a reply.
	ParentID int64

	// MentionedUserID is the id of the user targeted by a mention or
	// reply. Zero otherwise.
	MentionedUserID int
}

// ParseMessage extracts a Message from one raw event record (a JSON
// object using the push protocol's field names). It is used both by
// the decoder and by history fetches, whose records share the shape of
// push records.
func ParseMessage(data []byte) (Message, error) {
	rec, err := parseRecord(data)
	if err != nil {
		return Message{}, err
	}
	return rec.message(), nil
}

// message builds a Message from the record's fields. Extraction never
// fails: an absent field leaves the corresponding attribute unset.
func (r *record) message() Message {
	var message Message

	if v, ok := r.int64Field("message_id"); ok {
		message.ID = v
	}
	if v, ok := r.int64Field("time_stamp"); ok {
		message.Time = localTime(v)
	}
	if v, ok := r.intField("room_id"); ok {
		message.RoomID = v
	}
	if v, ok := r.stringField("room_name"); ok {
		message.RoomName = v
	}

	// Author fields are not present on star records.
	if v, ok := r.intField("user_id"); ok {
		message.UserID = v
	}
	if v, ok := r.stringField("user_name"); ok {
		message.Username = v
	}

	// Only present once the message has been edited or starred.
	if v, ok := r.intField("edits"); ok {
		message.Edits = v
	}
	if v, ok := r.intField("message_stars"); ok {
		message.Stars = v
	}

	// Only present on replies (parent_id) and on replies or valid
	// mentions (target_user_id).
	if v, ok := r.int64Field("parent_id"); ok {
		message.ParentID = v
	}
	if v, ok := r.intField("target_user_id"); ok {
		message.MentionedUserID = v
	}

	// Not present on deletion records.
	if v, ok := r.stringField("content"); ok {
		message.Content, message.FixedFont = extractContent(v)
	}

	return message
}

// fixedWidthPattern matches a message wrapped in the service's
// fixed-width container. The class attribute is "full" when the whole
// message is fixed-width and "partial" when only part of it was marked
// up; both wrap the entire content field.
var fixedWidthPattern = regexp.MustCompile(`(?s)^<pre class='(full|partial)'>(.*?)</pre>$`)

// multiLinePattern matches a message wrapped in the service's
// multi-line container. Line breaks inside the container arrive as
// literal " <br> " markers.
var multiLinePattern = regexp.MustCompile(`(?s)^<div class='(full|partial)'>(.*?)</div>$`)

// extractContent removes the service's container markup from a raw
// content field. Fixed-width wrapping takes priority over multi-line
// wrapping; unwrapped text passes through verbatim. The returned flag
// reports fixed-width formatting.
func extractContent(raw string) (content string, fixedFont bool) {
	if m := fixedWidthPattern.FindStringSubmatch(raw); m != nil {
		return m[2], true
	}
	if m := multiLinePattern.FindStringSubmatch(raw); m != nil {
		return strings.ReplaceAll(m[2], " <br> ", "\n"), false
	}
	return raw, false
}

// localTime converts a protocol timestamp (seconds since epoch) to
// local wall-clock time.
func localTime(seconds int64) time.Time {
	return time.Unix(seconds, 0)
}
