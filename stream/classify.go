// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"encoding/json"
	"fmt"
)

// recordType is the wire-level event_type code of a raw push record.
// The values are protocol constants assigned by the chat service.
type recordType int

const (
	typeMessagePosted   recordType = 1
	typeMessageEdited   recordType = 2
	typeUserEntered     recordType = 3
	typeUserLeft        recordType = 4
	typeMessageStarred  recordType = 6
	typeUserMentioned   recordType = 8
	typeMessageDeleted  recordType = 10
	typeReplyPosted     recordType = 18
	typeMessageMovedOut recordType = 19
	typeMessageMovedIn  recordType = 20
)

// recordTypeFromCode maps a wire code to its recordType. The second
// return is false for codes the protocol does not define.
func recordTypeFromCode(code int64) (recordType, bool) {
	switch recordType(code) {
	case typeMessagePosted, typeMessageEdited, typeUserEntered,
		typeUserLeft, typeMessageStarred, typeUserMentioned,
		typeMessageDeleted, typeReplyPosted, typeMessageMovedOut,
		typeMessageMovedIn:
		return recordType(code), true
	}
	return 0, false
}

// String returns the protocol name of the record type.
func (t recordType) String() string {
	switch t {
	case typeMessagePosted:
		return "MESSAGE_POSTED"
	case typeMessageEdited:
		return "MESSAGE_EDITED"
	case typeUserEntered:
		return "USER_ENTERED"
	case typeUserLeft:
		return "USER_LEFT"
	case typeMessageStarred:
		return "MESSAGE_STARRED"
	case typeUserMentioned:
		return "USER_MENTIONED"
	case typeMessageDeleted:
		return "MESSAGE_DELETED"
	case typeReplyPosted:
		return "REPLY_POSTED"
	case typeMessageMovedOut:
		return "MESSAGE_MOVED_OUT"
	case typeMessageMovedIn:
		return "MESSAGE_MOVED_IN"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// classify parses and types each raw event record, grouping the
// survivors into a pool by wire type with arrival order preserved.
// Records that are not JSON objects, carry no numeric event_type, or
// carry an unrecognized code are dropped with a diagnostic and take no
// part in any later stage.
func (d *Decoder) classify(rawEvents []json.RawMessage) *pool {
	p := newPool()

	for _, data := range rawEvents {
		rec, err := parseRecord(data)
		if err != nil {
			d.logger.Warn("ignoring unreadable event record",
				"room_id", d.roomID,
				"error", err,
				"record", snippet(data),
			)
			continue
		}

		code, ok := rec.int64Field("event_type")
		if !ok {
			d.logger.Warn("ignoring event record without a numeric event_type",
				"room_id", d.roomID,
				"record", snippet(data),
			)
			continue
		}

		typ, ok := recordTypeFromCode(code)
		if !ok {
			d.logger.Warn("ignoring event record with unknown event_type",
				"room_id", d.roomID,
				"event_type", code,
				"record", snippet(data),
			)
			continue
		}

		rec.typ = typ
		p.add(rec)
	}

	return p
}

// snippetLimit bounds how much of an offending payload a diagnostic
// carries. Long enough to identify the record, short enough to keep
// log lines readable.
const snippetLimit = 512

// snippet returns data truncated for inclusion in a log record.
func snippet(data []byte) string {
	if len(data) <= snippetLimit {
		return string(data)
	}
	return string(data[:snippetLimit]) + "..."
}
