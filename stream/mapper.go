// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"sort"
)

// mapRemaining converts every record the correlation passes left
// behind into its event, in ascending sequence-id order.
//
// The sort is stable and compares ids directly rather than by
// subtraction, so records whose ids differ by more than the integer
// range still order correctly, and records without an id (treated as
// id 0) keep their relative arrival order.
func (d *Decoder) mapRemaining(p *pool) []Event {
	remaining := p.remaining()

	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].seqID() < remaining[j].seqID()
	})

	var events []Event
	for _, rec := range remaining {
		event, ok := d.mapRecord(rec)
		if !ok {
			continue
		}
		events = append(events, event)
	}
	return events
}

// mapRecord builds the event for a single leftover record. The second
// return is false when the record's type has no direct event mapping;
// that only happens if a correlation pass failed to consume a record
// it owns, so it is logged and the record dropped.
func (d *Decoder) mapRecord(rec *record) (Event, bool) {
	switch rec.typ {
	case typeMessagePosted:
		return MessagePosted{EventInfo: rec.info(), Message: rec.message()}, true
	case typeMessageEdited:
		return MessageEdited{EventInfo: rec.info(), Message: rec.message()}, true
	case typeMessageDeleted:
		return MessageDeleted{EventInfo: rec.info(), Message: rec.message()}, true
	case typeMessageStarred:
		return MessageStarred{EventInfo: rec.info(), Message: rec.message()}, true
	case typeUserEntered:
		event := UserEntered{EventInfo: rec.info()}
		event.RoomID, _ = rec.intField("room_id")
		event.RoomName, _ = rec.stringField("room_name")
		event.UserID, _ = rec.intField("user_id")
		event.Username, _ = rec.stringField("user_name")
		return event, true
	case typeUserLeft:
		event := UserLeft{EventInfo: rec.info()}
		event.RoomID, _ = rec.intField("room_id")
		event.RoomName, _ = rec.stringField("room_name")
		event.UserID, _ = rec.intField("user_id")
		event.Username, _ = rec.stringField("user_name")
		return event, true
	default:
		d.logger.Warn("ignoring unconsumed correlation record",
			"room_id", d.roomID,
			"event_type", rec.typ.String(),
			"record", snippet(rec.raw),
		)
		return nil, false
	}
}
