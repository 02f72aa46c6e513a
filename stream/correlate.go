// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"regexp"
	"strconv"
)

// resolveReplies consumes every REPLY_POSTED record and collapses each
// one with its redundant plain companion.
//
// Whenever a reply is posted, the service also emits a plain "message
// posted" (or, for an edit that introduces a reply, "message edited")
// record for the same message id. The reply record is the richer of
// the two — it carries parent_id and target_user_id — so the pass
// keeps the reply's message and consumes the plain companion, emitting
// a single event with the reply's sequence id and the message's own
// timestamp.
//
// A reply with no companion in either pool originated from another
// room's mirrored stream (the service fans replies out to every room
// the target user watches). Those are dropped without a diagnostic:
// they are routine, not anomalous.
func (d *Decoder) resolveReplies(p *pool) []Event {
	var events []Event

	for _, reply := range p.takeAll(typeReplyPosted) {
		message := reply.message()
		eventID := reply.seqID()

		if companion := findMessage(p.records(typeMessagePosted), message.ID); companion != nil {
			p.remove(companion)
			events = append(events, MessagePosted{
				EventInfo: EventInfo{ID: eventID, Time: message.Time},
				Message:   message,
			})
			continue
		}

		if companion := findMessage(p.records(typeMessageEdited), message.ID); companion != nil {
			p.remove(companion)
			events = append(events, MessageEdited{
				EventInfo: EventInfo{ID: eventID, Time: message.Time},
				Message:   message,
			})
		}
	}

	return events
}

// resolveMentions consumes every USER_MENTIONED record and collapses
// it with the plain companions the service emits alongside.
//
// Unlike replies, a mention is checked against the posted and edited
// pools independently: a frame may carry a posted and an edited record
// for different messages that both match, and each match consumes its
// companion and emits its own event.
func (d *Decoder) resolveMentions(p *pool) []Event {
	var events []Event

	for _, mention := range p.takeAll(typeUserMentioned) {
		message := mention.message()
		eventID := mention.seqID()

		if companion := findMessage(p.records(typeMessagePosted), message.ID); companion != nil {
			p.remove(companion)
			events = append(events, MessagePosted{
				EventInfo: EventInfo{ID: eventID, Time: message.Time},
				Message:   message,
			})
		}

		if companion := findMessage(p.records(typeMessageEdited), message.ID); companion != nil {
			p.remove(companion)
			events = append(events, MessageEdited{
				EventInfo: EventInfo{ID: eventID, Time: message.Time},
				Message:   message,
			})
		}
	}

	return events
}

// movedOutPattern matches the announcement message the service posts
// in the source room when messages are moved out: an arrow followed by
// a link to the moved messages and a link naming the destination room.
// The room id is the first capture, the displayed room name the
// second. Anchored at both ends with "." matching line breaks, since
// the anchor text may contain arbitrary HTML.
var movedOutPattern = regexp.MustCompile(`(?s)^&rarr; <i><a href=".*?">\d+ messages?</a> moved to <a href=".*?/rooms/(\d+)/.*?">(.*?)</a></i>$`)

// movedInPattern is the inverse announcement posted in the destination
// room, naming the source room.
var movedInPattern = regexp.MustCompile(`(?s)^&larr; <i>\d+ messages? moved from <a href=".*?/rooms/(\d+)/.*?">(.*?)</a></i>$`)

// resolveMovedOut consumes every MESSAGE_MOVED_OUT record and builds a
// single MessagesMoved event from them. The second return is false
// when the frame carried no moved-out records at all.
//
// The service announces a move by posting an ordinary message under
// the mover's name; its content names the destination room. The pass
// scans the still-present posted records for the single announcement,
// fills in the destination from its content and the source and mover
// from the message itself, and consumes that one posted record so the
// mapper does not report it as a normal message. With no announcement
// in the frame the event still fires, with only the moved messages.
func (d *Decoder) resolveMovedOut(p *pool) (MessagesMoved, bool) {
	moved := p.takeAll(typeMessageMovedOut)
	if len(moved) == 0 {
		return MessagesMoved{}, false
	}

	var event MessagesMoved
	for _, rec := range moved {
		event.Messages = append(event.Messages, rec.message())
	}

	for _, rec := range p.records(typeMessagePosted) {
		message := rec.message()
		m := movedOutPattern.FindStringSubmatch(message.Content)
		if m == nil {
			continue
		}

		destRoomID, _ := strconv.Atoi(m[1])
		event.DestRoomID = destRoomID
		event.DestRoomName = m[2]
		event.SourceRoomID = message.RoomID
		event.SourceRoomName = message.RoomName
		event.MoverUserID = message.UserID
		event.MoverUsername = message.Username
		event.EventInfo = rec.info()

		p.remove(rec)
		break
	}

	return event, true
}

// resolveMovedIn is the mirror of resolveMovedOut for messages moved
// into the room: the announcement names the source room, and the
// destination is the room the announcement was posted in.
func (d *Decoder) resolveMovedIn(p *pool) (MessagesMoved, bool) {
	moved := p.takeAll(typeMessageMovedIn)
	if len(moved) == 0 {
		return MessagesMoved{}, false
	}

	var event MessagesMoved
	for _, rec := range moved {
		event.Messages = append(event.Messages, rec.message())
	}

	for _, rec := range p.records(typeMessagePosted) {
		message := rec.message()
		m := movedInPattern.FindStringSubmatch(message.Content)
		if m == nil {
			continue
		}

		sourceRoomID, _ := strconv.Atoi(m[1])
		event.SourceRoomID = sourceRoomID
		event.SourceRoomName = m[2]
		event.DestRoomID = message.RoomID
		event.DestRoomName = message.RoomName
		event.MoverUserID = message.UserID
		event.MoverUsername = message.Username
		event.EventInfo = rec.info()

		p.remove(rec)
		break
	}

	return event, true
}

// findMessage returns the first record whose message_id equals id, or
// nil. Records without a message_id are skipped.
func findMessage(records []*record, id int64) *record {
	for _, rec := range records {
		candidate, ok := rec.int64Field("message_id")
		if !ok {
			continue
		}
		if candidate == id {
			return rec
		}
	}
	return nil
}
