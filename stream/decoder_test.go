// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// newTestDecoder creates a Decoder for room 1 whose diagnostics are
// captured in the returned buffer, one line per log record.
func newTestDecoder(t *testing.T) (*Decoder, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	return NewDecoder(1, logger), &logs
}

// frame wraps a list of JSON event records into a push payload for
// room 1.
func frame(records ...string) []byte {
	return []byte(fmt.Sprintf(`{"r1":{"e":[%s]}}`, strings.Join(records, ",")))
}

func countLogLines(logs *bytes.Buffer) int {
	content := strings.TrimSpace(logs.String())
	if content == "" {
		return 0
	}
	return len(strings.Split(content, "\n"))
}

func TestDecodePlainEvents(t *testing.T) {
	decoder, logs := newTestDecoder(t)

	events, err := decoder.Decode(frame(
		`{"event_type":1,"id":10,"time_stamp":1700000000,"room_id":1,"room_name":"Sandbox","user_id":50,"user_name":"alice","message_id":100,"content":"hello"}`,
		`{"event_type":3,"id":11,"time_stamp":1700000001,"room_id":1,"room_name":"Sandbox","user_id":51,"user_name":"bob"}`,
		`{"event_type":10,"id":12,"time_stamp":1700000002,"room_id":1,"room_name":"Sandbox","user_id":50,"user_name":"alice","message_id":100}`,
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %v", len(events), events)
	}

	posted, ok := events[0].(MessagePosted)
	if !ok {
		t.Fatalf("expected MessagePosted first, got %T", events[0])
	}
	if posted.ID != 10 {
		t.Errorf("unexpected event id: %d", posted.ID)
	}
	if posted.Message.ID != 100 || posted.Message.Content != "hello" {
		t.Errorf("unexpected message: %+v", posted.Message)
	}
	if !posted.Time.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("unexpected timestamp: %v", posted.Time)
	}
	if posted.Message.Username != "alice" || posted.Message.UserID != 50 {
		t.Errorf("unexpected author: %+v", posted.Message)
	}

	entered, ok := events[1].(UserEntered)
	if !ok {
		t.Fatalf("expected UserEntered second, got %T", events[1])
	}
	if entered.UserID != 51 || entered.Username != "bob" || entered.RoomName != "Sandbox" {
		t.Errorf("unexpected user entered event: %+v", entered)
	}

	if _, ok := events[2].(MessageDeleted); !ok {
		t.Fatalf("expected MessageDeleted third, got %T", events[2])
	}

	if countLogLines(logs) != 0 {
		t.Errorf("unexpected diagnostics:\n%s", logs.String())
	}
}

func TestDecodeMalformedFrame(t *testing.T) {
	decoder, logs := newTestDecoder(t)

	events, err := decoder.Decode([]byte("this is not JSON"))
	if err == nil {
		t.Fatal("expected an error for a malformed frame")
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
	if countLogLines(logs) != 1 {
		t.Errorf("expected exactly one diagnostic, got:\n%s", logs.String())
	}

	// The failure must not affect the next frame.
	events, err = decoder.Decode(frame(
		`{"event_type":1,"id":1,"time_stamp":1700000000,"message_id":5,"content":"still alive"}`,
	))
	if err != nil {
		t.Fatalf("Decode after malformed frame failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event after malformed frame, got %d", len(events))
	}
}

func TestDecodeIgnoresOtherRooms(t *testing.T) {
	decoder, _ := newTestDecoder(t)

	for name, payload := range map[string]string{
		"different room":  `{"r2":{"e":[{"event_type":1,"id":1}]}}`,
		"no event array":  `{"r1":{"t":42}}`,
		"empty frame":     `{}`,
		"room not object": `{"r1":7}`,
	} {
		t.Run(name, func(t *testing.T) {
			events, err := decoder.Decode([]byte(payload))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if len(events) != 0 {
				t.Errorf("expected no events, got %v", events)
			}
		})
	}
}

func TestDecodeDropsUnknownEventTypes(t *testing.T) {
	decoder, logs := newTestDecoder(t)

	events, err := decoder.Decode(frame(
		`{"event_type":99,"id":1}`,
		`{"id":2,"content":"no type at all"}`,
		`{"event_type":"1","id":3}`,
		`{"event_type":1,"id":4,"time_stamp":1700000000,"message_id":9,"content":"kept"}`,
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 surviving event, got %d: %v", len(events), events)
	}
	posted, ok := events[0].(MessagePosted)
	if !ok || posted.Message.Content != "kept" {
		t.Errorf("unexpected surviving event: %+v", events[0])
	}
	if countLogLines(logs) != 3 {
		t.Errorf("expected 3 diagnostics, got:\n%s", logs.String())
	}
}

func TestDecodeReplyCorrelation(t *testing.T) {
	decoder, logs := newTestDecoder(t)

	events, err := decoder.Decode(frame(
		`{"event_type":1,"id":8,"time_stamp":1700000000,"message_id":5,"content":"plain companion"}`,
		`{"event_type":18,"id":9,"time_stamp":1700000009,"room_id":1,"room_name":"Sandbox","user_id":50,"user_name":"alice","message_id":5,"content":":4 replying","parent_id":4,"target_user_id":60}`,
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d: %v", len(events), events)
	}

	posted, ok := events[0].(MessagePosted)
	if !ok {
		t.Fatalf("expected MessagePosted, got %T", events[0])
	}
	// The event takes the reply record's sequence id but the
	// message's own timestamp, and keeps the reply's richer fields.
	if posted.ID != 9 {
		t.Errorf("expected reply's event id 9, got %d", posted.ID)
	}
	if !posted.Time.Equal(time.Unix(1700000009, 0)) {
		t.Errorf("unexpected timestamp: %v", posted.Time)
	}
	if posted.Message.ParentID != 4 {
		t.Errorf("expected parent id 4, got %d", posted.Message.ParentID)
	}
	if posted.Message.MentionedUserID != 60 {
		t.Errorf("expected mentioned user 60, got %d", posted.Message.MentionedUserID)
	}
	if posted.Message.Content != ":4 replying" {
		t.Errorf("unexpected content: %q", posted.Message.Content)
	}
	if countLogLines(logs) != 0 {
		t.Errorf("unexpected diagnostics:\n%s", logs.String())
	}
}

func TestDecodeReplyAgainstEdit(t *testing.T) {
	decoder, _ := newTestDecoder(t)

	events, err := decoder.Decode(frame(
		`{"event_type":2,"id":8,"time_stamp":1700000000,"message_id":5,"content":"edited companion","edits":2}`,
		`{"event_type":18,"id":9,"time_stamp":1700000009,"message_id":5,"content":":4 reply added by edit","parent_id":4,"edits":2}`,
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d: %v", len(events), events)
	}
	edited, ok := events[0].(MessageEdited)
	if !ok {
		t.Fatalf("expected MessageEdited, got %T", events[0])
	}
	if edited.ID != 9 || edited.Message.ParentID != 4 {
		t.Errorf("unexpected event: %+v", edited)
	}
}

func TestDecodeForeignReplyDroppedSilently(t *testing.T) {
	decoder, logs := newTestDecoder(t)

	// A reply with no companion comes from another room's mirrored
	// stream. It produces no event and, unlike unknown event types,
	// no diagnostic.
	events, err := decoder.Decode(frame(
		`{"event_type":18,"id":9,"time_stamp":1700000009,"message_id":5,"content":":4 foreign","parent_id":4}`,
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
	if countLogLines(logs) != 0 {
		t.Errorf("expected no diagnostics, got:\n%s", logs.String())
	}
}

func TestDecodeMentionCorrelation(t *testing.T) {
	decoder, _ := newTestDecoder(t)

	// A mention may match a posted and an edited companion for
	// different messages; both matches fire, and both companions
	// are consumed.
	events, err := decoder.Decode(frame(
		`{"event_type":1,"id":7,"time_stamp":1700000000,"message_id":5,"content":"@bob hi"}`,
		`{"event_type":2,"id":8,"time_stamp":1700000001,"message_id":5,"content":"@bob hi (edited)","edits":1}`,
		`{"event_type":8,"id":9,"time_stamp":1700000002,"message_id":5,"content":"@bob hi","target_user_id":60}`,
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %v", len(events), events)
	}

	posted, ok := events[0].(MessagePosted)
	if !ok {
		t.Fatalf("expected MessagePosted first, got %T", events[0])
	}
	edited, ok := events[1].(MessageEdited)
	if !ok {
		t.Fatalf("expected MessageEdited second, got %T", events[1])
	}
	if posted.ID != 9 || edited.ID != 9 {
		t.Errorf("both events should carry the mention's id 9, got %d and %d", posted.ID, edited.ID)
	}
	if posted.Message.MentionedUserID != 60 || edited.Message.MentionedUserID != 60 {
		t.Errorf("expected mentioned user 60 on both events")
	}
}

func TestDecodeMovedOut(t *testing.T) {
	decoder, _ := newTestDecoder(t)

	announcement := `&rarr; <i><a href=\"/transcript/message/900\">3 messages</a> moved to <a href=\"https://chat.example.com/rooms/99/lounge\">Lounge</a></i>`

	events, err := decoder.Decode(frame(
		`{"event_type":19,"id":20,"time_stamp":1700000000,"room_id":1,"room_name":"Sandbox","user_id":50,"user_name":"alice","message_id":101,"content":"first"}`,
		`{"event_type":19,"id":21,"time_stamp":1700000001,"room_id":1,"room_name":"Sandbox","user_id":51,"user_name":"bob","message_id":102,"content":"second"}`,
		fmt.Sprintf(`{"event_type":1,"id":22,"time_stamp":1700000002,"room_id":1,"room_name":"Sandbox","user_id":70,"user_name":"mover","message_id":103,"content":"%s"}`, announcement),
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d: %v", len(events), events)
	}

	moved, ok := events[0].(MessagesMoved)
	if !ok {
		t.Fatalf("expected MessagesMoved, got %T", events[0])
	}
	if len(moved.Messages) != 2 {
		t.Fatalf("expected 2 moved messages, got %d", len(moved.Messages))
	}
	if moved.Messages[0].ID != 101 || moved.Messages[1].ID != 102 {
		t.Errorf("moved messages out of order: %+v", moved.Messages)
	}
	if moved.DestRoomID != 99 || moved.DestRoomName != "Lounge" {
		t.Errorf("unexpected destination: %d %q", moved.DestRoomID, moved.DestRoomName)
	}
	if moved.SourceRoomID != 1 || moved.SourceRoomName != "Sandbox" {
		t.Errorf("unexpected source: %d %q", moved.SourceRoomID, moved.SourceRoomName)
	}
	if moved.MoverUserID != 70 || moved.MoverUsername != "mover" {
		t.Errorf("unexpected mover: %d %q", moved.MoverUserID, moved.MoverUsername)
	}
	// The announcement's id and timestamp become the event's.
	if moved.ID != 22 {
		t.Errorf("expected event id 22, got %d", moved.ID)
	}
}

func TestDecodeMovedIn(t *testing.T) {
	decoder, _ := newTestDecoder(t)

	announcement := `&larr; <i>2 messages moved from <a href=\"https://chat.example.com/rooms/42/upstream\">Upstream</a></i>`

	events, err := decoder.Decode(frame(
		`{"event_type":20,"id":30,"time_stamp":1700000000,"room_id":1,"room_name":"Sandbox","message_id":201,"content":"arrived"}`,
		fmt.Sprintf(`{"event_type":1,"id":31,"time_stamp":1700000001,"room_id":1,"room_name":"Sandbox","user_id":70,"user_name":"mover","message_id":202,"content":"%s"}`, announcement),
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d: %v", len(events), events)
	}

	moved, ok := events[0].(MessagesMoved)
	if !ok {
		t.Fatalf("expected MessagesMoved, got %T", events[0])
	}
	if moved.SourceRoomID != 42 || moved.SourceRoomName != "Upstream" {
		t.Errorf("unexpected source: %d %q", moved.SourceRoomID, moved.SourceRoomName)
	}
	if moved.DestRoomID != 1 || moved.DestRoomName != "Sandbox" {
		t.Errorf("unexpected destination: %d %q", moved.DestRoomID, moved.DestRoomName)
	}
}

func TestDecodeMovedOutWithoutAnnouncement(t *testing.T) {
	decoder, _ := newTestDecoder(t)

	events, err := decoder.Decode(frame(
		`{"event_type":19,"id":20,"time_stamp":1700000000,"message_id":101,"content":"orphan move"}`,
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	moved, ok := events[0].(MessagesMoved)
	if !ok {
		t.Fatalf("expected MessagesMoved, got %T", events[0])
	}
	if moved.DestRoomID != 0 || moved.ID != 0 {
		t.Errorf("expected zero destination and id without an announcement: %+v", moved)
	}
	if len(moved.Messages) != 1 {
		t.Errorf("expected the moved message to be carried: %+v", moved.Messages)
	}
}

func TestDecodeLeftoverOrdering(t *testing.T) {
	decoder, _ := newTestDecoder(t)

	// Leftovers sort ascending by sequence id regardless of arrival
	// order; a record without an id sorts as id 0.
	events, err := decoder.Decode(frame(
		`{"event_type":1,"id":30,"time_stamp":1700000000,"message_id":3,"content":"third"}`,
		`{"event_type":4,"id":10,"time_stamp":1700000000,"user_id":51,"user_name":"bob"}`,
		`{"event_type":1,"time_stamp":1700000000,"message_id":1,"content":"no id"}`,
		`{"event_type":6,"id":20,"time_stamp":1700000000,"message_id":2,"message_stars":1}`,
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	var ids []int64
	for _, event := range events {
		ids = append(ids, event.Info().ID)
	}
	want := []int64{0, 10, 20, 30}
	if len(ids) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected id order: %v", ids)
		}
	}

	if _, ok := events[0].(MessagePosted); !ok {
		t.Errorf("expected the id-less posted event first, got %T", events[0])
	}
	if _, ok := events[1].(UserLeft); !ok {
		t.Errorf("expected UserLeft second, got %T", events[1])
	}
	starred, ok := events[2].(MessageStarred)
	if !ok {
		t.Errorf("expected MessageStarred third, got %T", events[2])
	} else if starred.Message.Stars != 1 {
		t.Errorf("unexpected star count: %d", starred.Message.Stars)
	}
}

func TestDecodeCorrelatedEventsPrecedeLeftovers(t *testing.T) {
	decoder, _ := newTestDecoder(t)

	// The reply-derived event comes first even though its sequence id
	// is higher than the plain event's.
	events, err := decoder.Decode(frame(
		`{"event_type":1,"id":1,"time_stamp":1700000000,"message_id":50,"content":"plain"}`,
		`{"event_type":1,"id":8,"time_stamp":1700000001,"message_id":5,"content":"companion"}`,
		`{"event_type":18,"id":9,"time_stamp":1700000001,"message_id":5,"content":":4 reply","parent_id":4}`,
	))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %v", len(events), events)
	}
	if events[0].Info().ID != 9 {
		t.Errorf("expected the correlated event first, got id %d", events[0].Info().ID)
	}
	if events[1].Info().ID != 1 {
		t.Errorf("expected the plain event second, got id %d", events[1].Info().ID)
	}
}
