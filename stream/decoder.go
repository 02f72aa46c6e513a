// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Decoder turns raw push payloads for one room into ordered semantic
// events. A push payload is multiplexed across rooms; the Decoder only
// reports events for the room it was created for.
//
// Decode is not safe for concurrent use. The transport delivers one
// frame at a time per room, and each room has its own Decoder, so no
// synchronization is needed; distinct rooms decode independently.
type Decoder struct {
	roomID int
	logger *slog.Logger
}

// NewDecoder creates a Decoder for the given room. A nil logger falls
// back to slog.Default().
func NewDecoder(roomID int, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{roomID: roomID, logger: logger}
}

// RoomID returns the room this decoder reports events for.
func (d *Decoder) RoomID() int {
	return d.roomID
}

// Decode processes one push payload and returns the room's semantic
// events in delivery order: correlated events first (replies, mentions,
// moved-out, moved-in), then the remaining events sorted by sequence
// id.
//
// A payload that is not valid JSON discards the whole frame: Decode
// logs the failure and returns an error, with no partial results.
// A payload that parses but does not reference this room, or carries
// no event array for it, yields no events and no error. Individual
// records that cannot be classified or mapped are dropped with a
// diagnostic without affecting their siblings; frames are independent,
// so one bad frame never poisons the next.
func (d *Decoder) Decode(payload []byte) ([]Event, error) {
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(payload, &frame); err != nil {
		d.logger.Error("discarding malformed push frame",
			"room_id", d.roomID,
			"error", err,
			"payload", snippet(payload),
		)
		return nil, fmt.Errorf("stream: malformed push frame: %w", err)
	}

	roomData, ok := frame[fmt.Sprintf("r%d", d.roomID)]
	if !ok {
		return nil, nil
	}

	// The room entry holds its event records under "e". A frame that
	// mentions the room without an event array carries nothing for us
	// (the service sends such entries for unread counters).
	var room struct {
		Events []json.RawMessage `json:"e"`
	}
	if err := json.Unmarshal(roomData, &room); err != nil {
		return nil, nil
	}
	if len(room.Events) == 0 {
		return nil, nil
	}

	p := d.classify(room.Events)

	// The correlation passes run in fixed order, each consuming the
	// records it explains so later passes and the mapper never see
	// them again.
	var events []Event
	events = append(events, d.resolveReplies(p)...)
	events = append(events, d.resolveMentions(p)...)
	if moved, ok := d.resolveMovedOut(p); ok {
		events = append(events, moved)
	}
	if moved, ok := d.resolveMovedIn(p); ok {
		events = append(events, moved)
	}

	events = append(events, d.mapRemaining(p)...)

	return events, nil
}
