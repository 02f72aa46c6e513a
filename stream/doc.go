// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream decodes the chat service's push notification stream
// into semantic domain events.
//
// The wire protocol is redundant by design: a single logical action is
// often represented by several overlapping raw notifications. A reply,
// for example, arrives both as a "reply posted" record and as a plainer
// "message posted" record for the same message; a bulk message move
// arrives as one "moved out" record per message plus an ordinary posted
// message announcing the move. Decoding therefore runs in stages:
//
//  1. The frame decoder extracts the raw per-event records for one room
//     from a multiplexed JSON push payload.
//  2. The classifier groups records by their numeric event_type code,
//     dropping records with missing or unrecognized codes.
//  3. The correlation passes (replies, mentions, moved-out, moved-in)
//     match richer records against their redundant plain companions,
//     consuming every record they explain so no record is reported
//     twice.
//  4. Whatever remains is sorted by protocol sequence id and mapped
//     one-to-one into events.
//
// A Decoder performs all four stages for a single room. A Registry
// delivers the resulting events to per-kind listener lists; listener
// registration may happen concurrently with dispatch.
//
// The package performs no network or disk I/O. Every failure mode
// degrades to "drop this record (or frame) and continue": a malformed
// payload, an unknown event_type, or an unreadable record never stops
// the stream.
package stream
