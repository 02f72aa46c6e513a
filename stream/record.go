// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"encoding/json"
	"fmt"
)

// record is one raw event record inside a push frame, classified by
// its wire type code. Records exist only within a single decode cycle:
// the correlation passes and the remaining-event mapper consume them,
// and nothing beyond the decoder ever sees one.
type record struct {
	// typ is the classified wire type.
	typ recordType

	// fields holds the record's JSON members, individually decoded on
	// access. Field-level decoding mirrors the protocol's optionality:
	// an absent or ill-typed field leaves the attribute unset instead
	// of failing the record.
	fields map[string]json.RawMessage

	// raw is the original record, kept for diagnostics.
	raw json.RawMessage
}

// parseRecord decodes one raw event record. It fails only when the
// record is not a JSON object at all; individual field problems are
// tolerated at access time.
func parseRecord(data []byte) (*record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("event record is not a JSON object: %w", err)
	}
	return &record{fields: fields, raw: data}, nil
}

// int64Field returns the named field as an int64. The second return is
// false when the field is absent or not a JSON number.
func (r *record) int64Field(name string) (int64, bool) {
	raw, ok := r.fields[name]
	if !ok {
		return 0, false
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

// intField returns the named field as an int. The second return is
// false when the field is absent or not a JSON number.
func (r *record) intField(name string) (int, bool) {
	v, ok := r.int64Field(name)
	return int(v), ok
}

// stringField returns the named field as a string. The second return
// is false when the field is absent or not a JSON string.
func (r *record) stringField(name string) (string, bool) {
	raw, ok := r.fields[name]
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

// seqID returns the record's protocol-assigned sequence id, or zero
// when the record carries none.
func (r *record) seqID() int64 {
	id, _ := r.int64Field("id")
	return id
}

// info builds the common event fields (sequence id, timestamp) from
// the record's own id and time_stamp members.
func (r *record) info() EventInfo {
	info := EventInfo{ID: r.seqID()}
	if ts, ok := r.int64Field("time_stamp"); ok {
		info.Time = localTime(ts)
	}
	return info
}
