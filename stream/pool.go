// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package stream

// pool is the mutable working set of classified records for one decode
// cycle. Each correlation pass removes exactly the records it explains,
// so a record reaches the remaining-event mapper only when no pass
// consumed it. The pool is local to a single Decode call; frames share
// no state.
//
// Within a type, records keep their wire arrival order. Across types,
// the pool remembers the order in which types first appeared, so the
// leftover sequence matches the grouped order the classifier produced.
type pool struct {
	byType    map[recordType][]*record
	typeOrder []recordType
}

func newPool() *pool {
	return &pool{byType: make(map[recordType][]*record)}
}

// add appends a classified record to its type bucket.
func (p *pool) add(rec *record) {
	if _, seen := p.byType[rec.typ]; !seen {
		p.typeOrder = append(p.typeOrder, rec.typ)
	}
	p.byType[rec.typ] = append(p.byType[rec.typ], rec)
}

// records returns the still-present records of one type, in arrival
// order. The returned slice is the pool's own; callers that consume a
// record must go through remove.
func (p *pool) records(typ recordType) []*record {
	return p.byType[typ]
}

// takeAll removes and returns every record of the given type.
func (p *pool) takeAll(typ recordType) []*record {
	records := p.byType[typ]
	delete(p.byType, typ)
	return records
}

// remove deletes a single record from its type bucket. It is a no-op
// when the record was already consumed.
func (p *pool) remove(rec *record) {
	records := p.byType[rec.typ]
	for i, candidate := range records {
		if candidate == rec {
			p.byType[rec.typ] = append(records[:i], records[i+1:]...)
			return
		}
	}
}

// remaining returns every record no pass consumed, grouped by type in
// first-appearance order with arrival order preserved within a type.
func (p *pool) remaining() []*record {
	var records []*record
	for _, typ := range p.typeOrder {
		records = append(records, p.byType[typ]...)
	}
	return records
}
