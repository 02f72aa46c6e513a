// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Fireside's standard CBOR encoding
// configuration.
//
// Fireside uses two serialization formats with a clear boundary: JSON
// for the chat service's wire protocol (push frames, HTTP endpoints)
// and CBOR for its own on-disk artifacts, currently the frame capture
// files written by lib/framelog.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Same logical data always produces identical bytes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
package codec
