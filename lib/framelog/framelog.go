// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

// Package framelog reads and writes frame capture files: the raw push
// frames a room received, recorded verbatim for later replay and
// debugging. A capture file is a zstd-compressed stream of CBOR
// records, self-delimiting so it can be appended frame by frame and
// read back without an index.
package framelog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/firesidehq/fireside/lib/codec"
)

// Record is one captured push frame.
type Record struct {
	// ReceivedAt is when the frame arrived, in milliseconds since the
	// Unix epoch.
	ReceivedAt int64 `cbor:"received_at"`

	// RoomID is the room whose socket delivered the frame.
	RoomID int `cbor:"room_id"`

	// Payload is the frame body exactly as received.
	Payload []byte `cbor:"payload"`
}

// Writer appends Records to a capture stream. It is safe for
// concurrent use.
type Writer struct {
	mu      sync.Mutex
	sink    io.Closer
	zstd    *zstd.Encoder
	encoder *codec.Encoder
	closed  bool
}

// Create opens a capture file for writing, truncating any existing
// file at path.
func Create(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("framelog: creating capture file: %w", err)
	}
	writer, err := NewWriter(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return writer, nil
}

// NewWriter wraps sink in a capture stream. Close closes sink.
func NewWriter(sink io.WriteCloser) (*Writer, error) {
	compressor, err := zstd.NewWriter(sink)
	if err != nil {
		return nil, fmt.Errorf("framelog: initializing compressor: %w", err)
	}
	return &Writer{
		sink:    sink,
		zstd:    compressor,
		encoder: codec.NewEncoder(compressor),
	}, nil
}

// Append writes one record to the capture stream.
func (w *Writer) Append(record Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("framelog: writer is closed")
	}
	if err := w.encoder.Encode(record); err != nil {
		return fmt.Errorf("framelog: writing record: %w", err)
	}
	return nil
}

// Close flushes the compressed stream and closes the underlying sink.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.zstd.Close()
	if closeErr := w.sink.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Reader iterates over the Records of a capture stream.
type Reader struct {
	source  io.Closer
	zstd    *zstd.Decoder
	decoder *codec.Decoder
}

// Open opens a capture file for reading.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("framelog: opening capture file: %w", err)
	}
	reader, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return reader, nil
}

// NewReader wraps source in a capture stream reader. Close closes
// source.
func NewReader(source io.ReadCloser) (*Reader, error) {
	decompressor, err := zstd.NewReader(source)
	if err != nil {
		return nil, fmt.Errorf("framelog: initializing decompressor: %w", err)
	}
	return &Reader{
		source:  source,
		zstd:    decompressor,
		decoder: codec.NewDecoder(decompressor),
	}, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	var record Record
	err := r.decoder.Decode(&record)
	if err == io.EOF {
		return Record{}, io.EOF
	}
	if err != nil {
		return Record{}, fmt.Errorf("framelog: reading record: %w", err)
	}
	return record, nil
}

// Close releases the decompressor and closes the underlying source.
func (r *Reader) Close() error {
	r.zstd.Close()
	return r.source.Close()
}
