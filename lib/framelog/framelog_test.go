// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package framelog

import (
	"io"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.frames")

	records := []Record{
		{ReceivedAt: 1417041460000, RoomID: 1, Payload: []byte(`{"r1":{"e":[]}}`)},
		{ReceivedAt: 1417041461000, RoomID: 1, Payload: []byte(`{"r1":{"e":[{"event_type":1}]}}`)},
		{ReceivedAt: 1417041462500, RoomID: 139, Payload: []byte(`not even json`)},
	}

	writer, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, record := range records {
		if err := writer.Append(record); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	for i, want := range records {
		got, err := reader.Next()
		if err != nil {
			t.Fatalf("Next record %d: %v", i, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("record %d: got %+v, want %+v", i, got, want)
		}
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("after last record: got %v, want io.EOF", err)
	}
}

func TestAppendAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.frames")
	writer, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := writer.Append(Record{RoomID: 1}); err == nil {
		t.Error("Append after Close: got nil error")
	}
	// Double close is harmless.
	if err := writer.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestEmptyCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.frames")
	writer, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("empty capture: got %v, want io.EOF", err)
	}
}
