// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"testing"
	"time"
)

func TestExtractContent(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		content   string
		fixedFont bool
	}{
		{
			name:      "fixed width full",
			raw:       "<pre class='full'>hi</pre>",
			content:   "hi",
			fixedFont: true,
		},
		{
			name:      "fixed width partial",
			raw:       "<pre class='partial'>x := 1</pre>",
			content:   "x := 1",
			fixedFont: true,
		},
		{
			name:      "fixed width preserves inner markup",
			raw:       "<pre class='full'>a <br> b</pre>",
			content:   "a <br> b",
			fixedFont: true,
		},
		{
			name:    "multi line",
			raw:     "<div class='partial'>a <br> b</div>",
			content: "a\nb",
		},
		{
			name:    "multi line several breaks",
			raw:     "<div class='full'>one <br> two <br> three</div>",
			content: "one\ntwo\nthree",
		},
		{
			name:    "plain text",
			raw:     "hi",
			content: "hi",
		},
		{
			name:    "unanchored pre is plain text",
			raw:     "before <pre class='full'>hi</pre>",
			content: "before <pre class='full'>hi</pre>",
		},
		{
			name:    "fixed width spanning lines",
			raw:     "<pre class='full'>line1\nline2</pre>",
			content: "line1\nline2",
			fixedFont: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, fixedFont := extractContent(tt.raw)
			if content != tt.content {
				t.Errorf("content = %q, want %q", content, tt.content)
			}
			if fixedFont != tt.fixedFont {
				t.Errorf("fixedFont = %v, want %v", fixedFont, tt.fixedFont)
			}
		})
	}
}

func TestParseMessage(t *testing.T) {
	message, err := ParseMessage([]byte(`{
		"message_id": 42,
		"time_stamp": 1700000000,
		"room_id": 7,
		"room_name": "Sandbox",
		"user_id": 50,
		"user_name": "alice",
		"content": "<div class='full'>a <br> b</div>",
		"edits": 3,
		"message_stars": 2,
		"parent_id": 40,
		"target_user_id": 60
	}`))
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}

	want := Message{
		ID:              42,
		Time:            time.Unix(1700000000, 0),
		RoomID:          7,
		RoomName:        "Sandbox",
		UserID:          50,
		Username:        "alice",
		Content:         "a\nb",
		Edits:           3,
		Stars:           2,
		ParentID:        40,
		MentionedUserID: 60,
	}
	if message != want {
		t.Errorf("ParseMessage = %+v, want %+v", message, want)
	}
}

func TestParseMessageAbsentFieldsStayUnset(t *testing.T) {
	// Star records carry no author, deletion records no content.
	// Absent fields leave the attribute at its zero value without
	// failing the record.
	message, err := ParseMessage([]byte(`{"message_id": 42, "time_stamp": 1700000000}`))
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if message.UserID != 0 || message.Username != "" {
		t.Errorf("expected unset author, got %+v", message)
	}
	if message.Content != "" || message.FixedFont {
		t.Errorf("expected unset content, got %+v", message)
	}
}

func TestParseMessageRejectsNonObject(t *testing.T) {
	if _, err := ParseMessage([]byte(`[1,2,3]`)); err == nil {
		t.Fatal("expected an error for a non-object record")
	}
}
