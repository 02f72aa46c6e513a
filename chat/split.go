// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import "strings"

// SplitStrategy controls how SendMessageSplit handles a single-line
// message longer than MaxMessageLength.
type SplitStrategy int

const (
	// SplitNone truncates the message to the length limit and posts a
	// single message.
	SplitNone SplitStrategy = iota

	// SplitWord splits the message at word boundaries into multiple
	// messages, each within the length limit, appending " ..." to
	// every part but the last. A single word longer than the limit is
	// cut mid-word.
	SplitWord

	// SplitNewline splits the message at newlines, grouping
	// consecutive lines into the fewest messages that fit. Useful for
	// pre-assembled multi-line text that should be posted as plain
	// messages rather than one fixed-font block.
	SplitNewline
)

// split applies the strategy to text, which is known to be longer than
// max.
func (s SplitStrategy) split(text string, max int) []string {
	switch s {
	case SplitWord:
		return splitWords(text, max)
	case SplitNewline:
		return splitLines(text, max)
	default:
		return []string{text[:max]}
	}
}

// continuation marks every part of a word-split message except the
// last, so readers can tell the thought carries over.
const continuation = " ..."

func splitWords(text string, max int) []string {
	var parts []string
	budget := max - len(continuation)
	for len(text) > max {
		cut := strings.LastIndex(text[:budget+1], " ")
		if cut <= 0 {
			cut = budget
		}
		parts = append(parts, strings.TrimRight(text[:cut], " ")+continuation)
		text = strings.TrimLeft(text[cut:], " ")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

func splitLines(text string, max int) []string {
	var parts []string
	var current string
	for _, line := range strings.Split(text, "\n") {
		if len(line) > max {
			// An overlong line falls back to word splitting.
			if current != "" {
				parts = append(parts, current)
				current = ""
			}
			parts = append(parts, splitWords(line, max)...)
			continue
		}
		switch {
		case current == "":
			current = line
		case len(current)+1+len(line) <= max:
			current += "\n" + line
		default:
			parts = append(parts, current)
			current = line
		}
	}
	if current != "" {
		parts = append(parts, current)
	}
	return parts
}
