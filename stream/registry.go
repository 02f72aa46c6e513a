// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"sync"
)

// Listener receives dispatched events. Listeners run synchronously on
// the dispatching goroutine while their kind's list is locked: a slow
// listener stalls delivery of later events for the room, so listeners
// must hand long-running work off rather than block here.
type Listener func(Event)

// Handle identifies a registered listener for later removal.
type Handle struct {
	kind Kind
	id   int
}

// Registry routes events to per-kind listener lists.
//
// Registration and removal may happen concurrently with dispatch from
// any goroutine. Each kind's list serializes mutation against
// iteration with its own mutex; distinct kinds never contend, so a
// dispatch of posted messages does not block code registering a
// user-entered listener.
type Registry struct {
	lists [kindCount]listenerList
}

type listenerList struct {
	mu      sync.Mutex
	nextID  int
	entries []listenerEntry
}

type listenerEntry struct {
	id int
	fn Listener
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a listener for one event kind. Listeners for the same
// kind are invoked in registration order.
func (r *Registry) Add(kind Kind, fn Listener) Handle {
	list := &r.lists[kind]
	list.mu.Lock()
	defer list.mu.Unlock()

	list.nextID++
	list.entries = append(list.entries, listenerEntry{id: list.nextID, fn: fn})
	return Handle{kind: kind, id: list.nextID}
}

// Remove unregisters a previously added listener. Removing a handle
// twice is a no-op.
func (r *Registry) Remove(handle Handle) {
	list := &r.lists[handle.kind]
	list.mu.Lock()
	defer list.mu.Unlock()

	for i, entry := range list.entries {
		if entry.id == handle.id {
			list.entries = append(list.entries[:i], list.entries[i+1:]...)
			return
		}
	}
}

// Dispatch delivers events in order to the listeners registered for
// each event's kind. The kind's list stays locked while its listeners
// run, so a listener never observes a concurrent registration
// reordering the list under it.
func (r *Registry) Dispatch(events []Event) {
	for _, event := range events {
		list := &r.lists[event.Kind()]
		list.mu.Lock()
		for _, entry := range list.entries {
			entry.fn(event)
		}
		list.mu.Unlock()
	}
}

// On registers a typed listener, deriving the kind from the event
// type. It wraps fn in the type assertion Dispatch guarantees to hold:
//
//	stream.On(registry, func(event stream.MessagePosted) { ... })
func On[T Event](r *Registry, fn func(T)) Handle {
	var zero T
	return r.Add(zero.Kind(), func(event Event) {
		fn(event.(T))
	})
}
