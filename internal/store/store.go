// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// Package store holds the in-memory message buffer backing the chat view.
package store

import (
	"sort"

	"github.com/swarm-squad/ep2-tui/internal/model"
)

// DefaultCapacity bounds the buffer when no explicit capacity is given.
const DefaultCapacity = 50

// Store is a bounded in-memory message sequence. When the buffer is full,
// appending evicts the oldest message (arrival order, not timestamp order).
//
// Store is not safe for concurrent use. The chat model mutates it only
// from the Bubble Tea update loop, which is the single writer; the view
// reads it from the same goroutine.
type Store struct {
	msgs          []model.Message
	cap           int
	historyLoaded bool
}

// New creates a store with the given capacity. Non-positive capacities
// fall back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		msgs: make([]model.Message, 0, capacity),
		cap:  capacity,
	}
}

// Append adds a realtime message, evicting the oldest if the buffer is full.
func (s *Store) Append(msg model.Message) {
	if len(s.msgs) >= s.cap {
		drop := len(s.msgs) - s.cap + 1
		s.msgs = append(s.msgs[:0], s.msgs[drop:]...)
	}
	s.msgs = append(s.msgs, msg)
}

// SeedHistory installs a historical batch, at most once per session.
//
// The whole batch is discarded when realtime messages have already
// arrived: mixing a late history reply into a live buffer would reorder
// arrivals, so the first writer wins. Returns true if the batch was
// applied. Subsequent calls are no-ops regardless of outcome; the load
// happened, whatever it produced.
func (s *Store) SeedHistory(batch []model.Message) bool {
	if s.historyLoaded {
		return false
	}
	s.historyLoaded = true

	if len(s.msgs) > 0 {
		return false
	}
	for _, msg := range batch {
		s.Append(msg)
	}
	return true
}

// HistoryLoaded reports whether a history batch has been offered already.
func (s *Store) HistoryLoaded() bool {
	return s.historyLoaded
}

// Len returns the number of buffered messages.
func (s *Store) Len() int {
	return len(s.msgs)
}

// All returns the buffered messages in arrival order. The returned slice
// is the store's backing array; callers must not mutate it.
func (s *Store) All() []model.Message {
	return s.msgs
}

// ForRoom returns the buffered messages for one room, in arrival order.
func (s *Store) ForRoom(roomID string) []model.Message {
	var out []model.Message
	for i := range s.msgs {
		if s.msgs[i].RoomID == roomID {
			out = append(out, s.msgs[i])
		}
	}
	return out
}

// Sorted returns a copy of the buffer ordered by non-decreasing timestamp.
// Display order is timestamp order; arrival order is only an eviction
// policy.
func (s *Store) Sorted() []model.Message {
	out := make([]model.Message, len(s.msgs))
	copy(out, s.msgs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Before(&out[j])
	})
	return out
}
