// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/swarm-squad/ep2-tui/internal/model"
)

func msgAt(id string, sec int) model.Message {
	return model.Message{
		ID:        id,
		EntityID:  "v1",
		RoomID:    "v1",
		Content:   "msg " + id,
		Timestamp: time.Date(2024, 1, 1, 0, 0, sec, 0, time.UTC).Format(time.RFC3339),
	}
}

func TestAppend_EvictsOldestAtCapacity(t *testing.T) {
	s := New(50)
	for i := 0; i < 60; i++ {
		s.Append(msgAt(fmt.Sprintf("m%d", i), i))
	}

	if s.Len() != 50 {
		t.Fatalf("Len() = %d, want 50", s.Len())
	}
	all := s.All()
	if all[0].ID != "m10" {
		t.Errorf("oldest surviving = %q, want m10", all[0].ID)
	}
	if all[49].ID != "m59" {
		t.Errorf("newest = %q, want m59", all[49].ID)
	}
}

func TestAppend_NeverExceedsCapacity(t *testing.T) {
	s := New(3)
	for i := 0; i < 10; i++ {
		s.Append(msgAt(fmt.Sprintf("m%d", i), i))
		if s.Len() > 3 {
			t.Fatalf("buffer grew to %d after %d appends", s.Len(), i+1)
		}
	}
}

func TestSeedHistory_AppliesOnceToEmptyStore(t *testing.T) {
	s := New(50)
	batch := []model.Message{msgAt("h1", 0), msgAt("h2", 1)}

	if !s.SeedHistory(batch) {
		t.Fatal("first seed into an empty store should apply")
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	// Second offer is ignored even though the first succeeded.
	if s.SeedHistory([]model.Message{msgAt("h3", 2)}) {
		t.Error("second seed should be a no-op")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d after duplicate seed, want 2", s.Len())
	}
}

func TestSeedHistory_DiscardedWhenRealtimeArrivedFirst(t *testing.T) {
	s := New(50)
	s.Append(msgAt("live1", 5))

	if s.SeedHistory([]model.Message{msgAt("h1", 0), msgAt("h2", 1)}) {
		t.Error("seed into a non-empty store should be discarded")
	}
	if s.Len() != 1 || s.All()[0].ID != "live1" {
		t.Errorf("buffer should hold only the live message, got %d", s.Len())
	}
	if !s.HistoryLoaded() {
		t.Error("a discarded batch still counts as the one load")
	}
}

func TestSeedHistory_TruncatesToCapacity(t *testing.T) {
	s := New(3)
	batch := make([]model.Message, 5)
	for i := range batch {
		batch[i] = msgAt(fmt.Sprintf("h%d", i), i)
	}
	s.SeedHistory(batch)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if s.All()[0].ID != "h2" {
		t.Errorf("oldest surviving = %q, want h2", s.All()[0].ID)
	}
}

func TestForRoom(t *testing.T) {
	s := New(50)
	a := msgAt("a", 0)
	b := msgAt("b", 1)
	b.RoomID = "vl1"
	s.Append(a)
	s.Append(b)

	got := s.ForRoom("vl1")
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("ForRoom(vl1) = %+v", got)
	}
	if got := s.ForRoom("nope"); len(got) != 0 {
		t.Errorf("unknown room should yield nothing, got %d", len(got))
	}
}

func TestSorted_OrdersByTimestamp(t *testing.T) {
	s := New(50)
	// Arrival order differs from timestamp order.
	s.Append(msgAt("late", 9))
	s.Append(msgAt("early", 1))
	s.Append(msgAt("mid", 5))

	sorted := s.Sorted()
	want := []string{"early", "mid", "late"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Errorf("sorted[%d] = %q, want %q", i, sorted[i].ID, id)
		}
	}
	// Arrival order in the store is untouched.
	if s.All()[0].ID != "late" {
		t.Error("Sorted must not reorder the underlying buffer")
	}
}
