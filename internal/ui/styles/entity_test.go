// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package styles

import "testing"

func TestColorOf_Deterministic(t *testing.T) {
	ids := []string{"v1", "v2", "v3", "agent-7", "user", ""}
	for _, id := range ids {
		first := ColorOf(id)
		for i := 0; i < 10; i++ {
			if got := ColorOf(id); got != first {
				t.Fatalf("ColorOf(%q) changed between calls: %v then %v", id, first, got)
			}
		}
	}
}

func TestColorOf_PairsAreComplete(t *testing.T) {
	for _, id := range []string{"v1", "v2", "v3", "vl1", "l1"} {
		c := ColorOf(id)
		if c.Background == "" || c.Foreground == "" {
			t.Errorf("ColorOf(%q) returned an incomplete pair: %+v", id, c)
		}
	}
}

func TestColorOf_SpreadsAcrossPalette(t *testing.T) {
	// Not a uniformity proof, just a sanity check that the hash does not
	// collapse a small fleet onto one color.
	seen := map[EntityColor]bool{}
	for _, id := range []string{"v1", "v2", "v3", "v4", "v5", "v6", "v7", "v8"} {
		seen[ColorOf(id)] = true
	}
	if len(seen) < 2 {
		t.Errorf("8 ids mapped to %d color(s)", len(seen))
	}
}
