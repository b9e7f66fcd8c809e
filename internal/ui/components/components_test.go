// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package components

import (
	"strings"
	"testing"

	"github.com/swarm-squad/ep2-tui/internal/model"
	"github.com/swarm-squad/ep2-tui/internal/realtime"
	"github.com/swarm-squad/ep2-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.DefaultTheme()
}

func TestSidebar_GroupsRoomsByType(t *testing.T) {
	sb := Sidebar{Theme: testTheme(), Width: 28}
	rooms := []model.Room{
		{ID: "v1", Name: "Vehicle v1", Type: model.RoomVehicle},
		{ID: "vl1", Name: "Bridge v1", Type: model.RoomVeh2LLM},
		{ID: "v2", Name: "Vehicle v2", Type: model.RoomVehicle},
	}

	out := sb.Render(rooms, nil, "v1", 24)

	for _, want := range []string{"VEHICLE CHANNELS", "VEHICLE-AGENT CHANNELS", "Vehicle v1", "Vehicle v2", "Bridge v1", "SWARM SQUAD"} {
		if !strings.Contains(out, want) {
			t.Errorf("sidebar missing %q", want)
		}
	}
	// Vehicle section appears before the bridge section (first-seen order).
	if strings.Index(out, "VEHICLE CHANNELS") > strings.Index(out, "VEHICLE-AGENT CHANNELS") {
		t.Error("room groups not in first-seen order")
	}
}

func TestSidebar_EntityRoster(t *testing.T) {
	sb := Sidebar{Theme: testTheme(), Width: 28}
	entities := []model.Entity{
		{ID: "v1", Name: "Vehicle 1", Status: model.StatusOnline},
		{ID: "v2", Name: "Vehicle 2", Status: model.StatusOffline},
	}

	out := sb.Render(nil, entities, "", 24)

	if !strings.Contains(out, "ENTITIES") {
		t.Error("entity section missing")
	}
	if !strings.Contains(out, "Vehicle 1") || !strings.Contains(out, "Vehicle 2") {
		t.Error("entity names missing")
	}
	if !strings.Contains(out, "●") || !strings.Contains(out, "○") {
		t.Error("online/offline dots missing")
	}
}

func TestStatusBar_States(t *testing.T) {
	bar := StatusBar{Theme: testTheme(), Width: 80}

	tests := []struct {
		state realtime.State
		want  string
	}{
		{realtime.StateConnected, "connected"},
		{realtime.StateReconnecting, "reconnecting"},
		{realtime.StateClosed, "closed"},
		{realtime.StateDisconnected, "offline"},
	}
	for _, tc := range tests {
		out := bar.Render(tc.state, 3, 12, "")
		if !strings.Contains(out, tc.want) {
			t.Errorf("state %v: missing %q in %q", tc.state, tc.want, out)
		}
		if !strings.Contains(out, "3 rooms") || !strings.Contains(out, "12 msgs") {
			t.Errorf("state %v: counts missing", tc.state)
		}
	}
}

func TestStatusBar_ShowsError(t *testing.T) {
	bar := StatusBar{Theme: testTheme(), Width: 80}
	out := bar.Render(realtime.StateConnected, 1, 0, "send failed")
	if !strings.Contains(out, "send failed") {
		t.Error("error text missing from status bar")
	}
}

func TestHeader(t *testing.T) {
	h := Header{Theme: testTheme(), Width: 60}

	if out := h.Render(nil); !strings.Contains(out, "Swarm Squad") {
		t.Errorf("placeholder header = %q", out)
	}

	room := &model.Room{ID: "v1", Name: "Vehicle v1", Type: model.RoomVehicle}
	out := h.Render(room)
	if !strings.Contains(out, "Vehicle v1") || !strings.Contains(out, "vehicle") {
		t.Errorf("header = %q", out)
	}
}
