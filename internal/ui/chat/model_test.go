// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package chat

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/swarm-squad/ep2-tui/internal/api"
	"github.com/swarm-squad/ep2-tui/internal/config"
	"github.com/swarm-squad/ep2-tui/internal/model"
	"github.com/swarm-squad/ep2-tui/internal/realtime"
)

func testModel() *Model {
	return New(config.Default(), api.NewClient(), nil)
}

func testRooms() []model.Room {
	return []model.Room{
		{ID: "v1", Name: "Vehicle v1", Type: model.RoomVehicle},
		{ID: "v2", Name: "Vehicle v2", Type: model.RoomVehicle},
		{ID: "vl1", Name: "Bridge v1", Type: model.RoomVeh2LLM},
	}
}

func liveMsg(id, roomID, content string) realtime.Event {
	return realtime.Event{
		Kind: realtime.EventMessage,
		Message: model.Message{
			ID:          id,
			RoomID:      roomID,
			EntityID:    "v1",
			Content:     content,
			Timestamp:   "2024-01-01T00:00:00Z",
			MessageType: model.TypeVehicleUpdate,
		},
	}
}

func update(t *testing.T, m *Model, msg tea.Msg) *Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(*Model)
}

func TestUpdate_RoomsLoadedSelectsFirst(t *testing.T) {
	m := testModel()

	next, cmd := m.Update(RoomsLoadedMsg{Rooms: testRooms()})
	m = next.(*Model)

	if m.loadingRooms {
		t.Error("loadingRooms should clear")
	}
	if got := m.SelectedRoom(); got == nil || got.ID != "v1" {
		t.Errorf("SelectedRoom() = %v, want v1", got)
	}
	if cmd == nil {
		t.Error("rooms-loaded should kick off history and entity fetches")
	}
}

func TestUpdate_RealtimeMessageAppends(t *testing.T) {
	m := testModel()
	m = update(t, m, RoomsLoadedMsg{Rooms: testRooms()})

	m = update(t, m, ChannelEventMsg{Event: liveMsg("m1", "v1", "hello")})

	if m.store.Len() != 1 {
		t.Fatalf("store.Len() = %d, want 1", m.store.Len())
	}
}

func TestUpdate_HistoryDiscardedAfterRealtime(t *testing.T) {
	m := testModel()
	m = update(t, m, RoomsLoadedMsg{Rooms: testRooms()})
	m = update(t, m, ChannelEventMsg{Event: liveMsg("live", "v1", "live first")})

	batch := []model.Message{
		{ID: "h1", RoomID: "v1", EntityID: "v1", Content: "old", Timestamp: "2023-12-31T00:00:00Z"},
	}
	m = update(t, m, HistoryLoadedMsg{Messages: batch})

	if m.store.Len() != 1 || m.store.All()[0].ID != "live" {
		t.Errorf("history batch should be discarded whole, store = %+v", m.store.All())
	}
}

func TestUpdate_HistoryDiscardedAfterShutdown(t *testing.T) {
	m := testModel()
	m = update(t, m, RoomsLoadedMsg{Rooms: testRooms()})

	next, _ := m.shutdown()
	m = next.(*Model)

	m = update(t, m, HistoryLoadedMsg{Messages: []model.Message{
		{ID: "h1", RoomID: "v1", EntityID: "v1", Content: "late", Timestamp: "2024-01-01T00:00:00Z"},
	}})

	if m.store.Len() != 0 {
		t.Error("history arriving after shutdown must be dropped")
	}
}

func TestUpdate_ConnectionEvents(t *testing.T) {
	m := testModel()

	m = update(t, m, ChannelEventMsg{Event: realtime.Event{Kind: realtime.EventConnected}})
	if m.connState != realtime.StateConnected {
		t.Errorf("connState = %v, want connected", m.connState)
	}

	m = update(t, m, ChannelEventMsg{Event: realtime.Event{
		Kind: realtime.EventDisconnected, Code: 1006, Reconnecting: true,
	}})
	if m.connState != realtime.StateReconnecting {
		t.Errorf("connState = %v, want reconnecting", m.connState)
	}

	m = update(t, m, ChannelEventMsg{Event: realtime.Event{
		Kind: realtime.EventDisconnected, Code: 1000, Reconnecting: false,
	}})
	if m.connState != realtime.StateClosed {
		t.Errorf("connState = %v, want closed", m.connState)
	}
}

func TestUpdate_FailedSendSetsError(t *testing.T) {
	m := testModel()

	m = update(t, m, SendResultMsg{OK: false, Content: "hi"})
	if m.errText == "" {
		t.Error("failed send should surface an error")
	}

	// A successful reconnect clears the error.
	m = update(t, m, ChannelEventMsg{Event: realtime.Event{Kind: realtime.EventConnected}})
	if m.errText != "" {
		t.Error("connect should clear the error")
	}
}

func TestHandleKey_TabCyclesRooms(t *testing.T) {
	m := testModel()
	m = update(t, m, RoomsLoadedMsg{Rooms: testRooms()})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.SelectedRoom().ID; got != "v2" {
		t.Errorf("after tab, room = %q, want v2", got)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := m.SelectedRoom().ID; got != "v1" {
		t.Errorf("after shift+tab, room = %q, want v1", got)
	}
}

func TestHandleKey_EnterWithEmptyInputIsNoop(t *testing.T) {
	m := testModel()
	m = update(t, m, RoomsLoadedMsg{Rooms: testRooms()})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("empty input should not produce a send command")
	}
}

func TestView_RendersRoomContent(t *testing.T) {
	m := testModel()
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = update(t, m, RoomsLoadedMsg{Rooms: testRooms()})
	m = update(t, m, ChannelEventMsg{Event: liveMsg("m1", "v1", "Vehicle v1 at 30.5 km/h")})

	out := m.View()
	if !strings.Contains(out, "Vehicle v1") {
		t.Error("view missing room name")
	}
	if !strings.Contains(out, "SWARM SQUAD") {
		t.Error("view missing brand footer")
	}
}
