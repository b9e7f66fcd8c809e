// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/swarm-squad/ep2-tui/internal/model"
	"github.com/swarm-squad/ep2-tui/internal/realtime"
)

// =============================================================================
// TEA MESSAGES
// =============================================================================

// RoomsLoadedMsg carries the resolved room directory (real or fallback).
type RoomsLoadedMsg struct {
	Rooms []model.Room
}

// HistoryLoadedMsg carries the one-shot historical message batch.
type HistoryLoadedMsg struct {
	Messages []model.Message
}

// HistoryFailedMsg reports that the history fetch failed. The session
// continues on realtime traffic alone.
type HistoryFailedMsg struct {
	Err error
}

// EntitiesLoadedMsg carries the entity roster for the sidebar.
type EntitiesLoadedMsg struct {
	Entities []model.Entity
}

// ChannelEventMsg wraps a realtime event forwarded into the update loop.
type ChannelEventMsg struct {
	Event realtime.Event
}

// SendResultMsg reports the outcome of an outbound message post.
type SendResultMsg struct {
	OK      bool
	Content string
}

// =============================================================================
// EVENT FORWARDER
// =============================================================================

// Forwarder bridges the realtime manager's callback goroutine into the
// Bubble Tea program. Events arriving before the program is attached are
// buffered so the connection can be opened during startup.
type Forwarder struct {
	mu      sync.Mutex
	program *tea.Program
	pending []tea.Msg
}

// Send queues or delivers a realtime event.
func (f *Forwarder) Send(ev realtime.Event) {
	f.mu.Lock()
	p := f.program
	if p == nil {
		f.pending = append(f.pending, ChannelEventMsg{Event: ev})
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	p.Send(ChannelEventMsg{Event: ev})
}

// Attach hands the forwarder its program and flushes anything buffered.
func (f *Forwarder) Attach(p *tea.Program) {
	f.mu.Lock()
	f.program = p
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()
	for _, msg := range pending {
		p.Send(msg)
	}
}
