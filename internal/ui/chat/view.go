// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package chat

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/swarm-squad/ep2-tui/internal/model"
	"github.com/swarm-squad/ep2-tui/internal/realtime"
	"github.com/swarm-squad/ep2-tui/internal/ui/components"
	"github.com/swarm-squad/ep2-tui/internal/ui/format"
)

// layout recomputes component sizes after a resize.
func (m *Model) layout() {
	chatWidth := m.width - sidebarWidth - 1
	if chatWidth < 20 {
		chatWidth = 20
	}
	// header + input + status bar
	chatHeight := m.height - 3
	if chatHeight < 3 {
		chatHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(chatWidth, chatHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth
		m.viewport.Height = chatHeight
	}
	m.input.Width = chatWidth - 4
	m.refreshViewport()
}

// refreshViewport re-renders the focused room's messages into the
// viewport, pinned to the newest message.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

// renderMessages renders the focused room's buffer in timestamp order.
func (m *Model) renderMessages() string {
	room := m.SelectedRoom()
	if room == nil {
		return m.theme.Timestamp.Render("Loading rooms...")
	}

	msgs := m.store.ForRoom(room.ID)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Before(&msgs[j])
	})

	if len(msgs) == 0 {
		return m.theme.Timestamp.Render("No messages yet in #" + room.Name)
	}

	var b strings.Builder
	for i := range msgs {
		b.WriteString(m.renderMessage(&msgs[i]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderMessage(msg *model.Message) string {
	ts := ""
	if t := msg.Time(); !t.IsZero() {
		ts = m.theme.Timestamp.Render(t.Local().Format("15:04:05"))
	}
	badge := m.theme.EntityStyle(msg.EntityID).Render(msg.EntityID)

	var body string
	switch msg.MessageType {
	case model.TypeSystemAlert:
		body = m.theme.System.Render(msg.Content)
	default:
		body = format.Render(format.Colorize(msg.Content), msg.EntityID, m.theme)
	}

	return ts + " " + badge + " " + body
}

// View renders the full frame: header, sidebar beside the viewport, the
// input line, and the status bar.
func (m *Model) View() string {
	if !m.ready {
		return m.spin.View() + " starting..."
	}

	header := components.Header{Theme: m.theme, Width: m.width}.Render(m.SelectedRoom())

	sidebar := components.Sidebar{Theme: m.theme, Width: sidebarWidth}.
		Render(m.rooms, m.entities, m.selectedRoomID(), m.viewport.Height)

	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", m.viewport.View())

	input := m.theme.InputPrompt.Render("> ") + m.input.View()
	if m.loadingRooms {
		input = m.spin.View() + " loading rooms..."
	}

	status := components.StatusBar{Theme: m.theme, Width: m.width}.
		Render(m.connectionState(), len(m.rooms), m.store.Len(), m.errText)

	return lipgloss.JoinVertical(lipgloss.Left, header, main, input, status)
}

func (m *Model) selectedRoomID() string {
	if r := m.SelectedRoom(); r != nil {
		return r.ID
	}
	return ""
}

func (m *Model) connectionState() realtime.State {
	return m.connState
}
