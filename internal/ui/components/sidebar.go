// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// Package components holds the stateless view fragments composed by the
// chat model: sidebar, header, and status bar. Each renders from the data
// it is handed; none of them own state.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/swarm-squad/ep2-tui/internal/model"
	"github.com/swarm-squad/ep2-tui/internal/ui/styles"
	"github.com/swarm-squad/ep2-tui/internal/util"
)

// Sidebar renders the room list grouped by room type, the entity roster,
// and the brand footer.
type Sidebar struct {
	Theme *styles.Theme
	Width int
}

// Render draws the sidebar. Rooms appear grouped by type in first-seen
// order; the selected room is highlighted.
func (s Sidebar) Render(rooms []model.Room, entities []model.Entity, selected string, height int) string {
	var b strings.Builder

	// Group rooms by type, preserving the order types first appear in.
	var order []model.RoomType
	groups := map[model.RoomType][]model.Room{}
	for _, r := range rooms {
		if _, ok := groups[r.Type]; !ok {
			order = append(order, r.Type)
		}
		groups[r.Type] = append(groups[r.Type], r)
	}

	for _, typ := range order {
		b.WriteString(s.Theme.SidebarSection.Render(typ.DisplayName()))
		b.WriteString("\n")
		for _, r := range groups[typ] {
			label := util.TruncateWidth("# "+r.Name, s.Width-2)
			if r.ID == selected {
				b.WriteString(s.Theme.SidebarSelected.Render(label))
			} else {
				b.WriteString(s.Theme.SidebarRoom.Render(label))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(entities) > 0 {
		b.WriteString(s.Theme.SidebarSection.Render("ENTITIES"))
		b.WriteString("\n")
		for _, e := range entities {
			dot := s.Theme.OfflineDot.Render("○")
			if e.Online() {
				dot = s.Theme.OnlineDot.Render("●")
			}
			name := e.Name
			if name == "" {
				name = e.ID
			}
			b.WriteString(dot + " " + util.TruncateWidth(name, s.Width-4))
			b.WriteString("\n")
		}
	}

	body := b.String()
	footer := s.Theme.SidebarBrand.Render("SWARM SQUAD")

	return lipgloss.NewStyle().
		Width(s.Width).
		Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Left, body, footer))
}
