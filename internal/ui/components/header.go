// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package components

import (
	"github.com/swarm-squad/ep2-tui/internal/model"
	"github.com/swarm-squad/ep2-tui/internal/ui/styles"
	"github.com/swarm-squad/ep2-tui/internal/util"
)

// Header renders the top line naming the focused room.
type Header struct {
	Theme *styles.Theme
	Width int
}

// Render draws the header for the focused room, or a placeholder while
// the directory is still loading.
func (h Header) Render(room *model.Room) string {
	title := "Swarm Squad"
	if room != nil {
		title = "# " + room.Name
		if room.Type != "" {
			title += "  ·  " + room.Type.String()
		}
	}
	return h.Theme.Header.Width(h.Width).Render(util.TruncateWidth(title, h.Width-2))
}
