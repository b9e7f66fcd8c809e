// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package components

import (
	"fmt"
	"strings"

	"github.com/swarm-squad/ep2-tui/internal/realtime"
	"github.com/swarm-squad/ep2-tui/internal/ui/styles"
	"github.com/swarm-squad/ep2-tui/internal/util"
)

// StatusBar renders the bottom line: connection state, room/message
// counts, and the latest error if one is pending.
type StatusBar struct {
	Theme *styles.Theme
	Width int
}

// Render draws the status bar for the given connection state.
func (s StatusBar) Render(state realtime.State, rooms, messages int, errText string) string {
	var conn string
	switch state {
	case realtime.StateConnected:
		conn = s.Theme.Connected.Render("● connected")
	case realtime.StateConnecting:
		conn = s.Theme.Reconnecting.Render("◌ connecting")
	case realtime.StateReconnecting:
		conn = s.Theme.Reconnecting.Render("◌ reconnecting")
	case realtime.StateClosed:
		conn = s.Theme.Disconnected.Render("○ closed")
	default:
		conn = s.Theme.Disconnected.Render("○ offline")
	}

	parts := []string{
		conn,
		fmt.Sprintf("%d rooms", rooms),
		fmt.Sprintf("%d msgs", messages),
	}
	if errText != "" {
		parts = append(parts, s.Theme.Error.Render(util.TruncateWidth(errText, s.Width/2)))
	}

	line := strings.Join(parts, "  │  ")
	return s.Theme.StatusBar.Width(s.Width).Render(util.TruncateWidth(line, s.Width))
}
