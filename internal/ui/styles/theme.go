// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme bundles the lipgloss styles the chat view and its components
// render with. Components take a *Theme instead of reaching for package
// globals so tests can render with a predictable style set.
type Theme struct {
	// Terminal capabilities, detected at construction
	IsDark       bool
	ColorProfile termenv.Profile

	// Chrome
	Header    lipgloss.Style
	StatusBar lipgloss.Style
	Border    lipgloss.Style

	// Sidebar
	SidebarSection  lipgloss.Style
	SidebarRoom     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarBrand    lipgloss.Style
	OnlineDot       lipgloss.Style
	OfflineDot      lipgloss.Style

	// Messages
	Author    lipgloss.Style
	Timestamp lipgloss.Style
	Body      lipgloss.Style
	System    lipgloss.Style

	// Status bar fragments
	Connected    lipgloss.Style
	Reconnecting lipgloss.Style
	Disconnected lipgloss.Style
	Error        lipgloss.Style

	// Input
	InputPrompt lipgloss.Style
}

// DefaultTheme builds the standard theme from the adaptive palette.
func DefaultTheme() *Theme {
	return &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Indigo).
			Background(SurfaceDim).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(TextSecondary).
			Background(SurfaceDim).
			Padding(0, 1),
		Border: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(Overlay),

		SidebarSection: lipgloss.NewStyle().
			Bold(true).
			Foreground(TextSecondary),
		SidebarRoom: lipgloss.NewStyle().
			Foreground(TextPrimary),
		SidebarSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(TextInverse).
			Background(Indigo),
		SidebarBrand: lipgloss.NewStyle().
			Bold(true).
			Foreground(Indigo),
		OnlineDot: lipgloss.NewStyle().
			Foreground(Emerald),
		OfflineDot: lipgloss.NewStyle().
			Foreground(TextMuted),

		Author: lipgloss.NewStyle().
			Bold(true),
		Timestamp: lipgloss.NewStyle().
			Foreground(TextMuted),
		Body: lipgloss.NewStyle().
			Foreground(TextPrimary),
		System: lipgloss.NewStyle().
			Italic(true).
			Foreground(Amber),

		Connected: lipgloss.NewStyle().
			Foreground(Emerald),
		Reconnecting: lipgloss.NewStyle().
			Foreground(Amber),
		Disconnected: lipgloss.NewStyle().
			Foreground(Rose),
		Error: lipgloss.NewStyle().
			Foreground(Rose).
			Bold(true),

		InputPrompt: lipgloss.NewStyle().
			Foreground(Cyan),
	}
}

// EntityStyle returns a style rendering text as the entity's badge.
func (t *Theme) EntityStyle(entityID string) lipgloss.Style {
	c := ColorOf(entityID)
	return lipgloss.NewStyle().
		Foreground(c.Foreground).
		Background(c.Background).
		Padding(0, 1)
}

// EntityTextStyle returns a style coloring text with the entity's
// background hue as a foreground, for inline telemetry spans.
func (t *Theme) EntityTextStyle(entityID string) lipgloss.Style {
	c := ColorOf(entityID)
	return lipgloss.NewStyle().
		Foreground(c.Background).
		Bold(true)
}
