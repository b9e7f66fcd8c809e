// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package styles

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// ENTITY COLOR ASSIGNMENT
// =============================================================================

// EntityColor is a background/foreground pair used to badge everything
// produced by one entity: its name, its telemetry spans, its highlights.
type EntityColor struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
}

// entityPalette is the fixed set of pairs entities are hashed into. The
// backgrounds are saturated enough to read as badges; each carries a
// foreground picked for contrast on that background.
var entityPalette = []EntityColor{
	{Background: lipgloss.Color("#2563EB"), Foreground: lipgloss.Color("#EFF6FF")}, // blue
	{Background: lipgloss.Color("#059669"), Foreground: lipgloss.Color("#ECFDF5")}, // emerald
	{Background: lipgloss.Color("#D97706"), Foreground: lipgloss.Color("#FFFBEB")}, // amber
	{Background: lipgloss.Color("#DC2626"), Foreground: lipgloss.Color("#FEF2F2")}, // red
	{Background: lipgloss.Color("#7C3AED"), Foreground: lipgloss.Color("#F5F3FF")}, // violet
	{Background: lipgloss.Color("#DB2777"), Foreground: lipgloss.Color("#FDF2F8")}, // pink
	{Background: lipgloss.Color("#0891B2"), Foreground: lipgloss.Color("#ECFEFF")}, // cyan
	{Background: lipgloss.Color("#65A30D"), Foreground: lipgloss.Color("#F7FEE7")}, // lime
	{Background: lipgloss.Color("#EA580C"), Foreground: lipgloss.Color("#FFF7ED")}, // orange
	{Background: lipgloss.Color("#4F46E5"), Foreground: lipgloss.Color("#EEF2FF")}, // indigo
	{Background: lipgloss.Color("#0D9488"), Foreground: lipgloss.Color("#F0FDFA")}, // teal
	{Background: lipgloss.Color("#9333EA"), Foreground: lipgloss.Color("#FAF5FF")}, // purple
}

// ColorOf assigns a stable color pair to an entity id.
//
// The assignment is a pure function of the id: FNV-1a over the raw bytes,
// reduced modulo the palette size. The same id maps to the same pair on
// every call, in every process, so a vehicle keeps its color across
// reconnects and restarts.
func ColorOf(entityID string) EntityColor {
	h := fnv.New32a()
	h.Write([]byte(entityID))
	return entityPalette[h.Sum32()%uint32(len(entityPalette))]
}

// PaletteSize returns the number of distinct entity color pairs.
func PaletteSize() int {
	return len(entityPalette)
}
