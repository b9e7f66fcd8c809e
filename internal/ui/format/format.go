// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// Package format turns raw telemetry message text into an ordered list of
// plain and highlighted segments. The rules that decide what gets
// highlighted never touch text a previous rule already claimed, so the
// output is stable regardless of how the patterns overlap.
package format

import (
	"regexp"
	"strings"

	"github.com/swarm-squad/ep2-tui/internal/ui/styles"
)

// Segment is one run of message text. Styled segments are rendered in the
// sending entity's color; plain segments in the body style.
type Segment struct {
	Text   string
	Styled bool
}

// =============================================================================
// HIGHLIGHT RULES
// =============================================================================

// Simulated producers occasionally emit unexpanded template fragments
// (e.g. "{speed:.1f}") when a reading is missing; those are stripped, not
// shown.
var (
	placeholderRe = regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_]*(?::[^{}]*)?\}`)

	vehicleRe = regexp.MustCompile(`Vehicle\s+[A-Za-z0-9_-]+`)
	coordRe   = regexp.MustCompile(`\(-?\d+(?:\.\d+)?,\s*-?\d+(?:\.\d+)?\)`)
	// RE2 has no lookahead, so the unit is part of the match and the
	// submatch picks out the number alone.
	speedRe   = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*km/h`)
	percentRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)%`)
)

// Colorize splits message content into segments, highlighting the
// telemetry spans. Rules run in a fixed order and each rule only examines
// segments no earlier rule styled:
//
//  1. strip leftover template placeholder fragments
//  2. highlight "Vehicle <id>"
//  3. highlight "(lat, lon)" coordinate pairs
//  4. highlight the number before "km/h"
//  5. highlight the number before "%"
func Colorize(content string) []Segment {
	segs := []Segment{{Text: content}}

	segs = stripPlaceholders(segs)
	segs = applyRule(segs, vehicleRe, 0)
	segs = applyRule(segs, coordRe, 0)
	segs = applyRule(segs, speedRe, 1)
	segs = applyRule(segs, percentRe, 1)

	return segs
}

// stripPlaceholders deletes unexpanded template fragments from unstyled
// segments.
func stripPlaceholders(segs []Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, seg := range segs {
		if seg.Styled {
			out = append(out, seg)
			continue
		}
		cleaned := placeholderRe.ReplaceAllString(seg.Text, "")
		if cleaned != "" {
			out = append(out, Segment{Text: cleaned})
		}
	}
	return out
}

// applyRule wraps the given submatch group of every match in unstyled
// segments. group 0 styles the whole match; group 1 styles only the first
// capture, leaving the rest of the match as plain text.
func applyRule(segs []Segment, re *regexp.Regexp, group int) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, seg := range segs {
		if seg.Styled {
			out = append(out, seg)
			continue
		}
		matches := re.FindAllStringSubmatchIndex(seg.Text, -1)
		if len(matches) == 0 {
			out = append(out, seg)
			continue
		}

		last := 0
		for _, m := range matches {
			start, end := m[2*group], m[2*group+1]
			if start < 0 {
				continue
			}
			if start > last {
				out = append(out, Segment{Text: seg.Text[last:start]})
			}
			out = append(out, Segment{Text: seg.Text[start:end], Styled: true})
			last = end
		}
		if last < len(seg.Text) {
			out = append(out, Segment{Text: seg.Text[last:]})
		}
	}
	return out
}

// =============================================================================
// RENDERING
// =============================================================================

// Render flattens segments into a styled string, coloring highlighted
// spans with the sending entity's hue.
func Render(segs []Segment, entityID string, theme *styles.Theme) string {
	var b strings.Builder
	entity := theme.EntityTextStyle(entityID)
	for _, seg := range segs {
		if seg.Styled {
			b.WriteString(entity.Render(seg.Text))
		} else {
			b.WriteString(theme.Body.Render(seg.Text))
		}
	}
	return b.String()
}

// Plain flattens segments back into unstyled text. Used where width
// measurement needs the raw content.
func Plain(segs []Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		b.WriteString(seg.Text)
	}
	return b.String()
}
