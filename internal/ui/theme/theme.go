// Package theme holds the terminal palette and shared styles.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/skilltrail/internal/skilltree"
)

// Palette
var (
	Primary = lipgloss.Color("#8B5CF6") // Violet
	Success = lipgloss.Color("#22C55E") // Green
	Error   = lipgloss.Color("#F43F5E") // Rose
	Text    = lipgloss.Color("#F8FAFC")
	TextDim = lipgloss.Color("#94A3B8")
	Border  = lipgloss.Color("#334155")
	Fill    = lipgloss.Color("#14B8A6") // Teal
)

// Node status colors.
var statusColors = map[skilltree.NodeStatus]color.Color{
	skilltree.StatusMastered:   lipgloss.Color("#22c55e"),
	skilltree.StatusLearned:    lipgloss.Color("#3b82f6"),
	skilltree.StatusInProgress: lipgloss.Color("#f59e0b"),
	skilltree.StatusAvailable:  lipgloss.Color("#8b5cf6"),
	skilltree.StatusLocked:     lipgloss.Color("#4b5563"),
}

var statusGlyphs = map[skilltree.NodeStatus]string{
	skilltree.StatusMastered:   "★",
	skilltree.StatusLearned:    "●",
	skilltree.StatusInProgress: "◐",
	skilltree.StatusAvailable:  "○",
	skilltree.StatusLocked:     "◌",
}

// StatusColor returns the color of a node status; unknown statuses get
// the locked color.
func StatusColor(s skilltree.NodeStatus) color.Color {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[skilltree.StatusLocked]
}

// StatusGlyph returns the marker drawn before a node label.
func StatusGlyph(s skilltree.NodeStatus) string {
	if g, ok := statusGlyphs[s]; ok {
		return g
	}
	return statusGlyphs[skilltree.StatusLocked]
}

// StatusStyle colors text by node status.
func StatusStyle(s skilltree.NodeStatus) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(StatusColor(s))
}

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Connector = lipgloss.NewStyle().
			Foreground(Border)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Fill)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)
