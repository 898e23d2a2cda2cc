package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorPrimary = lipgloss.Color("#7C3AED")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorBorder  = lipgloss.Color("#374151")

	// Base styles
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	styleError = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	styleMuted = lipgloss.NewStyle().Foreground(colorMuted)

	// Chip styles
	styleChip = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D1D5DB")).
			Padding(0, 1)

	styleChipActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1)

	// Table styles
	styleTableHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorBorder).
				Padding(0, 1)

	styleTableRow = lipgloss.NewStyle().
			Padding(0, 1)

	styleTableRowSelected = lipgloss.NewStyle().
				Background(lipgloss.Color("#1F2937")).
				Foreground(lipgloss.Color("#FFFFFF")).
				Padding(0, 1)

	// Box styles
	styleDetailBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2)

	styleModal = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2)

	styleDangerBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDanger).
			Padding(1, 2)

	// Label styles
	styleLabel = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(20)

	styleLabelFocused = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true).
				Width(20)

	styleValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))
)

// statusColors maps view colour keys to terminal colours.
var statusColors = map[string]lipgloss.Color{
	"yellow": lipgloss.Color("#EAB308"),
	"blue":   lipgloss.Color("#3B82F6"),
	"purple": lipgloss.Color("#A855F7"),
	"indigo": lipgloss.Color("#6366F1"),
	"orange": lipgloss.Color("#F97316"),
	"green":  lipgloss.Color("#22C55E"),
	"red":    lipgloss.Color("#EF4444"),
	"gray":   colorMuted,
}

// StatusBadge renders a status label in its colour.
func StatusBadge(colorKey, label string) string {
	c, ok := statusColors[colorKey]
	if !ok {
		c = colorMuted
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render("● " + label)
}
