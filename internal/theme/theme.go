package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notesync/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorStatusStyle replaces StatusBarStyle while a failure is shown.
var ErrorStatusStyle = StatusBarStyle.Background(ColorRed)

// ContentPanelStyle wraps the note content pane.
var ContentPanelStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// MergeMarker prefixes notes holding more than one copy.
const MergeMarker = "[M] "

// NoteStyle returns the list style for a note: duplicates are blue, then
// deleted red, new green and edited yellow.
func NoteStyle(state model.NoteState, needsMerge bool) lipgloss.Style {
	base := lipgloss.NewStyle()

	if needsMerge {
		return base.Foreground(ColorBlue)
	}

	switch state {
	case model.StateDeleted:
		return base.Foreground(ColorRed).Strikethrough(true)
	case model.StateNew:
		return base.Foreground(ColorGreen)
	case model.StateEdited:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorWhite)
	}
}
