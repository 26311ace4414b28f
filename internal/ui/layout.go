package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notesync/internal/theme"
)

// minListWidth keeps note titles readable on narrow terminals.
const minListWidth = 24

// Layout splits the terminal into a one-line header, the note list and
// content pane side by side, and a one-line status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// SplitWidths gives the note list a third of the width and the content
// pane the rest.
func (l Layout) SplitWidths() (list, content int) {
	list = max(l.Width/3, min(minListWidth, l.Width))
	return list, l.Width - list
}

// ContentHeight is what remains between the header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-2, 0)
}

// RenderHeader puts title on the left and the coordinator state on the
// right.
func (l Layout) RenderHeader(title, state string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Align(lipgloss.Right).Render(state)
	return bar(theme.HeaderStyle, l.Width, left, right)
}

// RenderStatusBar shows text on the status line, red when failed.
func (l Layout) RenderStatusBar(text string, failed bool) string {
	style := theme.StatusBarStyle
	if failed {
		style = theme.ErrorStatusStyle
	}
	return bar(style, l.Width, style.Render(text), "")
}

// RenderSplit places the note list and content pane side by side.
func (l Layout) RenderSplit(list, content string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, list, content)
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// bar pads the space between left and right with style's background so
// the line spans the full width.
func bar(style lipgloss.Style, width int, left, right string) string {
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	fill := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, fill, right)
}
