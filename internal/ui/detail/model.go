package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notesync/internal/convert"
	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/theme"
)

// scrollStep is how many lines J/K move the content pane.
const scrollStep = 3

// Model is the note content pane shown next to the list.
type Model struct {
	note     *model.LocalNote
	viewport viewport.Model
	width    int
	height   int
}

// New creates a new content pane.
func New(width, height int) Model {
	vp := viewport.New(max(width-4, 0), max(height-2, 0))
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		width:    width,
		height:   height,
	}
}

// Update forwards mouse and window messages to the viewport.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the pane.
func (m Model) View() string {
	panel := theme.ContentPanelStyle.
		Width(max(m.width-2, 0)).
		Height(max(m.height-2, 0))

	if m.note == nil {
		return panel.
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No note selected")
	}

	return panel.Render(m.viewport.View())
}

// Note returns the note being displayed.
func (m Model) Note() *model.LocalNote {
	return m.note
}

// SetNote replaces the displayed note and scrolls back to the top.
func (m *Model) SetNote(note *model.LocalNote) {
	m.note = note
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// ScrollDown moves the content down by a few lines.
func (m *Model) ScrollDown() {
	m.viewport.ScrollDown(scrollStep)
}

// ScrollUp moves the content up by a few lines.
func (m *Model) ScrollUp() {
	m.viewport.ScrollUp(scrollStep)
}

// SetSize updates the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-4, 0)
	m.viewport.Height = max(height-2, 0)
	m.viewport.SetContent(m.renderContent())
}

func (m Model) renderContent() string {
	if m.note == nil {
		return ""
	}
	note := m.note
	md := note.Metadata

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(note.Subject()))

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	state := theme.NoteStyle(md.State(), note.NeedsMerge()).Render(string(md.State()))
	sections = append(sections,
		fmt.Sprintf("%s %s", metaStyle.Render("State:  "), state),
		fmt.Sprintf("%s %s", metaStyle.Render("Folder: "), md.Subfolder),
		fmt.Sprintf("%s %s", metaStyle.Render("Created:"), md.Date.Local().Format("2006-01-02 15:04")),
	)
	if note.NeedsMerge() {
		warn := lipgloss.NewStyle().Foreground(theme.ColorBlue).Bold(true)
		sections = append(sections, warn.Render(
			fmt.Sprintf("%d copies cached, press m to merge", len(note.Bodies)),
		))
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", sep, "")

	for i, b := range note.Bodies {
		if note.NeedsMerge() {
			label := fmt.Sprintf("Copy %d (uid %d)", i+1, b.UID)
			if b.UID == model.SentinelUID {
				label = fmt.Sprintf("Copy %d (not pushed)", i+1)
			}
			sections = append(sections, metaStyle.Render(label))
		}

		text := strings.TrimRight(convert.HTMLToPlain(b.TextOrEmpty()), "\n")
		if text == "" {
			text = lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("Empty note")
		}
		sections = append(sections, text)

		if i < len(note.Bodies)-1 {
			sections = append(sections, "", sep, "")
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
