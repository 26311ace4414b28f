package notelist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/theme"
)

// NoteItem wraps a model.LocalNote so it can be used in a bubbles/list.
type NoteItem struct {
	Note model.LocalNote
}

// FilterValue returns the string used for fuzzy filtering.
func (i NoteItem) FilterValue() string { return i.Note.Subject() }

// Title returns the list label, prefixed with the merge marker when the
// note holds several copies.
func (i NoteItem) Title() string {
	if i.Note.NeedsMerge() {
		return theme.MergeMarker + i.Note.Subject()
	}
	return i.Note.Subject()
}

// Description returns the folder and creation date.
func (i NoteItem) Description() string {
	return fmt.Sprintf("%s | %s", i.Note.Metadata.Subfolder, relativeTime(i.Note.Metadata.Date))
}

// NoteDelegate implements list.ItemDelegate for one-line note rows.
type NoteDelegate struct{}

func (d NoteDelegate) Height() int                             { return 1 }
func (d NoteDelegate) Spacing() int                            { return 0 }
func (d NoteDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// Render draws a single note line coloured by its state.
func (d NoteDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(NoteItem)
	if !ok {
		return
	}

	style := theme.NoteStyle(ni.Note.Metadata.State(), ni.Note.NeedsMerge())
	cursor := "  "
	if index == m.Index() {
		cursor = "> "
		style = style.Bold(true)
	}

	width := m.Width() - lipgloss.Width(cursor)
	title := truncate(ni.Title(), width)
	fmt.Fprint(w, cursor+style.Render(title))
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:width-1])) + "…"
}

// relativeTime formats a timestamp as a short human-readable age.
func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
