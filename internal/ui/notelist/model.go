package notelist

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notesync/internal/keys"
	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/store"
	"github.com/nhle/notesync/internal/theme"
)

// NotesLoadedMsg is sent when notes have been loaded from the store.
type NotesLoadedMsg struct {
	Notes []model.LocalNote
	Err   error
}

// SelectionChangedMsg is sent when the highlighted note changes.
type SelectionChangedMsg struct {
	Note *model.LocalNote
}

// Lister is the read surface the list needs.
type Lister interface {
	List(ctx context.Context, filter store.NoteFilter) ([]model.LocalNote, error)
}

// Model is the note list pane.
type Model struct {
	list        list.Model
	notes       Lister
	keys        *keys.KeyMap
	filter      store.NoteFilter
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new note list model.
func New(n Lister, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, NoteDelegate{}, width, height)
	l.Title = "Notes"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "keyword..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		notes:       n,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the notes.
func (m Model) Init() tea.Cmd {
	return m.LoadNotes()
}

// Update handles messages for the note list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case NotesLoadedMsg:
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Notes))
		for i, n := range msg.Notes {
			items[i] = NoteItem{Note: n}
		}
		cmd := m.list.SetItems(items)
		return m, tea.Batch(cmd, m.selectionChanged())

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		query := m.searchInput.Value()
		if query != "" {
			m.filter.Keyword = &query
		} else {
			m.filter.Keyword = nil
		}
		return m, m.LoadNotes()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.ClearSearch):
		m.filter = store.NoteFilter{}
		m.searchInput.Reset()
		return m, m.LoadNotes()

	case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.Up):
		before := m.list.Index()
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		if m.list.Index() != before {
			return m, tea.Batch(cmd, m.selectionChanged())
		}
		return m, cmd
	}

	return m, nil
}

// Searching reports whether the keyword prompt has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Keyword returns the active keyword filter, or "".
func (m Model) Keyword() string {
	if m.filter.Keyword == nil {
		return ""
	}
	return *m.filter.Keyword
}

// Folder returns the active folder filter, or "".
func (m Model) Folder() string {
	if m.filter.Folder == nil {
		return ""
	}
	return *m.filter.Folder
}

// SetFolder restricts the list to one folder; "" shows every folder.
func (m *Model) SetFolder(folder string) tea.Cmd {
	if folder == "" {
		m.filter.Folder = nil
	} else {
		m.filter.Folder = &folder
	}
	return m.LoadNotes()
}

// Selected returns the highlighted note.
func (m Model) Selected() (*model.LocalNote, bool) {
	item, ok := m.list.SelectedItem().(NoteItem)
	if !ok {
		return nil, false
	}
	return &item.Note, true
}

func (m Model) selectionChanged() tea.Cmd {
	note, _ := m.Selected()
	return func() tea.Msg {
		return SelectionChangedMsg{Note: note}
	}
}

// View renders the note list.
func (m Model) View() string {
	var body string
	if len(m.list.Items()) == 0 {
		body = m.renderEmptyState()
	} else {
		body = m.list.View()
	}

	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		body = lipgloss.JoinVertical(lipgloss.Left, searchBar, body)
	}

	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(body)
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-1).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter.Keyword != nil || m.filter.Folder != nil {
		return style.Render("No matching notes.\nPress c to clear the filter.")
	}
	return style.Render("No notes yet.\n\nPress s to sync or n to write one.")
}

// LoadNotes returns a tea.Cmd that queries the store with the current filter.
func (m Model) LoadNotes() tea.Cmd {
	filter := m.filter
	n := m.notes
	return func() tea.Msg {
		notes, err := n.List(context.Background(), filter)
		return NotesLoadedMsg{Notes: notes, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
	m.searchInput.Width = width - 4
}
