package noteform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/theme"
)

// NoteCreatedMsg is dispatched when the create form is submitted.
type NoteCreatedMsg struct {
	Folder string
	Text   string
}

// NoteEditedMsg is dispatched when the edit form is submitted.
type NoteEditedMsg struct {
	UUID string
	Text string
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings lives on the heap so huh's Value pointers survive Bubble
// Tea model copies.
type formBindings struct {
	folder string
	text   string
}

// Model is the note create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editUUID string
	folders  []string
	width    int
	height   int
}

// New creates an empty form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// SetFolders sets the folders offered when creating a note.
func (m *Model) SetFolders(folders []string) {
	m.folders = folders
}

// Editing reports whether the form edits an existing note.
func (m Model) Editing() bool {
	return m.editUUID != ""
}

// StartCreate prepares the form for a new note in defaultFolder.
func (m *Model) StartCreate(defaultFolder string) tea.Cmd {
	m.editUUID = ""
	m.fb.folder = defaultFolder
	m.fb.text = ""

	fields := []huh.Field{m.folderField(defaultFolder), m.textField()}
	m.form = huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
	return m.form.Init()
}

// StartEdit prepares the form to edit note's text.
func (m *Model) StartEdit(note model.LocalNote) tea.Cmd {
	m.editUUID = note.Metadata.UUID
	m.fb.folder = note.Metadata.Subfolder
	m.fb.text = note.PlainText()

	m.form = huh.NewForm(huh.NewGroup(m.textField())).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m, m.submit()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := "New Note"
	if m.Editing() {
		title = "Edit Note"
	}
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render(title) + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) folderField(defaultFolder string) huh.Field {
	folders := m.folders
	if len(folders) == 0 {
		folders = []string{defaultFolder}
	}
	opts := make([]huh.Option[string], len(folders))
	for i, f := range folders {
		opts[i] = huh.NewOption(f, f)
	}
	return huh.NewSelect[string]().
		Title("Folder").
		Options(opts...).
		Value(&m.fb.folder)
}

func (m *Model) textField() huh.Field {
	return huh.NewText().
		Title("Text").
		Placeholder("The first line becomes the title").
		Lines(max(m.formHeight()-8, 5)).
		Value(&m.fb.text).
		Validate(validateRequired("Text"))
}

func (m Model) submit() tea.Cmd {
	text := m.fb.text
	if m.editUUID != "" {
		uuid := m.editUUID
		return func() tea.Msg { return NoteEditedMsg{UUID: uuid, Text: text} }
	}
	folder := m.fb.folder
	return func() tea.Msg { return NoteCreatedMsg{Folder: folder, Text: text} }
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
