package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notesync/internal/keys"
	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/notes"
	appsync "github.com/nhle/notesync/internal/sync"
	"github.com/nhle/notesync/internal/ui"
	"github.com/nhle/notesync/internal/ui/command"
	"github.com/nhle/notesync/internal/ui/detail"
	helpview "github.com/nhle/notesync/internal/ui/help"
	"github.com/nhle/notesync/internal/ui/noteform"
	"github.com/nhle/notesync/internal/ui/notelist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewHelp
	ViewCommand
	ViewForm
)

// outcomeMsg carries one coordinator report into the update loop. ok is
// false once the outcome channel is closed.
type outcomeMsg struct {
	outcome appsync.Outcome
	ok      bool
}

// noteChangedMsg reports the result of a local note operation.
type noteChangedMsg struct {
	status string
	err    error
}

// Model is the root Bubble Tea model. It routes keys to the note list and
// content pane, submits tasks to the coordinator and shows its outcomes.
type Model struct {
	currentView   ViewState
	layout        ui.Layout
	keys          *keys.KeyMap
	notes         *notes.Service
	coordinator   *appsync.Coordinator
	defaultFolder string

	noteList    notelist.Model
	detail      detail.Model
	helpView    helpview.Model
	commandView command.Model
	form        noteform.Model

	folders  []string
	running  bool
	task     appsync.TaskKind
	status   string
	failed   bool
	quitting bool
	ready    bool
}

// New creates the root model. The coordinator must already be started.
func New(svc *notes.Service, coord *appsync.Coordinator, defaultFolder string) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView:   ViewList,
		keys:          k,
		notes:         svc,
		coordinator:   coord,
		defaultFolder: defaultFolder,
		noteList:      notelist.New(svc, k, 40, 24),
		detail:        detail.New(80, 24),
		helpView:      helpview.New(k, 120, 24),
		commandView:   command.New(120, 24),
		form:          noteform.New(120, 24),
		folders:       []string{defaultFolder},
	}
}

// Init loads the notes and starts listening for coordinator outcomes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.noteList.Init(),
		waitForOutcome(m.coordinator.Outcomes()),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		listWidth, contentWidth := m.layout.SplitWidths()
		height := m.layout.ContentHeight()
		m.noteList.SetSize(listWidth, height)
		m.detail.SetSize(contentWidth, height)
		m.helpView.SetSize(msg.Width, height)
		m.commandView.SetSize(contentWidth, height)
		m.form.SetSize(msg.Width, height)
		if m.currentView == ViewForm {
			return m.updateActiveView(msg)
		}
		return m, nil

	case outcomeMsg:
		return m.handleOutcome(msg)

	case notelist.NotesLoadedMsg:
		if msg.Err != nil {
			m.setStatus(fmt.Sprintf("loading notes: %v", msg.Err), true)
		} else {
			m.mergeFolders(msg.Notes)
		}
		var cmd tea.Cmd
		m.noteList, cmd = m.noteList.Update(msg)
		return m, cmd

	case notelist.SelectionChangedMsg:
		m.detail.SetNote(msg.Note)
		return m, nil

	case noteChangedMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.setStatus(msg.status, false)
		return m, m.noteList.LoadNotes()

	case noteform.NoteCreatedMsg:
		m.currentView = ViewList
		return m, m.createNote(msg.Folder, msg.Text)

	case noteform.NoteEditedMsg:
		m.currentView = ViewList
		return m, m.editNote(msg.UUID, msg.Text)

	case noteform.CancelMsg, command.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = ViewList
		return m, m.executeCommand(msg)

	case tea.KeyMsg:
		switch m.currentView {
		case ViewList:
			if !m.noteList.Searching() {
				return m.handleListKeys(msg)
			}
		case ViewHelp:
			if key.Matches(msg, m.keys.Help) || msg.String() == "esc" {
				m.currentView = ViewList
			}
			if key.Matches(msg, m.keys.Quit) {
				return m, m.quit()
			}
			return m, nil
		}
	}

	return m.updateActiveView(msg)
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Sync):
		m.submit(appsync.SyncTask())
		return m, nil

	case key.Matches(msg, m.keys.Test):
		m.submit(appsync.TestTask())
		return m, nil

	case key.Matches(msg, m.keys.Merge):
		if note, ok := m.noteList.Selected(); ok {
			m.submit(appsync.MergeTask(note.Metadata.UUID))
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if note, ok := m.noteList.Selected(); ok {
			return m, m.toggleDeleted(note.Metadata.UUID)
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.currentView = ViewForm
		m.form.SetFolders(m.folders)
		folder := m.noteList.Folder()
		if folder == "" {
			folder = m.defaultFolder
		}
		return m, m.form.StartCreate(folder)

	case key.Matches(msg, m.keys.Edit):
		note, ok := m.noteList.Selected()
		if !ok {
			return m, nil
		}
		if note.NeedsMerge() {
			m.setStatus(notes.ErrNeedsMerge.Error(), true)
			return m, nil
		}
		m.currentView = ViewForm
		return m, m.form.StartEdit(*note)

	case key.Matches(msg, m.keys.ContentDown):
		m.detail.ScrollDown()
		return m, nil

	case key.Matches(msg, m.keys.ContentUp):
		m.detail.ScrollUp()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.currentView = ViewHelp
		return m, nil

	case key.Matches(msg, m.keys.Command):
		m.currentView = ViewCommand
		return m, m.commandView.Focus()
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.noteList, cmd = m.noteList.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewForm:
		m.form, cmd = m.form.Update(msg)
	}

	return m, cmd
}

func (m Model) handleOutcome(msg outcomeMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		return m, tea.Quit
	}

	o := msg.outcome
	next := waitForOutcome(m.coordinator.Outcomes())

	switch o.Kind {
	case appsync.OutcomeEnd:
		return m, tea.Quit

	case appsync.OutcomeBusy:
		m.setStatus(fmt.Sprintf("%s rejected: %s is still running", o.Task, m.task), false)
		return m, next

	case appsync.OutcomeFailure:
		m.running = false
		m.setStatus(fmt.Sprintf("%s failed: %s", o.Task, o.Message), true)
		return m, next

	default:
		m.running = false
		m.setStatus(fmt.Sprintf("%s: %s", o.Task, o.Message), false)
		return m, tea.Batch(next, m.noteList.LoadNotes())
	}
}

// submit hands a task to the coordinator and records what is running.
func (m *Model) submit(t appsync.Task) {
	if m.quitting || !m.coordinator.Submit(t) {
		m.setStatus("shutting down", false)
		return
	}
	if !m.running {
		m.running = true
		m.task = t.Kind
		m.setStatus(fmt.Sprintf("%s...", t.Kind), false)
	}
}

// quit asks the coordinator to end; the program exits on OutcomeEnd.
// A second quit exits immediately.
func (m *Model) quit() tea.Cmd {
	if m.quitting {
		return tea.Quit
	}
	m.quitting = true
	if !m.coordinator.Submit(appsync.EndTask()) {
		return tea.Quit
	}
	if m.running {
		m.setStatus(fmt.Sprintf("waiting for %s to finish...", m.task), false)
	}
	return nil
}

func (m *Model) setStatus(text string, failed bool) {
	m.status = text
	m.failed = failed
}

// mergeFolders remembers every folder seen so far for the create form.
func (m *Model) mergeFolders(loaded []model.LocalNote) {
	seen := make(map[string]bool, len(m.folders))
	for _, f := range m.folders {
		seen[f] = true
	}
	for _, n := range loaded {
		if f := n.Metadata.Subfolder; f != "" && !seen[f] {
			seen[f] = true
			m.folders = append(m.folders, f)
		}
	}
	sort.Strings(m.folders)
}

// executeCommand handles a line from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	switch c.Name {
	case "sync":
		m.submit(appsync.SyncTask())
	case "test":
		m.submit(appsync.TestTask())
	case "merge":
		uuid := c.Arg
		if uuid == "" {
			if note, ok := m.noteList.Selected(); ok {
				uuid = note.Metadata.UUID
			}
		}
		if uuid != "" {
			m.submit(appsync.MergeTask(uuid))
		}
	case "new":
		if c.Arg == "" {
			m.setStatus("usage: new <text>", true)
			return nil
		}
		folder := m.noteList.Folder()
		return m.createNote(folder, c.Arg)
	case "folder":
		if c.Arg == "" {
			m.setStatus("showing all folders", false)
		} else {
			m.setStatus("folder "+c.Arg, false)
		}
		return m.noteList.SetFolder(c.Arg)
	case "quit", "q":
		return m.quit()
	default:
		m.setStatus(fmt.Sprintf("unknown command %q", c.Name), true)
	}
	return nil
}

func (m Model) createNote(folder, text string) tea.Cmd {
	svc := m.notes
	return func() tea.Msg {
		note, err := svc.Create(context.Background(), folder, text)
		if err != nil {
			return noteChangedMsg{err: err}
		}
		return noteChangedMsg{status: fmt.Sprintf("created %q in %s", note.Subject(), note.Metadata.Subfolder)}
	}
}

func (m Model) editNote(uuid, text string) tea.Cmd {
	svc := m.notes
	return func() tea.Msg {
		note, err := svc.Edit(context.Background(), uuid, text)
		if errors.Is(err, notes.ErrNeedsMerge) {
			return noteChangedMsg{err: fmt.Errorf("%w: press m first", err)}
		}
		if err != nil {
			return noteChangedMsg{err: err}
		}
		return noteChangedMsg{status: fmt.Sprintf("edited %q", note.Subject())}
	}
}

func (m Model) toggleDeleted(uuid string) tea.Cmd {
	svc := m.notes
	return func() tea.Msg {
		deleted, err := svc.ToggleDeleted(context.Background(), uuid)
		if err != nil {
			return noteChangedMsg{err: err}
		}
		if deleted {
			return noteChangedMsg{status: "marked for deletion"}
		}
		return noteChangedMsg{status: "deletion cancelled"}
	}
}

func waitForOutcome(ch <-chan appsync.Outcome) tea.Cmd {
	return func() tea.Msg {
		o, ok := <-ch
		return outcomeMsg{outcome: o, ok: ok}
	}
}
