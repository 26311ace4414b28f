package app

import "fmt"

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("notesync", m.coordinatorState())
	statusBar := m.layout.RenderStatusBar(m.statusText(), m.failed)

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.layout.RenderSplit(m.noteList.View(), m.commandView.View())
	case ViewForm:
		return m.form.View()
	default:
		return m.layout.RenderSplit(m.noteList.View(), m.detail.View())
	}
}

func (m Model) coordinatorState() string {
	switch {
	case m.quitting:
		return "stopping"
	case m.running:
		return fmt.Sprintf("%s running", m.task)
	default:
		return "idle"
	}
}

// statusText shows the last outcome, or the key hints when there is none.
func (m Model) statusText() string {
	if m.status != "" {
		return m.status
	}
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc cancel"
	case ViewForm:
		return "tab next field | enter submit | ctrl+c cancel"
	}
	if kw := m.noteList.Keyword(); kw != "" {
		return fmt.Sprintf("filter %q | c clear", kw)
	}
	return m.helpView.ShortView()
}
