package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/theme"
)

// Mode represents the current state of the account setup view.
type Mode int

const (
	ModeForm           Mode = iota // Editing the account fields
	ModeValidating                 // Testing the connection
	ModeValidateResult             // Showing the test result
	ModeDone                       // Saved or aborted
)

// Checker tests an account before it is saved and returns a short
// description of what it found.
type Checker func(ctx context.Context, account model.AccountConfig, password string) (string, error)

// Saver persists an account that passed the check.
type Saver func(account model.AccountConfig, password string) error

// validateResultMsg carries the result of a connection test.
type validateResultMsg struct {
	found string
	err   error
}

// savedMsg is sent after the account was persisted.
type savedMsg struct {
	err error
}

// formBindings holds the huh field values on the heap so their pointers
// survive Bubble Tea model copies.
type formBindings struct {
	email         string
	username      string
	host          string
	port          string
	password      string
	tls           bool
	folderPattern string
	defaultFolder string
}

// Model is the account setup view: a form, a connection test and a save.
type Model struct {
	mode    Mode
	form    *huh.Form
	fb      *formBindings
	base    model.AccountConfig
	check   Checker
	save    Saver
	spinner spinner.Model

	found   string
	err     error
	saved   bool
	aborted bool
	width   int
	height  int
}

// New creates the setup view pre-filled from account.
func New(account model.AccountConfig, check Checker, save Saver) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	m := Model{
		base:    account,
		check:   check,
		save:    save,
		spinner: s,
		width:   80,
		height:  24,
		fb: &formBindings{
			email:         account.Email,
			username:      account.Username,
			host:          account.Host,
			port:          account.Port,
			tls:           account.TLS,
			folderPattern: account.FolderPattern,
			defaultFolder: account.DefaultFolder,
		},
	}
	m.form = m.buildForm()
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the setup view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case validateResultMsg:
		m.mode = ModeValidateResult
		m.found = msg.found
		m.err = msg.err
		return m, nil

	case savedMsg:
		m.err = msg.err
		if msg.err != nil {
			m.mode = ModeValidateResult
			return m, nil
		}
		m.saved = true
		m.mode = ModeDone
		return m, tea.Quit

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.aborted = true
			m.mode = ModeDone
			return m, tea.Quit
		}
		if m.mode == ModeValidateResult {
			return m.handleResultKeys(msg)
		}
	}

	if m.mode != ModeForm {
		return m, nil
	}
	return m.updateForm(msg)
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validate())
	case huh.StateAborted:
		m.aborted = true
		m.mode = ModeDone
		return m, tea.Quit
	}
	return m, cmd
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.err == nil {
			return m, m.persist()
		}
		return m.restartForm()
	case "r":
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validate())
	case "e", "esc":
		return m.restartForm()
	}
	return m, nil
}

func (m Model) restartForm() (tea.Model, tea.Cmd) {
	m.mode = ModeForm
	m.err = nil
	m.form = m.buildForm()
	return m, m.form.Init()
}

// View renders the setup view.
func (m Model) View() string {
	style := lipgloss.NewStyle().Padding(1, 2)
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Account Setup")

	switch m.mode {
	case ModeValidating:
		return style.Render(title + "\n" + fmt.Sprintf("%s Testing connection to %s...", m.spinner.View(), m.fb.host))

	case ModeValidateResult:
		hint := lipgloss.NewStyle().Foreground(theme.ColorGray)
		if m.err != nil {
			errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
			return style.Render(title + "\n" +
				errStyle.Render("Connection failed") + "\n\n" +
				m.err.Error() + "\n\n" +
				hint.Render("r retry | enter/e edit | ctrl+c quit"))
		}
		okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
		return style.Render(title + "\n" +
			okStyle.Render("Connection successful") + "\n\n" +
			m.found + "\n\n" +
			hint.Render("enter save | e edit | ctrl+c quit"))

	case ModeDone:
		return ""

	default:
		return style.Render(title + "\n" + m.form.View())
	}
}

// Saved reports whether the account was stored.
func (m Model) Saved() bool {
	return m.saved
}

// Account returns the account as currently entered.
func (m Model) Account() model.AccountConfig {
	a := m.base
	a.Email = strings.TrimSpace(m.fb.email)
	a.Username = strings.TrimSpace(m.fb.username)
	a.Host = strings.TrimSpace(m.fb.host)
	a.Port = strings.TrimSpace(m.fb.port)
	a.TLS = m.fb.tls
	a.FolderPattern = strings.TrimSpace(m.fb.folderPattern)
	a.DefaultFolder = strings.TrimSpace(m.fb.defaultFolder)
	return a
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) validate() tea.Cmd {
	account := m.Account()
	password := m.fb.password
	check := m.check
	return func() tea.Msg {
		found, err := check(context.Background(), account, password)
		return validateResultMsg{found: found, err: err}
	}
}

func (m Model) persist() tea.Cmd {
	account := m.Account()
	password := m.fb.password
	save := m.save
	return func() tea.Msg {
		return savedMsg{err: save(account, password)}
	}
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("E-mail").
				Description("Written to the From header of pushed notes").
				Placeholder("me@example.com").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Username").
				Description("IMAP login, if different from the e-mail").
				Value(&m.fb.username),
			huh.NewInput().
				Title("Password").
				Description("Stored in the system keyring").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP Host").
				Placeholder("imap.example.com").
				Value(&m.fb.host).
				Validate(validateRequired("IMAP Host")),
			huh.NewInput().
				Title("IMAP Port").
				Placeholder("993").
				Value(&m.fb.port).
				Validate(validatePort),
			huh.NewConfirm().
				Title("Use TLS").
				Description("No uses STARTTLS").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fb.tls),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Folder pattern").
				Description("LIST pattern matching the note folders").
				Placeholder("Notes*").
				Value(&m.fb.folderPattern).
				Validate(validateRequired("Folder pattern")),
			huh.NewInput().
				Title("Default folder").
				Description("Folder for new notes").
				Placeholder("Notes").
				Value(&m.fb.defaultFolder).
				Validate(validateRequired("Default folder")),
		),
	).WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return fmt.Errorf("e-mail must look like name@domain")
	}
	return nil
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}
