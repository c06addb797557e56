package login

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/hvaldez/taskmovil/internal/theme"
)

// SubmitMsg is dispatched when the user completes the login form.
type SubmitMsg struct {
	Username string
	Password string
}

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	username string
	password string
}

// Model is the login form view.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	errText string
	busy    bool
	width   int
	height  int
}

// New creates a new login form model.
func New(width, height int) Model {
	m := Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

// buildForm constructs a fresh username/password form.
func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&m.fb.username),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password),
		),
	).WithShowHelp(false)
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetError shows an inline error (failed login, expired session) and
// resets the form for another attempt.
func (m *Model) SetError(text string) tea.Cmd {
	m.errText = text
	m.busy = false
	m.fb.password = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the login form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.busy = true
		username := m.fb.username
		password := m.fb.password
		return m, tea.Batch(cmd, func() tea.Msg {
			return SubmitMsg{Username: username, Password: password}
		})
	}

	return m, cmd
}

// View renders the login form with any inline error.
func (m Model) View() string {
	title := theme.HeaderStyle.Render("TaskMóvil — Sign in")

	body := m.form.View()
	if m.busy {
		body = theme.HelpStyle.Render("Signing in...")
	}

	parts := []string{title, "", body}
	if m.errText != "" {
		parts = append(parts, "", theme.ErrorStyle.Render(m.errText))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		theme.BorderStyle.Padding(1, 3).Render(content),
	)
}
