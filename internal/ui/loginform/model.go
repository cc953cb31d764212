package loginform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ImaanAdrees/smartscribe/internal/theme"
)

// SubmitMsg carries the completed login credentials.
type SubmitMsg struct {
	Email    string
	Password string
}

// Model is the login form view.
type Model struct {
	form     *huh.Form
	email    string
	password string
	errMsg   string
	width    int
	height   int
}

// New creates a new login form model.
func New(width, height int) Model {
	m := Model{
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

// buildForm constructs the email/password form.
func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth())
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// SetError displays a login failure message and re-arms the form.
func (m *Model) SetError(msg string) tea.Cmd {
	m.errMsg = msg
	m.password = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the login form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		email := m.email
		password := m.password
		return m, func() tea.Msg {
			return SubmitMsg{Email: email, Password: password}
		}
	}
	if m.form.State == huh.StateAborted {
		return m, tea.Quit
	}

	return m, cmd
}

// View renders the login form.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Sign in to SmartScribe")

	parts := []string{title}
	if m.errMsg != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render(m.errMsg))
	}
	parts = append(parts, m.form.View())

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		theme.PanelStyle.Width(m.formWidth()+4).Render(content),
	)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// formWidth returns the inner width for form fields.
func (m Model) formWidth() int {
	w := m.width - 12
	if w > 48 {
		w = 48
	}
	if w < 24 {
		w = 24
	}
	return w
}

// validateRequired returns a validator that rejects empty input.
func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// validateEmail rejects input without a plausible email shape.
func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("Email is required")
	}
	if !strings.Contains(s, "@") {
		return fmt.Errorf("not a valid email address")
	}
	return nil
}
