package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ImaanAdrees/smartscribe/internal/api"
	"github.com/ImaanAdrees/smartscribe/internal/credential"
	"github.com/ImaanAdrees/smartscribe/internal/inbox"
	"github.com/ImaanAdrees/smartscribe/internal/keys"
	"github.com/ImaanAdrees/smartscribe/internal/realtime"
	"github.com/ImaanAdrees/smartscribe/internal/session"
	"github.com/ImaanAdrees/smartscribe/internal/theme"
	"github.com/ImaanAdrees/smartscribe/internal/ui"
	"github.com/ImaanAdrees/smartscribe/internal/ui/inboxlist"
	"github.com/ImaanAdrees/smartscribe/internal/ui/loginform"
)

// actionTimeout bounds every backend call triggered from the UI.
const actionTimeout = 30 * time.Second

// toastDuration is how long a transient message stays on screen.
const toastDuration = 4 * time.Second

// viewState identifies the active top-level view.
type viewState int

const (
	viewStartup viewState = iota
	viewLogin
	viewInbox
)

// Deps bundles the constructed services the UI drives.
type Deps struct {
	Client   *api.Client
	Creds    credential.Store
	Gate     *session.Gate
	Inbox    *inbox.Inbox
	Manager  *realtime.Manager
	Notifier *Notifier
	Logger   *zap.Logger
}

// Messages produced by the application's own commands.
type sessionRestoredMsg struct{ loggedIn bool }

type loginDoneMsg struct {
	userID string
	err    error
}

type loggedOutMsg struct{}

type inboxChangedMsg struct{}

type toastMsg Toast

type toastExpiredMsg struct{ seq int }

type actionFinishedMsg struct{}

// Model is the root application model. It routes messages to the active
// view and owns all calls into the session and inbox layers.
type Model struct {
	deps   Deps
	keys   *keys.KeyMap
	layout ui.Layout
	logger *zap.Logger

	view     viewState
	ready    bool
	showHelp bool

	loginView loginform.Model
	inboxList inboxlist.Model

	unread  int
	loading bool

	toast    *Toast
	toastSeq int

	width  int
	height int
}

// New creates the root application model.
func New(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	k := keys.DefaultKeyMap()

	return Model{
		deps:      deps,
		keys:      k,
		logger:    logger,
		view:      viewStartup,
		loginView: loginform.New(80, 24),
		inboxList: inboxlist.New(k, 80, 22),
	}
}

// Init starts session restore and the long-lived listeners for inbox
// changes and transient messages.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.restoreSession(),
		m.waitForInboxChange(),
		m.waitForToast(),
	)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.loginView.SetSize(msg.Width, msg.Height)
		m.inboxList.SetSize(msg.Width, m.layout.ContentHeight())
		m.ready = true
		return m, nil

	case sessionRestoredMsg:
		if msg.loggedIn {
			m.view = viewInbox
			return m, m.syncFromInbox()
		}
		m.view = viewLogin
		return m, m.loginView.Init()

	case loginform.SubmitMsg:
		return m, m.login(msg.Email, msg.Password)

	case loginDoneMsg:
		if msg.err != nil {
			return m, m.loginView.SetError(loginErrorText(msg.err))
		}
		m.view = viewInbox
		return m, m.syncFromInbox()

	case loggedOutMsg:
		m.view = viewLogin
		m.showHelp = false
		m.unread = 0
		m.loginView = loginform.New(m.width, m.height)
		return m, m.loginView.Init()

	case inboxChangedMsg:
		return m, tea.Batch(m.syncFromInbox(), m.waitForInboxChange())

	case toastMsg:
		t := Toast(msg)
		m.toast = &t
		m.toastSeq++
		return m, tea.Batch(m.waitForToast(), m.expireToast(m.toastSeq))

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case actionFinishedMsg:
		return m, nil

	case inboxlist.MarkReadMsg:
		return m, m.markRead(msg.ID)

	case inboxlist.DeleteMsg:
		return m, m.deleteNotification(msg.ID)

	case inboxlist.RefreshMsg:
		return m, m.refresh()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.routeToActiveView(msg)
}

// handleKey dispatches key presses, applying global bindings before the
// active view sees the key.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view != viewInbox {
		// The login form owns almost every key; only a hard interrupt
		// bypasses it.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.routeToActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Back):
		if m.showHelp {
			m.showHelp = false
		}
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		return m, m.logout()
	}

	if m.showHelp {
		return m, nil
	}
	return m.routeToActiveView(msg)
}

// routeToActiveView forwards a message to whichever view is on screen.
func (m Model) routeToActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case viewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case viewInbox:
		m.inboxList, cmd = m.inboxList.Update(msg)
	}
	return m, cmd
}

// View renders the active view inside the standard frame.
func (m Model) View() string {
	if !m.ready {
		return "Starting SmartScribe..."
	}

	switch m.view {
	case viewStartup:
		return lipgloss.Place(
			m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			theme.DimmedStyle.Render("Restoring session..."),
		)
	case viewLogin:
		return m.loginView.View()
	}

	header := m.layout.RenderHeader(
		"SmartScribe", m.unreadBadge(), m.connState(),
	)

	var content string
	if m.showHelp {
		content = m.renderHelp()
	} else {
		content = m.inboxList.View()
	}

	if m.toast != nil {
		content = lipgloss.JoinVertical(
			lipgloss.Left,
			m.renderToast(*m.toast),
			content,
		)
	}

	statusBar := m.layout.RenderStatusBar(m.statusHints())
	return m.layout.RenderWithFrame(header, content, statusBar)
}

// unreadBadge formats the header badge, empty when everything is read.
func (m Model) unreadBadge() string {
	if m.unread <= 0 {
		return ""
	}
	return fmt.Sprintf("%d unread", m.unread)
}

// connState describes the push connection for the header.
func (m Model) connState() string {
	if m.deps.Manager != nil && m.deps.Manager.Connected() {
		return "● live"
	}
	return "○ offline"
}

// statusHints builds the status bar text for the inbox view.
func (m Model) statusHints() string {
	hints := "enter: mark read · d: delete · r: refresh · L: log out · ?: help · q: quit"
	if m.showHelp {
		hints = "esc: close help · q: quit"
	}
	if m.loading {
		return "syncing... | " + hints
	}
	return hints
}

// renderHelp draws the expanded keybinding reference.
func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Keyboard shortcuts"))
	b.WriteString("\n\n")

	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}

	return lipgloss.Place(
		m.width, m.layout.ContentHeight(),
		lipgloss.Center, lipgloss.Center,
		theme.PanelStyle.Render(strings.TrimRight(b.String(), "\n")),
	)
}

// renderToast draws a transient message box.
func (m Model) renderToast(t Toast) string {
	text := t.Title
	if t.Message != "" {
		text += "\n" + theme.DimmedStyle.Render(t.Message)
	}
	return theme.ToastStyle(t.Level).Render(text)
}

// syncFromInbox refreshes the rendered list and counters from the inbox
// snapshot.
func (m *Model) syncFromInbox() tea.Cmd {
	ib := m.deps.Inbox
	m.unread = ib.UnreadCount()
	m.loading = ib.IsLoading()
	return m.inboxList.SetNotifications(ib.Notifications())
}

// restoreSession resumes a previous login from the credential store.
func (m Model) restoreSession() tea.Cmd {
	creds := m.deps.Creds
	gate := m.deps.Gate
	logger := m.logger
	return func() tea.Msg {
		token, err := creds.Token()
		if err != nil || token == "" {
			return sessionRestoredMsg{loggedIn: false}
		}
		userID, err := creds.UserID()
		if err != nil {
			logger.Warn("stored session has no user id", zap.Error(err))
			return sessionRestoredMsg{loggedIn: false}
		}
		gate.OnLoginStateChange(true, userID)
		return sessionRestoredMsg{loggedIn: true}
	}
}

// login authenticates, persists the session, and brings the
// notification layer up.
func (m Model) login(email, password string) tea.Cmd {
	deps := m.deps
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		result, err := deps.Client.Login(ctx, email, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		if err := deps.Creds.SaveSession(result.Token, result.UserID); err != nil {
			logger.Warn("saving session failed", zap.Error(err))
		}
		deps.Gate.OnLoginStateChange(true, result.UserID)
		return loginDoneMsg{userID: result.UserID}
	}
}

// logout tears the session down and clears stored credentials.
func (m Model) logout() tea.Cmd {
	deps := m.deps
	logger := m.logger
	return func() tea.Msg {
		deps.Gate.OnLoginStateChange(false, "")
		if err := deps.Creds.ClearSession(); err != nil {
			logger.Warn("clearing session failed", zap.Error(err))
		}
		return loggedOutMsg{}
	}
}

// markRead asks the inbox to confirm and apply a read flag.
func (m Model) markRead(id string) tea.Cmd {
	ib := m.deps.Inbox
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		ib.MarkAsRead(ctx, id)
		return actionFinishedMsg{}
	}
}

// deleteNotification asks the inbox to delete optimistically.
func (m Model) deleteNotification(id string) tea.Cmd {
	ib := m.deps.Inbox
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		ib.Delete(ctx, id)
		return actionFinishedMsg{}
	}
}

// refresh triggers a manual full fetch.
func (m Model) refresh() tea.Cmd {
	ib := m.deps.Inbox
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		ib.Fetch(ctx)
		return actionFinishedMsg{}
	}
}

// waitForInboxChange blocks until the inbox signals a state change.
func (m Model) waitForInboxChange() tea.Cmd {
	updates := m.deps.Inbox.Updates()
	return func() tea.Msg {
		<-updates
		return inboxChangedMsg{}
	}
}

// waitForToast blocks until the notifier queues a transient message.
func (m Model) waitForToast() tea.Cmd {
	toasts := m.deps.Notifier.Toasts()
	return func() tea.Msg {
		return toastMsg(<-toasts)
	}
}

// expireToast clears the toast after its display time, unless a newer
// one replaced it.
func (m Model) expireToast(seq int) tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

// loginErrorText maps a login failure to a short form-level message.
func loginErrorText(err error) string {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	if api.IsAuthError(err) {
		return "Invalid email or password"
	}
	return "Login failed. Check the backend URL and try again."
}
