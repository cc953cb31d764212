package inboxlist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ImaanAdrees/smartscribe/internal/keys"
	"github.com/ImaanAdrees/smartscribe/internal/model"
	"github.com/ImaanAdrees/smartscribe/internal/theme"
)

// MarkReadMsg asks the application to mark a notification as read.
type MarkReadMsg struct {
	ID string
}

// DeleteMsg asks the application to delete a notification.
type DeleteMsg struct {
	ID string
}

// RefreshMsg asks the application to re-fetch the notification list.
type RefreshMsg struct{}

// Model is the notification inbox list view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new inbox list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, Delegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetNotifications replaces the rendered items with the given snapshot,
// keeping the cursor on the same position where possible.
func (m *Model) SetNotifications(notifications []model.Notification) tea.Cmd {
	items := make([]list.Item, len(notifications))
	for i, n := range notifications {
		items[i] = Item{Notification: n}
	}
	return m.list.SetItems(items)
}

// Update handles messages for the inbox list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.MarkRead):
			item, ok := m.list.SelectedItem().(Item)
			if !ok {
				return m, nil
			}
			id := item.Notification.ID
			return m, func() tea.Msg {
				return MarkReadMsg{ID: id}
			}

		case key.Matches(msg, m.keys.Delete):
			item, ok := m.list.SelectedItem().(Item)
			if !ok {
				return m, nil
			}
			id := item.Notification.ID
			return m, func() tea.Msg {
				return DeleteMsg{ID: id}
			}

		case key.Matches(msg, m.keys.Refresh):
			return m, func() tea.Msg {
				return RefreshMsg{}
			}
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn).
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the inbox list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when no notifications exist.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	return style.Render(
		"No notifications yet.\n\n" +
			"New ones appear here in real time.",
	)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
