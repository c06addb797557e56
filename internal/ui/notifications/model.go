package notifications

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hvaldez/taskmovil/internal/keys"
	"github.com/hvaldez/taskmovil/internal/model"
	"github.com/hvaldez/taskmovil/internal/theme"
)

// MarkReadMsg is sent when the user selects an unread notification.
type MarkReadMsg struct {
	NotificationID string
}

// item wraps a model.Notification for bubbles/list.
type item struct {
	n model.Notification
}

func (i item) FilterValue() string { return i.n.Title }

// delegate renders a single notification line.
type delegate struct{}

func (d delegate) Height() int  { return 1 }
func (d delegate) Spacing() int { return 0 }

func (d delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d delegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(item)
	if !ok {
		return
	}

	n := it.n
	isSelected := index == m.Index()

	marker := "●"
	if n.IsRead {
		marker = " "
	}

	category := theme.CategoryStyle(n.Category).Render(categoryLabel(n.Category))
	age := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(n.CreatedAt))

	line := fmt.Sprintf("%s %s %s — %s  %s", marker, category, n.Title, n.Message, age)
	if n.IsRead {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Model is the notification list view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new notification list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, delegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
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

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// SetNotifications replaces the displayed notification list.
func (m *Model) SetNotifications(ns []model.Notification) {
	items := make([]list.Item, len(ns))
	for i, n := range ns {
		items[i] = item{n: n}
	}
	m.list.SetItems(items)
}

// Update handles messages for the notification view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.Select) {
			if it, ok := m.list.SelectedItem().(item); ok && !it.n.IsRead {
				id := it.n.ID
				return m, func() tea.Msg {
					return MarkReadMsg{NotificationID: id}
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the notification list.
func (m Model) View() string {
	return m.list.View()
}

// categoryLabel returns a short badge label for a category.
func categoryLabel(category string) string {
	switch category {
	case model.CategoryAssigned:
		return "ASSIGNED"
	case model.CategoryOverdue:
		return "OVERDUE"
	case model.CategoryEscalated:
		return "ESCALATED"
	case model.CategorySystem:
		return "SYSTEM"
	default:
		return "OTHER"
	}
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
