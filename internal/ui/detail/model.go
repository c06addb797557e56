package detail

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hvaldez/taskmovil/internal/keys"
	"github.com/hvaldez/taskmovil/internal/model"
	"github.com/hvaldez/taskmovil/internal/theme"
)

// AdvanceMsg is sent when the user advances the shown task to its next
// workflow status.
type AdvanceMsg struct {
	TaskID string
	Status string
}

// Model is the single-task detail view.
type Model struct {
	task      model.Task
	fromCache bool
	keys      *keys.KeyMap
	width     int
	height    int
}

// New creates a new task detail model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetTask replaces the displayed task. fromCache marks the record as
// served from the local cache instead of the backend.
func (m *Model) SetTask(task model.Task, fromCache bool) {
	m.task = task
	m.fromCache = fromCache
}

// Task returns the task currently shown.
func (m Model) Task() model.Task {
	return m.task
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.Select) {
			if next := m.task.NextStatus(); next != m.task.Status {
				id := m.task.ID
				return m, func() tea.Msg {
					return AdvanceMsg{TaskID: id, Status: next}
				}
			}
		}
	}
	return m, nil
}

// View renders the task detail panel.
func (m Model) View() string {
	t := m.task
	if t.ID == "" {
		return theme.HelpStyle.Render("No task selected.")
	}

	title := theme.HeaderStyle.Render(t.Title)
	badges := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.StatusStyle(t.Status).Render(t.Status),
		" ",
		theme.PriorityStyle(t.Priority).Render(t.Priority),
	)

	rows := []string{
		title,
		badges,
		"",
	}
	if t.Description != "" {
		rows = append(rows, t.Description, "")
	}

	if t.AssigneeName != "" {
		rows = append(rows, fieldRow("Assignee", t.AssigneeName))
	}
	rows = append(rows,
		fieldRow("Due", formatTime(t.DueDate)),
		fieldRow("Created", formatTime(t.CreatedAt)),
		fieldRow("Updated", formatTime(t.UpdatedAt)),
	)

	if next := t.NextStatus(); next != t.Status {
		rows = append(rows, "",
			theme.HelpStyle.Render(fmt.Sprintf("enter: move to %s", next)))
	}
	if m.fromCache {
		rows = append(rows, "",
			theme.DimmedStyle.Render("shown from local cache"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		theme.BorderStyle.Padding(1, 3).Width(min(m.width-4, 72)).Render(content),
	)
}

func fieldRow(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		theme.DimmedStyle.Width(10).Render(label),
		value,
	)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("Jan 02, 2006 15:04")
}
