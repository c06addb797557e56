package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hvaldez/taskmovil/internal/model"
	"github.com/hvaldez/taskmovil/internal/theme"
)

// StalenessThreshold defines how old FetchedAt can be before a task is
// considered stale and marked in the list.
var StalenessThreshold = 5 * time.Minute

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{
		i.Task.Status,
		i.Task.Priority,
		dueLabel(i.Task.DueDate),
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering task lines.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}

	task := ti.Task
	isSelected := index == m.Index()

	statusBadge := theme.StatusStyle(task.Status).Render(task.Status)
	priBadge := theme.PriorityStyle(task.Priority).Render(priorityLabel(task.Priority))

	dueStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(dueLabel(task.DueDate))

	staleIndicator := ""
	if !task.FetchedAt.IsZero() && time.Since(task.FetchedAt) > StalenessThreshold {
		staleIndicator = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render(" ●")
	}

	line := fmt.Sprintf(
		"%s %s %s%s  %s",
		statusBadge, priBadge, task.Title, staleIndicator, dueStr,
	)

	if task.Status == model.StatusCompleted {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// dueLabel returns a human-friendly label for the due date.
func dueLabel(due time.Time) string {
	if due.IsZero() {
		return ""
	}

	d := time.Until(due)
	switch {
	case d < 0:
		return "overdue"
	case d < 24*time.Hour:
		return "due today"
	case d < 48*time.Hour:
		return "due tomorrow"
	default:
		return "due " + due.Format("Jan 02")
	}
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(priority string) string {
	switch priority {
	case model.PriorityCritical:
		return "P1"
	case model.PriorityUrgent:
		return "P2"
	case model.PriorityHigh:
		return "P3"
	case model.PriorityMedium:
		return "P4"
	case model.PriorityLow:
		return "P5"
	default:
		return "P?"
	}
}
