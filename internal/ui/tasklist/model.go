package tasklist

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hvaldez/taskmovil/internal/keys"
	"github.com/hvaldez/taskmovil/internal/model"
	"github.com/hvaldez/taskmovil/internal/theme"
)

// sortModes are cycled by Tab.
var sortModes = []string{"due_date", "priority", "status", "title"}

// Model is the task list view.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	tasks       []model.Task
	sortIndex   int
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new task list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "My Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search tasks..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}

// SetTasks replaces the backing task list and re-renders.
func (m *Model) SetTasks(tasks []model.Task) {
	m.tasks = tasks
	m.apply()
}

// apply re-sorts and re-filters the visible items.
func (m *Model) apply() {
	visible := make([]model.Task, 0, len(m.tasks))
	query := strings.ToLower(m.searchInput.Value())
	for _, t := range m.tasks {
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		visible = append(visible, t)
	}

	switch sortModes[m.sortIndex] {
	case "priority":
		sort.SliceStable(visible, func(i, j int) bool {
			return visible[i].PriorityRank() > visible[j].PriorityRank()
		})
	case "status":
		sort.SliceStable(visible, func(i, j int) bool {
			return visible[i].Status < visible[j].Status
		})
	case "title":
		sort.SliceStable(visible, func(i, j int) bool {
			return visible[i].Title < visible[j].Title
		})
	default: // due_date
		sort.SliceStable(visible, func(i, j int) bool {
			return visible[i].DueDate.Before(visible[j].DueDate)
		})
	}

	items := make([]list.Item, len(visible))
	for i, t := range visible {
		items[i] = TaskItem{Task: t}
	}
	m.list.SetItems(items)
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(keyMsg)
		}

		switch {
		case key.Matches(keyMsg, m.keys.Search):
			m.searchMode = true
			m.searchInput.Focus()
			return m, textinput.Blink

		case key.Matches(keyMsg, m.keys.CycleSort):
			m.sortIndex = (m.sortIndex + 1) % len(sortModes)
			m.apply()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searchMode = false
		if msg.String() == "esc" {
			m.searchInput.SetValue("")
		}
		m.searchInput.Blur()
		m.apply()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.apply()
	return m, cmd
}

// View renders the task list.
func (m Model) View() string {
	if m.searchMode {
		return m.searchInput.View() + "\n" + m.list.View()
	}
	return m.list.View()
}

// SelectedTask returns the task under the cursor, if any.
func (m Model) SelectedTask() (model.Task, bool) {
	it, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return it.Task, true
}

// SortMode returns the active sort mode label for the status bar.
func (m Model) SortMode() string {
	return sortModes[m.sortIndex]
}

// Searching reports whether the search input currently has focus, so
// the app can stop treating letter keys as global shortcuts.
func (m Model) Searching() bool {
	return m.searchMode
}
