// Package app wires the session manager, the notification sync engine,
// and the terminal views into the root Bubble Tea model.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hvaldez/taskmovil/internal/api"
	"github.com/hvaldez/taskmovil/internal/keys"
	"github.com/hvaldez/taskmovil/internal/model"
	"github.com/hvaldez/taskmovil/internal/notify"
	"github.com/hvaldez/taskmovil/internal/push"
	"github.com/hvaldez/taskmovil/internal/session"
	"github.com/hvaldez/taskmovil/internal/store"
	"github.com/hvaldez/taskmovil/internal/ui"
	"github.com/hvaldez/taskmovil/internal/ui/detail"
	loginview "github.com/hvaldez/taskmovil/internal/ui/login"
	notifview "github.com/hvaldez/taskmovil/internal/ui/notifications"
	"github.com/hvaldez/taskmovil/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewTasks
	ViewTaskDetail
	ViewNotifications
)

// loginResultMsg carries the outcome of a login attempt.
type loginResultMsg struct {
	err error
}

// tasksLoadedMsg carries a fetched (or cached) task list.
type tasksLoadedMsg struct {
	tasks     []model.Task
	fromCache bool
	err       error
}

// markReadResultMsg carries the outcome of a mark-as-read call.
type markReadResultMsg struct {
	err error
}

// taskUpdatedMsg carries the outcome of a task status change.
type taskUpdatedMsg struct {
	task model.Task
	err  error
}

// taskDetailMsg carries a freshly fetched (or cached) single task.
type taskDetailMsg struct {
	task      model.Task
	fromCache bool
	err       error
}

// pushRegisteredMsg carries the outcome of push-token registration.
type pushRegisteredMsg struct {
	err error
}

// Deps are the collaborators the root model is constructed with.
type Deps struct {
	Session   *session.Manager
	Engine    *notify.Engine
	Client    *api.Client
	Cache     store.Store
	Registrar *push.Registrar
	Log       *slog.Logger
}

// Model is the root Bubble Tea model that routes views and reacts to
// session and sync engine events.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	keys        *keys.KeyMap

	session   *session.Manager
	engine    *notify.Engine
	client    *api.Client
	cache     store.Store
	registrar *push.Registrar
	log       *slog.Logger

	loginView  loginview.Model
	taskList   tasklist.Model
	detailView detail.Model
	notifView  notifview.Model
	unread     int
	syncStatus string
	statusNote string
}

// New creates the root application model.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()

	view := ViewLogin
	if deps.Session.Authenticated() {
		view = ViewTasks
	}

	return Model{
		currentView: view,
		layout:      ui.NewLayout(80, 24),
		keys:        k,
		session:     deps.Session,
		engine:      deps.Engine,
		client:      deps.Client,
		cache:       deps.Cache,
		registrar:   deps.Registrar,
		log:         deps.Log,
		loginView:   loginview.New(80, 24),
		taskList:    tasklist.New(k, 80, 22),
		detailView:  detail.New(k, 80, 22),
		notifView:   notifview.New(k, 80, 22),
		syncStatus:  "idle",
	}
}

// Init subscribes to engine events and kicks off the first task load.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.engine.WaitForEvent()}

	if m.currentView == ViewLogin {
		cmds = append(cmds, m.loginView.Init())
	} else {
		cmds = append(cmds, m.loadTasks())
	}

	return tea.Batch(cmds...)
}

// Update handles all application messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.loginView.SetSize(msg.Width, msg.Height)
		m.taskList.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.detailView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.notifView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		return m, nil

	// Terminal focus is this client's foreground/background signal.
	case tea.FocusMsg:
		m.engine.SetForeground(true)
		return m, nil
	case tea.BlurMsg:
		m.engine.SetForeground(false)
		return m, nil

	case notify.SyncStartedMsg:
		m.syncStatus = "syncing..."
		return m, m.engine.WaitForEvent()

	case notify.SyncedMsg:
		m.unread = msg.Unread
		m.syncStatus = "synced " + time.Now().Format("15:04")
		m.notifView.SetNotifications(msg.Notifications)
		return m, m.engine.WaitForEvent()

	case notify.SyncErrorMsg:
		// Stale data stays on screen; only the status line changes.
		m.syncStatus = "offline"
		return m, m.engine.WaitForEvent()

	case notify.SessionExpiredMsg:
		next, cmd := m.forceLogout("Your session has expired. Please sign in again.")
		return next, tea.Batch(cmd, m.engine.WaitForEvent())

	case loginview.SubmitMsg:
		return m, m.doLogin(msg.Username, msg.Password)

	case loginResultMsg:
		if msg.err != nil {
			m.log.Warn("login failed", "error", msg.err)
			cmd := m.loginView.SetError(loginErrorText(msg.err))
			return m, cmd
		}
		m.currentView = ViewTasks
		m.statusNote = ""
		return m, tea.Batch(m.loadTasks(), m.registerPush())

	case tasksLoadedMsg:
		if msg.err != nil && errors.Is(msg.err, api.ErrSessionExpired) {
			return m.forceLogout("Your session has expired. Please sign in again.")
		}
		if msg.fromCache {
			m.statusNote = "showing cached tasks"
		} else {
			m.statusNote = ""
		}
		m.taskList.SetTasks(msg.tasks)
		return m, nil

	case notifview.MarkReadMsg:
		return m, m.markRead(msg.NotificationID)

	case taskUpdatedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrSessionExpired) {
				return m.forceLogout("Your session has expired. Please sign in again.")
			}
			m.statusNote = "updating task failed"
			return m, nil
		}
		m.statusNote = ""
		if m.currentView == ViewTaskDetail {
			m.detailView.SetTask(msg.task, false)
		}
		return m, m.loadTasks()

	case taskDetailMsg:
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrSessionExpired) {
				return m.forceLogout("Your session has expired. Please sign in again.")
			}
			m.statusNote = "couldn't refresh task"
			return m, nil
		}
		m.detailView.SetTask(msg.task, msg.fromCache)
		if msg.fromCache {
			m.statusNote = "showing cached task"
		}
		return m, nil

	case detail.AdvanceMsg:
		return m, m.advanceTask(msg.TaskID, msg.Status)

	case markReadResultMsg:
		if msg.err != nil {
			m.statusNote = "couldn't mark as read, will retry on next sync"
		}
		m.notifView.SetNotifications(m.engine.Notifications())
		m.unread = m.engine.UnreadCount()
		return m, nil

	case pushRegisteredMsg:
		if msg.err != nil {
			// Not fatal: polling still covers notifications.
			m.log.Warn("push registration failed", "error", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m.updateCurrentView(msg)
}

// handleKeys routes key input, applying global shortcuts first.
func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.currentView == ViewLogin {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.updateCurrentView(msg)
	}

	if m.currentView == ViewTasks && m.taskList.Searching() {
		return m.updateCurrentView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Tasks):
		m.currentView = ViewTasks
		return m, nil

	case key.Matches(msg, m.keys.Notifications):
		m.currentView = ViewNotifications
		m.notifView.SetNotifications(m.engine.Notifications())
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.engine.Refresh()
		if m.currentView == ViewTaskDetail {
			return m, tea.Batch(m.loadTasks(), m.loadTaskDetail(m.detailView.Task().ID))
		}
		return m, m.loadTasks()

	case key.Matches(msg, m.keys.Logout):
		return m.forceLogout("")

	case key.Matches(msg, m.keys.Select) && m.currentView == ViewTasks:
		if task, ok := m.taskList.SelectedTask(); ok {
			// Show the cached copy right away; the fetch refreshes it.
			m.detailView.SetTask(task, false)
			m.currentView = ViewTaskDetail
			m.statusNote = ""
			return m, m.loadTaskDetail(task.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.currentView = ViewTasks
		m.statusNote = ""
		return m, nil
	}

	return m.updateCurrentView(msg)
}

// updateCurrentView forwards a message to the active view.
func (m Model) updateCurrentView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewTaskDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	}
	return m, cmd
}

// forceLogout tears the session down and returns to the login view.
// The session manager's observers stop the sync engine.
func (m Model) forceLogout(reason string) (Model, tea.Cmd) {
	m.session.Logout()
	m.currentView = ViewLogin
	m.unread = 0
	m.syncStatus = "idle"
	m.statusNote = ""
	if reason != "" {
		return m, m.loginView.SetError(reason)
	}
	m.loginView = loginview.New(m.layout.Width, m.layout.Height)
	return m, m.loginView.Init()
}

// doLogin attempts a login off the UI goroutine.
func (m Model) doLogin(username, password string) tea.Cmd {
	mgr := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return loginResultMsg{err: mgr.Login(ctx, username, password)}
	}
}

// loadTasks fetches the user's tasks, refreshing the local cache. When
// the backend is unreachable the cache is served instead.
func (m Model) loadTasks() tea.Cmd {
	client := m.client
	cache := m.cache
	log := m.log
	user, _ := m.session.Current()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		tasks, err := client.Tasks(ctx, user.ID)
		if err == nil {
			now := time.Now()
			for i := range tasks {
				tasks[i].FetchedAt = now
			}
			if cacheErr := cache.UpsertTasks(ctx, tasks); cacheErr != nil {
				log.Warn("caching tasks failed", "error", cacheErr)
			}
			return tasksLoadedMsg{tasks: tasks}
		}

		if errors.Is(err, api.ErrSessionExpired) {
			return tasksLoadedMsg{err: err}
		}

		log.Warn("fetching tasks failed, falling back to cache", "error", err)
		cached, cacheErr := cache.GetTasks(ctx, store.TaskFilter{})
		if cacheErr != nil {
			log.Warn("reading task cache failed", "error", cacheErr)
			return tasksLoadedMsg{err: err}
		}
		return tasksLoadedMsg{tasks: cached, fromCache: true, err: err}
	}
}

// loadTaskDetail fetches a single task fresh, caching it; the cache is
// served when the backend is unreachable.
func (m Model) loadTaskDetail(id string) tea.Cmd {
	client := m.client
	cache := m.cache
	log := m.log

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		task, err := client.Task(ctx, id)
		if err == nil {
			task.FetchedAt = time.Now()
			if cacheErr := cache.UpsertTasks(ctx, []model.Task{task}); cacheErr != nil {
				log.Warn("caching task failed", "task", id, "error", cacheErr)
			}
			return taskDetailMsg{task: task}
		}

		if errors.Is(err, api.ErrSessionExpired) {
			return taskDetailMsg{err: err}
		}

		log.Warn("fetching task failed, falling back to cache", "task", id, "error", err)
		cached, cacheErr := cache.GetTaskByID(ctx, id)
		if cacheErr != nil || cached == nil {
			return taskDetailMsg{err: err}
		}
		return taskDetailMsg{task: *cached, fromCache: true}
	}
}

// advanceTask moves a task to its next workflow status on the backend.
func (m Model) advanceTask(id, status string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		task, err := client.UpdateTaskStatus(ctx, id, status)
		return taskUpdatedMsg{task: task, err: err}
	}
}

// markRead marks a notification read through the sync engine.
func (m Model) markRead(id string) tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return markReadResultMsg{err: engine.MarkAsRead(ctx, id)}
	}
}

// registerPush registers this install's push token, best-effort.
func (m Model) registerPush() tea.Cmd {
	registrar := m.registrar
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return pushRegisteredMsg{err: registrar.Register(ctx)}
	}
}

// loginErrorText maps a login failure to a user-facing message.
func loginErrorText(err error) string {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) && httpErr.Status == 401 {
		return "Invalid username or password."
	}
	return "Could not sign in: " + err.Error()
}

// View renders the full terminal frame.
func (m Model) View() string {
	if m.currentView == ViewLogin {
		return m.loginView.View()
	}

	title := "TaskMóvil"
	if user, ok := m.session.Current(); ok {
		title = fmt.Sprintf("TaskMóvil — %s", user.FullName)
	}

	header := m.layout.RenderHeader(title, m.unread, m.syncStatus)

	var content string
	switch m.currentView {
	case ViewTasks:
		content = m.taskList.View()
	case ViewTaskDetail:
		content = m.detailView.View()
	case ViewNotifications:
		content = m.notifView.View()
	}

	hints := "enter open · t tasks · n notifications · r refresh · tab sort · / search · ctrl+l log out · q quit"
	if m.currentView == ViewTaskDetail {
		hints = "enter advance · esc back · r refresh · ctrl+l log out · q quit"
	}
	if m.statusNote != "" {
		hints = m.statusNote + "  |  " + hints
	}
	statusBar := m.layout.RenderStatusBar(hints)

	return m.layout.RenderWithFrame(header, content, statusBar)
}
