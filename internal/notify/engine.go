// Package notify keeps the local view of server-side notifications
// fresh. It polls the backend while the app is both in the foreground
// and authenticated, detects records that arrived since the last
// successful check, and hands them to the local alert scheduler exactly
// once.
package notify

import (
	"context"
	"errors"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hvaldez/taskmovil/internal/alert"
	"github.com/hvaldez/taskmovil/internal/api"
	"github.com/hvaldez/taskmovil/internal/model"
)

// SyncedMsg is a tea.Msg sent when a fetch cycle completes successfully.
type SyncedMsg struct {
	Notifications []model.Notification
	Unread        int
	NewAlerts     int
}

// SyncStartedMsg is a tea.Msg sent when a user-triggered refresh begins,
// so the UI can show a loading indicator.
type SyncStartedMsg struct{}

// SyncErrorMsg is a tea.Msg sent when a fetch cycle fails with an
// ordinary remote error. Prior state is left untouched.
type SyncErrorMsg struct {
	Err error
}

// SessionExpiredMsg is a tea.Msg sent when a fetch cycle failed because
// the session expired locally. The receiver must force a logout; the
// engine never retries this condition.
type SessionExpiredMsg struct{}

// API is the slice of the remote client the engine fetches through.
type API interface {
	Notifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// fetchTimeout is the maximum time allowed for a single fetch cycle.
const fetchTimeout = 30 * time.Second

// Engine is the notification sync engine. Polling is active exactly
// when the app is in the foreground and a session is established; any
// other combination stops the timer. At most one fetch cycle runs at a
// time; ticks that fire mid-cycle are skipped, not queued.
type Engine struct {
	api       API
	scheduler alert.Scheduler
	interval  time.Duration
	log       *slog.Logger
	now       func() time.Time

	mu            gosync.Mutex
	notifications []model.Notification
	unread        int
	lastChecked   time.Time
	inFlight      bool
	foreground    bool
	authenticated bool
	running       bool
	stopCh        chan struct{}

	eventCh chan tea.Msg
}

// New creates an engine polling through client on the given interval.
// The engine starts in the foreground, unauthenticated, with no
// watermark; nothing is fetched until a session is established.
func New(client API, scheduler alert.Scheduler, interval time.Duration, log *slog.Logger) *Engine {
	return &Engine{
		api:        client,
		scheduler:  scheduler,
		interval:   interval,
		log:        log,
		now:        time.Now,
		foreground: true,
		eventCh:    make(chan tea.Msg, 16),
	}
}

// SetAuthenticated updates the auth axis. Becoming authenticated while
// in the foreground triggers one immediate fetch and starts the timer.
// Becoming unauthenticated clears the notification list, resets the
// unread count, and stops the timer.
func (e *Engine) SetAuthenticated(authenticated bool) {
	e.mu.Lock()
	if e.authenticated == authenticated {
		e.mu.Unlock()
		return
	}
	e.authenticated = authenticated
	if !authenticated {
		e.notifications = nil
		e.unread = 0
	}
	e.recomputeLocked()
	e.mu.Unlock()
}

// SetForeground updates the lifecycle axis. Returning to the foreground
// while authenticated triggers one immediate catch-up fetch in addition
// to resuming the timer; going to the background stops the timer.
func (e *Engine) SetForeground(foreground bool) {
	e.mu.Lock()
	if e.foreground == foreground {
		e.mu.Unlock()
		return
	}
	e.foreground = foreground
	e.recomputeLocked()
	e.mu.Unlock()
}

// recomputeLocked starts or stops the polling timer so it matches the
// effective state (foreground AND authenticated). Transitions into the
// active state also kick off one immediate fetch. Callers hold e.mu.
func (e *Engine) recomputeLocked() {
	active := e.foreground && e.authenticated

	switch {
	case active && !e.running:
		e.stopCh = make(chan struct{})
		e.running = true
		go e.loop(e.stopCh)
		go e.syncOnce(false)
	case !active && e.running:
		close(e.stopCh)
		e.running = false
	}
}

// loop runs the repeating fetch timer until stopCh closes.
func (e *Engine) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			e.syncOnce(false)
		}
	}
}

// Polling reports whether the repeating timer is currently active.
func (e *Engine) Polling() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Refresh triggers one user-visible fetch cycle outside the timer.
func (e *Engine) Refresh() {
	go e.syncOnce(true)
}

// Shutdown stops polling and cancels any pending alerts. Used on
// application teardown.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	if e.running {
		close(e.stopCh)
		e.running = false
	}
	e.mu.Unlock()

	e.scheduler.CancelAll()
}

// syncOnce performs a single fetch cycle. A cycle that would overlap an
// in-flight one is skipped so requests never pile up and a slow cycle
// can never regress the watermark of a faster one that finished later.
func (e *Engine) syncOnce(showLoading bool) {
	e.mu.Lock()
	if !e.authenticated || e.inFlight {
		e.mu.Unlock()
		return
	}
	e.inFlight = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
	}()

	if showLoading {
		e.send(SyncStartedMsg{})
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	fetched, err := e.api.Notifications(ctx)
	if err != nil {
		if errors.Is(err, api.ErrSessionExpired) {
			e.log.Warn("session expired during sync")
			e.send(SessionExpiredMsg{})
			return
		}
		// Ordinary remote failure: keep showing the prior state.
		e.log.Warn("notification sync failed", "error", err)
		e.send(SyncErrorMsg{Err: err})
		return
	}

	completedAt := e.now()

	e.mu.Lock()
	// The server is authoritative; replace the list wholesale.
	e.notifications = fetched
	e.unread = model.CountUnread(fetched)

	// Records created after the watermark and still unread are new
	// since the last check. No watermark yet means first run: nothing
	// is alerted, everything is considered seen.
	var fresh []model.Notification
	if !e.lastChecked.IsZero() {
		for _, n := range fetched {
			if n.CreatedAt.After(e.lastChecked) && !n.IsRead {
				fresh = append(fresh, n)
			}
		}
	}

	// Watermark only moves forward, and only by a completed cycle.
	if completedAt.After(e.lastChecked) {
		e.lastChecked = completedAt
	}
	e.mu.Unlock()

	for _, n := range fresh {
		if err := e.scheduler.ScheduleNow(n.Title, n.Message); err != nil {
			if err := e.scheduler.ScheduleNow(n.Title, n.Message); err != nil {
				e.log.Warn("scheduling alert failed", "notification", n.ID, "error", err)
			}
		}
	}

	e.send(SyncedMsg{
		Notifications: fetched,
		Unread:        model.CountUnread(fetched),
		NewAlerts:     len(fresh),
	})
}

// MarkAsRead optimistically flips a notification to read and tells the
// server. The local change is never rolled back on failure; the next
// full sync reconciles. Marking an already-read record is a no-op.
func (e *Engine) MarkAsRead(ctx context.Context, id string) error {
	e.mu.Lock()
	flipped := false
	for i := range e.notifications {
		if e.notifications[i].ID != id {
			continue
		}
		if !e.notifications[i].IsRead {
			e.notifications[i].IsRead = true
			flipped = true
			if e.unread > 0 {
				e.unread--
			}
		}
		break
	}
	e.mu.Unlock()

	if !flipped {
		return nil
	}

	if err := e.api.MarkNotificationRead(ctx, id); err != nil {
		e.log.Warn("marking notification read failed", "notification", id, "error", err)
		return err
	}
	return nil
}

// Notifications returns a copy of the current notification list.
func (e *Engine) Notifications() []model.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Notification, len(e.notifications))
	copy(out, e.notifications)
	return out
}

// UnreadCount returns the current number of unread notifications.
func (e *Engine) UnreadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unread
}

// LastChecked returns the watermark: the completion time of the most
// recent successful fetch, zero if none has completed yet.
func (e *Engine) LastChecked() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastChecked
}

// send delivers an event without blocking the sync cycle.
func (e *Engine) send(msg tea.Msg) {
	select {
	case e.eventCh <- msg:
	default:
		// Drop if the UI is not draining events fast enough.
	}
}

// WaitForEvent returns a tea.Cmd that blocks for the next engine event.
// The app re-arms it after handling each message, mirroring the usual
// Bubble Tea subscription pattern.
func (e *Engine) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-e.eventCh
		if !ok {
			return nil
		}
		return msg
	}
}
