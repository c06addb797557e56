package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvaldez/taskmovil/internal/api"
	"github.com/hvaldez/taskmovil/internal/model"
)

// fakeAPI is a controllable API implementation.
type fakeAPI struct {
	mu            sync.Mutex
	notifications []model.Notification
	err           error
	fetches       int
	markCalls     []string
	markErr       error
	block         chan struct{}
}

func (f *fakeAPI) Notifications(ctx context.Context) ([]model.Notification, error) {
	f.mu.Lock()
	f.fetches++
	block := f.block
	err := f.err
	ns := append([]model.Notification(nil), f.notifications...)
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return ns, nil
}

func (f *fakeAPI) MarkNotificationRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls = append(f.markCalls, id)
	return f.markErr
}

func (f *fakeAPI) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeAPI) set(ns []model.Notification, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = ns
	f.err = err
}

// fakeScheduler records scheduled alerts and can fail on demand.
type fakeScheduler struct {
	mu       sync.Mutex
	alerts   []string
	failures int
}

func (s *fakeScheduler) ScheduleNow(title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("scheduler unavailable")
	}
	s.alerts = append(s.alerts, title)
	return nil
}

func (s *fakeScheduler) ScheduleAfter(title, body string, delay time.Duration) error {
	return s.ScheduleNow(title, body)
}

func (s *fakeScheduler) CancelAll() {}

func (s *fakeScheduler) CountPending() int { return 0 }

func (s *fakeScheduler) scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.alerts...)
}

func newTestEngine(client API, sched *fakeScheduler) *Engine {
	return New(client, sched, time.Hour, slog.New(slog.DiscardHandler))
}

// authenticate flips the auth axis without triggering the immediate
// background fetch, so tests can drive cycles deterministically.
func authenticate(e *Engine) {
	e.mu.Lock()
	e.authenticated = true
	e.mu.Unlock()
}

func nextEvent(t *testing.T, e *Engine) tea.Msg {
	t.Helper()
	select {
	case msg := <-e.eventCh:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for engine event")
		return nil
	}
}

func unread(id string, createdAt time.Time) model.Notification {
	return model.Notification{
		ID:        id,
		Title:     "Notification " + id,
		Message:   "message " + id,
		Category:  model.CategoryAssigned,
		CreatedAt: createdAt,
	}
}

func TestPollingTruthTable(t *testing.T) {
	client := &fakeAPI{}
	e := newTestEngine(client, &fakeScheduler{})
	defer e.Shutdown()

	// Foreground + unauthenticated: inactive.
	assert.False(t, e.Polling())

	// Foreground + authenticated: active.
	e.SetAuthenticated(true)
	assert.True(t, e.Polling())

	// Background + authenticated: inactive.
	e.SetForeground(false)
	assert.False(t, e.Polling())

	// Background + unauthenticated: inactive.
	e.SetAuthenticated(false)
	assert.False(t, e.Polling())

	// Back to the only active combination.
	e.SetForeground(true)
	assert.False(t, e.Polling())
	e.SetAuthenticated(true)
	assert.True(t, e.Polling())
}

func TestAuthenticationTriggersImmediateFetch(t *testing.T) {
	client := &fakeAPI{}
	e := newTestEngine(client, &fakeScheduler{})
	defer e.Shutdown()

	e.SetAuthenticated(true)

	assert.Eventually(t, func() bool {
		return client.fetchCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestForegroundReturnTriggersCatchUpFetch(t *testing.T) {
	client := &fakeAPI{}
	e := newTestEngine(client, &fakeScheduler{})
	defer e.Shutdown()

	e.SetAuthenticated(true)
	require.Eventually(t, func() bool {
		return client.fetchCount() == 1
	}, time.Second, 5*time.Millisecond)

	e.SetForeground(false)
	assert.False(t, e.Polling())

	e.SetForeground(true)
	assert.True(t, e.Polling())

	// Exactly one catch-up fetch, no duplicated timer.
	require.Eventually(t, func() bool {
		return client.fetchCount() == 2
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, client.fetchCount())
}

func TestSyncReplacesListAndAdvancesWatermark(t *testing.T) {
	now := time.Now()
	client := &fakeAPI{}
	client.set([]model.Notification{
		unread("n1", now.Add(-time.Minute)),
		{ID: "n2", Title: "read", IsRead: true, CreatedAt: now.Add(-time.Hour)},
	}, nil)

	e := newTestEngine(client, &fakeScheduler{})
	authenticate(e)

	require.True(t, e.LastChecked().IsZero())
	e.syncOnce(false)

	assert.Len(t, e.Notifications(), 2)
	assert.Equal(t, 1, e.UnreadCount())
	assert.False(t, e.LastChecked().IsZero())

	msg := nextEvent(t, e)
	synced, ok := msg.(SyncedMsg)
	require.True(t, ok)
	assert.Equal(t, 1, synced.Unread)
	assert.Zero(t, synced.NewAlerts, "first cycle must not alert")
}

func TestNewItemDetectionAgainstWatermark(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base

	client := &fakeAPI{}
	sched := &fakeScheduler{}
	e := newTestEngine(client, sched)
	e.now = func() time.Time { return current }
	authenticate(e)

	// First cycle establishes the watermark at base.
	e.syncOnce(false)
	require.Empty(t, sched.scheduled())

	// One record predates the watermark, one arrived after it.
	client.set([]model.Notification{
		unread("old", base.Add(-time.Minute)),
		unread("new", base.Add(time.Minute)),
	}, nil)
	current = base.Add(2 * time.Minute)
	e.syncOnce(false)

	assert.Equal(t, []string{"Notification new"}, sched.scheduled())
}

func TestNoDuplicateAlertAcrossCycles(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base

	client := &fakeAPI{}
	sched := &fakeScheduler{}
	e := newTestEngine(client, sched)
	e.now = func() time.Time { return current }
	authenticate(e)

	e.syncOnce(false)

	client.set([]model.Notification{unread("n1", base.Add(time.Second))}, nil)
	current = base.Add(time.Minute)
	e.syncOnce(false)

	// Same unread record present again on later cycles.
	current = base.Add(2 * time.Minute)
	e.syncOnce(false)
	current = base.Add(3 * time.Minute)
	e.syncOnce(false)

	assert.Equal(t, []string{"Notification n1"}, sched.scheduled())
}

func TestWatermarkIsMonotonic(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base.Add(time.Hour)

	client := &fakeAPI{}
	e := newTestEngine(client, &fakeScheduler{})
	e.now = func() time.Time { return current }
	authenticate(e)

	e.syncOnce(false)
	require.True(t, e.LastChecked().Equal(base.Add(time.Hour)))

	// A cycle that completes with an earlier clock reading must not
	// move the watermark backwards.
	current = base
	e.syncOnce(false)
	assert.True(t, e.LastChecked().Equal(base.Add(time.Hour)))
}

func TestOverlappingCycleIsSkipped(t *testing.T) {
	client := &fakeAPI{}
	release := make(chan struct{})
	client.block = release

	e := newTestEngine(client, &fakeScheduler{})
	authenticate(e)

	done := make(chan struct{})
	go func() {
		e.syncOnce(false)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return client.fetchCount() == 1
	}, time.Second, time.Millisecond)

	// A second cycle while the first is in flight returns immediately
	// without fetching.
	e.syncOnce(false)
	assert.Equal(t, 1, client.fetchCount())

	close(release)
	<-done
}

func TestFetchErrorKeepsPriorState(t *testing.T) {
	now := time.Now()
	client := &fakeAPI{}
	client.set([]model.Notification{unread("n1", now)}, nil)

	e := newTestEngine(client, &fakeScheduler{})
	authenticate(e)

	e.syncOnce(false)
	nextEvent(t, e)
	watermark := e.LastChecked()

	client.set(nil, fmt.Errorf("GET /notifications: %w", errors.New("connection refused")))
	e.syncOnce(false)

	msg := nextEvent(t, e)
	_, ok := msg.(SyncErrorMsg)
	require.True(t, ok)

	assert.Len(t, e.Notifications(), 1)
	assert.Equal(t, 1, e.UnreadCount())
	assert.True(t, e.LastChecked().Equal(watermark))
}

func TestExpiredSessionEmitsSessionExpired(t *testing.T) {
	client := &fakeAPI{}
	client.set(nil, fmt.Errorf("GET /notifications: %w", api.ErrSessionExpired))

	e := newTestEngine(client, &fakeScheduler{})
	authenticate(e)

	e.syncOnce(false)

	msg := nextEvent(t, e)
	_, ok := msg.(SessionExpiredMsg)
	require.True(t, ok)
}

func TestLogoutClearsState(t *testing.T) {
	client := &fakeAPI{}
	client.set([]model.Notification{unread("n1", time.Now())}, nil)

	e := newTestEngine(client, &fakeScheduler{})
	authenticate(e)
	e.syncOnce(false)
	require.Equal(t, 1, e.UnreadCount())

	e.SetAuthenticated(false)

	assert.Empty(t, e.Notifications())
	assert.Zero(t, e.UnreadCount())
	assert.False(t, e.Polling())
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	now := time.Now()
	client := &fakeAPI{}
	client.set([]model.Notification{unread("n1", now), unread("n2", now)}, nil)

	e := newTestEngine(client, &fakeScheduler{})
	authenticate(e)
	e.syncOnce(false)
	require.Equal(t, 2, e.UnreadCount())

	require.NoError(t, e.MarkAsRead(context.Background(), "n1"))
	assert.Equal(t, 1, e.UnreadCount())

	// Second call on an already-read record is a no-op, locally and
	// remotely.
	require.NoError(t, e.MarkAsRead(context.Background(), "n1"))
	assert.Equal(t, 1, e.UnreadCount())
	assert.Equal(t, []string{"n1"}, client.markCalls)
}

func TestMarkAsReadKeepsOptimisticChangeOnFailure(t *testing.T) {
	client := &fakeAPI{}
	client.set([]model.Notification{unread("n1", time.Now())}, nil)
	client.markErr = errors.New("server unavailable")

	e := newTestEngine(client, &fakeScheduler{})
	authenticate(e)
	e.syncOnce(false)

	err := e.MarkAsRead(context.Background(), "n1")
	require.Error(t, err)

	// No rollback: the next full sync reconciles.
	assert.Zero(t, e.UnreadCount())
	assert.True(t, e.Notifications()[0].IsRead)
}

func TestSchedulerFailureIsRetriedOnce(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base

	client := &fakeAPI{}
	sched := &fakeScheduler{failures: 1}
	e := newTestEngine(client, sched)
	e.now = func() time.Time { return current }
	authenticate(e)

	e.syncOnce(false)

	client.set([]model.Notification{unread("n1", base.Add(time.Second))}, nil)
	current = base.Add(time.Minute)
	e.syncOnce(false)

	// First attempt failed, the single retry succeeded.
	assert.Equal(t, []string{"Notification n1"}, sched.scheduled())
}
