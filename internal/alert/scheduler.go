// Package alert schedules on-device alerts. The sync engine treats
// scheduling as fire-and-forget; delivery is never guaranteed.
package alert

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Scheduler schedules and cancels local alerts.
type Scheduler interface {
	// ScheduleNow delivers an alert immediately.
	ScheduleNow(title, body string) error

	// ScheduleAfter delivers an alert after the given delay.
	ScheduleAfter(title, body string, delay time.Duration) error

	// CancelAll cancels every alert still pending delivery.
	CancelAll()

	// CountPending returns the number of scheduled, undelivered alerts.
	CountPending() int
}

// DeliverFunc presents an alert to the user.
type DeliverFunc func(title, body string)

// LocalScheduler delivers alerts through an injected DeliverFunc and
// tracks delayed deliveries with timers.
type LocalScheduler struct {
	deliver DeliverFunc
	log     *slog.Logger

	mu     sync.Mutex
	nextID int
	timers map[int]*time.Timer
}

// NewLocalScheduler creates a scheduler. A nil deliver falls back to a
// terminal bell plus a log line.
func NewLocalScheduler(deliver DeliverFunc, log *slog.Logger) *LocalScheduler {
	s := &LocalScheduler{
		deliver: deliver,
		log:     log,
		timers:  make(map[int]*time.Timer),
	}
	if s.deliver == nil {
		s.deliver = s.bell
	}
	return s
}

// bell is the default delivery: ring the terminal and log the alert.
func (s *LocalScheduler) bell(title, body string) {
	fmt.Fprint(os.Stderr, "\a")
	s.log.Info("alert", "title", title, "body", body)
}

// ScheduleNow delivers the alert immediately.
func (s *LocalScheduler) ScheduleNow(title, body string) error {
	s.deliver(title, body)
	return nil
}

// ScheduleAfter delivers the alert after delay. A non-positive delay
// delivers immediately.
func (s *LocalScheduler) ScheduleAfter(title, body string, delay time.Duration) error {
	if delay <= 0 {
		return s.ScheduleNow(title, body)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, pending := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()

		// CancelAll may race the timer firing; deliver only if the
		// alert was still pending.
		if pending {
			s.deliver(title, body)
		}
	})

	return nil
}

// CancelAll stops every pending alert.
func (s *LocalScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// CountPending returns the number of alerts scheduled but not yet
// delivered.
func (s *LocalScheduler) CountPending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
