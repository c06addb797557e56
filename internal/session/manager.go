// Package session owns the authenticated identity of the client: the
// bearer token, the user it belongs to, and their durable persistence
// across restarts.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hvaldez/taskmovil/internal/model"
	"github.com/hvaldez/taskmovil/internal/token"
)

// AuthAPI is the slice of the remote client the manager needs to
// perform a login.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (model.AuthResponse, error)
}

// Session is a fully-established authenticated identity. A session is
// either entirely present (token plus user) or entirely absent; there
// is no partial state.
type Session struct {
	Token string
	User  model.User
}

// Manager holds the in-memory session, drives login and logout, and is
// the single source of truth for whether the client may call protected
// endpoints. All state transitions notify subscribed observers.
type Manager struct {
	store Store
	auth  AuthAPI
	log   *slog.Logger
	now   func() time.Time

	mu        sync.Mutex
	session   *Session
	observers []func(authenticated bool)
}

// NewManager creates a session manager persisting to store and logging
// in through auth.
func NewManager(store Store, auth AuthAPI, log *slog.Logger) *Manager {
	return &Manager{
		store: store,
		auth:  auth,
		log:   log,
		now:   time.Now,
	}
}

// Subscribe registers an observer invoked with the new authenticated
// state after every transition. Observers are called outside the
// manager's lock and may call back into it.
func (m *Manager) Subscribe(fn func(authenticated bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Restore loads a previously persisted session at process start. A
// missing or unreadable entry, or an undecodable token, leaves the
// manager logged out; storage failures are never fatal.
func (m *Manager) Restore() bool {
	raw, err := m.store.Get(KeyAuthToken)
	if err != nil {
		if err != ErrNotFound {
			m.log.Warn("reading stored token failed", "error", err)
		}
		return false
	}

	userData, err := m.store.Get(KeyUserData)
	if err != nil {
		if err != ErrNotFound {
			m.log.Warn("reading stored user failed", "error", err)
		}
		return false
	}

	if _, err := token.Decode(raw); err != nil {
		m.log.Warn("stored token is not decodable, discarding", "error", err)
		m.clearStore()
		return false
	}

	var user model.User
	if err := json.Unmarshal([]byte(userData), &user); err != nil {
		m.log.Warn("stored user data is corrupt, discarding", "error", err)
		m.clearStore()
		return false
	}

	m.mu.Lock()
	m.session = &Session{Token: raw, User: user}
	m.mu.Unlock()

	m.log.Info("session restored", "user", user.Username)
	m.notify(true)
	return true
}

// Login authenticates against the backend and establishes a session.
// On failure the manager's state is unchanged and the error is
// returned to the caller. The new session is persisted immediately;
// persistence failures are logged but do not fail the login.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	resp, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	userData, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("login: encoding user: %w", err)
	}

	if err := m.store.Set(KeyAuthToken, resp.Token); err != nil {
		m.log.Warn("persisting token failed", "error", err)
	}
	if err := m.store.Set(KeyUserData, string(userData)); err != nil {
		m.log.Warn("persisting user failed", "error", err)
	}

	m.mu.Lock()
	m.session = &Session{Token: resp.Token, User: resp.User}
	m.mu.Unlock()

	m.log.Info("logged in", "user", resp.User.Username)
	m.notify(true)
	return nil
}

// Logout clears the persisted session and transitions to logged out.
// Storage failures do not block the in-memory transition.
func (m *Manager) Logout() {
	m.clearStore()

	m.mu.Lock()
	wasLoggedIn := m.session != nil
	m.session = nil
	m.mu.Unlock()

	if wasLoggedIn {
		m.log.Info("logged out")
		m.notify(false)
	}
}

// Authenticated reports whether a session is currently established.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// Current returns the logged-in user, if any.
func (m *Manager) Current() (model.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return model.User{}, false
	}
	return m.session.User, true
}

// Token returns the current bearer token, if a session exists.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return "", false
	}
	return m.session.Token, true
}

// IsExpired reports whether the current session should be considered
// expired. Logged out counts as expired, as does a token that cannot
// be decoded. This is a local clock-based check; it never contacts the
// server and the server independently rejects invalid tokens.
func (m *Manager) IsExpired() bool {
	raw, ok := m.Token()
	if !ok {
		return true
	}

	claims, err := token.Decode(raw)
	if err != nil {
		// Cannot prove freshness, collapse to expired.
		return true
	}

	return claims.ExpiredAt(m.now())
}

// clearStore removes the persisted session, best-effort.
func (m *Manager) clearStore() {
	if err := m.store.Delete(KeyAuthToken); err != nil {
		m.log.Warn("clearing stored token failed", "error", err)
	}
	if err := m.store.Delete(KeyUserData); err != nil {
		m.log.Warn("clearing stored user failed", "error", err)
	}
}

// notify invokes all observers with the new authenticated state.
func (m *Manager) notify(authenticated bool) {
	m.mu.Lock()
	observers := make([]func(bool), len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	for _, fn := range observers {
		fn(authenticated)
	}
}
