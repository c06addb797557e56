package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvaldez/taskmovil/internal/model"
)

// fakeSession implements SessionState with fixed values.
type fakeSession struct {
	token   string
	expired bool
}

func (s *fakeSession) Token() (string, bool) {
	return s.token, s.token != ""
}

func (s *fakeSession) IsExpired() bool {
	return s.expired
}

func newTestClient(t *testing.T, handler http.Handler, session SessionState) (*Client, *atomic.Int64) {
	t.Helper()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, 5*time.Second, slog.New(slog.DiscardHandler))
	if session != nil {
		c.BindSession(session)
	}
	return c, &requests
}

func TestLoginPostsCredentials(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "ana.martinez", creds["username"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(model.AuthResponse{
			Token: "tok",
			User:  model.User{ID: "u1", Username: "ana.martinez"},
		})
	})

	c, _ := newTestClient(t, handler, nil)

	resp, err := c.Login(context.Background(), "ana.martinez", "123456")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "u1", resp.User.ID)
}

func TestExpiredSessionFailsWithoutRequest(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued for an expired session")
	})

	c, requests := newTestClient(t, handler, &fakeSession{token: "tok", expired: true})

	_, err := c.Notifications(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Zero(t, requests.Load())
}

func TestBearerTokenAttached(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})

	c, _ := newTestClient(t, handler, &fakeSession{token: "tok"})

	_, err := c.Notifications(context.Background())
	require.NoError(t, err)
}

func TestNonSuccessStatusReturnsHTTPError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	c, _ := newTestClient(t, handler, &fakeSession{token: "tok"})

	_, err := c.Tasks(context.Background(), "")
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Contains(t, httpErr.Body, "boom")
}

func TestNonJSONResponseReturnsContentTypeError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>captive portal</html>"))
	})

	c, _ := newTestClient(t, handler, &fakeSession{token: "tok"})

	_, err := c.Notifications(context.Background())
	require.Error(t, err)

	var ctErr *ContentTypeError
	require.ErrorAs(t, err, &ctErr)
	assert.Equal(t, "text/html", ctErr.ContentType)
}

func TestTasksFiltersByAssignee(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("assigneeId"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"1","title":"Revisar documentos"}]`))
	})

	c, _ := newTestClient(t, handler, &fakeSession{token: "tok"})

	tasks, err := c.Tasks(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Revisar documentos", tasks[0].Title)
}

func TestMarkNotificationRead(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/notifications/n1/read", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	c, _ := newTestClient(t, handler, &fakeSession{token: "tok"})

	require.NoError(t, c.MarkNotificationRead(context.Background(), "n1"))
}
