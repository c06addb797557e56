package testutil

import (
	"testing"
	"time"

	"github.com/hvaldez/taskmovil/internal/model"
	"github.com/hvaldez/taskmovil/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations
// applied. It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SampleTask builds a task with plausible surrounding fields so tests
// only spell out what they assert on.
func SampleTask(id, title, status, priority string, due time.Time) model.Task {
	return model.Task{
		ID:             id,
		Title:          title,
		Description:    "desc " + id,
		Status:         status,
		Priority:       priority,
		AssigneeID:     "u1",
		DueDate:        due,
		CreatedAt:      due.Add(-48 * time.Hour),
		UpdatedAt:      due.Add(-time.Hour),
		OrganizationID: "org1",
		FetchedAt:      time.Now().UTC(),
	}
}
