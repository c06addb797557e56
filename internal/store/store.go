// Package store is the local read cache of the task list. It lets the
// UI keep showing the last fetched tasks when the network is down.
// Writes always originate from a fetch; nothing is queued locally.
package store

import (
	"context"

	"github.com/hvaldez/taskmovil/internal/model"
)

// TaskFilter controls filtering, sorting, and pagination for cached
// task queries.
type TaskFilter struct {
	Status     *string
	Priority   *string
	AssigneeID *string
	Query      *string
	SortBy     string
	SortDesc   bool
	Limit      int
	Offset     int
}

// Store defines the persistence interface for the task cache.
type Store interface {
	UpsertTasks(ctx context.Context, tasks []model.Task) error
	GetTasks(ctx context.Context, opts TaskFilter) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	Close() error
}
