package model

import "time"

// Normalized task status values used by the backend.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"
	StatusEscalated  = "escalated"
)

// Task priority levels, lowest to highest urgency.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityUrgent   = "urgent"
	PriorityCritical = "critical"
)

// Task is a work item assigned to a user, as served by the backend.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`

	// Title is the human-readable summary of the task.
	Title string `json:"title"`

	// Description is the full body text.
	Description string `json:"description"`

	// Status is the current workflow state (use Status* constants).
	Status string `json:"status"`

	// Priority is the urgency level (use Priority* constants).
	Priority string `json:"priority"`

	// AssigneeID is the user the task is assigned to.
	AssigneeID string `json:"assigneeId"`

	// AssigneeName is the assignee's display name, when the backend
	// includes it.
	AssigneeName string `json:"assigneeName,omitempty"`

	// DueDate is when the task is due.
	DueDate time.Time `json:"dueDate"`

	// CreatedAt is when the task was created server-side.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the task was last modified server-side.
	UpdatedAt time.Time `json:"updatedAt"`

	// OrganizationID scopes the task to an organization.
	OrganizationID string `json:"organizationId"`

	// FetchedAt is when this task was last retrieved from the backend.
	// Set client-side; not part of the wire format.
	FetchedAt time.Time `json:"-"`
}

// priorityRank maps priority labels to a sortable rank
// (higher = more urgent).
var priorityRank = map[string]int{
	PriorityLow:      1,
	PriorityMedium:   2,
	PriorityHigh:     3,
	PriorityUrgent:   4,
	PriorityCritical: 5,
}

// PriorityRank returns a numeric rank for the task's priority, 0 for
// unknown labels.
func (t Task) PriorityRank() int {
	return priorityRank[t.Priority]
}

// NextStatus returns the status a user-driven advance moves the task
// to. Overdue and escalated tasks advance straight to completed;
// completed tasks stay completed.
func (t Task) NextStatus() string {
	switch t.Status {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress, StatusOverdue, StatusEscalated:
		return StatusCompleted
	default:
		return t.Status
	}
}
