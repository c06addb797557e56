package model

import "time"

// Notification categories emitted by the backend.
const (
	CategoryAssigned  = "task_assigned"
	CategoryOverdue   = "task_overdue"
	CategoryEscalated = "task_escalated"
	CategorySystem    = "system"
)

// Notification is a server-side notification record fetched by the
// client. Records are read-only except for the read flag, which only
// ever moves from unread to read.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// Title is the short headline.
	Title string `json:"title"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Category identifies what kind of event produced this
	// notification (use Category* constants).
	Category string `json:"type"`

	// UserID is the user this notification belongs to.
	UserID string `json:"userId"`

	// TaskID links to the originating task, when there is one.
	TaskID string `json:"taskId,omitempty"`

	// IsRead indicates whether the user has seen this notification.
	IsRead bool `json:"isRead"`

	// CreatedAt is when this notification was generated server-side.
	CreatedAt time.Time `json:"createdAt"`
}

// CountUnread returns the number of unread notifications in ns.
func CountUnread(ns []Notification) int {
	count := 0
	for _, n := range ns {
		if !n.IsRead {
			count++
		}
	}
	return count
}
