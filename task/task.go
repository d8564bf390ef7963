// Package task defines the task model and persistence for mission-control work items.
package task

import (
	"errors"
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusBlocked    Status = "BLOCKED"
	StatusCompleted  Status = "COMPLETED"
	StatusArchived   Status = "ARCHIVED"
)

// Valid reports whether s is one of the accepted lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusAssigned, StatusInProgress, StatusBlocked, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Priority determines task urgency.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Valid reports whether p is one of the accepted priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Sentinel errors mapped to HTTP status codes at the API boundary.
var (
	ErrNotFound        = errors.New("task not found")
	ErrConflict        = errors.New("task id already exists")
	ErrEmptyUpdate     = errors.New("no updates provided")
	ErrMissingTitle    = errors.New("title is required")
	ErrMissingID       = errors.New("task id is required")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrCycle           = errors.New("dependency would create a cycle")
)

// Task is a unit of work tracked by the dashboard. IDs are assigned by the
// caller; the T<digits> convention is not enforced.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	Assignee    string     `json:"assignee,omitempty"`
	Category    string     `json:"category,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Dependency is a directed edge in the task dependency graph.
type Dependency struct {
	TaskID    string `json:"task_id"`
	DependsOn string `json:"depends_on"`
}

// Link attaches a file, agent, or decision reference to a task. Links are
// append-only; there is no update or delete.
type Link struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id"`
	LinkType  string    `json:"link_type"`
	LinkURL   string    `json:"link_url"`
	LinkText  string    `json:"link_text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Fields is a partial update. Nil pointers mean "leave unchanged".
type Fields struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Assignee    *string    `json:"assignee,omitempty"`
	Category    *string    `json:"category,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// Empty reports whether no field is set.
func (f Fields) Empty() bool {
	return f.Title == nil && f.Description == nil && f.Status == nil &&
		f.Priority == nil && f.Assignee == nil && f.Category == nil && f.DueDate == nil
}

// Filter controls which tasks are returned by List. All set fields must
// match (conjunction); zero values impose no constraint.
type Filter struct {
	Status   Status   `json:"status,omitempty"`
	Priority Priority `json:"priority,omitempty"`
	Assignee string   `json:"assignee,omitempty"`
	Category string   `json:"category,omitempty"`
}

// Store persists and retrieves tasks, dependency edges, and links.
type Store interface {
	// Create persists a new task with its caller-supplied ID.
	Create(t *Task) error

	// Get retrieves a task by ID.
	Get(id string) (*Task, error)

	// UpdateFields applies a partial update, returning the prior status and
	// the task as persisted.
	UpdateFields(id string, f Fields) (prior Status, updated *Task, err error)

	// Archive sets the task's status to ARCHIVED unconditionally.
	Archive(id string) (*Task, error)

	// List returns tasks matching the filter, newest first.
	List(filter Filter) ([]*Task, error)

	// Relationships returns dependency edges touching id in either direction.
	Relationships(id string) ([]Dependency, error)

	// AddDependency records an edge from taskID to dependsOn.
	AddDependency(taskID, dependsOn string) error

	// AddLink appends a link row and returns its generated ID.
	AddLink(l *Link) (int64, error)
}
