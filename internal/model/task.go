package model

import "time"

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspaceId"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Completed   bool         `json:"completed"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *string      `json:"dueDate,omitempty"`
	Categories  []string     `json:"categories,omitempty"`
	AssignedTo  *string      `json:"assignedTo,omitempty"`
	CreatedBy   string       `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TaskUpdate carries the mutable fields of a task; nil fields are left as is.
type TaskUpdate struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	DueDate     *string       `json:"dueDate,omitempty"`
	Categories  []string      `json:"categories,omitempty"`
	AssignedTo  *string       `json:"assignedTo,omitempty"`
}
