package dto

import "github.com/Falcon-J/saathi/internal/model"

type CreateTaskRequest struct {
	Title       string             `json:"title" binding:"required"`
	Description *string            `json:"description,omitempty"`
	Priority    model.TaskPriority `json:"priority,omitempty"`
	DueDate     *string            `json:"dueDate,omitempty"`
	Categories  []string           `json:"categories,omitempty"`
}

type AssignTaskRequest struct {
	AssignedTo string `json:"assignedTo"`
}

type TaskListResponse struct {
	Tasks []model.Task `json:"tasks"`
}
