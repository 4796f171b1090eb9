package dto

import (
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
)

type CreateTaskRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Priority    string `json:"priority" form:"priority"`
}

func (r *CreateTaskRequest) ToInput() ports.CreateTaskInput {
	return ports.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
	}
}

// UpdateTaskRequest is a partial update; absent or null fields stay nil.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty" form:"title"`
	Description *string `json:"description,omitempty" form:"description"`
	Priority    *string `json:"priority,omitempty" form:"priority"`
	Completed   *bool   `json:"completed,omitempty" form:"completed"`
}

func (r *UpdateTaskRequest) ToInput() ports.UpdateTaskInput {
	return ports.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Completed:   r.Completed,
	}
}

type DeleteTaskResponse struct {
	Message string      `json:"message"`
	Task    domain.Task `json:"task"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
