package ports

import (
	"context"

	"github.com/taskboard/backend/internal/domain"
)

type TaskService interface {
	CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error)
	GetTasks(ctx context.Context, filter domain.Filter) ([]domain.Task, error)
	GetTaskByID(ctx context.Context, id int64) (*domain.Task, error)
	UpdateTask(ctx context.Context, id int64, input UpdateTaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) (*domain.Task, error)
	GetStats(ctx context.Context) (domain.Stats, error)
}

type CreateTaskInput struct {
	Title       string
	Description string
	Priority    string
}

// UpdateTaskInput carries a partial update. A nil field is left unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *string
	Completed   *bool
}

type IDGenerator interface {
	NextID() int64
}
