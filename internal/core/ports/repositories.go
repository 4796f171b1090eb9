package ports

import (
	"context"
	"errors"

	"github.com/taskboard/backend/internal/domain"
)

// ErrRecordNotFound is returned by repositories when no task has the requested id.
var ErrRecordNotFound = errors.New("record not found")

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	GetAll(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id int64) error
}
