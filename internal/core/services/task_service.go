package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

// storeLockKey guards every read-modify-write against the task store. The
// store is one document, so all mutations share it.
const storeLockKey = "store:tasks"

type taskService struct {
	repo        ports.TaskRepository
	ids         ports.IDGenerator
	now         func() time.Time
	logger      *logger.Logger
	mu          sync.Mutex
	locks       map[string]*sync.Mutex
	enableLocks bool
}

type TaskServiceConfig struct {
	Repository  ports.TaskRepository
	IDGenerator ports.IDGenerator
	Clock       func() time.Time
	Logger      *logger.Logger
	EnableLocks bool
}

func NewTaskService(cfg TaskServiceConfig) ports.TaskService {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := cfg.IDGenerator
	if ids == nil {
		ids = NewMillisIDGenerator(clock)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &taskService{
		repo:        cfg.Repository,
		ids:         ids,
		now:         clock,
		logger:      log,
		locks:       make(map[string]*sync.Mutex),
		enableLocks: cfg.EnableLocks,
	}
}

func (s *taskService) lockKeys(keys ...string) func() {
	if !s.enableLocks {
		return func() {}
	}
	if len(keys) == 0 {
		return func() {}
	}
	sort.Strings(keys)
	s.mu.Lock()
	acquired := make([]*sync.Mutex, 0, len(keys))
	for _, k := range keys {
		m := s.locks[k]
		if m == nil {
			m = &sync.Mutex{}
			s.locks[k] = m
		}
		acquired = append(acquired, m)
	}
	s.mu.Unlock()
	for _, m := range acquired {
		m.Lock()
	}
	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}

func (s *taskService) CreateTask(ctx context.Context, input ports.CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		s.logger.Warnw("task_create_rejected", "reason", "blank title")
		return nil, ErrTaskTitleRequired
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.DefaultPriority
	}

	unlock := s.lockKeys(storeLockKey)
	defer unlock()

	task := &domain.Task{
		ID:          s.ids.NextID(),
		Title:       title,
		Description: input.Description,
		Priority:    priority,
		Completed:   false,
		CreatedAt:   domain.FormatTimestamp(s.now()),
	}

	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.Errorw("task_create_failed", "error", err)
		return nil, err
	}

	s.logger.Infow("task_created", "id", task.ID)
	return task, nil
}

func (s *taskService) GetTasks(ctx context.Context, filter domain.Filter) ([]domain.Task, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if filter == "" || filter == domain.FilterAll {
		return tasks, nil
	}
	return filter.Apply(tasks), nil
}

func (s *taskService) GetTaskByID(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return task, nil
}

func (s *taskService) UpdateTask(ctx context.Context, id int64, input ports.UpdateTaskInput) (*domain.Task, error) {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTaskTitleRequired
		}
		input.Title = &title
	}

	unlock := s.lockKeys(storeLockKey)
	defer unlock()

	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	applyUpdate(task, input)

	if err := s.repo.Update(ctx, task); err != nil {
		s.logger.Errorw("task_update_failed", "id", id, "error", err)
		return nil, mapRepoError(err)
	}

	s.logger.Infow("task_updated", "id", id)
	return task, nil
}

// applyUpdate copies every supplied field onto task. id and createdAt are never touched.
func applyUpdate(task *domain.Task, input ports.UpdateTaskInput) {
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}
}

func (s *taskService) DeleteTask(ctx context.Context, id int64) (*domain.Task, error) {
	unlock := s.lockKeys(storeLockKey)
	defer unlock()

	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Errorw("task_delete_failed", "id", id, "error", err)
		return nil, mapRepoError(err)
	}

	s.logger.Infow("task_deleted", "id", id)
	return task, nil
}

func (s *taskService) GetStats(ctx context.Context) (domain.Stats, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.ComputeStats(tasks), nil
}

func mapRepoError(err error) error {
	if errors.Is(err, ports.ErrRecordNotFound) {
		return ErrTaskNotFound
	}
	return err
}
