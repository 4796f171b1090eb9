package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/transport/http/dto"
)

const (
	msgTitleRequired = "Title is required"
	msgTaskNotFound  = "Task not found"
	msgTaskDeleted   = "Task deleted"
)

type TaskHandler struct {
	service ports.TaskService
	logger  *logger.Logger
}

func NewTaskHandler(service ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logger}
}

// parseBody decodes the request body into v. An empty body leaves v untouched.
func parseBody(c *fiber.Ctx, v interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(v)
}

// taskID parses the :id route parameter. Ids that are not integers can never
// match a task, so callers answer them with 404.
func taskID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: msgTaskNotFound})
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	filter, err := domain.ParseFilter(c.Query("filter"))
	if err != nil {
		h.logger.Warnw("tasks_list_invalid_filter", "filter", c.Query("filter"))
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	tasks, err := h.service.GetTasks(c.UserContext(), filter)
	if err != nil {
		h.logger.Errorw("tasks_list_failed", "error", err)
		return err
	}

	h.logger.Debugw("tasks_list_success", "count", len(tasks), "filter", filter)
	return c.JSON(tasks)
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	var req dto.CreateTaskRequest
	if err := parseBody(c, &req); err != nil {
		h.logger.Warnw("task_create_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	task, err := h.service.CreateTask(c.UserContext(), req.ToInput())
	if err != nil {
		if errors.Is(err, services.ErrTaskTitleRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msgTitleRequired})
		}
		h.logger.Errorw("task_create_failed", "error", err)
		return err
	}

	h.logger.Infow("task_create_success", "id", task.ID)
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		h.logger.Warnw("task_get_invalid_id", "id", c.Params("id"))
		return notFound(c)
	}

	task, err := h.service.GetTaskByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			h.logger.Warnw("task_get_not_found", "id", id)
			return notFound(c)
		}
		return err
	}

	return c.JSON(task)
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		h.logger.Warnw("task_update_invalid_id", "id", c.Params("id"))
		return notFound(c)
	}

	var req dto.UpdateTaskRequest
	if err := parseBody(c, &req); err != nil {
		h.logger.Warnw("task_update_body_parse_failed", "id", id, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	task, err := h.service.UpdateTask(c.UserContext(), id, req.ToInput())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			h.logger.Warnw("task_update_not_found", "id", id)
			return notFound(c)
		case errors.Is(err, services.ErrTaskTitleRequired):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msgTitleRequired})
		}
		h.logger.Errorw("task_update_failed", "id", id, "error", err)
		return err
	}

	h.logger.Infow("task_update_success", "id", id)
	return c.JSON(task)
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		h.logger.Warnw("task_delete_invalid_id", "id", c.Params("id"))
		return notFound(c)
	}

	task, err := h.service.DeleteTask(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			h.logger.Warnw("task_delete_not_found", "id", id)
			return notFound(c)
		}
		h.logger.Errorw("task_delete_failed", "id", id, "error", err)
		return err
	}

	h.logger.Infow("task_delete_success", "id", id)
	return c.JSON(dto.DeleteTaskResponse{
		Message: msgTaskDeleted,
		Task:    *task,
	})
}

func (h *TaskHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.service.GetStats(c.UserContext())
	if err != nil {
		h.logger.Errorw("tasks_stats_failed", "error", err)
		return err
	}
	return c.JSON(stats)
}
