// Package filestore keeps the task list in a single pretty-printed JSON file.
// Every operation reads the whole document, and every mutation rewrites it.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

// ErrCorruptStore is returned by ReadAll in strict mode when the file cannot
// be read, parsed or validated.
var ErrCorruptStore = errors.New("filestore: store file is unreadable")

type Config struct {
	Path       string
	StrictRead bool
}

type TaskRepository struct {
	path   string
	strict bool
	schema *jsonschema.Schema
	log    *logger.Logger
}

var _ ports.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository(cfg Config, log *logger.Logger) (*TaskRepository, error) {
	if cfg.Path == "" {
		return nil, errors.New("filestore: path is required")
	}
	schema, err := compileDocumentSchema()
	if err != nil {
		return nil, fmt.Errorf("filestore: compile schema: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &TaskRepository{
		path:   cfg.Path,
		strict: cfg.StrictRead,
		schema: schema,
		log:    log,
	}, nil
}

func (r *TaskRepository) Path() string {
	return r.path
}

// EnsureFile creates the store containing an empty array if it does not exist yet.
func (r *TaskRepository) EnsureFile() error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("filestore: stat %s: %w", r.path, err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("filestore: create dir: %w", err)
		}
	}
	r.log.Infow("task_store_initialized", "path", r.path)
	return r.WriteAll(nil)
}

// ReadAll loads the full task sequence. Any failure yields an empty sequence,
// unless the repository is strict.
func (r *TaskRepository) ReadAll() ([]domain.Task, error) {
	tasks, err := r.load()
	if err != nil {
		if r.strict {
			r.log.Errorw("task_store_read_failed", "path", r.path, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
		}
		r.log.Warnw("task_store_read_degraded", "path", r.path, "error", err)
		return []domain.Task{}, nil
	}
	return tasks, nil
}

func (r *TaskRepository) load() ([]domain.Task, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := r.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid document: %s", strings.Join(schemaViolations(err), "; "))
	}

	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// WriteAll replaces the file with tasks, indented by two spaces. The document
// is written to a sibling temp file first and renamed into place.
func (r *TaskRepository) WriteAll(tasks []domain.Task) error {
	if tasks == nil {
		tasks = []domain.Task{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return fmt.Errorf("filestore: encode: %w", err)
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("filestore: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: chmod: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: replace %s: %w", r.path, err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tasks, err := r.ReadAll()
	if err != nil {
		return err
	}
	tasks = append(tasks, *task)
	if err := r.WriteAll(tasks); err != nil {
		r.log.Errorw("task_repo_create_failed", "id", task.ID, "error", err)
		return err
	}
	r.log.Infow("task_repo_create_ok", "id", task.ID, "count", len(tasks))
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tasks, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	idx := indexOf(tasks, id)
	if idx < 0 {
		return nil, ports.ErrRecordNotFound
	}
	task := tasks[idx]
	return &task, nil
}

func (r *TaskRepository) GetAll(ctx context.Context) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tasks, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	r.log.Debugw("task_repo_list_ok", "count", len(tasks))
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tasks, err := r.ReadAll()
	if err != nil {
		return err
	}
	idx := indexOf(tasks, task.ID)
	if idx < 0 {
		return ports.ErrRecordNotFound
	}
	tasks[idx] = *task
	if err := r.WriteAll(tasks); err != nil {
		r.log.Errorw("task_repo_update_failed", "id", task.ID, "error", err)
		return err
	}
	r.log.Infow("task_repo_update_ok", "id", task.ID)
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tasks, err := r.ReadAll()
	if err != nil {
		return err
	}
	idx := indexOf(tasks, id)
	if idx < 0 {
		return ports.ErrRecordNotFound
	}
	tasks = append(tasks[:idx], tasks[idx+1:]...)
	if err := r.WriteAll(tasks); err != nil {
		r.log.Errorw("task_repo_delete_failed", "id", id, "error", err)
		return err
	}
	r.log.Infow("task_repo_delete_ok", "id", id)
	return nil
}

func indexOf(tasks []domain.Task, id int64) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
