package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/filestore"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

type testEnv struct {
	app       *fiber.App
	storePath string
}

func testConfig(staticDir string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:      "127.0.0.1",
			Port:      3002,
			StaticDir: staticDir,
		},
		Features: config.FeaturesConfig{
			EnableLocks:          true,
			RequestIDHeader:      "X-Request-Id",
			EnableRequestLogging: true,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	staticDir := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(staticDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<h1>Tasks</h1>"), 0o644))

	storePath := filepath.Join(dir, "tasks.json")
	repo, err := filestore.NewTaskRepository(filestore.Config{Path: storePath}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, repo.EnsureFile())

	svc := services.NewTaskService(services.TaskServiceConfig{
		Repository:  repo,
		Logger:      logger.NewNop(),
		EnableLocks: true,
	})

	return &testEnv{
		app:       NewApp(testConfig(staticDir), logger.NewNop(), svc),
		storePath: storePath,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			r = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), "body=%s", string(data))
	return v
}

func (e *testEnv) create(t *testing.T, body map[string]interface{}) domain.Task {
	t.Helper()
	resp, data := e.do(t, http.MethodPost, "/api/tasks", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	return decode[domain.Task](t, data)
}

func taskPath(id int64) string {
	return "/api/tasks/" + strconv.FormatInt(id, 10)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestListTasks_EmptyStore(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(data))
}

func TestCreateTask_Defaults(t *testing.T) {
	env := newTestEnv(t)
	before := time.Now().UnixMilli()

	resp, data := env.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{"title": "Buy milk"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	raw := decode[map[string]interface{}](t, data)
	assert.ElementsMatch(t,
		[]string{"id", "title", "description", "priority", "completed", "createdAt"},
		keys(raw))

	task := decode[domain.Task](t, data)
	assert.GreaterOrEqual(t, task.ID, before)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "", task.Description)
	assert.Equal(t, "medium", task.Priority)
	assert.False(t, task.Completed)
	_, err := time.Parse(domain.TimestampLayout, task.CreatedAt)
	assert.NoError(t, err)
}

func TestCreateTask_FormBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader("title=From+form&priority=high"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data, _ := io.ReadAll(resp.Body)
	task := decode[domain.Task](t, data)
	assert.Equal(t, "From form", task.Title)
	assert.Equal(t, "high", task.Priority)
}

func TestCreateTask_BlankTitleRejected(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []interface{}{
		map[string]interface{}{"title": "   "},
		map[string]interface{}{"description": "no title"},
		"",
	} {
		resp, data := env.do(t, http.MethodPost, "/api/tasks", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Title is required"}`, string(data))
	}

	stored, err := os.ReadFile(env.storePath)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(stored))
}

func TestCreateTask_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/api/tasks", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/tasks", `{"title": 12}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateThenGet(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, map[string]interface{}{"title": "Read book", "description": "ch. 3", "priority": "low"})

	resp, data := env.do(t, http.MethodGet, taskPath(created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created, decode[domain.Task](t, data))
}

func TestGetTask_NotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/tasks/123", "/api/tasks/abc", "/api/tasks/1.5"} {
		resp, data := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.JSONEq(t, `{"error":"Task not found"}`, string(data))
	}
}

func TestUpdateTask_Partial(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, map[string]interface{}{"title": "Buy milk"})

	resp, data := env.do(t, http.MethodPut, taskPath(created.ID), map[string]interface{}{"completed": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	want := created
	want.Completed = true
	assert.Equal(t, want, decode[domain.Task](t, data))

	resp, data = env.do(t, http.MethodPut, taskPath(created.ID), map[string]interface{}{
		"title":    "Buy oat milk",
		"priority": "high",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	want.Title = "Buy oat milk"
	want.Priority = "high"
	assert.Equal(t, want, decode[domain.Task](t, data))
}

func TestUpdateTask_EmptyBodyIsNoop(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, map[string]interface{}{"title": "Stay the same"})

	resp, data := env.do(t, http.MethodPut, taskPath(created.ID), map[string]interface{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created, decode[domain.Task](t, data))
}

func TestUpdateTask_Errors(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, map[string]interface{}{"title": "x"})

	resp, _ := env.do(t, http.MethodPut, taskPath(created.ID+1000), map[string]interface{}{"completed": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPut, taskPath(created.ID), map[string]interface{}{"completed": "yes"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data := env.do(t, http.MethodPut, taskPath(created.ID), map[string]interface{}{"title": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Title is required"}`, string(data))
}

func TestDeleteTask(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, map[string]interface{}{"title": "Buy milk"})

	resp, data := env.do(t, http.MethodDelete, taskPath(created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Message string      `json:"message"`
		Task    domain.Task `json:"task"`
	}](t, data)
	assert.Equal(t, "Task deleted", body.Message)
	assert.Equal(t, created, body.Task)

	resp, _ = env.do(t, http.MethodGet, taskPath(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, taskPath(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListTasks_OrderFilterAndStats(t *testing.T) {
	env := newTestEnv(t)
	a := env.create(t, map[string]interface{}{"title": "a"})
	b := env.create(t, map[string]interface{}{"title": "b"})
	c := env.create(t, map[string]interface{}{"title": "c"})

	resp, _ := env.do(t, http.MethodPut, taskPath(c.ID), map[string]interface{}{"completed": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, http.MethodDelete, taskPath(a.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, data := env.do(t, http.MethodGet, "/api/tasks", nil)
	all := decode[[]domain.Task](t, data)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)
	assert.Equal(t, c.ID, all[1].ID)

	_, data = env.do(t, http.MethodGet, "/api/tasks?filter=active", nil)
	active := decode[[]domain.Task](t, data)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)

	_, data = env.do(t, http.MethodGet, "/api/tasks?filter=completed", nil)
	done := decode[[]domain.Task](t, data)
	require.Len(t, done, 1)
	assert.Equal(t, c.ID, done[0].ID)

	resp, _ = env.do(t, http.MethodGet, "/api/tasks?filter=archived", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, data = env.do(t, http.MethodGet, "/api/tasks/stats", nil)
	assert.JSONEq(t, `{"total":2,"completed":1,"pending":1}`, string(data))
}

func TestStoreFileIsPrettyPrinted(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, map[string]interface{}{"title": "on disk"})

	data, err := os.ReadFile(env.storePath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"id\": "), string(data))
}

func TestStaticIndex(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "<h1>Tasks</h1>")
}

func TestRequestIDEchoed(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-Id"))

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestStoreFailureIsInternalError(t *testing.T) {
	dir := t.TempDir()
	repo, err := filestore.NewTaskRepository(filestore.Config{
		Path:       filepath.Join(dir, "tasks.json"),
		StrictRead: true,
	}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(repo.Path(), []byte("not json"), 0o644))

	svc := services.NewTaskService(services.TaskServiceConfig{Repository: repo})
	app := NewApp(testConfig(""), logger.NewNop(), svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/tasks", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	data, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Internal server error"}`, string(data))
	assert.NotContains(t, string(data), dir)
}

func TestWriteFailureHidesStorePath(t *testing.T) {
	dir := t.TempDir()
	repo, err := filestore.NewTaskRepository(filestore.Config{
		Path: filepath.Join(dir, "missing", "tasks.json"),
	}, logger.NewNop())
	require.NoError(t, err)

	svc := services.NewTaskService(services.TaskServiceConfig{Repository: repo})
	app := NewApp(testConfig(""), logger.NewNop(), svc)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	data, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Internal server error"}`, string(data))
	assert.NotContains(t, string(data), "tasks.json")
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestClientScript_EscapesAttributeContexts(t *testing.T) {
	publicDir := filepath.Join("..", "..", "..", "public")
	svc := services.NewTaskService(services.TaskServiceConfig{Repository: newTempStore(t)})
	app := NewApp(testConfig(publicDir), logger.NewNop(), svc)

	// Priority is free text, so hostile values reach the client unchanged.
	req := httptest.NewRequest(http.MethodPost, "/api/tasks",
		strings.NewReader(`{"title":"a","priority":"x\" onmouseover=\"alert(1)"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/script.js", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	script := string(data)

	assert.Contains(t, script, `.replace(/"/g, '&quot;')`)
	assert.Contains(t, script, `.replace(/'/g, '&#39;')`)
	assert.Contains(t, script, "priorityClass(task.priority)")
	assert.NotContains(t, script, "priority-${priority}\"")
	assert.NotContains(t, script, "textContent = value")
}

func newTempStore(t *testing.T) *filestore.TaskRepository {
	t.Helper()
	repo, err := filestore.NewTaskRepository(filestore.Config{Path: filepath.Join(t.TempDir(), "tasks.json")}, nil)
	require.NoError(t, err)
	require.NoError(t, repo.EnsureFile())
	return repo
}
