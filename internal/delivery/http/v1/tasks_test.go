package v1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-api/internal/repository"
	"github.com/adanyl0v/go-task-api/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	repo   *repository.MemoryTaskRepository
}

func newTestServer(t *testing.T, withReset bool) *testServer {
	t.Helper()

	repo := repository.NewMemoryTaskRepository()
	var opts []services.TaskServiceOption
	if withReset {
		opts = append(opts, services.WithReset())
	}
	svc := services.NewTaskService(zerolog.Nop(), repo, opts...)

	router := gin.New()
	RegisterRoutes(router, New(zerolog.Nop(), svc, repo), withReset)
	return &testServer{router: router, repo: repo}
}

func (s *testServer) do(t *testing.T, method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return s.do(t, method, target, "application/json", r)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (s *testServer) storedCount(t *testing.T) int {
	t.Helper()

	tasks, err := s.repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	return len(tasks)
}

func TestHandleGetTasks_Empty(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.doJSON(t, http.MethodGet, "/todos", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %s, want []", got)
	}
}

func TestHandleCreateTask(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.doJSON(t, http.MethodPost, "/todos", `{"task":"  Buy milk  "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	created := decode[getTaskResponse](t, rec)
	if created.ID != 1 || created.Label != "Buy milk" || created.Done {
		t.Fatalf("unexpected created task: %+v", created)
	}

	rec = s.doJSON(t, http.MethodGet, "/todos", "")
	tasks := decode[[]getTaskResponse](t, rec)
	if len(tasks) != 1 || tasks[0] != created {
		t.Fatalf("unexpected task list: %+v", tasks)
	}
}

func TestHandleCreateTask_Form(t *testing.T) {
	s := newTestServer(t, false)

	form := url.Values{"task": {"from form"}}
	rec := s.do(t, http.MethodPost, "/todos", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if created := decode[getTaskResponse](t, rec); created.Label != "from form" {
		t.Fatalf("unexpected label: %q", created.Label)
	}
}

func TestHandleCreateTask_EmptyLabel(t *testing.T) {
	s := newTestServer(t, false)

	for _, body := range []string{`{"task":""}`, `{"task":"   "}`, `{}`} {
		rec := s.doJSON(t, http.MethodPost, "/todos", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, rec.Code)
		}
		resp := decode[map[string]string](t, rec)
		if resp["error"] != services.ErrEmptyLabel.Message {
			t.Fatalf("body %s: error = %q", body, resp["error"])
		}
	}

	rec := s.doJSON(t, http.MethodPost, "/todos", `{"task":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed json: status = %d, want 400", rec.Code)
	}

	if n := s.storedCount(t); n != 0 {
		t.Fatalf("expected no stored tasks, got %d", n)
	}
}

func TestHandleGetTask(t *testing.T) {
	s := newTestServer(t, false)
	s.doJSON(t, http.MethodPost, "/todos", `{"task":"show me"}`)

	rec := s.doJSON(t, http.MethodGet, "/todos/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if task := decode[getTaskResponse](t, rec); task.Label != "show me" {
		t.Fatalf("unexpected task: %+v", task)
	}

	if rec = s.doJSON(t, http.MethodGet, "/todos/2", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing task: status = %d, want 404", rec.Code)
	}
	if rec = s.doJSON(t, http.MethodGet, "/todos/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-integer id: status = %d, want 400", rec.Code)
	}
}

func TestHandleSetTaskStatus(t *testing.T) {
	s := newTestServer(t, false)
	s.doJSON(t, http.MethodPost, "/todos", `{"task":"A"}`)

	rec := s.doJSON(t, http.MethodPost, "/todos/1/status", `{"status":"done"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if task := decode[getTaskResponse](t, rec); !task.Done {
		t.Fatalf("expected done task: %+v", task)
	}

	rec = s.doJSON(t, http.MethodPost, "/todos/1/status", `{"status":"done"}`)
	if task := decode[getTaskResponse](t, rec); rec.Code != http.StatusOK || !task.Done {
		t.Fatalf("repeated done: status %d, task %+v", rec.Code, task)
	}

	rec = s.doJSON(t, http.MethodPost, "/todos/1/status?status=undone", "")
	if task := decode[getTaskResponse](t, rec); rec.Code != http.StatusOK || task.Done {
		t.Fatalf("query undone: status %d, task %+v", rec.Code, task)
	}

	form := url.Values{"status": {"done"}}
	rec = s.do(t, http.MethodPost, "/todos/1/status", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if task := decode[getTaskResponse](t, rec); rec.Code != http.StatusOK || !task.Done {
		t.Fatalf("form done: status %d, task %+v", rec.Code, task)
	}

	if rec = s.doJSON(t, http.MethodPost, "/todos/1/status", `{"status":"finished"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid status: status = %d, want 400", rec.Code)
	}
	if rec = s.doJSON(t, http.MethodPost, "/todos/7/status", `{"status":"done"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("missing task: status = %d, want 404", rec.Code)
	}
}

func TestHandleDeleteTask(t *testing.T) {
	s := newTestServer(t, false)
	s.doJSON(t, http.MethodPost, "/todos", `{"task":"A"}`)
	s.doJSON(t, http.MethodPost, "/todos", `{"task":"B"}`)
	s.doJSON(t, http.MethodPost, "/todos/1/status", `{"status":"done"}`)

	rec := s.doJSON(t, http.MethodDelete, "/todos/2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp := decode[map[string]bool](t, rec); !resp["deleted"] {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	if rec = s.doJSON(t, http.MethodDelete, "/todos/2", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status = %d, want 404", rec.Code)
	}

	tasks := decode[[]getTaskResponse](t, s.doJSON(t, http.MethodGet, "/todos", ""))
	want := getTaskResponse{ID: 1, Label: "A", Done: true}
	if len(tasks) != 1 || tasks[0] != want {
		t.Fatalf("tasks = %+v, want [%+v]", tasks, want)
	}
}

type apiDeleteResponse struct {
	Error bool   `json:"error"`
	ID    *int64 `json:"id"`
}

func TestHandleAPIDeleteTask(t *testing.T) {
	s := newTestServer(t, false)
	s.doJSON(t, http.MethodPost, "/todos", `{"task":"A"}`)
	s.doJSON(t, http.MethodPost, "/todos", `{"task":"B"}`)

	rec := s.doJSON(t, http.MethodPost, "/api/todos/delete", `{"id":1}`)
	resp := decode[apiDeleteResponse](t, rec)
	if rec.Code != http.StatusOK || resp.Error || resp.ID == nil || *resp.ID != 1 {
		t.Fatalf("json number: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = s.doJSON(t, http.MethodPost, "/api/todos/delete", `{"id":"1"}`)
	resp = decode[apiDeleteResponse](t, rec)
	if !resp.Error || resp.ID == nil || *resp.ID != 1 {
		t.Fatalf("already deleted: body %s", rec.Body.String())
	}

	form := url.Values{"id": {"2"}}
	rec = s.do(t, http.MethodPost, "/api/todos/delete", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	resp = decode[apiDeleteResponse](t, rec)
	if resp.Error || resp.ID == nil || *resp.ID != 2 {
		t.Fatalf("form id: body %s", rec.Body.String())
	}

	if n := s.storedCount(t); n != 0 {
		t.Fatalf("expected empty store, got %d tasks", n)
	}
}

func TestHandleAPIDeleteTask_NonIntegerID(t *testing.T) {
	s := newTestServer(t, false)
	s.doJSON(t, http.MethodPost, "/todos", `{"task":"keep"}`)

	bodies := []string{`{"id":"abc"}`, `{"id":1.5}`, `{"id":null}`, `{}`, `not json`}
	for _, body := range bodies {
		rec := s.doJSON(t, http.MethodPost, "/api/todos/delete", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("body %s: status = %d, want 200", body, rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"error":true}` {
			t.Fatalf("body %s: response = %s", body, got)
		}
	}

	form := url.Values{"id": {"abc"}}
	rec := s.do(t, http.MethodPost, "/api/todos/delete", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":true}` {
		t.Fatalf("form abc: response = %s", got)
	}

	if n := s.storedCount(t); n != 1 {
		t.Fatalf("store was mutated: %d tasks", n)
	}
}

func TestHandleResetTasks(t *testing.T) {
	t.Run("not registered", func(t *testing.T) {
		s := newTestServer(t, false)
		s.doJSON(t, http.MethodPost, "/todos", `{"task":"A"}`)

		rec := s.doJSON(t, http.MethodPost, "/todos/reset", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if n := s.storedCount(t); n != 1 {
			t.Fatalf("expected task to survive, got %d tasks", n)
		}
	})

	t.Run("registered", func(t *testing.T) {
		s := newTestServer(t, true)
		s.doJSON(t, http.MethodPost, "/todos", `{"task":"A"}`)
		s.doJSON(t, http.MethodPost, "/todos", `{"task":"B"}`)

		rec := s.doJSON(t, http.MethodPost, "/todos/reset", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if resp := decode[map[string]bool](t, rec); !resp["reset"] {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}

		created := decode[getTaskResponse](t, s.doJSON(t, http.MethodPost, "/todos", `{"task":"C"}`))
		if created.ID != 1 {
			t.Fatalf("expected id 1 after reset, got %d", created.ID)
		}
	})
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.doJSON(t, http.MethodGet, "/todos", "")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("down") }

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, false)
	if rec := s.doJSON(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	repo := repository.NewMemoryTaskRepository()
	router := gin.New()
	RegisterRoutes(router, New(zerolog.Nop(), services.NewTaskService(zerolog.Nop(), repo), downPinger{}), false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
