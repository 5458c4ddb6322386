package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Hritabrataghosh/neon-tasks/internal/auth"
	"github.com/Hritabrataghosh/neon-tasks/internal/domain"
	"github.com/Hritabrataghosh/neon-tasks/internal/repo"
	"github.com/Hritabrataghosh/neon-tasks/internal/service"
)

// memTaskRepo is a minimal in-memory TaskRepo for exercising the HTTP
// surface end to end without a running store.
type memTaskRepo struct {
	tasks map[primitive.ObjectID]domain.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[primitive.ObjectID]domain.Task)}
}

func (m *memTaskRepo) Create(_ context.Context, t domain.Task) (domain.Task, error) {
	t.ID = primitive.NewObjectID()
	m.tasks[t.ID] = t
	return t, nil
}

func (m *memTaskRepo) GetByID(_ context.Context, owner, id primitive.ObjectID) (domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.Owner != owner {
		return domain.Task{}, mongo.ErrNoDocuments
	}
	return t, nil
}

func (m *memTaskRepo) List(_ context.Context, owner primitive.ObjectID, f repo.ListFilter) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range m.tasks {
		if t.Owner != owner {
			continue
		}
		if f.Status == repo.StatusActive && t.Completed {
			continue
		}
		if f.Status == repo.StatusCompleted && !t.Completed {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memTaskRepo) Replace(_ context.Context, owner, id primitive.ObjectID, patch domain.Task) (domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.Owner != owner {
		return domain.Task{}, mongo.ErrNoDocuments
	}
	t.Title = patch.Title
	t.Description = patch.Description
	t.Priority = patch.Priority
	t.Category = patch.Category
	t.DueDate = patch.DueDate
	t.Tags = patch.Tags
	t.UpdatedAt = time.Now().UTC()
	m.tasks[id] = t
	return t, nil
}

func (m *memTaskRepo) Delete(_ context.Context, owner, id primitive.ObjectID) error {
	t, ok := m.tasks[id]
	if !ok || t.Owner != owner {
		return mongo.ErrNoDocuments
	}
	delete(m.tasks, id)
	return nil
}

func (m *memTaskRepo) Toggle(_ context.Context, owner, id primitive.ObjectID) (domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.Owner != owner {
		return domain.Task{}, mongo.ErrNoDocuments
	}
	t.Completed = !t.Completed
	m.tasks[id] = t
	return t, nil
}

func (m *memTaskRepo) DeleteCompleted(_ context.Context, owner primitive.ObjectID) (int64, error) {
	var n int64
	for id, t := range m.tasks {
		if t.Owner == owner && t.Completed {
			delete(m.tasks, id)
			n++
		}
	}
	return n, nil
}

func (m *memTaskRepo) Overview(_ context.Context, owner primitive.ObjectID, now time.Time) (domain.Overview, error) {
	var o domain.Overview
	for _, t := range m.tasks {
		if t.Owner != owner {
			continue
		}
		o.Total++
		if t.Completed {
			o.Completed++
			continue
		}
		if t.Priority == domain.PriorityHigh || t.Priority == domain.PriorityCritical {
			o.HighPriority++
		}
		if t.DueDate != nil && t.DueDate.Before(now) {
			o.Overdue++
		}
	}
	o.Pending = o.Total - o.Completed
	return o, nil
}

func (m *memTaskRepo) GroupByField(_ context.Context, owner primitive.ObjectID, field string) ([]domain.Bucket, error) {
	counts := map[string]int64{}
	for _, t := range m.tasks {
		if t.Owner != owner {
			continue
		}
		switch field {
		case "category":
			counts[t.Category]++
		case "priority":
			counts[t.Priority]++
		}
	}
	buckets := []domain.Bucket{}
	for v, n := range counts {
		buckets = append(buckets, domain.Bucket{Value: v, Count: n})
	}
	return buckets, nil
}

func (m *memTaskRepo) Activity(_ context.Context, owner primitive.ObjectID, since time.Time) ([]domain.DayCount, error) {
	counts := map[string]int64{}
	for _, t := range m.tasks {
		if t.Owner != owner || t.CreatedAt.Before(since) {
			continue
		}
		counts[t.CreatedAt.UTC().Format("2006-01-02")]++
	}
	days := []domain.DayCount{}
	for d, n := range counts {
		days = append(days, domain.DayCount{Date: d, Count: n})
	}
	return days, nil
}

type testAPI struct {
	router *gin.Engine
	tokens *auth.TokenManager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := service.NewTaskService(newMemTaskRepo(), nil)
	h := NewTaskHandler(svc)

	r := gin.New()
	todos := r.Group("/api/todos", auth.RequireToken(tokens))
	todos.GET("", h.List)
	todos.GET("/stats", h.Stats)
	todos.GET("/stats/dashboard", h.DashboardStats)
	todos.GET("/:id", h.GetByID)
	todos.POST("", h.Create)
	todos.PUT("/:id", h.Update)
	todos.PATCH("/:id/toggle", h.Toggle)
	todos.DELETE("/:id", h.Delete)
	todos.DELETE("/bulk/completed", h.BulkDeleteCompleted)

	return &testAPI{router: r, tokens: tokens}
}

func (a *testAPI) tokenFor(t *testing.T, userID string) string {
	t.Helper()
	tok, err := a.tokens.Issue(userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (a *testAPI) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/todos"},
		{http.MethodPost, "/api/todos"},
		{http.MethodGet, "/api/todos/stats"},
		{http.MethodDelete, "/api/todos/bulk/completed"},
	}
	for _, tc := range cases {
		w := api.do(t, tc.method, tc.path, "", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", tc.method, tc.path, w.Code)
		}
	}
}

func TestListEmptyReturnsArray(t *testing.T) {
	api := newTestAPI(t)
	token := api.tokenFor(t, primitive.NewObjectID().Hex())

	w := api.do(t, http.MethodGet, "/api/todos", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	// the client maps over the response unconditionally, so even an
	// empty result must be a JSON array
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestCreateTask(t *testing.T) {
	api := newTestAPI(t)
	token := api.tokenFor(t, primitive.NewObjectID().Hex())

	w := api.do(t, http.MethodPost, "/api/todos", token,
		`{"title":"write tests","priority":"high","tags":"go, backend"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	decodeJSON(t, w, &resp)
	if resp["id"] == "" || resp["id"] == nil {
		t.Error("response must carry an id")
	}
	if resp["title"] != "write tests" || resp["priority"] != "high" {
		t.Errorf("resp = %v", resp)
	}
	if resp["completed"] != false {
		t.Error("new task must report completed=false")
	}
	tags, ok := resp["tags"].([]interface{})
	if !ok || len(tags) != 2 || tags[0] != "go" || tags[1] != "backend" {
		t.Errorf("tags = %v, want [go backend] from comma string", resp["tags"])
	}
}

func TestCreateValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.tokenFor(t, primitive.NewObjectID().Hex())

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"priority":"low"}`},
		{"blank title", `{"title":"   "}`},
		{"bad priority", `{"title":"x","priority":"urgent"}`},
		{"malformed json", `{"title":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/todos", token, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, body = %s, want 400", w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateIgnoresUnknownFields(t *testing.T) {
	api := newTestAPI(t)
	token := api.tokenFor(t, primitive.NewObjectID().Hex())

	w := api.do(t, http.MethodPost, "/api/todos", token,
		`{"title":"ok","owner":"someone-else","completed":true,"bogus":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]interface{}
	decodeJSON(t, w, &resp)
	if resp["completed"] != false {
		t.Error("client-supplied completed must be ignored on create")
	}
}

func TestTaskLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token := api.tokenFor(t, primitive.NewObjectID().Hex())

	w := api.do(t, http.MethodPost, "/api/todos", token, `{"title":"lifecycle"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created map[string]interface{}
	decodeJSON(t, w, &created)
	id := created["id"].(string)

	w = api.do(t, http.MethodPatch, "/api/todos/"+id+"/toggle", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("toggle: %d %s", w.Code, w.Body.String())
	}
	var toggled map[string]interface{}
	decodeJSON(t, w, &toggled)
	if toggled["completed"] != true {
		t.Error("toggle must flip completed to true")
	}

	w = api.do(t, http.MethodPut, "/api/todos/"+id, token,
		`{"title":"lifecycle renamed","category":"work"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	var updated map[string]interface{}
	decodeJSON(t, w, &updated)
	if updated["title"] != "lifecycle renamed" || updated["category"] != "work" {
		t.Errorf("updated = %v", updated)
	}
	if updated["completed"] != true {
		t.Error("update must leave completed alone")
	}

	w = api.do(t, http.MethodDelete, "/api/todos/"+id, token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
	var deleted map[string]interface{}
	decodeJSON(t, w, &deleted)
	if deleted["id"] != id {
		t.Errorf("delete response id = %v, want %s", deleted["id"], id)
	}

	w = api.do(t, http.MethodGet, "/api/todos/"+id, token, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", w.Code)
	}
}

func TestNotFoundIsUniform(t *testing.T) {
	api := newTestAPI(t)
	alice := api.tokenFor(t, primitive.NewObjectID().Hex())
	bob := api.tokenFor(t, primitive.NewObjectID().Hex())

	w := api.do(t, http.MethodPost, "/api/todos", alice, `{"title":"private"}`)
	var created map[string]interface{}
	decodeJSON(t, w, &created)
	id := created["id"].(string)

	// another user's task, a fresh id and a malformed id all answer the
	// same way, leaking nothing about what exists
	for _, target := range []string{id, primitive.NewObjectID().Hex(), "zzz"} {
		w := api.do(t, http.MethodGet, "/api/todos/"+target, bob, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s as bob: status = %d, want 404", target, w.Code)
		}
		w = api.do(t, http.MethodDelete, "/api/todos/"+target, bob, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("DELETE %s as bob: status = %d, want 404", target, w.Code)
		}
	}
}

func TestBulkDeleteCompleted(t *testing.T) {
	api := newTestAPI(t)
	token := api.tokenFor(t, primitive.NewObjectID().Hex())

	for i := 0; i < 2; i++ {
		w := api.do(t, http.MethodPost, "/api/todos", token, `{"title":"done"}`)
		var created map[string]interface{}
		decodeJSON(t, w, &created)
		api.do(t, http.MethodPatch, "/api/todos/"+created["id"].(string)+"/toggle", token, "")
	}
	api.do(t, http.MethodPost, "/api/todos", token, `{"title":"keep"}`)

	w := api.do(t, http.MethodDelete, "/api/todos/bulk/completed", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]interface{}
	decodeJSON(t, w, &resp)
	if resp["message"] != "2 tasks deleted" {
		t.Errorf("message = %v, want %q", resp["message"], "2 tasks deleted")
	}
	if resp["count"] != float64(2) {
		t.Errorf("count = %v, want 2", resp["count"])
	}
}

func TestStatsShape(t *testing.T) {
	api := newTestAPI(t)
	token := api.tokenFor(t, primitive.NewObjectID().Hex())

	for i := 0; i < 4; i++ {
		w := api.do(t, http.MethodPost, "/api/todos", token, `{"title":"t"}`)
		var created map[string]interface{}
		decodeJSON(t, w, &created)
		if i < 2 {
			api.do(t, http.MethodPatch, "/api/todos/"+created["id"].(string)+"/toggle", token, "")
		}
	}

	w := api.do(t, http.MethodGet, "/api/todos/stats", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Overview struct {
			Total     int64 `json:"total"`
			Completed int64 `json:"completed"`
			Pending   int64 `json:"pending"`
		} `json:"overview"`
		CompletionRate int `json:"completionRate"`
	}
	decodeJSON(t, w, &resp)
	if resp.Overview.Total != 4 || resp.Overview.Completed != 2 || resp.Overview.Pending != 2 {
		t.Errorf("overview = %+v", resp.Overview)
	}
	if resp.CompletionRate != 50 {
		t.Errorf("completionRate = %d, want 50", resp.CompletionRate)
	}
}

func TestDashboardStatsShape(t *testing.T) {
	api := newTestAPI(t)
	token := api.tokenFor(t, primitive.NewObjectID().Hex())

	api.do(t, http.MethodPost, "/api/todos", token, `{"title":"a","category":"work","priority":"high"}`)
	api.do(t, http.MethodPost, "/api/todos", token, `{"title":"b","category":"work"}`)

	w := api.do(t, http.MethodGet, "/api/todos/stats/dashboard", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]interface{}
	decodeJSON(t, w, &resp)

	// the analytics client reads bucket labels from "_id"
	byCategory, ok := resp["byCategory"].([]interface{})
	if !ok || len(byCategory) != 1 {
		t.Fatalf("byCategory = %v", resp["byCategory"])
	}
	bucket := byCategory[0].(map[string]interface{})
	if bucket["_id"] != "work" || bucket["count"] != float64(2) {
		t.Errorf("bucket = %v", bucket)
	}
	activity, ok := resp["activity"].([]interface{})
	if !ok || len(activity) != 1 {
		t.Fatalf("activity = %v", resp["activity"])
	}
	day := activity[0].(map[string]interface{})
	if day["_id"] != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("activity day = %v", day["_id"])
	}
	if _, ok := resp["overview"].(map[string]interface{}); !ok {
		t.Errorf("overview missing: %v", resp)
	}
}
