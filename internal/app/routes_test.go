package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/docbase/internal/pkg"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePinger struct {
	err         error
	hadDeadline bool
}

func (f *fakePinger) Ping(ctx context.Context) error {
	_, f.hadDeadline = ctx.Deadline()
	return f.err
}

type mockModule struct {
	path   string
	called bool
	prefix string
}

func (m *mockModule) RegisterRoutes(api *gin.RouterGroup) {
	m.called = true
	m.prefix = api.BasePath()
	path := m.path
	if path == "" {
		path = "/probe"
	}
	api.GET(path, func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})
}

func setupTestRouter(t *testing.T, deps *RouteDeps) *gin.Engine {
	t.Helper()
	r := gin.New()
	if deps.Modules == nil {
		deps.Modules = []Module{&mockModule{}}
	}
	if err := RegisterRoutes(r, deps); err != nil {
		t.Fatalf("RegisterRoutes() error = %v", err)
	}
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

type healthBody struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		store      Pinger
		wantCode   int
		wantStatus string
		wantDB     string
	}{
		{"ok", &fakePinger{}, http.StatusOK, "ok", "ok"},
		{"store down", &fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "degraded", "error"},
		{"no store", nil, http.StatusServiceUnavailable, "degraded", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupTestRouter(t, &RouteDeps{Store: tt.store, Mode: gin.TestMode})
			w := serve(r, http.MethodGet, "/health")

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			var body healthBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("json decode error: %v", err)
			}
			if body.Status != tt.wantStatus {
				t.Errorf("status field = %q, want %q", body.Status, tt.wantStatus)
			}
			if body.Components["database"] != tt.wantDB {
				t.Errorf("database component = %q, want %q", body.Components["database"], tt.wantDB)
			}
		})
	}
}

func TestHealthHandler_PingHasDeadline(t *testing.T) {
	store := &fakePinger{}
	r := setupTestRouter(t, &RouteDeps{Store: store, Mode: gin.TestMode})
	serve(r, http.MethodGet, "/health")

	if !store.hadDeadline {
		t.Fatal("expected the ping context to carry a deadline")
	}
}

func TestRegisterRoutes_Errors(t *testing.T) {
	tests := []struct {
		name string
		r    *gin.Engine
		deps *RouteDeps
	}{
		{"nil router", nil, &RouteDeps{Modules: []Module{&mockModule{}}}},
		{"nil deps", gin.New(), nil},
		{"no modules", gin.New(), &RouteDeps{}},
		{"nil module entry", gin.New(), &RouteDeps{Modules: []Module{&mockModule{}, nil}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := RegisterRoutes(tt.r, tt.deps); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRegisterRoutes_ModulesMountOnAPIGroup(t *testing.T) {
	m1, m2 := &mockModule{path: "/one"}, &mockModule{path: "/two"}
	r := setupTestRouter(t, &RouteDeps{Modules: []Module{m1, m2}, Store: &fakePinger{}})

	for i, m := range []*mockModule{m1, m2} {
		if !m.called {
			t.Errorf("module %d was not registered", i)
		}
		if m.prefix != APIPrefix {
			t.Errorf("module %d prefix = %q, want %q", i, m.prefix, APIPrefix)
		}
	}

	for _, path := range []string{"/api/v1/one", "/api/v1/two"} {
		if w := serve(r, http.MethodGet, path); w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, w.Code)
		}
	}
}

func TestRegisterRoutes_RequestTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    bool
	}{
		{"enabled", time.Second, true},
		{"disabled", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupTestRouter(t, &RouteDeps{Store: &fakePinger{}, RequestTimeout: tt.timeout})
			w := serve(r, http.MethodGet, "/api/v1/probe")

			var body struct {
				Deadline bool `json:"deadline"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("json decode error: %v", err)
			}
			if body.Deadline != tt.want {
				t.Errorf("deadline = %v, want %v", body.Deadline, tt.want)
			}
		})
	}
}

func TestRegisterRoutes_Swagger(t *testing.T) {
	tests := []struct {
		mode     string
		wantCode int
	}{
		{gin.DebugMode, http.StatusOK},
		{gin.TestMode, http.StatusOK},
		{gin.ReleaseMode, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			r := setupTestRouter(t, &RouteDeps{Store: &fakePinger{}, Mode: tt.mode})
			w := serve(r, http.MethodGet, "/swagger/doc.json")
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestRegisterRoutes_SwaggerDocDescribesUsers(t *testing.T) {
	r := setupTestRouter(t, &RouteDeps{Store: &fakePinger{}, Mode: gin.DebugMode})
	w := serve(r, http.MethodGet, "/swagger/doc.json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var doc struct {
		BasePath string         `json:"basePath"`
		Paths    map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not valid JSON: %v", err)
	}
	if doc.BasePath != APIPrefix {
		t.Errorf("basePath = %q, want %q", doc.BasePath, APIPrefix)
	}
	for _, p := range []string{"/users", "/users/export", "/users/exists/{email}", "/users/{email}"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Errorf("doc.json missing path %s", p)
		}
	}
}

func TestNoRouteHandler_JSON(t *testing.T) {
	r := setupTestRouter(t, &RouteDeps{Store: &fakePinger{}})

	for _, path := range []string{"/nonexistent", "/api/v1/nonexistent"} {
		w := serve(r, http.MethodGet, path)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d, want 404", path, w.Code)
		}
		var resp pkg.Response
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: json decode error: %v", path, err)
		}
		if resp.Code != http.StatusNotFound || resp.Message != "not found" {
			t.Errorf("%s: resp = %+v", path, resp)
		}
	}
}

func TestNoMethodHandler_JSON(t *testing.T) {
	r := setupTestRouter(t, &RouteDeps{Store: &fakePinger{}})

	w := serve(r, http.MethodPost, "/api/v1/probe")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
	var resp pkg.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json decode error: %v", err)
	}
	if resp.Message != "method not allowed" {
		t.Errorf("message = %q, want %q", resp.Message, "method not allowed")
	}
}
