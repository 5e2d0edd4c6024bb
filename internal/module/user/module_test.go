package user

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestUserModuleRegisterRoutes checks the routes the module mounts on the API
// group. app is not imported to keep the dependency direction clean.
func TestUserModuleRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	NewModule(&UserHandler{}).RegisterRoutes(r.Group("/api/v1"))

	expected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users"},
		{http.MethodPost, "/api/v1/users"},
		{http.MethodGet, "/api/v1/users/export"},
		{http.MethodGet, "/api/v1/users/exists/:email"},
		{http.MethodGet, "/api/v1/users/:email"},
		{http.MethodPatch, "/api/v1/users/:email"},
		{http.MethodDelete, "/api/v1/users/:email"},
	}

	registered := make(map[string]bool)
	for _, ri := range r.Routes() {
		registered[ri.Method+":"+ri.Path] = true
	}

	for _, exp := range expected {
		if !registered[exp.method+":"+exp.path] {
			t.Errorf("expected route %s %s to be registered", exp.method, exp.path)
		}
	}
	if got := len(r.Routes()); got != len(expected) {
		t.Errorf("registered %d routes, want %d", got, len(expected))
	}
}

func TestNewModule_PanicsOnNilHandler(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected NewModule(nil) to panic")
		}
	}()
	NewModule(nil)
}
