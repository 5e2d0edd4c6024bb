package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
)

func setupLoggerRouter(log *slog.Logger, requestID gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(requestID)
	r.Use(Logger(log))

	r.GET("/users/:email", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/missing", func(c *gin.Context) {
		c.String(http.StatusNotFound, "not found")
	})
	r.GET("/error", func(c *gin.Context) {
		_ = c.Error(errors.New("storage unavailable"))
		c.String(http.StatusInternalServerError, "error")
	})
	r.POST("/users", func(c *gin.Context) {
		c.String(http.StatusCreated, "created")
	})
	return r
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		method    string
		path      string
		wantCode  int
		wantLevel string
	}{
		{http.MethodGet, "/users/a@example.com", http.StatusOK, "level=INFO"},
		{http.MethodPost, "/users", http.StatusCreated, "level=INFO"},
		{http.MethodGet, "/missing", http.StatusNotFound, "level=WARN"},
		{http.MethodGet, "/error", http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var logBuf bytes.Buffer
			r := setupLoggerRouter(newTestLogger(&logBuf), RequestID())

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			if out := logBuf.String(); !strings.Contains(out, tt.wantLevel) {
				t.Errorf("expected %s, got:\n%s", tt.wantLevel, out)
			}
		})
	}
}

func TestLogger_ContainsExpectedFields(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupLoggerRouter(newTestLogger(&logBuf), RequestID())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/a@example.com", nil))

	out := logBuf.String()
	for _, field := range []string{
		"method=GET", "route=/users/:email", "path=/users/a@example.com",
		"status=200", "latency=", "size=2", "client_ip=",
	} {
		if !strings.Contains(out, field) {
			t.Errorf("expected log to contain %q, got:\n%s", field, out)
		}
	}
	if strings.Contains(out, "errors=") {
		t.Errorf("expected no errors attribute, got:\n%s", out)
	}
}

func TestLogger_IncludesHandlerErrors(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupLoggerRouter(newTestLogger(&logBuf), RequestID())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/error", nil))

	if out := logBuf.String(); !strings.Contains(out, "storage unavailable") {
		t.Errorf("expected handler error in log, got:\n%s", out)
	}
}

func TestLogger_IncludesRequestIDFromContext(t *testing.T) {
	var logBuf bytes.Buffer
	log, err := logger.New(
		logger.WithConsoleWriter(&logBuf),
		logger.WithConsoleFormat(logger.FormatText),
		logger.WithConsoleColor(false),
		logger.WithLevel(slog.LevelDebug),
		logger.WithMiddleware(logger.ContextMiddleware()),
	)
	if err != nil {
		t.Fatalf("logger.New error: %v", err)
	}
	defer log.Close()

	r := setupLoggerRouter(log.Logger, RequestIDWithConfig(RequestIDConfig{TrustUpstream: true}))

	req := httptest.NewRequest(http.MethodGet, "/users/a@example.com", nil)
	req.Header.Set(requestIDHeader, "test-req-id-789")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if out := logBuf.String(); !strings.Contains(out, "test-req-id-789") {
		t.Errorf("expected log to contain request_id 'test-req-id-789', got:\n%s", out)
	}
}
