package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddlewareWritesRequestLine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	router := gin.New()
	router.Use(Middleware(logger))
	router.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusTeapot, "x") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping/42", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not json: %v (%q)", err, buf.String())
	}
	if entry["route"] != "/ping/:id" {
		t.Fatalf("unexpected route: %v", entry["route"])
	}
	if entry["level"] != "WARN" {
		t.Fatalf("4xx should log at WARN, got %v", entry["level"])
	}
	if entry["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected status: %v", entry["status"])
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "error", "text")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at error level: %q", buf.String())
	}
}
