package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAPISpec(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	w := httptest.NewRecorder()

	handleOpenAPI()(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var spec struct {
		OpenAPI string         `json:"openapi"`
		Paths   map[string]any `json:"paths"`
	}
	if err := json.NewDecoder(w.Body).Decode(&spec); err != nil {
		t.Fatalf("decoding spec: %v", err)
	}
	if !strings.HasPrefix(spec.OpenAPI, "3.") {
		t.Errorf("openapi version = %q, want 3.x", spec.OpenAPI)
	}

	for _, path := range []string{
		"/healthz",
		"/api/tasks",
		"/api/user/quest-progress",
		"/api/user-tasks/all",
		"/api/track/events",
	} {
		if _, ok := spec.Paths[path]; !ok {
			t.Errorf("spec missing path %s", path)
		}
	}
}
