package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	healthy := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") })

	tests := []struct {
		name           string
		mode           string
		deps           map[string]Pinger
		expectedStatus int
		expectedHealth string
		expectChecks   map[string]string
	}{
		{
			name:           "basic mode skips checks",
			deps:           map[string]Pinger{"todoist": down},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
		},
		{
			name:           "extended all healthy",
			mode:           "extended",
			deps:           map[string]Pinger{"todoist": healthy, "redis": healthy},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectChecks:   map[string]string{"todoist": "healthy", "redis": "healthy"},
		},
		{
			name:           "extended with a failing dependency",
			mode:           "extended",
			deps:           map[string]Pinger{"todoist": healthy, "rabbitmq": down},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "unhealthy",
			expectChecks:   map[string]string{"todoist": "healthy", "rabbitmq": "unhealthy"},
		},
		{
			name:           "nil dependencies are skipped",
			mode:           "extended",
			deps:           map[string]Pinger{"todoist": healthy, "postgres": nil},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectChecks:   map[string]string{"todoist": "healthy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthChecker(tt.deps)
			w := httptest.NewRecorder()
			h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/healthz?mode="+tt.mode, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tt.expectedHealth {
				t.Errorf("Expected status '%s', got '%s'", tt.expectedHealth, resp.Status)
			}
			if len(resp.Checks) != len(tt.expectChecks) {
				t.Fatalf("Expected %d checks, got %d: %v", len(tt.expectChecks), len(resp.Checks), resp.Checks)
			}
			for name, want := range tt.expectChecks {
				if got := resp.Checks[name]; !strings.HasPrefix(got, want) {
					t.Errorf("Expected check %s to start with '%s', got '%s'", name, want, got)
				}
			}
		})
	}
}

func TestVersionInfo(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	VersionInfo(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["version"] != Version {
		t.Errorf("Expected version '%s', got '%s'", Version, body["version"])
	}
}
