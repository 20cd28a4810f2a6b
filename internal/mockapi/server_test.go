package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tempus-app/tempus/internal/models"
)

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body.Message
}

var authed = map[string]string{"Authorization": "Bearer tok", "Content-Type": "application/json"}

func TestHandlerResponses(t *testing.T) {
	s := New(nil)
	s.AddToken("tok", "user-1")
	s.AddToken("other", "user-2")
	owned := s.SeedTask("user-1", models.Task{TaskName: "Mine", TaskStartDate: "2025-04-14"})
	s.SeedTask("user-2", models.Task{TaskName: "Theirs", TaskStartDate: "2025-04-14"})
	h := s.Handler()

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		headers     map[string]string
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "missing token",
			method:      http.MethodGet,
			path:        "/lists",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Unauthorized",
		},
		{
			name:        "unknown token",
			method:      http.MethodGet,
			path:        "/lists",
			headers:     map[string]string{"Authorization": "Bearer nope"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Unauthorized",
		},
		{
			name:        "unknown route",
			method:      http.MethodGet,
			path:        "/nowhere",
			headers:     authed,
			wantStatus:  http.StatusNotFound,
			wantMessage: "Route not found",
		},
		{
			name:        "other user's task",
			method:      http.MethodGet,
			path:        "/task/" + owned.TaskID,
			headers:     map[string]string{"Authorization": "Bearer other"},
			wantStatus:  http.StatusNotFound,
			wantMessage: "Task not found",
		},
		{
			name:        "create without name",
			method:      http.MethodPost,
			path:        "/task",
			body:        `{"task_description":"x"}`,
			headers:     authed,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "task_name is required",
		},
		{
			name:        "create with wrong content type",
			method:      http.MethodPost,
			path:        "/task",
			body:        `{"task_name":"x"}`,
			headers:     map[string]string{"Authorization": "Bearer tok", "Content-Type": "text/plain"},
			wantStatus:  http.StatusUnsupportedMediaType,
			wantMessage: "Content-Type must be application/json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body, tt.headers)
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := message(t, rec); got != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, got)
			}
		})
	}
}

func TestTasksByMonthOnlyReturnsOwnTasks(t *testing.T) {
	s := New(nil)
	s.AddToken("tok", "user-1")
	s.SeedTask("user-1", models.Task{TaskName: "April", TaskStartDate: "2025-04-02"})
	s.SeedTask("user-1", models.Task{TaskName: "May", TaskStartDate: "2025-05-02"})
	s.SeedTask("user-2", models.Task{TaskName: "Someone else", TaskStartDate: "2025-04-03"})

	rec := do(t, s.Handler(), http.MethodGet, "/tasks/month/4/2025", "", authed)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body models.APIResponse[[]models.Task]
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].TaskName != "April" {
		t.Errorf("Expected only April, got %+v", body.Data)
	}
}

func TestRateLimit(t *testing.T) {
	s := New(nil)
	s.AddToken("tok", "user-1")
	if err := s.EnableRateLimit("2-M", nil); err != nil {
		t.Fatalf("EnableRateLimit failed: %v", err)
	}
	h := s.Handler()

	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodGet, "/lists", "", authed); rec.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	rec := do(t, h, http.MethodGet, "/lists", "", authed)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", rec.Code)
	}
	if got := message(t, rec); got != "Too many requests" {
		t.Errorf("Expected JSON limit message, got %q", got)
	}

	// a different client has its own budget
	other := map[string]string{"Authorization": "Bearer tok", "X-Forwarded-For": "203.0.113.9, 10.0.0.1"}
	if rec := do(t, h, http.MethodGet, "/lists", "", other); rec.Code != http.StatusOK {
		t.Errorf("Expected other client to pass, got %d", rec.Code)
	}
}

func TestEnableRateLimitInvalid(t *testing.T) {
	if err := New(nil).EnableRateLimit("lots", nil); err == nil {
		t.Error("Expected error for malformed rate")
	}
}

func TestCORSPreflight(t *testing.T) {
	s := New(nil)
	s.EnableCORS([]string{"http://localhost:8081"})
	h := s.Handler()

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{name: "allowed origin", origin: "http://localhost:8081", wantOrigin: "http://localhost:8081"},
		{name: "other origin", origin: "http://evil.example", wantOrigin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodOptions, "/tasks/month/4/2025", "", map[string]string{
				"Origin":                         tt.origin,
				"Access-Control-Request-Method":  http.MethodGet,
				"Access-Control-Request-Headers": "Authorization",
			})
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Expected allow origin %q, got %q", tt.wantOrigin, got)
			}
			if s.Calls() != 0 {
				t.Error("Preflight should not reach the API handlers")
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, remote: "10.0.0.1:1234", want: "203.0.113.9"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": " 198.51.100.2 "}, remote: "10.0.0.1:1234", want: "198.51.100.2"},
		{name: "remote addr", remote: "192.0.2.1:5555", want: "192.0.2.1:5555"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/lists", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
