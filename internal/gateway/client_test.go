package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tempus-app/tempus/internal/apperrors"
	"github.com/tempus-app/tempus/internal/datetime"
	"github.com/tempus-app/tempus/internal/mockapi"
	"github.com/tempus-app/tempus/internal/models"
)

type staticTokens string

func (s staticTokens) GetToken(context.Context) (string, error) { return string(s), nil }

type failingTokens struct{ err error }

func (f failingTokens) GetToken(context.Context) (string, error) { return "", f.err }

func newMock(t *testing.T) (*mockapi.Server, *Client) {
	t.Helper()
	api := mockapi.New(nil)
	api.AddToken("good-token", "user-1")
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return api, New(srv.URL, staticTokens("good-token"))
}

func TestClient_NoTokenSkipsRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tokens TokenProvider
	}{
		{name: "empty token", tokens: staticTokens("")},
		{name: "provider error", tokens: failingTokens{err: errors.New("keychain locked")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := mockapi.New(nil)
			srv := httptest.NewServer(api.Handler())
			defer srv.Close()

			c := New(srv.URL, tt.tokens)
			_, err := c.TasksByMonth(context.Background(), 4, 2025)
			if !apperrors.IsAuth(err) {
				t.Fatalf("expected AuthError, got %v", err)
			}
			if api.Calls() != 0 {
				t.Errorf("expected no request, server saw %d", api.Calls())
			}
		})
	}
}

func TestClient_CreateAndFetch(t *testing.T) {
	t.Parallel()

	_, c := newMock(t)
	ctx := context.Background()

	created, err := c.CreateTask(ctx, models.CreateTaskInput{
		TaskName:      "Dentist",
		TaskStartDate: "2025-04-14",
		TaskStartTime: "09:00",
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.TaskID == "" {
		t.Fatal("expected server-assigned task id")
	}
	if created.UserID != "user-1" {
		t.Errorf("user id = %q", created.UserID)
	}

	month, err := c.TasksByMonth(ctx, 4, 2025)
	if err != nil {
		t.Fatalf("TasksByMonth: %v", err)
	}
	if len(month) != 1 || month[0].TaskID != created.TaskID {
		t.Errorf("unexpected month tasks: %+v", month)
	}

	other, err := c.TasksByMonth(ctx, 5, 2025)
	if err != nil {
		t.Fatalf("TasksByMonth: %v", err)
	}
	if other == nil || len(other) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", other)
	}

	day, err := c.TasksByDay(ctx, datetime.NewDate(2025, 4, 14))
	if err != nil || len(day) != 1 {
		t.Errorf("TasksByDay = %v, %v", day, err)
	}

	year, err := c.TasksByYear(ctx, 2025)
	if err != nil || len(year) != 1 {
		t.Errorf("TasksByYear = %v, %v", year, err)
	}

	got, err := c.GetTask(ctx, created.TaskID)
	if err != nil || got.TaskName != "Dentist" {
		t.Errorf("GetTask = %+v, %v", got, err)
	}
}

func TestClient_ServerMessageVerbatim(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		message string
		want    string
		isAuth  bool
	}{
		{name: "server message kept", status: http.StatusInternalServerError, message: "database exploded", want: "database exploded"},
		{name: "fallback when no message", status: http.StatusInternalServerError, message: "", want: "Failed to fetch tasks by month"},
		{name: "unauthorized", status: http.StatusUnauthorized, message: "Unauthorized", want: "Unauthorized", isAuth: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api, c := newMock(t)
			api.FailNext(1, tt.status, tt.message)

			_, err := c.TasksByMonth(context.Background(), 4, 2025)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
			if got := apperrors.IsAuth(err); got != tt.isAuth {
				t.Errorf("IsAuth = %v, want %v", got, tt.isAuth)
			}
			if !tt.isAuth {
				var se *apperrors.ServerError
				if !errors.As(err, &se) || se.StatusCode != tt.status {
					t.Errorf("expected ServerError with status %d, got %#v", tt.status, err)
				}
			}
		})
	}
}

func TestClient_UnknownTokenIsAuthError(t *testing.T) {
	t.Parallel()

	api := mockapi.New(nil)
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()

	c := New(srv.URL, staticTokens("stale"))
	_, err := c.GetLists(context.Background())
	if !apperrors.IsAuth(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Error("expected ErrUnauthenticated in chain")
	}
}

func TestClient_NotFound(t *testing.T) {
	t.Parallel()

	_, c := newMock(t)
	_, err := c.GetTask(context.Background(), "missing")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "Task not found" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestClient_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, staticTokens("good-token"))
	_, err := c.GetLists(context.Background())
	if !apperrors.IsNetwork(err) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if !apperrors.Retryable(err) {
		t.Error("network errors should be retryable")
	}
}

func TestClient_LegacyEnvelopeKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		call func(*Client) (int, error)
	}{
		{
			name: "tasksArr",
			body: `{"message":"ok","tasksArr":[{"task_id":"a","task_name":"A"},{"task_id":"b","task_name":"B"}]}`,
			call: func(c *Client) (int, error) {
				ts, err := c.TasksByList(context.Background(), 3)
				return len(ts), err
			},
		},
		{
			name: "listsArr",
			body: `{"message":"ok","listsArr":[{"list_id":1,"list_name":"Home"}]}`,
			call: func(c *Client) (int, error) {
				ls, err := c.GetLists(context.Background())
				return len(ls), err
			},
		},
		{
			name: "null data",
			body: `{"message":"ok","data":null}`,
			call: func(c *Client) (int, error) {
				ts, err := c.TasksByYear(context.Background(), 2025)
				if ts == nil {
					return -1, err
				}
				return len(ts), err
			},
		},
	}

	want := map[string]int{"tasksArr": 2, "listsArr": 1, "null data": 0}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			n, err := tt.call(New(srv.URL, staticTokens("t")))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != want[tt.name] {
				t.Errorf("got %d items, want %d", n, want[tt.name])
			}
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>oops</html>")
	}))
	defer srv.Close()

	_, err := New(srv.URL, staticTokens("t")).GetLists(context.Background())
	if !apperrors.IsServer(err) {
		t.Fatalf("expected ServerError, got %v", err)
	}
}

func TestClient_UpdateSendsOnlyChangedFields(t *testing.T) {
	t.Parallel()

	var captured map[string]json.RawMessage
	var method, path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path, auth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"message":"ok","data":{"task_id":"t1","task_name":"Renamed"}}`)
	}))
	defer srv.Close()

	u := models.UpdateTaskInput{TaskID: "t1"}
	u.TaskName = models.Some("Renamed")

	got, err := New(srv.URL, staticTokens("tok")).UpdateTask(context.Background(), u)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got.TaskName != "Renamed" {
		t.Errorf("task name = %q", got.TaskName)
	}
	if method != http.MethodPatch || path != "/task/t1" {
		t.Errorf("request = %s %s", method, path)
	}
	if auth != "Bearer tok" {
		t.Errorf("authorization = %q", auth)
	}
	if len(captured) != 2 {
		t.Errorf("expected task_id and task_name only, got %v", captured)
	}
	if _, ok := captured["task_name"]; !ok {
		t.Error("task_name missing from body")
	}
}

func TestClient_ValidationBeforeRequest(t *testing.T) {
	t.Parallel()

	api, c := newMock(t)
	ctx := context.Background()

	if _, err := c.TasksByMonth(ctx, 13, 2025); !apperrors.IsValidation(err) {
		t.Errorf("month 13: expected ValidationError, got %v", err)
	}
	if err := c.DeleteTask(ctx, " "); !apperrors.IsValidation(err) {
		t.Errorf("blank id: expected ValidationError, got %v", err)
	}
	if api.Calls() != 0 {
		t.Errorf("expected no requests, got %d", api.Calls())
	}
}

func TestClient_ListsAndDelete(t *testing.T) {
	t.Parallel()

	api, c := newMock(t)
	ctx := context.Background()

	list, err := c.CreateList(ctx, models.CreateListInput{ListName: "Work", ListIcon: "💼", ListColor: "#3A86FF"})
	if err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	if list.ListID != 1 {
		t.Errorf("list id = %d", list.ListID)
	}

	lid := list.ListID
	task := api.SeedTask("user-1", models.Task{TaskName: "Report", TaskListID: &lid})

	inList, err := c.TasksByList(ctx, lid)
	if err != nil || len(inList) != 1 {
		t.Fatalf("TasksByList = %v, %v", inList, err)
	}

	lists, err := c.GetLists(ctx)
	if err != nil || len(lists) != 1 || lists[0].ListName != "Work" {
		t.Errorf("GetLists = %v, %v", lists, err)
	}

	if err := c.DeleteTask(ctx, task.TaskID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, ok := api.Task(task.TaskID); ok {
		t.Error("task still stored after delete")
	}
}
