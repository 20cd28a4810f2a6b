package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"github.com/tempus-app/tempus/internal/config"
	"github.com/tempus-app/tempus/internal/gateway"
	"github.com/tempus-app/tempus/internal/identity"
	"github.com/tempus-app/tempus/internal/mockapi"
	"github.com/tempus-app/tempus/internal/models"
	"github.com/tempus-app/tempus/internal/store"
	"github.com/tempus-app/tempus/internal/tokenstore"
)

type harness struct {
	api    *mockapi.Server
	tokens *tokenstore.Memory
	token  string
	url    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	tok, err := jwt.NewBuilder().
		Subject("user-1").
		Claim("username", "ada").
		Claim("email", "ada@example.com").
		Expiration(time.Now().Add(time.Hour)).
		Build()
	if err != nil {
		t.Fatalf("Failed to build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("test-secret")))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	api := mockapi.New(nil)
	api.AddToken(string(signed), "user-1")
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &harness{api: api, tokens: tokenstore.NewMemory(), token: string(signed), url: srv.URL}
}

func (h *harness) factory(ctx context.Context) (*App, error) {
	session := identity.NewSession(h.tokens, nil, zap.NewNop())
	client := gateway.New(h.url, session)
	return &App{
		Config:  &config.Config{APIBaseURL: h.url, RefreshSchedule: "@every 1h"},
		Logger:  zap.NewNop(),
		Session: session,
		Client:  client,
		Store:   store.New(client),
	}, nil
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	if _, err := h.run("login", "--token", h.token); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

func (h *harness) run(args ...string) (string, error) {
	root := NewRootCmd(h.factory)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAuthCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("whoami")
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if !strings.Contains(out, "Not signed in") {
		t.Errorf("Expected not signed in, got %q", out)
	}

	out, err = h.run("login", "--token", h.token)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out, "Signed in as ada") {
		t.Errorf("Expected username in login output, got %q", out)
	}

	out, err = h.run("whoami")
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if !strings.Contains(out, "user-1") {
		t.Errorf("Expected user id in whoami output, got %q", out)
	}

	if _, err := h.run("logout"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, ok, _ := h.tokens.Get(context.Background(), identity.KeyAccessToken); ok {
		t.Error("Expected access token to be removed")
	}
}

func TestLoginRequiresToken(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run("login"); err == nil {
		t.Error("Expected error without --token")
	}
}

func TestSignedOutCommandsHint(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("lists")
	if err == nil {
		t.Fatal("Expected error when signed out")
	}
	if !strings.Contains(err.Error(), "tempus login") {
		t.Errorf("Expected sign-in hint, got %v", err)
	}
	if calls := h.api.Calls(); calls != 0 {
		t.Errorf("Expected no requests when signed out, got %d", calls)
	}
}

func TestCalendarCommand(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	completed := true
	h.api.SeedTask("user-1", models.Task{TaskName: "Standup", TaskStartDate: "2025-04-14", TaskStartTime: "09:00", IsEvent: true, IsCompleted: &completed})
	h.api.SeedTask("user-1", models.Task{TaskName: "Review", TaskStartDate: "2025-04-14", TaskStartTime: "15:00"})
	h.api.SeedTask("user-1", models.Task{TaskName: "Other day", TaskStartDate: "2025-04-20"})

	out, err := h.run("calendar", "--date", "2025-04-14")
	if err != nil {
		t.Fatalf("calendar failed: %v", err)
	}

	for _, want := range []string{"April 2025", "[14].", "14 APR", "9:00 AM", "[x]", "3:00 PM", "Review"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Other day") {
		t.Errorf("Expected only the selected day's tasks:\n%s", out)
	}
}

func TestCalendarInvalidMonth(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	before := h.api.Calls()

	if _, err := h.run("calendar", "--month", "13", "--year", "2025"); err == nil {
		t.Error("Expected validation error for month 13")
	}
	if h.api.Calls() != before {
		t.Error("Expected no request for an invalid month")
	}
}

func TestTaskLifecycle(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	out, err := h.run("task", "add", "Dentist", "--date", "2025-04-03", "--start", "10:00", "--event")
	if err != nil {
		t.Fatalf("task add failed: %v", err)
	}
	if !strings.Contains(out, "Created Dentist") {
		t.Fatalf("Unexpected add output %q", out)
	}
	id := strings.TrimSuffix(out[strings.LastIndex(out, "(")+1:], ")\n")

	if _, err := h.run("task", "done", id); err != nil {
		t.Fatalf("task done failed: %v", err)
	}
	task, ok := h.api.Task(id)
	if !ok || !task.Completed() {
		t.Fatalf("Expected task completed on the server, got %+v", task)
	}
	if task.TaskCompletedDate == "" {
		t.Error("Expected completion date to be recorded")
	}

	if _, err := h.run("task", "undo", id); err != nil {
		t.Fatalf("task undo failed: %v", err)
	}
	task, _ = h.api.Task(id)
	if task.Completed() {
		t.Error("Expected task pending after undo")
	}

	if _, err := h.run("task", "edit", id, "--name", "Dentist checkup"); err != nil {
		t.Fatalf("task edit failed: %v", err)
	}
	task, _ = h.api.Task(id)
	if task.TaskName != "Dentist checkup" {
		t.Errorf("Expected renamed task, got %q", task.TaskName)
	}
	if task.TaskStartTime != "10:00" {
		t.Errorf("Expected untouched start time, got %q", task.TaskStartTime)
	}

	out, err = h.run("task", "show", id)
	if err != nil {
		t.Fatalf("task show failed: %v", err)
	}
	if !strings.Contains(out, "Dentist checkup") || !strings.Contains(out, "event") {
		t.Errorf("Unexpected show output:\n%s", out)
	}

	if _, err := h.run("task", "delete", id); err != nil {
		t.Fatalf("task delete failed: %v", err)
	}
	if _, ok := h.api.Task(id); ok {
		t.Error("Expected task deleted on the server")
	}
}

func TestTaskCommandErrors(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	plain := h.api.SeedTask("user-1", models.Task{TaskName: "Groceries", TaskStartDate: "2025-04-03"})

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "add without name",
			args:    []string{"task", "add", "--date", "2025-04-03"},
			wantErr: "task_name",
		},
		{
			name:    "done on a plain task",
			args:    []string{"task", "done", plain.TaskID},
			wantErr: "only events",
		},
		{
			name:    "edit without fields",
			args:    []string{"task", "edit", plain.TaskID},
			wantErr: "no fields",
		},
		{
			name:    "show missing task",
			args:    []string{"task", "show", "missing"},
			wantErr: "Task not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestListCommands(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	out, err := h.run("list", "add", "Work", "--color", "#112233")
	if err != nil {
		t.Fatalf("list add failed: %v", err)
	}
	if !strings.Contains(out, "Created list 1 Work (#112233)") {
		t.Errorf("Unexpected list add output %q", out)
	}

	out, err = h.run("list", "add", "Home")
	if err != nil {
		t.Fatalf("list add failed: %v", err)
	}
	if !strings.Contains(out, "(#") {
		t.Errorf("Expected a palette color, got %q", out)
	}

	out, err = h.run("lists")
	if err != nil {
		t.Fatalf("lists failed: %v", err)
	}
	if !strings.Contains(out, "Work") || !strings.Contains(out, "Home") {
		t.Errorf("Expected both lists:\n%s", out)
	}

	listID := int64(1)
	h.api.SeedTask("user-1", models.Task{TaskName: "Report", TaskListID: &listID, TaskStartDate: "2025-04-02"})
	h.api.SeedTask("user-1", models.Task{TaskName: "Someday", TaskListID: &listID})

	out, err = h.run("tasks", "list", "1")
	if err != nil {
		t.Fatalf("tasks list failed: %v", err)
	}
	for _, want := range []string{"2 APR", "Report", "NO DATE", "Someday"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestTasksListingCommands(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.SeedTask("user-1", models.Task{TaskName: "April task", TaskStartDate: "2025-04-10"})
	h.api.SeedTask("user-1", models.Task{TaskName: "May task", TaskStartDate: "2025-05-01"})

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "month",
			args:    []string{"tasks", "month", "--month", "4", "--year", "2025"},
			want:    []string{"April 2025", "10 APR", "April task"},
			notWant: []string{"May task"},
		},
		{
			name:    "day",
			args:    []string{"tasks", "day", "--date", "2025-05-01"},
			want:    []string{"1 MAY", "May task"},
			notWant: []string{"April task"},
		},
		{
			name: "year",
			args: []string{"tasks", "year", "--year", "2025"},
			want: []string{"April task", "May task"},
		},
		{
			name: "empty day",
			args: []string{"tasks", "day", "--date", "2025-06-01"},
			want: []string{"No tasks"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.run(tt.args...)
			if err != nil {
				t.Fatalf("command failed: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Expected %q in output:\n%s", want, out)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(out, notWant) {
					t.Errorf("Did not expect %q in output:\n%s", notWant, out)
				}
			}
		})
	}
}

func TestCalendarSelection(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		month   int
		year    int
		want    string
		wantErr bool
	}{
		{name: "explicit date", date: "2025-04-14", want: "2025-04-14"},
		{name: "month other than today", month: 2, year: 1999, want: "1999-02-01"},
		{name: "bad date", date: "14/04/2025", wantErr: true},
		{name: "bad month", month: 0, year: 99, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calendarSelection(tt.date, tt.month, tt.year)
			if (err != nil) != tt.wantErr {
				t.Fatalf("calendarSelection() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Key() != tt.want {
				t.Errorf("calendarSelection() = %s, want %s", got.Key(), tt.want)
			}
		})
	}
}

func TestTaskPriorityFlagHelp(t *testing.T) {
	cmd := NewTaskCmd(nil)
	for _, name := range []string{"add", "edit"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil {
			t.Fatalf("Find %s: %v", name, err)
		}
		flag := sub.Flags().Lookup("priority")
		if flag == nil {
			t.Fatalf("%s has no --priority flag", name)
		}
		if !strings.Contains(flag.Usage, "1 high") || !strings.Contains(flag.Usage, "3 low") {
			t.Errorf("%s --priority usage = %q", name, flag.Usage)
		}
	}
}
