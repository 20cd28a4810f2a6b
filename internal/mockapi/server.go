// Package mockapi is an in-memory implementation of the task/list REST API.
// It backs the gateway and store tests and the `tempus mock-server` command.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/tempus-app/tempus/internal/models"
)

// ServiceName names the mock API in traces
const ServiceName = "tempus-mock-api"

// failure is an injected error response
type failure struct {
	status  int
	message string
}

// Server holds all tasks and lists in memory
type Server struct {
	mu         sync.Mutex
	tokens     map[string]string
	tasks      map[string]models.Task
	order      []string
	lists      []models.List
	nextListID int64
	failures   []failure
	calls      int
	hook       func(r *http.Request)
	logger     *zap.Logger
	now        func() time.Time

	corsOrigins []string
	rateLimit   func(http.Handler) http.Handler
}

// New creates an empty server
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		tokens:     make(map[string]string),
		tasks:      make(map[string]models.Task),
		nextListID: 1,
		logger:     logger,
		now:        time.Now,
	}
}

// AddToken authorises bearer token for userID
func (s *Server) AddToken(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
}

// SeedTask stores a task as if it had been created by userID. A missing id
// is generated.
func (s *Server) SeedTask(userID string, t models.Task) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.TaskID == "" {
		t.TaskID = uuid.NewString()
	}
	t.UserID = userID
	if t.TaskCreationDate == "" {
		t.TaskCreationDate = s.now().UTC().Format(time.RFC3339)
	}
	if _, exists := s.tasks[t.TaskID]; !exists {
		s.order = append(s.order, t.TaskID)
	}
	s.tasks[t.TaskID] = t.Clone()
	return t.Clone()
}

// SeedList stores a list for userID and returns it with its id
func (s *Server) SeedList(userID string, l models.List) models.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ListID = s.nextListID
	s.nextListID++
	l.UserID = userID
	if l.ListCreationDate == "" {
		l.ListCreationDate = s.now().UTC().Format(time.RFC3339)
	}
	s.lists = append(s.lists, l)
	return l
}

// FailNext makes the next n authorised requests fail with status and message.
// An empty message sends an empty JSON object.
func (s *Server) FailNext(n, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.failures = append(s.failures, failure{status: status, message: message})
	}
}

// SetHook installs a function run at the start of every request, before the
// server lock is taken. Tests use it to hold requests in flight.
func (s *Server) SetHook(hook func(r *http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// Calls returns how many requests reached the server
func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Task returns the stored copy of a task
func (s *Server) Task(taskID string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	return t.Clone(), ok
}

// Handler returns the API router
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	origins, rateLimit := s.corsOrigins, s.rateLimit
	s.mu.Unlock()

	chain := []mux.MiddlewareFunc{otelmux.Middleware(ServiceName), s.logging, s.count}
	if rateLimit != nil {
		chain = append(chain, rateLimit)
	}
	chain = append(chain, requireJSON, s.auth, s.injectFailures)

	r := mux.NewRouter()
	r.Use(chain...)

	r.HandleFunc("/task", s.createTask).Methods(http.MethodPost)
	r.HandleFunc("/task/{id}", s.getTask).Methods(http.MethodGet)
	r.HandleFunc("/task/{id}", s.updateTask).Methods(http.MethodPatch)
	r.HandleFunc("/task/{id}", s.deleteTask).Methods(http.MethodDelete)
	r.HandleFunc("/tasks/day/{date}", s.tasksByDay).Methods(http.MethodGet)
	r.HandleFunc("/tasks/month/{month:[0-9]+}/{year:[0-9]+}", s.tasksByMonth).Methods(http.MethodGet)
	r.HandleFunc("/tasks/year/{year:[0-9]+}", s.tasksByYear).Methods(http.MethodGet)
	r.HandleFunc("/tasks/list/{listID:[0-9]+}", s.tasksByList).Methods(http.MethodGet)
	r.HandleFunc("/list", s.createList).Methods(http.MethodPost)
	r.HandleFunc("/lists", s.getLists).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found")
	})
	return withCORS(r, origins)
}

// ListenAndServe serves the API on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mock_api_listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mock api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("mock api shutdown: %w", err)
		}
		return nil
	}
}
