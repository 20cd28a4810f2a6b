// Package store holds the client-side view of tasks and lists. All writes go
// through the gateway; caches are partitioned by month window and by list.
package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tempus-app/tempus/internal/datetime"
	"github.com/tempus-app/tempus/internal/models"
	"github.com/tempus-app/tempus/internal/validation"
)

// Gateway is the subset of the REST client the store depends on
type Gateway interface {
	CreateTask(ctx context.Context, in models.CreateTaskInput) (models.Task, error)
	GetTask(ctx context.Context, taskID string) (models.Task, error)
	UpdateTask(ctx context.Context, u models.UpdateTaskInput) (models.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	TasksByMonth(ctx context.Context, month, year int) ([]models.Task, error)
	TasksByList(ctx context.Context, listID int64) ([]models.Task, error)
	CreateList(ctx context.Context, in models.CreateListInput) (models.List, error)
	GetLists(ctx context.Context) ([]models.List, error)
}

// Status is the coarse loading/error state of one resource class
type Status struct {
	Loading bool
	Err     error
}

// resource tracks in-flight loads and the last load error
type resource struct {
	inFlight int
	err      error
}

func (r resource) status() Status {
	return Status{Loading: r.inFlight > 0, Err: r.err}
}

// Store owns the task and list caches. It is safe for concurrent use; the
// lock is never held across a gateway call.
type Store struct {
	gw      Gateway
	logger  *zap.Logger
	palette *validation.Palette
	now     func() time.Time

	mu            sync.Mutex
	tasksByWindow map[datetime.Window][]models.Task
	tasksByList   map[int64][]models.Task
	lists         []models.List
	listsLoaded   bool
	taskRes       resource
	listRes       resource
	toggles       map[string][]*toggleOp
	subscribers   map[int]func(Event)
	nextSubID     int

	loads singleflight.Group
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPalette sets the palette used for lists created without a colour
func WithPalette(p *validation.Palette) Option {
	return func(s *Store) { s.palette = p }
}

// WithClock overrides the clock used for completion timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store backed by gw
func New(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:            gw,
		logger:        zap.NewNop(),
		now:           time.Now,
		tasksByWindow: make(map[datetime.Window][]models.Task),
		tasksByList:   make(map[int64][]models.Task),
		toggles:       make(map[string][]*toggleOp),
		subscribers:   make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TasksForWindow returns a copy of the cached window partition and whether it
// has been loaded
func (s *Store) TasksForWindow(w datetime.Window) ([]models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.tasksByWindow[w]
	return cloneTasks(ts), ok
}

// TasksForList returns a copy of the cached list partition and whether it has
// been loaded
func (s *Store) TasksForList(listID int64) ([]models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.tasksByList[listID]
	return cloneTasks(ts), ok
}

// Lists returns a copy of the cached lists
func (s *Store) Lists() []models.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lists)
}

// TaskStatus reports loading and error state for task loads
func (s *Store) TaskStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskRes.status()
}

// ListStatus reports loading and error state for list loads
func (s *Store) ListStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listRes.status()
}

// CachedTask finds a task in any partition
func (s *Store) CachedTask(taskID string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.findLocked(taskID)
	return t.Clone(), ok
}

// GetTask reads a single task from the server without touching the caches
func (s *Store) GetTask(ctx context.Context, taskID string) (models.Task, error) {
	return s.gw.GetTask(ctx, taskID)
}

// findLocked returns the first cached copy of a task
func (s *Store) findLocked(taskID string) (models.Task, bool) {
	for _, ts := range s.tasksByWindow {
		if i := indexOf(ts, taskID); i >= 0 {
			return ts[i], true
		}
	}
	for _, ts := range s.tasksByList {
		if i := indexOf(ts, taskID); i >= 0 {
			return ts[i], true
		}
	}
	return models.Task{}, false
}

// eachPartitionLocked calls fn for every partition, letting it rewrite the
// slice in place
func (s *Store) eachPartitionLocked(fn func([]models.Task) []models.Task) {
	for w, ts := range s.tasksByWindow {
		s.tasksByWindow[w] = fn(ts)
	}
	for id, ts := range s.tasksByList {
		s.tasksByList[id] = fn(ts)
	}
}

// replaceLocked swaps the task with the same id in every partition holding it
func (s *Store) replaceLocked(t models.Task) int {
	n := 0
	s.eachPartitionLocked(func(ts []models.Task) []models.Task {
		if i := indexOf(ts, t.TaskID); i >= 0 {
			ts[i] = t.Clone()
			n++
		}
		return ts
	})
	return n
}

// mutateLocked applies fn to every cached copy of a task
func (s *Store) mutateLocked(taskID string, fn func(*models.Task)) int {
	n := 0
	s.eachPartitionLocked(func(ts []models.Task) []models.Task {
		if i := indexOf(ts, taskID); i >= 0 {
			fn(&ts[i])
			n++
		}
		return ts
	})
	return n
}

// removeLocked drops a task from every partition holding it
func (s *Store) removeLocked(taskID string) int {
	n := 0
	s.eachPartitionLocked(func(ts []models.Task) []models.Task {
		if i := indexOf(ts, taskID); i >= 0 {
			n++
			return slices.Delete(ts, i, i+1)
		}
		return ts
	})
	return n
}

func indexOf(ts []models.Task, taskID string) int {
	return slices.IndexFunc(ts, func(t models.Task) bool { return t.TaskID == taskID })
}

func cloneTasks(ts []models.Task) []models.Task {
	if ts == nil {
		return nil
	}
	out := make([]models.Task, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}
