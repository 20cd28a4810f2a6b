package store

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/tempus-app/tempus/internal/apperrors"
	logpkg "github.com/tempus-app/tempus/internal/logger"
	"github.com/tempus-app/tempus/internal/models"
	"github.com/tempus-app/tempus/internal/validation"
)

// CreateTask validates the input, creates the task on the server and appends
// the server's copy to every loaded window containing its start date and to
// its list partition when that is loaded. Nothing changes locally on failure.
func (s *Store) CreateTask(ctx context.Context, in models.CreateTaskInput) (models.Task, error) {
	in, err := validation.ValidateTaskForCreate(in)
	if err != nil {
		return models.Task{}, err
	}

	t, err := s.gw.CreateTask(ctx, in)
	if err != nil {
		s.logger.Warn("task_create_failed", zap.String("error", logpkg.SanitizeError(err)))
		return models.Task{}, err
	}

	s.mu.Lock()
	placed := s.placeLocked(t)
	s.mu.Unlock()

	s.logger.Info("task_created",
		zap.String("task_id", t.TaskID),
		zap.String("task_name", logpkg.SanitizeName(t.TaskName)),
		zap.Int("partitions", placed),
	)
	s.emit(Event{Type: TaskCreated, TaskID: t.TaskID})
	return t.Clone(), nil
}

// placeLocked appends a new task to the partitions it belongs to
func (s *Store) placeLocked(t models.Task) int {
	n := 0
	if d, err := t.StartDate(); err == nil {
		for w, ts := range s.tasksByWindow {
			if w.Contains(d) && indexOf(ts, t.TaskID) < 0 {
				s.tasksByWindow[w] = append(ts, t.Clone())
				n++
			}
		}
	}
	if t.TaskListID != nil {
		if ts, ok := s.tasksByList[*t.TaskListID]; ok && indexOf(ts, t.TaskID) < 0 {
			s.tasksByList[*t.TaskListID] = append(ts, t.Clone())
			n++
		}
	}
	return n
}

// CreateList validates the input, creates the list and appends it to the
// cached lists
func (s *Store) CreateList(ctx context.Context, in models.CreateListInput) (models.List, error) {
	in, err := validation.ValidateListForCreate(in, s.palette)
	if err != nil {
		return models.List{}, err
	}

	l, err := s.gw.CreateList(ctx, in)
	if err != nil {
		s.logger.Warn("list_create_failed", zap.String("error", logpkg.SanitizeError(err)))
		return models.List{}, err
	}

	s.mu.Lock()
	if !slices.ContainsFunc(s.lists, func(x models.List) bool { return x.ListID == l.ListID }) {
		s.lists = append(s.lists, l)
	}
	s.mu.Unlock()

	s.logger.Info("list_created",
		zap.Int64("list_id", l.ListID),
		zap.String("list_name", logpkg.SanitizeName(l.ListName)),
	)
	s.emit(Event{Type: ListCreated, ListID: l.ListID})
	return l, nil
}

// UpdateTask sends a partial update and, on success, replaces the task in
// every partition holding it. Caches are untouched on failure.
func (s *Store) UpdateTask(ctx context.Context, u models.UpdateTaskInput) (models.Task, error) {
	u, err := validation.ValidateTaskForUpdate(u)
	if err != nil {
		return models.Task{}, err
	}

	updated, err := s.gw.UpdateTask(ctx, u)
	if err != nil {
		s.logger.Warn("task_update_failed",
			zap.String("task_id", u.TaskID),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		return models.Task{}, err
	}

	s.mu.Lock()
	var n int
	if updated.TaskID == u.TaskID {
		n = s.replaceLocked(updated)
	} else {
		// server sent no usable copy
		n = s.mutateLocked(u.TaskID, func(t *models.Task) { *t = u.Apply(*t) })
		if cached, ok := s.findLocked(u.TaskID); ok {
			updated = cached
		}
	}
	s.mu.Unlock()

	s.logger.Info("task_updated",
		zap.String("task_id", u.TaskID),
		zap.Strings("fields", u.ChangedFields()),
		zap.Int("partitions", n),
	)
	s.emit(Event{Type: TaskUpdated, TaskID: u.TaskID})
	return updated.Clone(), nil
}

// DeleteTask deletes the task on the server and, on success, removes it from
// every partition. The task stays cached on failure.
func (s *Store) DeleteTask(ctx context.Context, taskID string) error {
	if strings.TrimSpace(taskID) == "" {
		return apperrors.NewValidation("task_id", "is required")
	}

	if err := s.gw.DeleteTask(ctx, taskID); err != nil {
		s.logger.Warn("task_delete_failed",
			zap.String("task_id", taskID),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		return err
	}

	s.mu.Lock()
	n := s.removeLocked(taskID)
	s.mu.Unlock()

	s.logger.Info("task_deleted", zap.String("task_id", taskID), zap.Int("partitions", n))
	s.emit(Event{Type: TaskDeleted, TaskID: taskID})
	return nil
}
