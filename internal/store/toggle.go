package store

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tempus-app/tempus/internal/apperrors"
	logpkg "github.com/tempus-app/tempus/internal/logger"
	"github.com/tempus-app/tempus/internal/models"
)

// CompletionState is the completion lifecycle of an event task
type CompletionState string

const (
	Pending             CompletionState = "pending"
	Completed           CompletionState = "completed"
	TogglingToCompleted CompletionState = "toggling_to_completed"
	TogglingToPending   CompletionState = "toggling_to_pending"
)

// completion is the pair of fields a toggle changes
type completion struct {
	isCompleted   *bool
	completedDate string
}

func completionOf(t models.Task) completion {
	c := completion{completedDate: t.TaskCompletedDate}
	if t.IsCompleted != nil {
		v := *t.IsCompleted
		c.isCompleted = &v
	}
	return c
}

func (c completion) applyTo(t *models.Task) {
	if c.isCompleted == nil {
		t.IsCompleted = nil
	} else {
		v := *c.isCompleted
		t.IsCompleted = &v
	}
	t.TaskCompletedDate = c.completedDate
}

// toggleOp is one queued toggle of a task. prior is what the cache must go
// back to if this toggle fails and nothing is queued behind it.
type toggleOp struct {
	target bool
	prior  completion
	done   chan struct{}
}

// CompletionState reports the completion state of a cached task
func (s *Store) CompletionState(taskID string) CompletionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ops := s.toggles[taskID]; len(ops) > 0 {
		if ops[len(ops)-1].target {
			return TogglingToCompleted
		}
		return TogglingToPending
	}
	if t, ok := s.findLocked(taskID); ok && t.Completed() {
		return Completed
	}
	return Pending
}

// ToggleTaskCompletion sets is_completed on every cached copy of an event task
// before returning, then sends the change to the server in the background.
// If the request fails the cached value is rolled back. The returned channel
// yields the request's result once and is then closed.
//
// Toggles of the same task are sent one at a time in call order. A failed
// toggle with another toggle queued behind it leaves the cache alone and hands
// its prior value to the next toggle instead.
func (s *Store) ToggleTaskCompletion(ctx context.Context, task models.Task, isCompleted bool) <-chan error {
	result := make(chan error, 1)

	if !task.CanToggleCompletion() {
		s.logger.Debug("toggle_ignored_not_event", zap.String("task_id", task.TaskID))
		result <- nil
		close(result)
		return result
	}
	if strings.TrimSpace(task.TaskID) == "" {
		result <- apperrors.NewValidation("task_id", "is required")
		close(result)
		return result
	}

	applied := completion{isCompleted: &isCompleted}
	if isCompleted {
		applied.completedDate = s.now().UTC().Format(time.RFC3339)
	}

	s.mu.Lock()
	current := task
	if cached, ok := s.findLocked(task.TaskID); ok {
		current = cached
	}
	op := &toggleOp{target: isCompleted, prior: completionOf(current), done: make(chan struct{})}
	var prev *toggleOp
	if queue := s.toggles[task.TaskID]; len(queue) > 0 {
		prev = queue[len(queue)-1]
	}
	s.toggles[task.TaskID] = append(s.toggles[task.TaskID], op)
	s.mutateLocked(task.TaskID, applied.applyTo)
	s.mu.Unlock()

	s.emit(Event{Type: ToggleApplied, TaskID: task.TaskID})

	go func() {
		defer close(result)
		result <- s.sendToggle(ctx, task.TaskID, op, prev, applied)
	}()
	return result
}

func (s *Store) sendToggle(ctx context.Context, taskID string, op, prev *toggleOp, applied completion) error {
	if prev != nil {
		select {
		case <-prev.done:
		case <-ctx.Done():
			err := ctx.Err()
			s.settleToggle(taskID, op, models.Task{}, err)
			return err
		}
	}

	u := models.UpdateTaskInput{
		TaskID:      taskID,
		IsCompleted: models.Some(applied.isCompleted),
	}
	if applied.completedDate != "" {
		u.TaskCompletedDate = models.Some(applied.completedDate)
	}
	updated, err := s.gw.UpdateTask(ctx, u)
	s.settleToggle(taskID, op, updated, err)
	return err
}

// settleToggle removes op from its queue and either reconciles, rolls back or
// hands its prior value on to the next queued toggle
func (s *Store) settleToggle(taskID string, op *toggleOp, updated models.Task, err error) {
	s.mu.Lock()
	queue := s.toggles[taskID]
	i := slices.Index(queue, op)
	var next *toggleOp
	if i >= 0 && i+1 < len(queue) {
		next = queue[i+1]
	}

	rolledBack := false
	switch {
	case err != nil && next != nil:
		next.prior = op.prior
	case err != nil:
		s.mutateLocked(taskID, op.prior.applyTo)
		rolledBack = true
	case next == nil && updated.TaskID == taskID && updated.Completed() == op.target:
		s.replaceLocked(updated)
	}

	if i >= 0 {
		queue = slices.Delete(queue, i, i+1)
	}
	if len(queue) == 0 {
		delete(s.toggles, taskID)
	} else {
		s.toggles[taskID] = queue
	}
	close(op.done)
	s.mu.Unlock()

	switch {
	case rolledBack:
		s.logger.Warn("toggle_rolled_back",
			zap.String("task_id", taskID),
			zap.Bool("target", op.target),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		s.emit(Event{Type: ToggleRolledBack, TaskID: taskID, Err: err})
	default:
		s.emit(Event{Type: ToggleSettled, TaskID: taskID, Err: err})
	}
}
