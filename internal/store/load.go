package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tempus-app/tempus/internal/datetime"
	logpkg "github.com/tempus-app/tempus/internal/logger"
	"github.com/tempus-app/tempus/internal/models"
)

// LoadTasksForWindow fetches the tasks of a month and replaces that window's
// partition. Concurrent loads of the same window share one request. On
// failure the previous partition is kept and the task error flag is set.
func (s *Store) LoadTasksForWindow(ctx context.Context, month, year int) ([]models.Task, error) {
	w := datetime.Window{Month: month, Year: year}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	v, shared, err := s.share(ctx, "window:"+w.Key(), func(ctx context.Context) (any, error) {
		s.begin(&s.taskRes, Event{Type: LoadStarted, Window: w})

		ts, err := s.gw.TasksByMonth(ctx, month, year)

		s.mu.Lock()
		s.taskRes.inFlight--
		if err != nil {
			s.taskRes.err = err
			s.mu.Unlock()
			s.loadFailed(Event{Type: LoadFailed, Window: w, Err: err})
			return nil, err
		}
		s.tasksByWindow[w] = nonNil(cloneTasks(ts))
		s.taskRes.err = nil
		s.mu.Unlock()

		s.logger.Debug("window_loaded",
			zap.String("window", w.Key()),
			zap.Int("count", len(ts)),
		)
		s.emit(Event{Type: WindowLoaded, Window: w})
		return ts, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("window_load_shared", zap.String("window", w.Key()))
	}
	return nonNil(cloneTasks(v.([]models.Task))), nil
}

// LoadTasksForList fetches the tasks of one list and replaces its partition
func (s *Store) LoadTasksForList(ctx context.Context, listID int64) ([]models.Task, error) {
	v, _, err := s.share(ctx, fmt.Sprintf("list:%d", listID), func(ctx context.Context) (any, error) {
		s.begin(&s.taskRes, Event{Type: LoadStarted, ListID: listID})

		ts, err := s.gw.TasksByList(ctx, listID)

		s.mu.Lock()
		s.taskRes.inFlight--
		if err != nil {
			s.taskRes.err = err
			s.mu.Unlock()
			s.loadFailed(Event{Type: LoadFailed, ListID: listID, Err: err})
			return nil, err
		}
		s.tasksByList[listID] = nonNil(cloneTasks(ts))
		s.taskRes.err = nil
		s.mu.Unlock()

		s.logger.Debug("list_tasks_loaded",
			zap.Int64("list_id", listID),
			zap.Int("count", len(ts)),
		)
		s.emit(Event{Type: ListTasksLoaded, ListID: listID})
		return ts, nil
	})
	if err != nil {
		return nil, err
	}
	return nonNil(cloneTasks(v.([]models.Task))), nil
}

// LoadLists fetches every list of the user and replaces the cached lists
func (s *Store) LoadLists(ctx context.Context) ([]models.List, error) {
	v, _, err := s.share(ctx, "lists", func(ctx context.Context) (any, error) {
		s.begin(&s.listRes, Event{Type: LoadStarted})

		ls, err := s.gw.GetLists(ctx)

		s.mu.Lock()
		s.listRes.inFlight--
		if err != nil {
			s.listRes.err = err
			s.mu.Unlock()
			s.loadFailed(Event{Type: LoadFailed, Err: err})
			return nil, err
		}
		s.lists = slices.Clone(ls)
		if s.lists == nil {
			s.lists = []models.List{}
		}
		s.listsLoaded = true
		s.listRes.err = nil
		s.mu.Unlock()

		s.logger.Debug("lists_loaded", zap.Int("count", len(ls)))
		s.emit(Event{Type: ListsLoaded})
		return ls, nil
	})
	if err != nil {
		return nil, err
	}
	out := slices.Clone(v.([]models.List))
	if out == nil {
		out = []models.List{}
	}
	return out, nil
}

// Refresh reloads a window and the lists concurrently. Each load keeps its
// own stale data and error flag; a failure of one never cancels the other.
func (s *Store) Refresh(ctx context.Context, w datetime.Window) error {
	var g errgroup.Group
	var taskErr, listErr error
	g.Go(func() error {
		_, taskErr = s.LoadTasksForWindow(ctx, w.Month, w.Year)
		return nil
	})
	g.Go(func() error {
		_, listErr = s.LoadLists(ctx)
		return nil
	})
	_ = g.Wait()
	return errors.Join(taskErr, listErr)
}

// share runs fn once per key for all concurrent callers. fn runs without the
// caller's cancellation; each caller still returns when its own ctx is done.
func (s *Store) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, bool, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(key, func() (any, error) { return fn(fetchCtx) })
	select {
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (s *Store) begin(r *resource, ev Event) {
	s.mu.Lock()
	r.inFlight++
	s.mu.Unlock()
	s.emit(ev)
}

func (s *Store) loadFailed(ev Event) {
	fields := []zap.Field{zap.String("error", logpkg.SanitizeError(ev.Err))}
	if ev.Window != (datetime.Window{}) {
		fields = append(fields, zap.String("window", ev.Window.Key()))
	}
	if ev.ListID != 0 {
		fields = append(fields, zap.Int64("list_id", ev.ListID))
	}
	s.logger.Warn("load_failed", fields...)
	s.emit(ev)
}

func nonNil(ts []models.Task) []models.Task {
	if ts == nil {
		return []models.Task{}
	}
	return ts
}
