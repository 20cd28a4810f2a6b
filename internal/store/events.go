package store

import (
	"github.com/tempus-app/tempus/internal/datetime"
)

// EventType names a change to the store
type EventType string

const (
	WindowLoaded     EventType = "window_loaded"
	ListsLoaded      EventType = "lists_loaded"
	ListTasksLoaded  EventType = "list_tasks_loaded"
	TaskCreated      EventType = "task_created"
	TaskUpdated      EventType = "task_updated"
	TaskDeleted      EventType = "task_deleted"
	ListCreated      EventType = "list_created"
	ToggleApplied    EventType = "toggle_applied"
	ToggleSettled    EventType = "toggle_settled"
	ToggleRolledBack EventType = "toggle_rolled_back"
	LoadFailed       EventType = "load_failed"
	LoadStarted      EventType = "load_started"
)

// Event describes one change. Only the fields relevant to Type are set.
type Event struct {
	Type   EventType
	Window datetime.Window
	ListID int64
	TaskID string
	Err    error
}

// Subscribe registers fn for every event and returns a function removing it.
// fn runs on the goroutine that made the change, after the store lock is
// released, so it may call back into the store.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) emit(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
