package scheduler

import (
	"sync"
	"time"

	"github.com/tempus-app/tempus/internal/datetime"
	"github.com/tempus-app/tempus/internal/models"
)

// Reminders reports tasks with task_reminder set whose start falls inside the
// lead time. Each task is reported once per start instant.
type Reminders struct {
	tasks  func() []models.Task
	notify func(models.Task)
	lead   time.Duration
	now    func() time.Time

	mu   sync.Mutex
	sent map[string]string
}

// NewReminders creates a reminder check. tasks returns the tasks to consider.
func NewReminders(tasks func() []models.Task, lead time.Duration, notify func(models.Task)) *Reminders {
	return &Reminders{
		tasks:  tasks,
		notify: notify,
		lead:   lead,
		now:    time.Now,
		sent:   make(map[string]string),
	}
}

// Check notifies due reminders. Start instants are read as local wall time.
func (r *Reminders) Check() {
	now := datetime.InstantOf(r.now())
	horizon := datetime.InstantOf(r.now().Add(r.lead))

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks() {
		if !t.TaskReminder || t.Completed() {
			continue
		}
		start, err := t.StartInstant()
		if err != nil {
			continue
		}
		if datetime.CompareInstant(start, now) == datetime.Before || datetime.CompareInstant(start, horizon) == datetime.After {
			continue
		}
		if r.sent[t.TaskID] == start.String() {
			continue
		}
		r.sent[t.TaskID] = start.String()
		r.notify(t)
	}
}
