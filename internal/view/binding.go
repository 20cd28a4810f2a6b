package view

import (
	"context"
	"sync"

	"github.com/tempus-app/tempus/internal/datetime"
	"github.com/tempus-app/tempus/internal/models"
	"github.com/tempus-app/tempus/internal/store"
)

// CalendarState is everything a calendar screen renders
type CalendarState struct {
	Title         string
	Window        datetime.Window
	Selected      datetime.Date
	SelectedLabel string
	Marked        map[string]Mark
	Rows          []Row
	Loading       bool
	Err           error
}

// Calendar binds a month calendar with a selected day to the store
type Calendar struct {
	store *store.Store

	mu        sync.Mutex
	window    datetime.Window
	selected  datetime.Date
	listeners map[int]func(CalendarState)
	nextID    int

	unsubscribe func()
}

// NewCalendar starts on the month of today with today selected
func NewCalendar(s *store.Store, today datetime.Date) *Calendar {
	c := &Calendar{
		store:     s,
		window:    datetime.WindowOf(today),
		selected:  today,
		listeners: make(map[int]func(CalendarState)),
	}
	c.unsubscribe = s.Subscribe(c.onEvent)
	return c
}

// Close stops listening to the store
func (c *Calendar) Close() {
	c.unsubscribe()
}

// Window returns the month on display
func (c *Calendar) Window() datetime.Window {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}

// Selected returns the selected date
func (c *Calendar) Selected() datetime.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// OnChange registers fn to receive a fresh snapshot whenever the store
// changes in a way that may affect the calendar
func (c *Calendar) OnChange(fn func(CalendarState)) (remove func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Load fetches the month on display
func (c *Calendar) Load(ctx context.Context) error {
	w := c.Window()
	_, err := c.store.LoadTasksForWindow(ctx, w.Month, w.Year)
	return err
}

// SelectDate selects d, loading its month first if it is not on display
func (c *Calendar) SelectDate(ctx context.Context, d datetime.Date) error {
	c.mu.Lock()
	c.selected = d
	changed := !c.window.Contains(d)
	if changed {
		c.window = datetime.WindowOf(d)
	}
	c.mu.Unlock()

	if changed {
		return c.Load(ctx)
	}
	c.notify()
	return nil
}

// ChangeMonth shows w and loads it. The selection moves to the first of the
// month when it falls outside w.
func (c *Calendar) ChangeMonth(ctx context.Context, w datetime.Window) error {
	if err := w.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.window = w
	if !w.Contains(c.selected) {
		c.selected = w.First()
	}
	c.mu.Unlock()
	return c.Load(ctx)
}

// Snapshot derives the current state from the store
func (c *Calendar) Snapshot() CalendarState {
	c.mu.Lock()
	w, sel := c.window, c.selected
	c.mu.Unlock()

	tasks, _ := c.store.TasksForWindow(w)
	status := c.store.TaskStatus()

	day := SortByStartTime(TasksForDate(tasks, sel))
	rows := make([]Row, 0, len(day))
	for _, t := range day {
		r := RowOf(t)
		st := c.store.CompletionState(t.TaskID)
		r.Toggling = st == store.TogglingToCompleted || st == store.TogglingToPending
		rows = append(rows, r)
	}

	return CalendarState{
		Title:         w.Title(),
		Window:        w,
		Selected:      sel,
		SelectedLabel: datetime.FormatShortLabel(sel),
		Marked:        MarkedDates(tasks, sel),
		Rows:          rows,
		Loading:       status.Loading,
		Err:           status.Err,
	}
}

// AddTask creates a task, defaulting its start date to the selected day
func (c *Calendar) AddTask(ctx context.Context, in models.CreateTaskInput) (models.Task, error) {
	if in.TaskStartDate == "" {
		in.TaskStartDate = c.Selected().Key()
	}
	return c.store.CreateTask(ctx, in)
}

// ToggleTask flips completion of a cached task
func (c *Calendar) ToggleTask(ctx context.Context, taskID string, completed bool) <-chan error {
	t, ok := c.store.CachedTask(taskID)
	if !ok {
		t = models.Task{TaskID: taskID}
	}
	return c.store.ToggleTaskCompletion(ctx, t, completed)
}

// DeleteTask deletes a task
func (c *Calendar) DeleteTask(ctx context.Context, taskID string) error {
	return c.store.DeleteTask(ctx, taskID)
}

func (c *Calendar) onEvent(ev store.Event) {
	switch ev.Type {
	case store.ListsLoaded, store.ListCreated, store.ListTasksLoaded:
		return
	case store.WindowLoaded, store.LoadStarted, store.LoadFailed:
		if ev.Window != (datetime.Window{}) && ev.Window != c.Window() {
			return
		}
	}
	c.notify()
}

func (c *Calendar) notify() {
	c.mu.Lock()
	fns := make([]func(CalendarState), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	snap := c.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}
