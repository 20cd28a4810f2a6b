// Package view derives display state from the store. It reads through
// subscriptions and forwards user intents; it never edits caches itself.
package view

import (
	"cmp"
	"slices"

	"github.com/tempus-app/tempus/internal/datetime"
	"github.com/tempus-app/tempus/internal/models"
)

// MarkColor is the dot and selection colour of the calendar
const MarkColor = "#5D87FF"

// Mark is the calendar decoration of one date
type Mark struct {
	Marked        bool   `json:"marked,omitempty"`
	DotColor      string `json:"dotColor,omitempty"`
	Selected      bool   `json:"selected,omitempty"`
	SelectedColor string `json:"selectedColor,omitempty"`
}

// MarkedDates marks every date that has a task starting on it and flags the
// selected date. Keys are YYYY-MM-DD.
func MarkedDates(tasks []models.Task, selected datetime.Date) map[string]Mark {
	marks := make(map[string]Mark)
	for _, t := range tasks {
		key, err := datetime.ToDateKey(t.TaskStartDate)
		if err != nil {
			continue
		}
		m := marks[key]
		m.Marked = true
		m.DotColor = MarkColor
		marks[key] = m
	}
	if !selected.IsZero() {
		m := marks[selected.Key()]
		m.Selected = true
		m.SelectedColor = MarkColor
		marks[selected.Key()] = m
	}
	return marks
}

// TasksForDate keeps the tasks starting on d, in their original order
func TasksForDate(tasks []models.Task, d datetime.Date) []models.Task {
	out := make([]models.Task, 0)
	for _, t := range tasks {
		if same, err := datetime.IsSameCalendarDay(t.TaskStartDate, d); err == nil && same {
			out = append(out, t)
		}
	}
	return out
}

// SortByStartTime orders tasks by start instant, then by priority band with
// High first. Tasks without a parseable start sort last.
func SortByStartTime(tasks []models.Task) []models.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b models.Task) int {
		ai, aerr := a.StartInstant()
		bi, berr := b.StartInstant()
		switch {
		case aerr != nil && berr != nil:
			return byBand(a, b)
		case aerr != nil:
			return 1
		case berr != nil:
			return -1
		}
		if c := int(datetime.CompareInstant(ai, bi)); c != 0 {
			return c
		}
		return byBand(a, b)
	})
	return out
}

func byBand(a, b models.Task) int {
	return a.Band().Rank() - b.Band().Rank()
}

// Section is a run of tasks under one date heading
type Section struct {
	Date  datetime.Date
	Label string
	Tasks []models.Task
}

// NoDateLabel heads the section of tasks without a start date
const NoDateLabel = "NO DATE"

// GroupByDay splits tasks into per-day sections in date order, each sorted by
// start time. Undated tasks form a final section.
func GroupByDay(tasks []models.Task) []Section {
	byDay := make(map[datetime.Date][]models.Task)
	var undated []models.Task
	for _, t := range tasks {
		d, err := t.StartDate()
		if err != nil {
			undated = append(undated, t)
			continue
		}
		byDay[d] = append(byDay[d], t)
	}

	days := make([]datetime.Date, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	slices.SortFunc(days, func(a, b datetime.Date) int {
		return cmp.Compare(a.Key(), b.Key())
	})

	sections := make([]Section, 0, len(days)+1)
	for _, d := range days {
		sections = append(sections, Section{
			Date:  d,
			Label: datetime.FormatShortLabel(d),
			Tasks: SortByStartTime(byDay[d]),
		})
	}
	if len(undated) > 0 {
		sections = append(sections, Section{Label: NoDateLabel, Tasks: undated})
	}
	return sections
}

// Row is a task prepared for display
type Row struct {
	Task      models.Task
	TimeLabel string
	Band      models.PriorityBand
	Color     string
	Completed bool
	Toggling  bool
}

// RowOf builds the display row of a task
func RowOf(t models.Task) Row {
	r := Row{
		Task:      t,
		Band:      t.Band(),
		Color:     models.PriorityColor(t.Band()),
		Completed: t.Completed(),
	}
	if t.TaskStartTime != "" {
		if c, err := datetime.ParseClock(t.TaskStartTime); err == nil {
			r.TimeLabel = datetime.FormatClock12h(c)
		}
	}
	return r
}
