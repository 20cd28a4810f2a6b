package models

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/tempus-app/tempus/internal/datetime"
)

// Task is a checklist item or a scheduled event. Identity and timestamps are
// assigned by the server.
type Task struct {
	TaskID            string   `json:"task_id,omitempty"`
	UserID            string   `json:"user_id,omitempty"`
	TaskName          string   `json:"task_name"`
	TaskDescription   string   `json:"task_description,omitempty"`
	TaskListID        *int64   `json:"task_list_id,omitempty"`
	TaskStartDate     string   `json:"task_start_date,omitempty"`
	TaskStartTime     string   `json:"task_start_time,omitempty"`
	TaskEndDate       string   `json:"task_end_date,omitempty"`
	TaskEndTime       string   `json:"task_end_time,omitempty"`
	TaskReminder      bool     `json:"task_reminder,omitempty"`
	TaskLocation      string   `json:"task_location,omitempty"`
	TaskAttendees     []string `json:"task_attendees,omitempty"`
	TaskPriority      int      `json:"task_priority,omitempty"`
	TaskEnergyLevel   int      `json:"task_energy_level,omitempty"`
	IsAIGenerated     bool     `json:"is_ai_generated,omitempty"`
	IsEvent           bool     `json:"is_event,omitempty"`
	IsCompleted       *bool    `json:"is_completed"`
	TaskCompletedDate string   `json:"task_completed_date,omitempty"`
	TaskCreationDate  string   `json:"task_creation_date,omitempty"`
}

// Clone returns a deep copy so callers cannot alias cached state
func (t Task) Clone() Task {
	c := t
	if t.TaskListID != nil {
		id := *t.TaskListID
		c.TaskListID = &id
	}
	if t.IsCompleted != nil {
		v := *t.IsCompleted
		c.IsCompleted = &v
	}
	if t.TaskAttendees != nil {
		c.TaskAttendees = slices.Clone(t.TaskAttendees)
	}
	return c
}

// CanToggleCompletion reports whether completion has meaning for the task.
// Only events carry a completion state.
func (t Task) CanToggleCompletion() bool {
	return t.IsEvent
}

// Completed treats a null completion as not completed
func (t Task) Completed() bool {
	return t.IsCompleted != nil && *t.IsCompleted
}

// InList reports whether the task belongs to the list with the given id
func (t Task) InList(listID int64) bool {
	return t.TaskListID != nil && *t.TaskListID == listID
}

// StartDate parses task_start_date, which may carry a time component
func (t Task) StartDate() (datetime.Date, error) {
	return datetime.ParseDate(t.TaskStartDate)
}

// StartInstant combines start date and time
func (t Task) StartInstant() (datetime.Instant, error) {
	return datetime.ParseInstant(t.TaskStartDate, t.TaskStartTime)
}

// EndInstant combines end date and time, falling back to the start date
func (t Task) EndInstant() (datetime.Instant, error) {
	date := t.TaskEndDate
	if date == "" {
		date = t.TaskStartDate
	}
	return datetime.ParseInstant(date, t.TaskEndTime)
}

// Attendees accepts either a JSON array or a comma-separated string
type Attendees []string

// UnmarshalJSON implements json.Unmarshaler
func (a *Attendees) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*a = nil
		return nil
	}
	*a = strings.Split(s, ",")
	return nil
}

// CreateTaskInput is the body of a create request. Pointer fields
// distinguish unset from zero so defaults can be applied.
type CreateTaskInput struct {
	TaskName        string    `json:"task_name" validate:"required,not_blank,max=500"`
	TaskDescription string    `json:"task_description,omitempty" validate:"max=5000"`
	TaskListID      *int64    `json:"task_list_id,omitempty"`
	TaskStartDate   string    `json:"task_start_date,omitempty"`
	TaskStartTime   string    `json:"task_start_time,omitempty"`
	TaskEndDate     string    `json:"task_end_date,omitempty"`
	TaskEndTime     string    `json:"task_end_time,omitempty"`
	TaskReminder    bool      `json:"task_reminder,omitempty"`
	TaskLocation    string    `json:"task_location,omitempty"`
	TaskAttendees   Attendees `json:"task_attendees,omitempty"`
	TaskPriority    *int      `json:"task_priority,omitempty"`
	TaskEnergyLevel *int      `json:"task_energy_level,omitempty" validate:"omitempty,min=0,max=100"`
	IsAIGenerated   bool      `json:"is_ai_generated,omitempty"`
	IsEvent         bool      `json:"is_event,omitempty"`
	IsCompleted     *bool     `json:"is_completed,omitempty"`
}

// ToTask materialises the input as an unsaved task with no identity
func (in CreateTaskInput) ToTask() Task {
	t := Task{
		TaskName:        in.TaskName,
		TaskDescription: in.TaskDescription,
		TaskListID:      in.TaskListID,
		TaskStartDate:   in.TaskStartDate,
		TaskStartTime:   in.TaskStartTime,
		TaskEndDate:     in.TaskEndDate,
		TaskEndTime:     in.TaskEndTime,
		TaskReminder:    in.TaskReminder,
		TaskLocation:    in.TaskLocation,
		TaskAttendees:   []string(in.TaskAttendees),
		IsAIGenerated:   in.IsAIGenerated,
		IsEvent:         in.IsEvent,
		IsCompleted:     in.IsCompleted,
	}
	if in.TaskPriority != nil {
		t.TaskPriority = *in.TaskPriority
	}
	if in.TaskEnergyLevel != nil {
		t.TaskEnergyLevel = *in.TaskEnergyLevel
	}
	return t.Clone()
}

// APIResponse is the envelope every endpoint responds with
type APIResponse[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}
