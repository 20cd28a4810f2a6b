package models

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Optional marks a field as intentionally present or absent in a patch
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a present value
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the field is present
func (o Optional[T]) IsSet() bool { return o.set }

// UpdateTaskInput is a partial update. Only fields that are set are sent and
// applied; absent fields are never overwritten.
type UpdateTaskInput struct {
	TaskID            string
	TaskName          Optional[string]
	TaskDescription   Optional[string]
	TaskListID        Optional[*int64]
	TaskStartDate     Optional[string]
	TaskStartTime     Optional[string]
	TaskEndDate       Optional[string]
	TaskEndTime       Optional[string]
	TaskReminder      Optional[bool]
	TaskLocation      Optional[string]
	TaskAttendees     Optional[[]string]
	TaskPriority      Optional[int]
	TaskEnergyLevel   Optional[int]
	IsAIGenerated     Optional[bool]
	IsEvent           Optional[bool]
	IsCompleted       Optional[*bool]
	TaskCompletedDate Optional[string]
}

// IsEmpty reports whether no field besides the id is set
func (u UpdateTaskInput) IsEmpty() bool {
	return len(u.changes()) == 0
}

// ChangedFields lists the JSON names of the fields the patch sets
func (u UpdateTaskInput) ChangedFields() []string {
	m := u.changes()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (u UpdateTaskInput) changes() map[string]any {
	m := make(map[string]any)
	putOpt(m, "task_name", u.TaskName)
	putOpt(m, "task_description", u.TaskDescription)
	putOpt(m, "task_list_id", u.TaskListID)
	putOpt(m, "task_start_date", u.TaskStartDate)
	putOpt(m, "task_start_time", u.TaskStartTime)
	putOpt(m, "task_end_date", u.TaskEndDate)
	putOpt(m, "task_end_time", u.TaskEndTime)
	putOpt(m, "task_reminder", u.TaskReminder)
	putOpt(m, "task_location", u.TaskLocation)
	putOpt(m, "task_attendees", u.TaskAttendees)
	putOpt(m, "task_priority", u.TaskPriority)
	putOpt(m, "task_energy_level", u.TaskEnergyLevel)
	putOpt(m, "is_ai_generated", u.IsAIGenerated)
	putOpt(m, "is_event", u.IsEvent)
	putOpt(m, "is_completed", u.IsCompleted)
	putOpt(m, "task_completed_date", u.TaskCompletedDate)
	return m
}

func putOpt[T any](m map[string]any, key string, o Optional[T]) {
	if v, ok := o.Get(); ok {
		m[key] = v
	}
}

// MarshalJSON emits task_id plus only the present fields
func (u UpdateTaskInput) MarshalJSON() ([]byte, error) {
	m := u.changes()
	m["task_id"] = u.TaskID
	return json.Marshal(m)
}

// UnmarshalJSON marks every key found in the document as present
func (u *UpdateTaskInput) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out UpdateTaskInput
	if err := takeOpt(raw, "task_id", &out.TaskID); err != nil {
		return err
	}
	steps := []func() error{
		func() error { return takeOptional(raw, "task_name", &out.TaskName) },
		func() error { return takeOptional(raw, "task_description", &out.TaskDescription) },
		func() error { return takeOptional(raw, "task_list_id", &out.TaskListID) },
		func() error { return takeOptional(raw, "task_start_date", &out.TaskStartDate) },
		func() error { return takeOptional(raw, "task_start_time", &out.TaskStartTime) },
		func() error { return takeOptional(raw, "task_end_date", &out.TaskEndDate) },
		func() error { return takeOptional(raw, "task_end_time", &out.TaskEndTime) },
		func() error { return takeOptional(raw, "task_reminder", &out.TaskReminder) },
		func() error { return takeOptional(raw, "task_location", &out.TaskLocation) },
		func() error { return takeOptional(raw, "task_attendees", &out.TaskAttendees) },
		func() error { return takeOptional(raw, "task_priority", &out.TaskPriority) },
		func() error { return takeOptional(raw, "task_energy_level", &out.TaskEnergyLevel) },
		func() error { return takeOptional(raw, "is_ai_generated", &out.IsAIGenerated) },
		func() error { return takeOptional(raw, "is_event", &out.IsEvent) },
		func() error { return takeOptional(raw, "is_completed", &out.IsCompleted) },
		func() error { return takeOptional(raw, "task_completed_date", &out.TaskCompletedDate) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	*u = out
	return nil
}

func takeOpt[T any](raw map[string]json.RawMessage, key string, dst *T) error {
	msg, ok := raw[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(msg, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func takeOptional[T any](raw map[string]json.RawMessage, key string, dst *Optional[T]) error {
	if _, ok := raw[key]; !ok {
		return nil
	}
	var v T
	if err := takeOpt(raw, key, &v); err != nil {
		return err
	}
	*dst = Some(v)
	return nil
}

// Apply returns a copy of t with the present fields replaced
func (u UpdateTaskInput) Apply(t Task) Task {
	out := t.Clone()
	if v, ok := u.TaskName.Get(); ok {
		out.TaskName = v
	}
	if v, ok := u.TaskDescription.Get(); ok {
		out.TaskDescription = v
	}
	if v, ok := u.TaskListID.Get(); ok {
		out.TaskListID = v
	}
	if v, ok := u.TaskStartDate.Get(); ok {
		out.TaskStartDate = v
	}
	if v, ok := u.TaskStartTime.Get(); ok {
		out.TaskStartTime = v
	}
	if v, ok := u.TaskEndDate.Get(); ok {
		out.TaskEndDate = v
	}
	if v, ok := u.TaskEndTime.Get(); ok {
		out.TaskEndTime = v
	}
	if v, ok := u.TaskReminder.Get(); ok {
		out.TaskReminder = v
	}
	if v, ok := u.TaskLocation.Get(); ok {
		out.TaskLocation = v
	}
	if v, ok := u.TaskAttendees.Get(); ok {
		out.TaskAttendees = slices.Clone(v)
	}
	if v, ok := u.TaskPriority.Get(); ok {
		out.TaskPriority = v
	}
	if v, ok := u.TaskEnergyLevel.Get(); ok {
		out.TaskEnergyLevel = v
	}
	if v, ok := u.IsAIGenerated.Get(); ok {
		out.IsAIGenerated = v
	}
	if v, ok := u.IsEvent.Get(); ok {
		out.IsEvent = v
	}
	if v, ok := u.IsCompleted.Get(); ok {
		out.IsCompleted = v
	}
	if v, ok := u.TaskCompletedDate.Get(); ok {
		out.TaskCompletedDate = v
	}
	return out.Clone()
}

// Diff builds a patch holding only the fields that differ between before and
// after. The id is taken from before.
func Diff(before, after Task) UpdateTaskInput {
	u := UpdateTaskInput{TaskID: before.TaskID}
	if before.TaskName != after.TaskName {
		u.TaskName = Some(after.TaskName)
	}
	if before.TaskDescription != after.TaskDescription {
		u.TaskDescription = Some(after.TaskDescription)
	}
	if !equalPtr(before.TaskListID, after.TaskListID) {
		u.TaskListID = Some(after.TaskListID)
	}
	if before.TaskStartDate != after.TaskStartDate {
		u.TaskStartDate = Some(after.TaskStartDate)
	}
	if before.TaskStartTime != after.TaskStartTime {
		u.TaskStartTime = Some(after.TaskStartTime)
	}
	if before.TaskEndDate != after.TaskEndDate {
		u.TaskEndDate = Some(after.TaskEndDate)
	}
	if before.TaskEndTime != after.TaskEndTime {
		u.TaskEndTime = Some(after.TaskEndTime)
	}
	if before.TaskReminder != after.TaskReminder {
		u.TaskReminder = Some(after.TaskReminder)
	}
	if before.TaskLocation != after.TaskLocation {
		u.TaskLocation = Some(after.TaskLocation)
	}
	if !slices.Equal(before.TaskAttendees, after.TaskAttendees) {
		u.TaskAttendees = Some(slices.Clone(after.TaskAttendees))
	}
	if before.TaskPriority != after.TaskPriority {
		u.TaskPriority = Some(after.TaskPriority)
	}
	if before.TaskEnergyLevel != after.TaskEnergyLevel {
		u.TaskEnergyLevel = Some(after.TaskEnergyLevel)
	}
	if before.IsAIGenerated != after.IsAIGenerated {
		u.IsAIGenerated = Some(after.IsAIGenerated)
	}
	if before.IsEvent != after.IsEvent {
		u.IsEvent = Some(after.IsEvent)
	}
	if !equalPtr(before.IsCompleted, after.IsCompleted) {
		u.IsCompleted = Some(after.IsCompleted)
	}
	if before.TaskCompletedDate != after.TaskCompletedDate {
		u.TaskCompletedDate = Some(after.TaskCompletedDate)
	}
	return u
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
