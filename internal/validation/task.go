package validation

import (
	"strings"

	"github.com/tempus-app/tempus/internal/apperrors"
	"github.com/tempus-app/tempus/internal/datetime"
	"github.com/tempus-app/tempus/internal/models"
)

// ValidateTaskForCreate checks and normalises a create payload before it is
// sent. The name must be non-blank, attendees are trimmed and de-duplicated,
// priority and energy get defaults, and the end is clamped after the start.
func ValidateTaskForCreate(in models.CreateTaskInput) (models.CreateTaskInput, error) {
	in.TaskName = SanitizeText(in.TaskName)
	in.TaskDescription = SanitizeText(in.TaskDescription)
	in.TaskLocation = SanitizeText(in.TaskLocation)

	if err := Struct(in); err != nil {
		return models.CreateTaskInput{}, err
	}

	in.TaskAttendees = NormalizeAttendees(in.TaskAttendees)

	if in.TaskPriority == nil {
		p := models.DefaultPriority
		in.TaskPriority = &p
	}
	if in.TaskEnergyLevel == nil {
		e := models.DefaultEnergyLevel
		in.TaskEnergyLevel = &e
	}

	if err := normalizeSchedule(&in); err != nil {
		return models.CreateTaskInput{}, err
	}
	return in, nil
}

// ValidateTaskForUpdate checks the fields a patch sets. Energy must stay in
// 0..100 and, when the patch carries a full start and end, the end is clamped
// after the start.
func ValidateTaskForUpdate(u models.UpdateTaskInput) (models.UpdateTaskInput, error) {
	if strings.TrimSpace(u.TaskID) == "" {
		return models.UpdateTaskInput{}, apperrors.NewValidation("task_id", "is required")
	}
	if u.IsEmpty() {
		return models.UpdateTaskInput{}, apperrors.NewValidation("task", "has no fields to update")
	}
	if name, ok := u.TaskName.Get(); ok {
		name = SanitizeText(name)
		if name == "" {
			return models.UpdateTaskInput{}, apperrors.NewValidation("task_name", "is required")
		}
		u.TaskName = models.Some(name)
	}
	if e, ok := u.TaskEnergyLevel.Get(); ok {
		if err := Validate.Var(e, "min=0,max=100"); err != nil {
			return models.UpdateTaskInput{}, &apperrors.ValidationError{
				Field:   "task_energy_level",
				Message: "must be between 0 and 100",
				Err:     err,
			}
		}
	}
	if err := normalizeUpdateSchedule(&u); err != nil {
		return models.UpdateTaskInput{}, err
	}
	return u, nil
}

// normalizeUpdateSchedule only clamps when start date, start time, end date
// and end time are all in the patch. Other schedule fields are checked for
// format alone since the rest of the schedule lives on the server copy.
func normalizeUpdateSchedule(u *models.UpdateTaskInput) error {
	startDate, hasStartDate := u.TaskStartDate.Get()
	startTime, hasStartTime := u.TaskStartTime.Get()
	endDate, hasEndDate := u.TaskEndDate.Get()
	endTime, hasEndTime := u.TaskEndTime.Get()

	for _, f := range []struct {
		name  string
		value string
		set   bool
		clock bool
	}{
		{"task_start_date", startDate, hasStartDate, false},
		{"task_start_time", startTime, hasStartTime, true},
		{"task_end_date", endDate, hasEndDate, false},
		{"task_end_time", endTime, hasEndTime, true},
	} {
		if !f.set || f.value == "" {
			continue
		}
		var err error
		if f.clock {
			_, err = datetime.ParseClock(f.value)
		} else {
			_, err = datetime.ParseDate(f.value)
		}
		if err != nil {
			msg := "must be a YYYY-MM-DD date"
			if f.clock {
				msg = "must be HH:MM or HH:MM:SS"
			}
			return &apperrors.ValidationError{Field: f.name, Message: msg, Err: err}
		}
	}

	if !hasStartDate || !hasStartTime || !hasEndDate || !hasEndTime {
		return nil
	}
	if startDate == "" || startTime == "" || endDate == "" || endTime == "" {
		return nil
	}

	start, err := parseField("task_start_date", startDate, "task_start_time", startTime)
	if err != nil {
		return err
	}
	end, err := parseField("task_end_date", endDate, "task_end_time", endTime)
	if err != nil {
		return err
	}
	end = datetime.ClampEndAfterStart(start, end, datetime.DefaultMinDeltaMinutes)
	u.TaskStartDate = models.Some(start.Date.Key())
	u.TaskStartTime = models.Some(start.Clock.String())
	u.TaskEndDate = models.Some(end.Date.Key())
	u.TaskEndTime = models.Some(end.Clock.String())
	return nil
}

// normalizeSchedule rewrites the start/end fields in canonical form. An end
// without a start is rejected; an end date defaults to the start date.
func normalizeSchedule(in *models.CreateTaskInput) error {
	hasEnd := in.TaskEndDate != "" || in.TaskEndTime != ""
	if in.TaskStartDate == "" {
		if hasEnd {
			return apperrors.NewValidation("task_start_date", "is required when an end is set")
		}
		if in.TaskStartTime != "" {
			return apperrors.NewValidation("task_start_date", "is required when a start time is set")
		}
		return nil
	}

	start, err := parseField("task_start_date", in.TaskStartDate, "task_start_time", in.TaskStartTime)
	if err != nil {
		return err
	}
	in.TaskStartDate = start.Date.Key()
	if in.TaskStartTime != "" {
		in.TaskStartTime = start.Clock.String()
	}
	if !hasEnd {
		return nil
	}

	endDate := in.TaskEndDate
	if endDate == "" {
		endDate = in.TaskStartDate
	}
	end, err := parseField("task_end_date", endDate, "task_end_time", in.TaskEndTime)
	if err != nil {
		return err
	}

	end = datetime.ClampEndAfterStart(start, end, datetime.DefaultMinDeltaMinutes)
	in.TaskEndDate = end.Date.Key()
	in.TaskEndTime = end.Clock.String()
	return nil
}

func parseField(dateField, date, clockField, clock string) (datetime.Instant, error) {
	d, err := datetime.ParseDate(date)
	if err != nil {
		return datetime.Instant{}, &apperrors.ValidationError{Field: dateField, Message: "must be a YYYY-MM-DD date", Err: err}
	}
	c, err := datetime.ParseClock(clock)
	if err != nil {
		return datetime.Instant{}, &apperrors.ValidationError{Field: clockField, Message: "must be HH:MM or HH:MM:SS", Err: err}
	}
	return datetime.Instant{Date: d, Clock: c}, nil
}

// NormalizeAttendees splits comma-joined entries, trims them, drops empties
// and keeps the first occurrence of each name
func NormalizeAttendees(in []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, entry := range in {
		for _, part := range strings.Split(entry, ",") {
			name := SanitizeText(part)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
