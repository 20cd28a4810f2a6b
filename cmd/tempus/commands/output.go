package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tempus-app/tempus/internal/datetime"
	"github.com/tempus-app/tempus/internal/models"
	"github.com/tempus-app/tempus/internal/view"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// checkbox renders completion for events and a bullet for plain tasks
func checkbox(r view.Row) string {
	switch {
	case !r.Task.IsEvent:
		return " - "
	case r.Toggling:
		return "[~]"
	case r.Completed:
		return "[x]"
	default:
		return "[ ]"
	}
}

func printRows(w io.Writer, rows []view.Row) {
	tw := newTable(w)
	for _, r := range rows {
		timeLabel := r.TimeLabel
		if timeLabel == "" {
			timeLabel = "all day"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", checkbox(r), timeLabel, r.Task.TaskName, r.Band, r.Task.TaskID)
	}
	_ = tw.Flush()
}

func printSections(w io.Writer, sections []view.Section) {
	if len(sections) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, s.Label)
		rows := make([]view.Row, 0, len(s.Tasks))
		for _, t := range s.Tasks {
			rows = append(rows, view.RowOf(t))
		}
		printRows(w, rows)
	}
}

// printMonth renders a Monday-first grid. Days with tasks carry a dot and
// the selected day is bracketed.
func printMonth(w io.Writer, state view.CalendarState) {
	fmt.Fprintf(w, "%s %d\n", state.Title, state.Window.Year)
	fmt.Fprintln(w, " Mo   Tu   We   Th   Fr   Sa   Su")

	first := state.Window.First()
	var b strings.Builder
	for _, d := range datetime.WeekDates(first) {
		if d.Before(first) {
			b.WriteString("     ")
		}
	}
	for d := first; state.Window.Contains(d); d = d.AddDays(1) {
		mark := state.Marked[d.Key()]
		dot := " "
		if mark.Marked {
			dot = "."
		}
		if mark.Selected {
			fmt.Fprintf(&b, "[%2d]%s", d.Day, dot)
		} else {
			fmt.Fprintf(&b, " %2d %s", d.Day, dot)
		}
		if d.Time().Weekday() == time.Sunday {
			fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
			b.Reset()
		}
	}
	if b.Len() > 0 {
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func printTask(w io.Writer, t models.Task) {
	tw := newTable(w)
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", name, value)
		}
	}
	field("ID", t.TaskID)
	field("Name", t.TaskName)
	field("Description", t.TaskDescription)
	if t.TaskListID != nil {
		field("List", fmt.Sprintf("%d", *t.TaskListID))
	}
	field("Start", strings.TrimSpace(t.TaskStartDate+" "+t.TaskStartTime))
	field("End", strings.TrimSpace(t.TaskEndDate+" "+t.TaskEndTime))
	field("Location", t.TaskLocation)
	field("Attendees", strings.Join(t.TaskAttendees, ", "))
	field("Priority", fmt.Sprintf("%d (%s)", t.TaskPriority, t.Band()))
	if t.IsEvent {
		field("Type", "event")
		field("Completed", fmt.Sprintf("%t", t.Completed()))
		field("Completed at", t.TaskCompletedDate)
	} else {
		field("Type", "task")
	}
	if t.TaskReminder {
		field("Reminder", "on")
	}
	field("Created", t.TaskCreationDate)
	_ = tw.Flush()
}

func printLists(w io.Writer, lists []models.List) {
	if len(lists) == 0 {
		fmt.Fprintln(w, "No lists")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tICON\tCOLOR")
	for _, l := range lists {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", l.ListID, l.ListName, l.ListIcon, l.ListColor)
	}
	_ = tw.Flush()
}
