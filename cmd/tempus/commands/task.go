package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tempus-app/tempus/internal/models"
	"github.com/tempus-app/tempus/internal/view"
)

// taskFlags are the task fields settable from the command line
type taskFlags struct {
	name        string
	description string
	listID      int64
	date        string
	start       string
	endDate     string
	end         string
	location    string
	attendees   []string
	priority    int
	energy      int
	event       bool
	reminder    bool
}

func (f *taskFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "Task name")
	fs.StringVar(&f.description, "description", "", "Description")
	fs.Int64Var(&f.listID, "list", 0, "List id")
	fs.StringVar(&f.date, "date", "", "Start date (YYYY-MM-DD)")
	fs.StringVar(&f.start, "start", "", "Start time (HH:MM)")
	fs.StringVar(&f.endDate, "end-date", "", "End date (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "End time (HH:MM)")
	fs.StringVar(&f.location, "location", "", "Location")
	fs.StringSliceVar(&f.attendees, "attendee", nil, "Attendee, may be repeated")
	fs.IntVar(&f.priority, "priority", 0, "Priority (1 high, 2 medium, 3 low)")
	fs.IntVar(&f.energy, "energy", 0, "Energy level (0-100)")
	fs.BoolVar(&f.event, "event", false, "Create a calendar event, which can be completed")
	fs.BoolVar(&f.reminder, "reminder", false, "Remind before the start time")
}

// NewTaskCmd groups the single-task commands
func NewTaskCmd(factory AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, change and remove tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(factory),
		newTaskEditCmd(factory),
		newTaskToggleCmd(factory, "done", "Mark an event completed", true),
		newTaskToggleCmd(factory, "undo", "Mark an event not completed", false),
		newTaskDeleteCmd(factory),
		newTaskShowCmd(factory),
	)
	return cmd
}

func newTaskAddCmd(factory AppFactory) *cobra.Command {
	var f taskFlags

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a task, dated today unless --date is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && f.name == "" {
				f.name = args[0]
			}
			in := models.CreateTaskInput{
				TaskName:        f.name,
				TaskDescription: f.description,
				TaskStartDate:   f.date,
				TaskStartTime:   f.start,
				TaskEndDate:     f.endDate,
				TaskEndTime:     f.end,
				TaskReminder:    f.reminder,
				TaskLocation:    f.location,
				TaskAttendees:   models.Attendees(f.attendees),
				IsEvent:         f.event,
			}
			flags := cmd.Flags()
			if flags.Changed("list") {
				in.TaskListID = &f.listID
			}
			if flags.Changed("priority") {
				in.TaskPriority = &f.priority
			}
			if flags.Changed("energy") {
				in.TaskEnergyLevel = &f.energy
			}

			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				cal := view.NewCalendar(app.Store, today())
				defer cal.Close()

				t, err := cal.AddTask(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", t.TaskName, t.TaskID)
				return nil
			})
		},
	}

	f.register(cmd)
	return cmd
}

func newTaskEditCmd(factory AppFactory) *cobra.Command {
	var (
		f      taskFlags
		noList bool
	)

	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Change only the given fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := f.patch(cmd, args[0])
			if noList {
				u.TaskListID = models.Some[*int64](nil)
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				t, err := app.Store.UpdateTask(ctx, u)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", t.TaskID, strings.Join(u.ChangedFields(), ", "))
				return nil
			})
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&noList, "no-list", false, "Remove the task from its list")
	return cmd
}

// patch builds an update holding only the flags given on the command line
func (f *taskFlags) patch(cmd *cobra.Command, taskID string) models.UpdateTaskInput {
	changed := cmd.Flags().Changed
	u := models.UpdateTaskInput{TaskID: taskID}
	if changed("name") {
		u.TaskName = models.Some(f.name)
	}
	if changed("description") {
		u.TaskDescription = models.Some(f.description)
	}
	if changed("list") {
		id := f.listID
		u.TaskListID = models.Some(&id)
	}
	if changed("date") {
		u.TaskStartDate = models.Some(f.date)
	}
	if changed("start") {
		u.TaskStartTime = models.Some(f.start)
	}
	if changed("end-date") {
		u.TaskEndDate = models.Some(f.endDate)
	}
	if changed("end") {
		u.TaskEndTime = models.Some(f.end)
	}
	if changed("location") {
		u.TaskLocation = models.Some(f.location)
	}
	if changed("attendee") {
		u.TaskAttendees = models.Some(f.attendees)
	}
	if changed("priority") {
		u.TaskPriority = models.Some(f.priority)
	}
	if changed("energy") {
		u.TaskEnergyLevel = models.Some(f.energy)
	}
	if changed("event") {
		u.IsEvent = models.Some(f.event)
	}
	if changed("reminder") {
		u.TaskReminder = models.Some(f.reminder)
	}
	return u
}

func newTaskToggleCmd(factory AppFactory, use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				t, err := app.Store.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				if !t.CanToggleCompletion() {
					return fmt.Errorf("%s is not an event; only events can be completed", t.TaskName)
				}
				if err := <-app.Store.ToggleTaskCompletion(ctx, t, completed); err != nil {
					return err
				}
				state := "not completed"
				if completed {
					state = "completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s %s\n", t.TaskName, state)
				return nil
			})
		},
	}
}

func newTaskDeleteCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				if err := app.Store.DeleteTask(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newTaskShowCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show every field of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				t, err := app.Store.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				printTask(cmd.OutOrStdout(), t)
				return nil
			})
		},
	}
}
