package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tempus-app/tempus/internal/models"
	"github.com/tempus-app/tempus/internal/scheduler"
	"github.com/tempus-app/tempus/internal/view"
)

// reminderCheckSpec checks for due reminders every minute
const reminderCheckSpec = "0 * * * * *"

// NewWatchCmd keeps the calendar fresh and prints reminders until interrupted
func NewWatchCmd(factory AppFactory) *cobra.Command {
	var (
		schedule string
		lead     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the current month on a schedule and print reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				if schedule == "" {
					schedule = app.Config.RefreshSchedule
				}
				return runWatch(ctx, cmd, app, schedule, lead)
			})
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Refresh schedule (cron with seconds or @every), defaults to TEMPUS_REFRESH_SCHEDULE")
	cmd.Flags().DurationVar(&lead, "reminder-lead", 15*time.Minute, "How long before the start time reminders are printed")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, app *App, schedule string, lead time.Duration) error {
	out := cmd.OutOrStdout()
	var outMu sync.Mutex

	cal := view.NewCalendar(app.Store, today())
	defer cal.Close()

	remove := cal.OnChange(func(state view.CalendarState) {
		if state.Loading {
			return
		}
		outMu.Lock()
		defer outMu.Unlock()
		if state.Err != nil {
			fmt.Fprintf(out, "%s refresh failed: %v\n", time.Now().Format("15:04:05"), state.Err)
			return
		}
		fmt.Fprintf(out, "%s %s: %d task(s) today\n", time.Now().Format("15:04:05"), state.SelectedLabel, len(state.Rows))
	})
	defer remove()

	refresher := scheduler.NewRefreshScheduler(app.Store, cal.Window, app.Logger.Named("scheduler"), time.Local)
	if _, err := refresher.Schedule(schedule); err != nil {
		return err
	}

	reminders := scheduler.NewReminders(func() []models.Task {
		tasks, _ := app.Store.TasksForWindow(cal.Window())
		return tasks
	}, lead, func(t models.Task) {
		outMu.Lock()
		defer outMu.Unlock()
		row := view.RowOf(t)
		fmt.Fprintf(out, "Reminder: %s at %s\n", t.TaskName, row.TimeLabel)
	})
	if _, err := refresher.AddJob(reminderCheckSpec, reminders.Check); err != nil {
		return err
	}

	// day rollover moves the selection so the summary follows today
	if _, err := refresher.AddJob("0 0 0 * * *", func() {
		dayCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := cal.SelectDate(dayCtx, today()); err != nil {
			app.Logger.Warn("day_rollover_failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if err := refresher.RunNow(ctx); err != nil {
		return err
	}
	reminders.Check()

	refresher.Start()
	app.Logger.Info("watch_started", zap.String("schedule", schedule), zap.Duration("reminder_lead", lead))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return refresher.Stop(stopCtx)
}
