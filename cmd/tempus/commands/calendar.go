package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tempus-app/tempus/internal/datetime"
	"github.com/tempus-app/tempus/internal/view"
)

// NewCalendarCmd shows a month with the selected day's tasks
func NewCalendarCmd(factory AppFactory) *cobra.Command {
	var (
		month, year int
		date        string
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a month and the tasks of the selected day",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := calendarSelection(date, month, year)
			if err != nil {
				return err
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				cal := view.NewCalendar(app.Store, selected)
				defer cal.Close()

				if err := cal.Load(ctx); err != nil {
					return err
				}
				renderCalendar(cmd, cal.Snapshot())
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&month, "month", 0, "Month to show (1-12), defaults to the current month")
	cmd.Flags().IntVar(&year, "year", 0, "Year to show, defaults to the current year")
	cmd.Flags().StringVar(&date, "date", "", "Day to select (YYYY-MM-DD); overrides --month and --year")
	return cmd
}

// calendarSelection picks the selected day: --date, else today when it is in
// the requested month, else the first of that month
func calendarSelection(date string, month, year int) (datetime.Date, error) {
	if date != "" {
		return dateFlag(date)
	}
	w, err := windowFlags(month, year)
	if err != nil {
		return datetime.Date{}, err
	}
	if t := today(); w.Contains(t) {
		return t, nil
	}
	return w.First(), nil
}

func renderCalendar(cmd *cobra.Command, state view.CalendarState) {
	out := cmd.OutOrStdout()
	printMonth(out, state)
	fmt.Fprintln(out)
	fmt.Fprintln(out, state.SelectedLabel)
	if len(state.Rows) == 0 {
		fmt.Fprintln(out, "No tasks")
		return
	}
	printRows(out, state.Rows)
}
