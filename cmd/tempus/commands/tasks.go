package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tempus-app/tempus/internal/datetime"
	"github.com/tempus-app/tempus/internal/view"
)

// NewTasksCmd groups the task listing commands
func NewTasksCmd(factory AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks by month, day, year or list",
	}
	cmd.AddCommand(
		newTasksMonthCmd(factory),
		newTasksDayCmd(factory),
		newTasksYearCmd(factory),
		newTasksListCmd(factory),
	)
	return cmd
}

func newTasksMonthCmd(factory AppFactory) *cobra.Command {
	var month, year int

	cmd := &cobra.Command{
		Use:   "month",
		Short: "List a month's tasks grouped by day",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := windowFlags(month, year)
			if err != nil {
				return err
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				tasks, err := app.Store.LoadTasksForWindow(ctx, w.Month, w.Year)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n\n", w.Title(), w.Year)
				printSections(cmd.OutOrStdout(), view.GroupByDay(tasks))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&month, "month", 0, "Month (1-12), defaults to the current month")
	cmd.Flags().IntVar(&year, "year", 0, "Year, defaults to the current year")
	return cmd
}

func newTasksDayCmd(factory AppFactory) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "day",
		Short: "List one day's tasks ordered by start time",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dateFlag(date)
			if err != nil {
				return err
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				tasks, err := app.Client.TasksByDay(ctx, d)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, datetime.FormatShortLabel(d))
				day := view.SortByStartTime(view.TasksForDate(tasks, d))
				if len(day) == 0 {
					fmt.Fprintln(out, "No tasks")
					return nil
				}
				rows := make([]view.Row, 0, len(day))
				for _, t := range day {
					rows = append(rows, view.RowOf(t))
				}
				printRows(out, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day (YYYY-MM-DD), defaults to today")
	return cmd
}

func newTasksYearCmd(factory AppFactory) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "year",
		Short: "List a year's tasks grouped by day",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := windowFlags(0, year)
			if err != nil {
				return err
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				tasks, err := app.Client.TasksByYear(ctx, w.Year)
				if err != nil {
					return err
				}
				printSections(cmd.OutOrStdout(), view.GroupByDay(tasks))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year, defaults to the current year")
	return cmd
}

func newTasksListCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "list <list-id>",
		Short: "List the tasks of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid list id %q", args[0])
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				tasks, err := app.Store.LoadTasksForList(ctx, listID)
				if err != nil {
					return err
				}
				printSections(cmd.OutOrStdout(), view.GroupByDay(tasks))
				return nil
			})
		},
	}
}
