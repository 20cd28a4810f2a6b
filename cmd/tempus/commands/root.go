package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tempus-app/tempus/internal/apperrors"
	"github.com/tempus-app/tempus/internal/datetime"
)

// NewRootCmd creates the tempus command tree. factory builds the client for
// commands that talk to the API.
func NewRootCmd(factory AppFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "tempus",
		Short:         "Tempus task and calendar client",
		Long:          "Command line client for Tempus tasks, events and lists",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		NewLoginCmd(factory),
		NewLogoutCmd(factory),
		NewWhoamiCmd(factory),
		NewCalendarCmd(factory),
		NewTasksCmd(factory),
		NewTaskCmd(factory),
		NewListsCmd(factory),
		NewListCmd(factory),
		NewWatchCmd(factory),
		NewMockServerCmd(),
	)
	return root
}

// withApp builds the app, runs fn and closes the app
func withApp(cmd *cobra.Command, factory AppFactory, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := factory(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close client: %v\n", err)
		}
	}()
	return withHint(fn(ctx, app))
}

// withHint adds a sign-in hint to authentication failures
func withHint(err error) error {
	if apperrors.IsAuth(err) {
		return fmt.Errorf("%w (run `tempus login` to sign in)", err)
	}
	return err
}

// today is the local calendar date
func today() datetime.Date {
	return datetime.DateOf(time.Now())
}

// dateFlag parses an optional YYYY-MM-DD flag value, defaulting to today
func dateFlag(value string) (datetime.Date, error) {
	if value == "" {
		return today(), nil
	}
	d, err := datetime.ParseDate(value)
	if err != nil {
		return datetime.Date{}, fmt.Errorf("invalid --date: %w", err)
	}
	return d, nil
}

// windowFlags resolves --month and --year, defaulting to the current month
func windowFlags(month, year int) (datetime.Window, error) {
	w := datetime.WindowOf(today())
	if month != 0 {
		w.Month = month
	}
	if year != 0 {
		w.Year = year
	}
	if err := w.Validate(); err != nil {
		return datetime.Window{}, err
	}
	return w, nil
}
