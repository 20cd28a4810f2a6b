package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tempus-app/tempus/internal/models"
)

// NewListsCmd shows the user's lists
func NewListsCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show your lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				lists, err := app.Store.LoadLists(ctx)
				if err != nil {
					return err
				}
				printLists(cmd.OutOrStdout(), lists)
				return nil
			})
		},
	}
}

// NewListCmd groups list management commands
func NewListCmd(factory AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage lists",
	}
	cmd.AddCommand(newListAddCmd(factory))
	return cmd
}

func newListAddCmd(factory AppFactory) *cobra.Command {
	var icon, color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a list; a color is picked when none is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := models.CreateListInput{ListName: args[0], ListIcon: icon, ListColor: color}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				l, err := app.Store.CreateList(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created list %d %s (%s)\n", l.ListID, l.ListName, l.ListColor)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "", "Icon, e.g. an emoji")
	cmd.Flags().StringVar(&color, "color", "", "Hex color such as #5D87FF")
	return cmd
}
