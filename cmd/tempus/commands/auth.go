package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// NewLoginCmd stores tokens issued by the identity provider
func NewLoginCmd(factory AppFactory) *cobra.Command {
	var token, refreshToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token for API calls",
		Long:  "Stores the identity provider's access token, and optionally its refresh token, in the configured token store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return errors.New("--token is required")
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				if err := app.Session.SaveTokens(ctx, token, refreshToken); err != nil {
					return fmt.Errorf("failed to save tokens: %w", err)
				}
				user, err := app.Session.GetCurrentUser(ctx)
				if err != nil || user == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Signed in")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", displayName(user.Username, user.Email, user.UserID))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token (JWT)")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "Refresh token, used when OIDC refresh is configured")
	return cmd
}

// NewLogoutCmd removes stored tokens
func NewLogoutCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				if err := app.Session.SignOut(ctx); err != nil {
					return fmt.Errorf("failed to sign out: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

// NewWhoamiCmd shows the signed-in user
func NewWhoamiCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				user, err := app.Session.GetCurrentUser(ctx)
				if err != nil {
					return err
				}
				if user == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
					return nil
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "User:    %s\n", displayName(user.Username, user.Email, user.UserID))
				if user.UserID != "" {
					fmt.Fprintf(out, "User ID: %s\n", user.UserID)
				}
				if !user.ExpiresAt.IsZero() {
					fmt.Fprintf(out, "Expires: %s\n", user.ExpiresAt.Local().Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
}

func displayName(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return "unknown user"
}
