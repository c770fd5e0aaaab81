package cli

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nurpe/erp-console/internal/session"
)

func loginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and cache the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if strings.TrimSpace(username) == "" || password == "" {
				return errors.New("username and password are required (use --password or " + passwordEnv + ")")
			}
			profile, err := a.client.Login(cmd.Context(), username, password)
			if err != nil {
				return a.describe(err)
			}
			a.printf("signed in as %s, session valid until %s\n", profile.User.Username, profile.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and clear the local cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				a.printf("local session cleared; server logout failed: %v\n", err)
				return nil
			}
			a.printf("signed out\n")
			return nil
		},
	}
}

// whoami reads the cached session only; it makes no request.
func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the cached user and permissions",
		RunE: func(_ *cobra.Command, _ []string) error {
			profile, ok := a.store.Load()
			if !ok {
				return errors.New("not signed in")
			}
			state := "valid"
			if profile.Expired(time.Now()) {
				state = "expired"
			}
			a.printf("user:        %s (%s)\n", profile.User.Username, profile.User.FullName)
			a.printf("session:     %s until %s\n", state, profile.ExpiresAt.Format(time.RFC3339))
			perms := session.NewPermissionSet(profile.Permissions)
			a.printf("permissions: %d\n", perms.Len())
			for _, code := range profile.Permissions {
				a.printf("  %s\n", code)
			}
			return nil
		},
	}
}

func bootstrapCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Load permissions and notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.client.Bootstrap(cmd.Context())
			if err != nil {
				return a.describe(err)
			}
			a.printf("user: %s\n", result.User.Username)
			a.printf("permissions: %s\n", strings.Join(result.Permissions, ", "))
			if len(result.Notifications) == 0 {
				a.printf("no notifications\n")
			}
			for _, n := range result.Notifications {
				a.printf("- %s\n", n.Message)
			}
			return nil
		},
	}
}
