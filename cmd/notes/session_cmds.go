package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jrsteele09/go-notes-client/token"
	"github.com/spf13/cobra"
)

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in and keep the session for later commands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			password = os.Getenv("NOTES_PASSWORD")
		}
		if password == "" {
			var err error
			password, err = readLine(cmd.InOrStdin(), cmd.OutOrStdout(), "Password: ")
			if err != nil {
				return err
			}
		}

		return withClient(cmd.Context(), func(c *client) error {
			if err := c.machine.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			state := c.machine.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s, %s plan)\n", state.User.Email, state.User.TenantName, state.User.Plan)
			if state.NotesError != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), state.NotesError)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%d note(s)\n", len(state.Notes))
			}
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(c *client) error {
			c.machine.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in user and token details",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(c *client) error {
			out := cmd.OutOrStdout()
			user, _ := c.store.CurrentUser()
			raw, _ := c.store.Token()

			fmt.Fprintf(out, "Email:  %s\n", user.Email)
			fmt.Fprintf(out, "Role:   %s\n", user.Role)
			fmt.Fprintf(out, "Tenant: %s (%s)\n", user.TenantName, user.TenantID)
			fmt.Fprintf(out, "Plan:   %s\n", user.Plan)
			fmt.Fprintf(out, "Token:  %s\n", token.Mask(raw))

			details, err := token.Inspect(raw)
			if err != nil {
				logger.Debug().Err(err).Msg("token not inspectable")
				return nil
			}
			if details.ExpiresAt != nil {
				status := "valid"
				if details.Expired(time.Now()) {
					status = "expired"
				}
				fmt.Fprintf(out, "Expiry: %s (%s)\n", details.ExpiresAt.Local().Format(time.RFC1123), status)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted for when empty, or read from NOTES_PASSWORD)")
}
