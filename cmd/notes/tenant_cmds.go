package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jrsteele09/go-notes-client/users"
	"github.com/spf13/cobra"
)

var inviteRole string

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Members of your organisation",
}

var membersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(c *client) error {
			if err := c.machine.ShowMembers(cmd.Context()); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tROLE")
			for _, m := range c.machine.Snapshot().Members {
				fmt.Fprintf(w, "%s\t%s\n", m.Email, m.Role)
			}
			return w.Flush()
		})
	},
}

var membersInviteCmd = &cobra.Command{
	Use:   "invite [email]",
	Short: "Invite someone to your organisation (admins only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := users.ParseRole(inviteRole)
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(c *client) error {
			receipt, err := c.machine.InviteMember(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}
			msg := receipt.Message
			if msg == "" {
				msg = "User invited"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s as %s\n", msg, args[0], role)
			return nil
		})
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Your organisation's subscription plan",
}

var planUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade to the Pro plan (admins only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(c *client) error {
			user, err := c.machine.UpgradePlan(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now on the %s plan\n", user.TenantName, user.Plan)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(membersCmd, planCmd)
	membersCmd.AddCommand(membersListCmd, membersInviteCmd)
	planCmd.AddCommand(planUpgradeCmd)
	membersInviteCmd.Flags().StringVarP(&inviteRole, "role", "r", string(users.RoleMember), "Role of the new member: admin or member")
}
