package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *cli) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Log in, register and manage passwords",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether this profile is logged in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			state, err := a.auth.Status(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer().print(state, func(tw *tabwriter.Writer) {
				if !state.IsLoggedIn || state.User == nil {
					fmt.Fprintln(tw, "Not logged in.")
					return
				}
				fmt.Fprintf(tw, "Logged in as\t%s <%s>\n", state.User.Name, state.User.Email)
			})
		},
	}

	var email, password, name, token, confirm string

	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and merge the guest cart into the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.app(ctx)
			if err != nil {
				return err
			}
			msg, err := a.auth.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if _, err := a.cart.Load(ctx); err != nil {
				return err
			}
			return c.printer().message(msg)
		},
	}
	login.Flags().StringVar(&email, "email", "", "account email")
	login.Flags().StringVar(&password, "password", "", "account password")

	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			msg, err := a.auth.Register(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			return c.printer().message(msg)
		},
	}
	register.Flags().StringVar(&name, "name", "", "display name")
	register.Flags().StringVar(&email, "email", "", "account email")
	register.Flags().StringVar(&password, "password", "", "account password")

	forgot := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			msg, err := a.auth.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return err
			}
			return c.printer().message(msg)
		},
	}
	forgot.Flags().StringVar(&email, "email", "", "account email")

	reset := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with a reset token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			msg, err := a.auth.ResetPassword(cmd.Context(), token, password, confirm)
			if err != nil {
				return err
			}
			return c.printer().message(msg)
		},
	}
	reset.Flags().StringVar(&token, "token", "", "token from the reset link")
	reset.Flags().StringVar(&password, "password", "", "new password")
	reset.Flags().StringVar(&confirm, "confirm", "", "new password again")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			msg, err := a.auth.Logout(cmd.Context())
			if err != nil {
				return err
			}
			a.cart.ForgetServerCart(cmd.Context())
			return c.printer().message(msg)
		},
	}

	cmd.AddCommand(status, login, register, forgot, reset, logout)
	return cmd
}
