package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-auth-session/session"
)

func newLoginCommand(a *app) *cobra.Command {
	var creds session.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command) error {
			user, err := a.manager.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCommand(a *app) *cobra.Command {
	var data session.RegisterData
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command) error {
			user, err := a.manager.Register(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registered %s <%s>\n", user.Name, user.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&data.Email, "email", "", "account email")
	cmd.Flags().StringVar(&data.Password, "password", "", "new password")
	cmd.Flags().StringVar(&data.ConfirmPassword, "confirm-password", "", "new password again")
	cmd.Flags().StringVar(&data.Name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command) error {
			if err := a.manager.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		}),
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user, checking the token with the Auth API",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command) error {
			if !a.manager.IsAuthenticated() {
				fmt.Fprintln(a.out, "Not logged in")
				return nil
			}
			if !offline {
				if err := a.manager.Validate(cmd.Context()); err != nil {
					return err
				}
			}
			state := a.manager.Snapshot()
			fmt.Fprintf(a.out, "%s <%s> role=%s id=%s verified=%t\n",
				state.User.Name, state.User.Email, state.User.Role, state.User.ID, state.Verified)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "only read the stored session")
	return cmd
}

func newForgotPasswordCommand(a *app) *cobra.Command {
	var data session.ForgotPasswordData
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command) error {
			if err := a.manager.ForgotPassword(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "If the email exists, a reset link has been sent")
			return nil
		}),
	}
	cmd.Flags().StringVar(&data.Email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newResetPasswordCommand(a *app) *cobra.Command {
	var data session.ResetPasswordData
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with a reset token",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command) error {
			if err := a.manager.ResetPassword(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Password reset")
			return nil
		}),
	}
	cmd.Flags().StringVar(&data.Token, "token", "", "reset token from the email")
	cmd.Flags().StringVar(&data.Password, "password", "", "new password")
	cmd.Flags().StringVar(&data.ConfirmPassword, "confirm-password", "", "new password again")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newRefreshCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for new tokens",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command) error {
			if err := a.manager.RefreshToken(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Session refreshed")
			return nil
		}),
	}
}
