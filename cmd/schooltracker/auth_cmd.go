package main

import (
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-schooltracker-client/auth"
	"github.com/jrsteele09/go-schooltracker-client/gateway"
)

func signInCmd(env envFunc) *cobra.Command {
	var req auth.SignInRequest
	var sessionOnly bool
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()

			user, err := a.auth.SignIn(ctx, req, !sessionOnly)
			if err != nil {
				return signInError(err)
			}
			// A new user must never see the previous user's cache.
			a.auth.ForceReset()
			return out.print(user)
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().BoolVar(&sessionOnly, "session-only", false, "do not remember the session after this command")
	return cmd
}

func signUpCmd(env envFunc) *cobra.Command {
	var req auth.SignUpRequest
	var sessionOnly bool
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, out := env(cmd)
			defer cancel()

			user, err := a.auth.SignUp(ctx, req, !sessionOnly)
			if err != nil {
				return signInError(err)
			}
			a.auth.ForceReset()
			return out.print(user)
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&req.Country, "country", "", "country of residence")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.DateOfBirth, "date-of-birth", "", "date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.Gender, "gender", "", "Male, Female or Other")
	cmd.Flags().BoolVar(&sessionOnly, "session-only", false, "do not remember the session after this command")
	return cmd
}

func signOutCmd(env envFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session and cached data",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, cancel, out := env(cmd)
			defer cancel()

			if err := a.auth.SignOut(); err != nil {
				return err
			}
			out.message("Signed out")
			return nil
		},
	}
}

func statusCmd(env envFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, cancel, out := env(cmd)
			defer cancel()
			return out.print(a.auth.Status())
		},
	}
}

func resetCmd(env envFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop cached data but stay signed in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, cancel, out := env(cmd)
			defer cancel()

			a.auth.ForceReset()
			out.message("Cached data cleared")
			return nil
		},
	}
}

func signInError(err error) error {
	return &cliError{msg: gateway.UserMessage(err, "Authentication failed"), err: err}
}

type cliError struct {
	msg string
	err error
}

func (e *cliError) Error() string { return e.msg }

func (e *cliError) Unwrap() error { return e.err }
