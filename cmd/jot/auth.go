package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	resetToken string
	assumeYes  bool
)

var registerCmd = &cobra.Command{
	Use:   "register [email]",
	Short: "Create an account and sign in",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := emailArg(args)
		password := readPassword("Password: ")
		if readPassword("Repeat password: ") != password {
			return fmt.Errorf("passwords do not match")
		}

		ctx, cancel := commandContext()
		defer cancel()
		app := openApp(ctx)
		defer app.Close()

		if err := app.Session.Register(ctx, email, password); err != nil {
			return errors.New(app.Session.Snapshot().Error)
		}
		fmt.Printf("Signed in as %s\n", app.Session.Current().Email)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := emailArg(args)
		password := readPassword("Password: ")

		ctx, cancel := commandContext()
		defer cancel()
		app := openApp(ctx)
		defer app.Close()

		if err := app.Session.Login(ctx, email, password); err != nil {
			return errors.New(app.Session.Snapshot().Error)
		}
		fmt.Printf("Signed in as %s\n", app.Session.Current().Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		app := openApp(ctx)
		defer app.Close()

		if !app.Session.Snapshot().Authenticated() {
			fmt.Println("Not signed in")
			return nil
		}
		app.Session.RequestLogout()
		if !assumeYes && !confirm("Sign out?") {
			app.Session.CancelLogout()
			return nil
		}
		if err := app.Session.Logout(ctx); err != nil {
			return fmt.Errorf("signing out: %w", err)
		}
		fmt.Println("Signed out")
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password [email]",
	Short: "Request a password reset link, or complete one with --token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var email, password string
		if resetToken != "" {
			password = readPassword("New password: ")
		} else {
			email = emailArg(args)
		}

		ctx, cancel := commandContext()
		defer cancel()
		app := openApp(ctx)
		defer app.Close()

		if resetToken != "" {
			if err := app.Provider.ResetPassword(ctx, resetToken, password); err != nil {
				return fmt.Errorf("resetting password: %w", err)
			}
			fmt.Println("Password updated, sign in with `jot login`")
			return nil
		}

		if err := app.Session.ResetPassword(ctx, email); err != nil {
			return errors.New(app.Session.Snapshot().Error)
		}
		fmt.Println(app.Session.Snapshot().Notice)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the signed-in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		app := openApp(ctx)
		defer app.Close()

		s := app.Session.Current()
		if s == nil {
			return errors.New("not signed in")
		}
		fmt.Println(s.Email)
		return nil
	},
}

func emailArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return readLine("Email: ")
}

func init() {
	resetPasswordCmd.Flags().StringVar(&resetToken, "token", "", "Reset token from the reset link")
	logoutCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, resetPasswordCmd, whoamiCmd)
}
