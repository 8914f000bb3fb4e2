package commands

import (
	"context"
	"fmt"

	"github.com/marshallshelly/stockdash/cmd/stockdash/output"
	"github.com/marshallshelly/stockdash/pkg/form"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/spf13/cobra"
)

var (
	// Login flags
	loginEmail    string
	loginPassword string
	loginRole     string

	// Signup flags
	signupName     string
	signupEmail    string
	signupPassword string
)

// loginCmd opens a session
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the backend",
	Long: `Log in and store the session in the durable cache.

The role must match the account: admins log in with --role admin.

Examples:
  stockdash login --email admin@example.com --role admin
  stockdash login --email user@example.com --password user123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runLogin)
	},
}

// logoutCmd ends the session
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the cached session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.session.Logout(ctx); err != nil {
				return fail(err, "Failed to clear session")
			}
			output.Success("Logged out")
			return nil
		})
	},
}

// whoamiCmd shows the current session
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			u, ok := a.session.CurrentUser()
			if !ok {
				output.Info("Not logged in")
				return nil
			}
			if jsonOutput {
				return output.JSON(u)
			}
			fmt.Fprintf(output.Stdout, "%s <%s> (%s) on %s\n", u.Name, u.Email, u.Role, a.client.BaseURL())
			return nil
		})
	},
}

// signupCmd registers a new account
var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a user account",
	Long: `Register a new account with the user role.

Examples:
  stockdash signup --name "Jane Doe" --email jane@example.com --password secret1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runSignup)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, signupCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted if empty)")
	loginCmd.Flags().StringVar(&loginRole, "role", string(model.RoleUser), "Role to log in as: admin or user")

	signupCmd.Flags().StringVar(&signupName, "name", "", "User name")
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "Email")
	signupCmd.Flags().StringVar(&signupPassword, "password", "", "Password (at least 6 characters)")
}

func runLogin(ctx context.Context, a *app) error {
	role := model.Role(loginRole)
	if !role.Valid() {
		return fmt.Errorf("--role must be admin or user")
	}

	creds := model.Credentials{
		Email:    prompt("Email", loginEmail),
		Password: prompt("Password", loginPassword),
	}
	u, err := a.session.Login(ctx, creds, role)
	if err != nil {
		return fail(err, "Login failed")
	}
	output.Success("Logged in as %s (%s)", u.Name, u.Role)
	return nil
}

func runSignup(ctx context.Context, a *app) error {
	ed := form.NewSignupEditor(a.users)
	ed.StartCreate()
	ed.Update(func(u *model.User) {
		u.Name = prompt("Name", signupName)
		u.Email = prompt("Email", signupEmail)
		u.Password = prompt("Password", signupPassword)
	})
	if err := ed.Save(ctx); err != nil {
		return fail(err, "Failed to create account")
	}
	output.Success("%s", ed.Success())
	return nil
}
