package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/marshallshelly/stockdash/cmd/stockdash/output"
	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/form"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/marshallshelly/stockdash/pkg/store"
	"github.com/marshallshelly/stockdash/pkg/view"
	"github.com/spf13/cobra"
)

var (
	// List flags
	userSearch string
	userRole   string
	userPage   int

	// Add/update flags
	userName     string
	userEmail    string
	userPassword string
	userNewRole  string
)

// usersCmd groups the user commands
var usersCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user", "u"},
	Short:   "Manage user accounts",
	Long: `Manage user accounts. Users are addressed by name.

When the backend cannot be reached, the user list is read from the durable
cache and changes are kept there.

Subcommands:
  list    - List users (admin)
  add     - Create a user (admin)
  update  - Edit a user (admin, or yourself)
  delete  - Delete a user (admin)`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runUsersList)
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user",
	Long: `Create a user. Without --password the initial password is the first four
letters of the name followed by 123 (johnsmith gets john123).

Examples:
  stockdash users add --name johnsmith --email john@example.com
  stockdash users add --name ann --email ann@example.com --role admin --password s3cret!`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			return runUserSave(ctx, a, cmd, "")
		})
	},
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Edit a user",
	Long: `Edit a user. Only the flags given are changed; the password stays as is
unless --password is set.

Examples:
  stockdash users update johnsmith --email john.smith@example.com
  stockdash users update johnsmith --role admin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			return runUserSave(ctx, a, cmd, args[0])
		})
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a user",
	Long: `Delete a user. Deleting your own account logs you out.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			return runUserDelete(ctx, a, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersAddCmd, usersUpdateCmd, usersDeleteCmd)

	usersListCmd.Flags().StringVarP(&userSearch, "search", "s", "", "Search name and email")
	usersListCmd.Flags().StringVar(&userRole, "role", "", "Only admin or user")
	usersListCmd.Flags().IntVar(&userPage, "page", 1, "Page number")

	for _, c := range []*cobra.Command{usersAddCmd, usersUpdateCmd} {
		c.Flags().StringVar(&userName, "name", "", "User name")
		c.Flags().StringVar(&userEmail, "email", "", "Email")
		c.Flags().StringVar(&userPassword, "password", "", "Password (at least 6 characters)")
		c.Flags().StringVar(&userNewRole, "role", string(model.RoleUser), "Role: admin or user")
	}
}

func loadUsers(ctx context.Context, a *app) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.users.Load(ctx, store.NoQuery{}); err != nil {
		return fail(err, "Failed to load users")
	}
	if a.users.Offline() {
		output.Warning("Server unavailable, showing cached users")
	}
	return nil
}

func runUsersList(ctx context.Context, a *app) error {
	if err := loadUsers(ctx, a); err != nil {
		return err
	}

	v := view.NewUserView()
	v.SetKind(userRole)
	v.SetSearch(userSearch)
	v.SetPage(userPage)
	page := v.Compute(a.users.Snapshot())

	if jsonOutput {
		return output.JSON(page)
	}
	if page.Matched == 0 {
		output.Info("No users found")
		return nil
	}

	rows := make([][]string, 0, len(page.Rows))
	for _, u := range page.Rows {
		name := u.Name
		if a.session.IsCurrent(u) {
			name += " (you)"
		}
		rows = append(rows, []string{name, u.Email, string(u.Role)})
	}
	output.Table([]string{"NAME", "EMAIL", "ROLE"}, rows)
	output.Pager(page.Page, page.TotalPages, page.Matched, page.Window)
	return nil
}

// resolveUser finds name in the loaded list, falling back to the session
// user so non-admins can edit themselves.
func resolveUser(a *app, name string) (model.User, error) {
	if u, ok := a.users.FindByName(name); ok {
		return u, nil
	}
	if u, ok := a.session.CurrentUser(); ok && strings.EqualFold(u.Name, name) {
		return u, nil
	}
	return model.User{}, fmt.Errorf("user %q: %w", name, apperr.ErrNotFound)
}

func runUserSave(ctx context.Context, a *app, cmd *cobra.Command, name string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if a.session.IsAdmin() {
		if err := loadUsers(ctx, a); err != nil {
			return err
		}
	}

	ed := form.NewUserEditor(a.users)
	if name == "" {
		ed.StartCreate()
	} else {
		u, err := resolveUser(a, name)
		if err != nil {
			return fail(err, "User not found")
		}
		ed.StartEdit(u)
	}

	flags := cmd.Flags()
	ed.Update(func(u *model.User) {
		if flags.Changed("name") {
			u.Name = userName
		}
		if flags.Changed("email") {
			u.Email = userEmail
		}
		if flags.Changed("password") {
			u.Password = userPassword
		}
		if flags.Changed("role") || ed.Mode() == form.ModeCreate {
			u.Role = model.Role(userNewRole)
		}
	})

	buf := ed.Buffer()
	if err := ed.Save(ctx); err != nil {
		return fail(err, "Failed to save user")
	}
	output.Success("%s", ed.Success())
	if name == "" && !flags.Changed("password") {
		output.Info("Initial password: %s", form.GeneratePassword(buf.Name))
	}
	return nil
}

func runUserDelete(ctx context.Context, a *app, name string) error {
	if err := loadUsers(ctx, a); err != nil {
		return err
	}
	u, err := resolveUser(a, name)
	if err != nil {
		return fail(err, "User not found")
	}

	question := fmt.Sprintf("Delete user %s <%s>?", u.Name, u.Email)
	if a.session.IsCurrent(u) {
		question = "Delete your own account? You will be logged out."
	}
	if !confirm(question) {
		output.Muted("Cancelled")
		return nil
	}

	if err := a.users.Delete(ctx, u); err != nil {
		return fail(err, "Failed to delete user")
	}
	output.Success("User deleted successfully")
	if !a.session.IsAuthenticated() {
		output.Info("You have been logged out")
	}
	return nil
}
