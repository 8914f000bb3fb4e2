package commands

import (
	"context"
	"fmt"

	"github.com/marshallshelly/stockdash/cmd/stockdash/output"
	"github.com/marshallshelly/stockdash/cmd/stockdash/tui"
	"github.com/marshallshelly/stockdash/pkg/cache"
	"github.com/spf13/cobra"
)

var dashboardTheme string

// dashboardCmd opens the interactive dashboard
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"ui"},
	Short:   "Open the interactive dashboard",
	Long: `Open a full-screen dashboard with products, transactions and, for admins,
users. Search with /, cycle filters with f and page with the arrow keys.

The chosen theme is remembered in the local cache.

Examples:
  stockdash dashboard
  stockdash dashboard --theme light`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runDashboard)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().StringVar(&dashboardTheme, "theme", "", "Color theme: dark or light (remembered)")
}

func runDashboard(ctx context.Context, a *app) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	theme, err := resolveTheme(ctx, a.cache, dashboardTheme)
	if err != nil {
		return err
	}

	err = tui.Run(tui.Deps{
		Session:      a.session,
		Products:     a.products,
		Transactions: a.transactions,
		Users:        a.users,
		Stats:        a.stats,
		Theme:        theme,
	})
	if err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	if !a.session.IsAuthenticated() {
		output.Info("You have been logged out")
	}
	return nil
}

// resolveTheme stores a theme given as a flag, or returns the remembered one.
func resolveTheme(ctx context.Context, c cache.Cache, flag string) (string, error) {
	switch flag {
	case "":
		var theme string
		if _, err := c.Get(ctx, cache.KeyTheme, &theme); err != nil {
			return tui.ThemeDark, nil
		}
		if theme == "" {
			theme = tui.ThemeDark
		}
		return theme, nil
	case tui.ThemeDark, tui.ThemeLight:
		if err := c.Set(ctx, cache.KeyTheme, flag); err != nil {
			return "", fmt.Errorf("failed to save theme: %w", err)
		}
		return flag, nil
	default:
		return "", fmt.Errorf("unknown theme %q (use dark or light)", flag)
	}
}
