package commands

import (
	"context"
	"strconv"

	"github.com/marshallshelly/stockdash/cmd/stockdash/output"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/spf13/cobra"
)

var (
	statsFrom string
	statsTo   string
)

// statsCmd shows the dashboard summary
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics",
	Long: `Show product counts, inventory value and transaction totals.

Examples:
  stockdash stats
  stockdash stats --from 2024-05-01 --to 2024-05-31 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runStats)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsFrom, "from", "", "Start date (YYYY-MM-DD)")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "End date, inclusive (YYYY-MM-DD)")
}

func runStats(ctx context.Context, a *app) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	start, err := parseDateFlag("from", statsFrom)
	if err != nil {
		return err
	}
	end, err := parseDateFlag("to", statsTo)
	if err != nil {
		return err
	}

	if err := a.stats.Load(ctx, model.DateRange{Start: start, End: end}); err != nil {
		return fail(err, "Failed to load dashboard statistics")
	}
	s := a.stats.Stats()
	if jsonOutput {
		return output.JSON(s)
	}

	output.Section("Dashboard")
	output.Table([]string{"METRIC", "VALUE"}, [][]string{
		{"Products", strconv.Itoa(s.TotalProducts)},
		{"Low stock", strconv.Itoa(s.LowStockCount)},
		{"Out of stock", strconv.Itoa(s.OutOfStockCount)},
		{"Inventory value", s.InventoryValue.StringFixed(2)},
		{"Purchases", s.PurchaseTotal.StringFixed(2)},
		{"Sales", s.SalesTotal.StringFixed(2)},
		{"Transactions", strconv.Itoa(s.TransactionCount)},
	})
	return nil
}
