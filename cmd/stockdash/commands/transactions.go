package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/marshallshelly/stockdash/cmd/stockdash/output"
	"github.com/marshallshelly/stockdash/pkg/form"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/marshallshelly/stockdash/pkg/store"
	"github.com/marshallshelly/stockdash/pkg/transport"
	"github.com/marshallshelly/stockdash/pkg/view"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	// List flags
	txType   string
	txFrom   string
	txTo     string
	txSearch string
	txPage   int

	// Add flags
	txProduct  string
	txQuantity int
	txPrice    string
	txNotes    string
)

// transactionsCmd groups the transaction commands
var transactionsCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"tx"},
	Short:   "Record and review purchases and sales",
	Long: `Record and review stock movements.

Subcommands:
  list    - List transactions, newest first
  add     - Record a purchase or sale (admin)
  delete  - Delete a transaction and reverse its stock effect (admin)`,
}

var transactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions",
	Long: `List transactions, 10 per page, newest first. The date range is inclusive:
--to 2024-05-31 includes the whole of May 31.

Examples:
  stockdash transactions list --type sale
  stockdash transactions list --from 2024-05-01 --to 2024-05-31
  stockdash transactions list --search hammer --page 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runTransactionsList)
	},
}

var transactionsAddCmd = &cobra.Command{
	Use:   "add <purchase|sale>",
	Short: "Record a transaction",
	Long: `Record a purchase or sale. The unit price defaults to the product's price.

Examples:
  stockdash transactions add purchase --product TL-001 --quantity 50
  stockdash transactions add sale --product TL-001 --quantity 3 --price 14.00`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(model.Purchase), string(model.Sale)},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			return runTransactionAdd(ctx, a, model.TransactionType(args[0]))
		})
	},
}

var transactionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			return runTransactionDelete(ctx, a, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(transactionsCmd)
	transactionsCmd.AddCommand(transactionsListCmd, transactionsAddCmd, transactionsDeleteCmd)

	transactionsListCmd.Flags().StringVar(&txType, "type", "", "Only purchase or sale")
	transactionsListCmd.Flags().StringVar(&txFrom, "from", "", "Start date (YYYY-MM-DD)")
	transactionsListCmd.Flags().StringVar(&txTo, "to", "", "End date, inclusive (YYYY-MM-DD)")
	transactionsListCmd.Flags().StringVarP(&txSearch, "search", "s", "", "Search product, SKU, user and type")
	transactionsListCmd.Flags().IntVar(&txPage, "page", 1, "Page number")

	transactionsAddCmd.Flags().StringVar(&txProduct, "product", "", "Product SKU or id")
	transactionsAddCmd.Flags().IntVarP(&txQuantity, "quantity", "q", 1, "Units")
	transactionsAddCmd.Flags().StringVar(&txPrice, "price", "", "Unit price (defaults to the product price)")
	transactionsAddCmd.Flags().StringVar(&txNotes, "notes", "", "Notes")
}

// parseDateFlag parses an optional YYYY-MM-DD flag value.
func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := transport.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q, expected YYYY-MM-DD", name, value)
	}
	return &t, nil
}

func runTransactionsList(ctx context.Context, a *app) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	start, err := parseDateFlag("from", txFrom)
	if err != nil {
		return err
	}
	end, err := parseDateFlag("to", txTo)
	if err != nil {
		return err
	}

	if err := a.transactions.Load(ctx, model.TransactionQuery{}); err != nil {
		return fail(err, "Failed to load transactions")
	}

	v := view.NewTransactionView()
	v.SetKind(txType)
	v.SetDateRange(start, end)
	v.SetSearch(txSearch)
	v.SetPage(txPage)
	page := v.Compute(a.transactions.Snapshot())

	if jsonOutput {
		return output.JSON(page)
	}
	if page.Matched == 0 {
		output.Info("No transactions found")
		return nil
	}

	rows := make([][]string, 0, len(page.Rows))
	for _, tx := range page.Rows {
		rows = append(rows, []string{
			tx.Date.Local().Format("2006-01-02 15:04"), string(tx.Type), tx.ProductName, tx.ProductSKU,
			strconv.Itoa(tx.Quantity), tx.UnitPrice.StringFixed(2), tx.TotalAmount.StringFixed(2), tx.UserName, tx.ID,
		})
	}
	output.Table([]string{"DATE", "TYPE", "PRODUCT", "SKU", "QTY", "PRICE", "TOTAL", "USER", "ID"}, rows)

	totals := store.SumTransactions(view.Filter(view.TransactionSpec, a.transactions.Snapshot(), v.Params()))
	output.Muted("Purchases %s (%d) · Sales %s (%d) · Net %s",
		totals.Purchases.StringFixed(2), totals.PurchaseCount,
		totals.Sales.StringFixed(2), totals.SaleCount,
		totals.Net().StringFixed(2))
	output.Pager(page.Page, page.TotalPages, page.Matched, page.Window)
	return nil
}

func runTransactionAdd(ctx context.Context, a *app, typ model.TransactionType) error {
	if typ != model.Purchase && typ != model.Sale {
		return fmt.Errorf("transaction type must be purchase or sale, got %q", typ)
	}
	if err := loadProducts(ctx, a, model.ProductQuery{}); err != nil {
		return err
	}

	productID := ""
	if txProduct != "" {
		p, err := resolveProduct(a, txProduct)
		if err != nil {
			return fail(err, "Product not found")
		}
		productID = p.ID
	}

	price := decimal.Zero
	if txPrice != "" {
		var err error
		if price, err = decimal.NewFromString(txPrice); err != nil {
			return fmt.Errorf("invalid --price %q", txPrice)
		}
	}

	ed := form.NewTransactionEditor(a.transactions, a.products)
	ed.StartCreate()
	ed.Update(func(in *model.TransactionInput) {
		in.ProductID = productID
		in.Type = typ
		in.Quantity = txQuantity
		in.UnitPrice = price
		in.Notes = txNotes
	})
	if err := ed.Save(ctx); err != nil {
		return fail(err, "Failed to record transaction")
	}

	output.Success("%s", ed.Success())
	if p, ok := a.products.Find(productID); ok {
		output.Muted("%s now has %d in stock", p.Name, p.StockLevel)
	}
	return nil
}

func runTransactionDelete(ctx context.Context, a *app, id string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if !confirm(fmt.Sprintf("Delete transaction %s? Its stock change will be reversed.", id)) {
		output.Muted("Cancelled")
		return nil
	}
	if err := a.transactions.Delete(ctx, id); err != nil {
		return fail(err, "Failed to delete transaction")
	}
	output.Success("Transaction deleted successfully")
	return nil
}
