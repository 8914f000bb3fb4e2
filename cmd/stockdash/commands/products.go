package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/marshallshelly/stockdash/cmd/stockdash/output"
	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/form"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/marshallshelly/stockdash/pkg/report"
	"github.com/marshallshelly/stockdash/pkg/store"
	"github.com/marshallshelly/stockdash/pkg/view"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	// List flags
	productSearch   string
	productCategory string
	productStatus   string
	productPage     int

	// Add/update flags
	productSKU      string
	productName     string
	productCat      string
	productSupplier string
	productPrice    string
	productMinStock int

	// Adjust flags
	adjustQuantity int
	adjustType     string
	adjustNotes    string
)

// productsCmd groups the product commands
var productsCmd = &cobra.Command{
	Use:     "products",
	Aliases: []string{"product", "p"},
	Short:   "Manage the product catalog",
	Long: `Manage products and stock levels.

Subcommands:
  list       - List products with filters and paging
  add        - Create a product (admin)
  update     - Edit a product (admin)
  delete     - Delete a product (admin)
  adjust     - Move stock in or out (admin)
  low-stock  - Show products at or below their threshold`,
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	Long: `List products, 12 per page, sorted by name.

Examples:
  stockdash products list --search hammer
  stockdash products list --status low-stock
  stockdash products list --category Paint --page 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runProductsList)
	},
}

var productsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a product",
	Long: `Create a product. Stock starts at zero; use adjust or a purchase to add stock.

Examples:
  stockdash products add --sku TL-003 --name "Tape Measure" --category Tools --price 7.50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			return runProductSave(ctx, a, cmd, "")
		})
	},
}

var productsUpdateCmd = &cobra.Command{
	Use:   "update <sku|id>",
	Short: "Edit a product",
	Long: `Edit a product. Only the flags given are changed.

Examples:
  stockdash products update TL-003 --price 8.25 --min-stock 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			return runProductSave(ctx, a, cmd, args[0])
		})
	},
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete <sku|id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			return runProductDelete(ctx, a, args[0])
		})
	},
}

var productsAdjustCmd = &cobra.Command{
	Use:   "adjust <sku|id>",
	Short: "Adjust stock",
	Long: `Move stock in or out. The server records the movement as a transaction.

Examples:
  stockdash products adjust TL-001 --quantity 20 --type in
  stockdash products adjust TL-001 --quantity 2 --type out --notes damaged`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			return runProductAdjust(ctx, a, args[0])
		})
	},
}

var productsLowStockCmd = &cobra.Command{
	Use:   "low-stock",
	Short: "Show low-stock products",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runLowStock)
	},
}

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.AddCommand(productsListCmd, productsAddCmd, productsUpdateCmd, productsDeleteCmd, productsAdjustCmd, productsLowStockCmd)

	productsListCmd.Flags().StringVarP(&productSearch, "search", "s", "", "Search name, SKU, category and supplier")
	productsListCmd.Flags().StringVar(&productCategory, "category", "", "Only this category")
	productsListCmd.Flags().StringVar(&productStatus, "status", "", "Stock status: low-stock or out-of-stock")
	productsListCmd.Flags().IntVar(&productPage, "page", 1, "Page number")

	for _, c := range []*cobra.Command{productsAddCmd, productsUpdateCmd} {
		c.Flags().StringVar(&productSKU, "sku", "", "Stock keeping unit, unique")
		c.Flags().StringVar(&productName, "name", "", "Product name")
		c.Flags().StringVar(&productCat, "category", "", "Category")
		c.Flags().StringVar(&productSupplier, "supplier", "", "Supplier")
		c.Flags().StringVar(&productPrice, "price", "", "Unit price")
		c.Flags().IntVar(&productMinStock, "min-stock", form.DefaultMinStockThreshold, "Low-stock threshold")
	}

	productsAdjustCmd.Flags().IntVarP(&adjustQuantity, "quantity", "q", 1, "Units to move")
	productsAdjustCmd.Flags().StringVar(&adjustType, "type", string(model.AdjustIn), "Direction: in or out")
	productsAdjustCmd.Flags().StringVar(&adjustNotes, "notes", "", "Reason for the adjustment")
}

// loadProducts fills the product store, printing the failure if any.
func loadProducts(ctx context.Context, a *app, q model.ProductQuery) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.products.Load(ctx, q); err != nil {
		return fail(err, "Failed to load products")
	}
	return nil
}

// resolveProduct finds a product by SKU first, then by id.
func resolveProduct(a *app, ref string) (model.Product, error) {
	if p, ok := a.products.FindBySKU(ref); ok {
		return p, nil
	}
	if p, ok := a.products.Find(ref); ok {
		return p, nil
	}
	return model.Product{}, fmt.Errorf("product %q: %w", ref, apperr.ErrNotFound)
}

func runProductsList(ctx context.Context, a *app) error {
	if err := loadProducts(ctx, a, model.ProductQuery{Category: productCategory}); err != nil {
		return err
	}

	v := view.NewProductView()
	v.SetKind(productStatus)
	v.SetSearch(productSearch)
	v.SetPage(productPage)
	page := v.Compute(a.products.Snapshot())

	if jsonOutput {
		return output.JSON(page)
	}
	if page.Matched == 0 {
		output.Info("No products found")
		return nil
	}

	rows := make([][]string, 0, len(page.Rows))
	for _, p := range page.Rows {
		status := report.StockStatus(p)
		rows = append(rows, []string{
			p.SKU, p.Name, p.Category, p.UnitPrice.StringFixed(2),
			strconv.Itoa(p.StockLevel), strconv.Itoa(p.MinStockThreshold),
			output.StockIcon(status) + " " + status,
		})
	}
	output.Table([]string{"SKU", "NAME", "CATEGORY", "PRICE", "STOCK", "MIN", "STATUS"}, rows)
	output.Pager(page.Page, page.TotalPages, page.Matched, page.Window)
	return nil
}

func runProductSave(ctx context.Context, a *app, cmd *cobra.Command, ref string) error {
	if err := loadProducts(ctx, a, model.ProductQuery{}); err != nil {
		return err
	}

	ed := form.NewProductEditor(a.products)
	if ref == "" {
		ed.StartCreate()
	} else {
		p, err := resolveProduct(a, ref)
		if err != nil {
			return fail(err, "Product not found")
		}
		ed.StartEdit(p)
	}

	var price decimal.Decimal
	if productPrice != "" {
		var err error
		if price, err = decimal.NewFromString(productPrice); err != nil {
			return fmt.Errorf("invalid --price %q", productPrice)
		}
	}

	flags := cmd.Flags()
	ed.Update(func(in *model.ProductInput) {
		if flags.Changed("sku") {
			in.SKU = productSKU
		}
		if flags.Changed("name") {
			in.Name = productName
		}
		if flags.Changed("category") {
			in.Category = productCat
		}
		if flags.Changed("supplier") {
			in.Supplier = productSupplier
		}
		if flags.Changed("price") {
			in.UnitPrice = price
		}
		if flags.Changed("min-stock") {
			in.MinStockThreshold = productMinStock
		}
	})

	if err := ed.Save(ctx); err != nil {
		return fail(err, "Failed to save product")
	}
	output.Success("%s", ed.Success())
	return nil
}

func runProductDelete(ctx context.Context, a *app, ref string) error {
	if err := loadProducts(ctx, a, model.ProductQuery{}); err != nil {
		return err
	}
	p, err := resolveProduct(a, ref)
	if err != nil {
		return fail(err, "Product not found")
	}
	if !confirm(fmt.Sprintf("Delete %s (%s)?", p.Name, p.SKU)) {
		output.Muted("Cancelled")
		return nil
	}
	if err := a.products.Delete(ctx, p.ID); err != nil {
		return fail(err, "Failed to delete product")
	}
	output.Success("Product deleted successfully")
	return nil
}

func runProductAdjust(ctx context.Context, a *app, ref string) error {
	if err := loadProducts(ctx, a, model.ProductQuery{}); err != nil {
		return err
	}
	p, err := resolveProduct(a, ref)
	if err != nil {
		return fail(err, "Product not found")
	}

	ed := form.NewStockAdjustmentEditor(a.products)
	ed.StartEdit(p)
	ed.Update(func(adj *model.StockAdjustment) {
		adj.Quantity = adjustQuantity
		adj.Type = model.AdjustmentType(adjustType)
		adj.Notes = adjustNotes
	})
	if err := ed.Save(ctx); err != nil {
		return fail(err, "Failed to adjust stock")
	}

	output.Success("%s", ed.Success())
	if updated, ok := a.products.Find(p.ID); ok {
		output.Muted("%s now has %d in stock", updated.Name, updated.StockLevel)
	}
	return nil
}

func runLowStock(ctx context.Context, a *app) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.lowStock.Load(ctx, store.NoQuery{}); err != nil {
		return fail(err, "Failed to load low stock products")
	}
	products := a.lowStock.Snapshot()
	if jsonOutput {
		return output.JSON(products)
	}
	if len(products) == 0 {
		output.Success("All products are above their stock threshold")
		return nil
	}

	rows := make([][]string, 0, len(products))
	for _, p := range products {
		status := report.StockStatus(p)
		rows = append(rows, []string{p.SKU, p.Name, strconv.Itoa(p.StockLevel), strconv.Itoa(p.MinStockThreshold), output.StockIcon(status) + " " + status})
	}
	output.Section("Low Stock")
	output.Table([]string{"SKU", "NAME", "STOCK", "MIN", "STATUS"}, rows)
	return nil
}
