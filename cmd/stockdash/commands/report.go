package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marshallshelly/stockdash/cmd/stockdash/output"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/marshallshelly/stockdash/pkg/report"
	"github.com/marshallshelly/stockdash/pkg/view"
	"github.com/spf13/cobra"
)

var (
	reportFormat string
	reportKind   string
	reportOut    string
	reportFrom   string
	reportTo     string
	reportType   string
)

// reportCmd exports products and transactions
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a report",
	Long: `Export products and/or transactions as CSV, a printable HTML page or XLSX.

CSV holds one table, so --kind all writes one file per table. The HTML page
opens the print dialog when loaded in a browser.

Examples:
  stockdash report --format csv --kind products
  stockdash report --format html --from 2024-05-01 --to 2024-05-31
  stockdash report --format xlsx --out ./exports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runReport)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "csv", "Format: csv, html or xlsx")
	reportCmd.Flags().StringVar(&reportKind, "kind", "all", "What to export: products, transactions or all")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", ".", "Output directory")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "Transactions from (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "Transactions to, inclusive (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportType, "type", "", "Only purchase or sale transactions")
}

func runReport(ctx context.Context, a *app) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	start, err := parseDateFlag("from", reportFrom)
	if err != nil {
		return err
	}
	end, err := parseDateFlag("to", reportTo)
	if err != nil {
		return err
	}

	kind := strings.ToLower(reportKind)
	wantProducts := kind == "all" || kind == "products"
	wantTxs := kind == "all" || kind == "transactions"
	if !wantProducts && !wantTxs {
		return fmt.Errorf("--kind must be products, transactions or all")
	}

	var products []model.Product
	var txs []model.Transaction
	var tables []report.Table
	if wantProducts {
		if err := loadProducts(ctx, a, model.ProductQuery{}); err != nil {
			return err
		}
		products = view.Filter(view.ProductSpec, a.products.Snapshot(), view.Params{})
		tables = append(tables, report.Products(products))
	}
	if wantTxs {
		if err := a.transactions.Load(ctx, model.TransactionQuery{}); err != nil {
			return fail(err, "Failed to load transactions")
		}
		txs = view.Filter(view.TransactionSpec, a.transactions.Snapshot(), view.Params{Kind: reportType, Start: start, End: end})
		tables = append(tables, report.Transactions(txs))
	}

	if err := os.MkdirAll(reportOut, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	now := time.Now()
	switch format {
	case report.FormatCSV:
		for _, t := range tables {
			if err := writeReportFile(filepath.Join(reportOut, report.Filename(t.Title, format.Ext(), now)), func(f *os.File) error {
				return report.WriteCSV(f, t)
			}); err != nil {
				return err
			}
		}
	case report.FormatHTML:
		doc := report.Document{
			Title:     "Inventory Report",
			Generated: now,
			Period:    period(reportFrom, reportTo),
			Summary:   report.Summaries(products, txs),
			Tables:    tables,
		}
		if err := writeReportFile(filepath.Join(reportOut, report.Filename("report", format.Ext(), now)), func(f *os.File) error {
			return report.WriteHTML(f, doc)
		}); err != nil {
			return err
		}
	case report.FormatXLSX:
		if err := writeReportFile(filepath.Join(reportOut, report.Filename("report", format.Ext(), now)), func(f *os.File) error {
			return report.WriteXLSX(f, tables...)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeReportFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	output.Success("Wrote %s", path)
	return nil
}

func period(from, to string) string {
	switch {
	case from != "" && to != "":
		return from + " to " + to
	case from != "":
		return "from " + from
	case to != "":
		return "until " + to
	default:
		return ""
	}
}
