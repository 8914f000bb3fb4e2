// Package report exports product and transaction lists as CSV, printable
// HTML and XLSX.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/shopspring/decimal"
)

// DateLayout is how dates are written in reports.
const DateLayout = "2006-01-02 15:04"

// Cell is one exported value. Text cells are quoted in CSV; numeric cells
// are written bare and stored as numbers in XLSX.
type Cell struct {
	Text   string
	Number *decimal.Decimal
}

func text(s string) Cell { return Cell{Text: s} }

func number(d decimal.Decimal) Cell { return Cell{Number: &d} }

func integer(n int) Cell { return number(decimal.NewFromInt(int64(n))) }

// String renders the cell for CSV and HTML.
func (c Cell) String() string {
	if c.Number != nil {
		return c.Number.String()
	}
	return c.Text
}

// Table is a titled grid of cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]Cell
}

// Products builds the product table.
func Products(products []model.Product) Table {
	t := Table{
		Title:   "Products",
		Headers: []string{"SKU", "Name", "Category", "Supplier", "Unit Price", "Stock Level", "Min Stock", "Stock Value", "Status"},
	}
	for _, p := range products {
		t.Rows = append(t.Rows, []Cell{
			text(p.SKU),
			text(p.Name),
			text(p.Category),
			text(p.Supplier),
			number(p.UnitPrice),
			integer(p.StockLevel),
			integer(p.MinStockThreshold),
			number(p.StockValue()),
			text(StockStatus(p)),
		})
	}
	return t
}

// Transactions builds the transaction table.
func Transactions(txs []model.Transaction) Table {
	t := Table{
		Title:   "Transactions",
		Headers: []string{"Date", "Type", "Product", "SKU", "Quantity", "Unit Price", "Total", "User", "Notes"},
	}
	for _, tx := range txs {
		t.Rows = append(t.Rows, []Cell{
			text(tx.Date.Local().Format(DateLayout)),
			text(string(tx.Type)),
			text(tx.ProductName),
			text(tx.ProductSKU),
			integer(tx.Quantity),
			number(tx.UnitPrice),
			number(tx.TotalAmount),
			text(tx.UserName),
			text(tx.Notes),
		})
	}
	return t
}

// StockStatus labels a product's stock level.
func StockStatus(p model.Product) string {
	switch {
	case p.IsOutOfStock():
		return "Out of Stock"
	case p.IsLowStock():
		return "Low Stock"
	default:
		return "In Stock"
	}
}

// WriteCSV writes t as comma-separated values. Every text field is quoted,
// numbers never are.
func WriteCSV(w io.Writer, t Table) error {
	var b strings.Builder
	writeRow := func(cells []string, quote []bool) {
		for i, c := range cells {
			if i > 0 {
				b.WriteByte(',')
			}
			if quote[i] {
				b.WriteString(quoteField(c))
			} else {
				b.WriteString(c)
			}
		}
		b.WriteString("\r\n")
	}

	headerQuote := make([]bool, len(t.Headers))
	for i := range headerQuote {
		headerQuote[i] = true
	}
	writeRow(t.Headers, headerQuote)

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		quote := make([]bool, len(row))
		for i, c := range row {
			cells[i] = c.String()
			quote[i] = c.Number == nil
		}
		writeRow(cells, quote)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Filename returns a dated export file name such as products-2024-05-01.csv.
func Filename(kind, ext string, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", strings.ToLower(kind), now.Format("2006-01-02"), ext)
}

// ParseFormat maps a file extension or format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "csv":
		return FormatCSV, nil
	case "html", "print":
		return FormatHTML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown report format %q (expected csv, html or xlsx)", s)
	}
}

// Format is an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

// Ext returns the file extension of f.
func (f Format) Ext() string {
	return string(f)
}

// Summary is the heading block of a printed report.
type Summary struct {
	Label string
	Value string
}

// Summaries builds the standard summary lines for a report.
func Summaries(products []model.Product, txs []model.Transaction) []Summary {
	value := decimal.Zero
	low := 0
	for _, p := range products {
		value = value.Add(p.StockValue())
		if p.IsLowStock() {
			low++
		}
	}

	purchases, sales := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case model.Purchase:
			purchases = purchases.Add(tx.TotalAmount)
		case model.Sale:
			sales = sales.Add(tx.TotalAmount)
		}
	}

	return []Summary{
		{"Products", strconv.Itoa(len(products))},
		{"Low stock", strconv.Itoa(low)},
		{"Inventory value", value.StringFixed(2)},
		{"Transactions", strconv.Itoa(len(txs))},
		{"Purchases", purchases.StringFixed(2)},
		{"Sales", sales.StringFixed(2)},
	}
}
