package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleProducts() []model.Product {
	return []model.Product{
		{SKU: "HM-01", Name: `Hammer, 16"`, Category: "Tools", Supplier: "Acme", UnitPrice: decimal.RequireFromString("12.50"), StockLevel: 4, MinStockThreshold: 5},
		{SKU: "PN-02", Name: "Paint", Category: "Paint", UnitPrice: decimal.NewFromInt(20), StockLevel: 0, MinStockThreshold: 2},
	}
}

func sampleTransactions() []model.Transaction {
	return []model.Transaction{
		{Date: time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local), Type: model.Sale, ProductName: "Hammer", ProductSKU: "HM-01",
			Quantity: 2, UnitPrice: decimal.RequireFromString("12.50"), TotalAmount: decimal.NewFromInt(25), UserName: "alice"},
		{Date: time.Date(2024, 5, 2, 9, 30, 0, 0, time.Local), Type: model.Purchase, ProductName: "Paint", ProductSKU: "PN-02",
			Quantity: 10, UnitPrice: decimal.NewFromInt(15), TotalAmount: decimal.NewFromInt(150), UserName: "bob", Notes: "restock"},
	}
}

func TestWriteCSV_QuotesText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Products(sampleProducts())))

	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"SKU","Name","Category","Supplier","Unit Price","Stock Level","Min Stock","Stock Value","Status"`, lines[0])
	assert.Equal(t, `"HM-01","Hammer, 16""","Tools","Acme",12.5,4,5,50,"Low Stock"`, lines[1])
	assert.Equal(t, `"PN-02","Paint","Paint","",20,0,2,0,"Out of Stock"`, lines[2])
}

func TestWriteCSV_Transactions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Transactions(sampleTransactions())))
	assert.Contains(t, buf.String(), `"2024-05-02 09:30","purchase","Paint","PN-02",10,15,150,"bob","restock"`)
}

func TestStockStatus(t *testing.T) {
	assert.Equal(t, "In Stock", StockStatus(model.Product{StockLevel: 6, MinStockThreshold: 5}))
	assert.Equal(t, "Low Stock", StockStatus(model.Product{StockLevel: 5, MinStockThreshold: 5}))
	assert.Equal(t, "Out of Stock", StockStatus(model.Product{StockLevel: 0, MinStockThreshold: 0}))
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	doc := Document{
		Title:     "Inventory Report",
		Generated: time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC),
		Summary:   Summaries(sampleProducts(), sampleTransactions()),
		Tables:    []Table{Products(sampleProducts()), Transactions(nil)},
	}
	require.NoError(t, WriteHTML(&buf, doc))

	html := buf.String()
	assert.Contains(t, html, "<title>Inventory Report</title>")
	assert.Contains(t, html, "Generated 2024-05-03 08:00")
	assert.Contains(t, html, "Hammer, 16&#34;")
	assert.Contains(t, html, `<td class="num">12.5</td>`)
	assert.Contains(t, html, `<td colspan="9">No records</td>`)
	assert.Contains(t, html, "window.print()")
}

func TestSummaries(t *testing.T) {
	got := Summaries(sampleProducts(), sampleTransactions())
	values := map[string]string{}
	for _, s := range got {
		values[s.Label] = s.Value
	}
	assert.Equal(t, "2", values["Low stock"])
	assert.Equal(t, "50.00", values["Inventory value"])
	assert.Equal(t, "150.00", values["Purchases"])
	assert.Equal(t, "25.00", values["Sales"])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Products(sampleProducts()), Transactions(sampleTransactions())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Products", "Transactions"}, f.GetSheetList())

	name, err := f.GetCellValue("Products", "B2")
	require.NoError(t, err)
	assert.Equal(t, `Hammer, 16"`, name)

	qty, err := f.GetCellValue("Transactions", "E3")
	require.NoError(t, err)
	assert.Equal(t, "10", qty)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, ".XLSX": FormatXLSX, "print": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "products-2024-05-03.csv", Filename("Products", FormatCSV.Ext(), time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)))
}
