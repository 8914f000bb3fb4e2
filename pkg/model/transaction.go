package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of stock movement.
type TransactionType string

const (
	Purchase TransactionType = "purchase"
	Sale     TransactionType = "sale"
)

// Transaction is an immutable ledger entry. Product and user fields are
// snapshots taken when the entry was created.
type Transaction struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	ProductSKU  string          `json:"productSku"`
	Type        TransactionType `json:"type"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	UserID      string          `json:"userId"`
	UserName    string          `json:"userName"`
	Date        time.Time       `json:"date"`
	Notes       string          `json:"notes,omitempty"`
}

// TransactionInput is the payload of POST /transactions.
type TransactionInput struct {
	ProductID string          `json:"productId" validate:"required"`
	Type      TransactionType `json:"type" validate:"required,oneof=purchase sale"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"gte=0"`
	Notes     string          `json:"notes,omitempty"`
}

// TransactionQuery holds the server-side filters of GET /transactions.
type TransactionQuery struct {
	Type      TransactionType
	StartDate *time.Time
	EndDate   *time.Time
	ProductID string
	UserID    string
	Search    string
}

// AlertSettings is the singleton low-stock alert configuration.
type AlertSettings struct {
	Enabled     bool `json:"enabled"`
	EmailAlerts bool `json:"emailAlerts"`
	SMSAlerts   bool `json:"smsAlerts"`
}

// DefaultAlertSettings is used when neither the server nor the cache know better.
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{Enabled: true}
}

// DateRange bounds a report or statistics query. Nil ends are open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// DashboardStats is the response of GET /dashboard/stats.
type DashboardStats struct {
	TotalProducts    int             `json:"totalProducts"`
	LowStockCount    int             `json:"lowStockCount"`
	OutOfStockCount  int             `json:"outOfStockCount"`
	InventoryValue   decimal.Decimal `json:"inventoryValue"`
	PurchaseTotal    decimal.Decimal `json:"purchaseTotal"`
	SalesTotal       decimal.Decimal `json:"salesTotal"`
	TransactionCount int             `json:"transactionCount"`
}
