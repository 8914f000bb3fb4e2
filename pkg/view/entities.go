package view

import (
	"strings"
	"time"

	"github.com/marshallshelly/stockdash/pkg/model"
)

// Page sizes of the two lists.
const (
	ProductPageSize     = 12
	TransactionPageSize = 10
)

// Stock-status kinds of the product filter. They are spelled so they cannot
// be mistaken for a category name.
const (
	KindLowStock   = "low-stock"
	KindOutOfStock = "out-of-stock"
)

// ProductSpec filters products by category or stock status and searches
// name, SKU, category and supplier.
var ProductSpec = Spec[model.Product]{
	PageSize: ProductPageSize,
	MatchKind: func(p model.Product, kind string) bool {
		switch kind {
		case KindLowStock:
			return p.IsLowStock()
		case KindOutOfStock:
			return p.IsOutOfStock()
		default:
			return strings.EqualFold(p.Category, kind)
		}
	},
	Fields: func(p model.Product) []string {
		return []string{p.Name, p.SKU, p.Category, p.Supplier}
	},
	Less: func(a, b model.Product) bool {
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	},
}

// TransactionSpec filters transactions by type and date and searches
// product name, SKU, user name and type. Newest entries come first.
var TransactionSpec = Spec[model.Transaction]{
	PageSize: TransactionPageSize,
	MatchKind: func(tx model.Transaction, kind string) bool {
		return string(tx.Type) == kind
	},
	Date: func(tx model.Transaction) time.Time {
		return tx.Date
	},
	Fields: func(tx model.Transaction) []string {
		return []string{tx.ProductName, tx.ProductSKU, tx.UserName, string(tx.Type)}
	},
	Less: func(a, b model.Transaction) bool {
		return a.Date.After(b.Date)
	},
}

// UserSpec searches users by name and email and filters by role.
var UserSpec = Spec[model.User]{
	PageSize: ProductPageSize,
	MatchKind: func(u model.User, kind string) bool {
		return string(u.Role) == kind
	},
	Fields: func(u model.User) []string {
		return []string{u.Name, u.Email}
	},
	Less: func(a, b model.User) bool {
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	},
}

// NewProductView creates the product list view.
func NewProductView() *View[model.Product] {
	return New(ProductSpec)
}

// NewTransactionView creates the transaction list view.
func NewTransactionView() *View[model.Transaction] {
	return New(TransactionSpec)
}

// NewUserView creates the user list view.
func NewUserView() *View[model.User] {
	return New(UserSpec)
}
