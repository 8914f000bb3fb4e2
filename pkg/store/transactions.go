package store

import (
	"context"

	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/marshallshelly/stockdash/pkg/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TransactionAPI is the backend surface of TransactionStore.
type TransactionAPI interface {
	ListTransactions(ctx context.Context, q model.TransactionQuery) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, in model.TransactionInput) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// TransactionStore mirrors the transaction ledger. Every change moves stock,
// so the linked product store is reloaded after each one.
type TransactionStore struct {
	*RemoteStore[model.Transaction, model.TransactionQuery]

	api      TransactionAPI
	gate     Gate
	products *ProductStore
}

// NewTransactionStore creates a TransactionStore. products is used for the
// stock pre-flight check and is reloaded after every change.
func NewTransactionStore(api TransactionAPI, gate Gate, products *ProductStore, log logrus.FieldLogger) *TransactionStore {
	s := &TransactionStore{
		RemoteStore: NewRemoteStore[model.Transaction, model.TransactionQuery]("transactions", "Failed to load transactions", api.ListTransactions, log),
		api:         api,
		gate:        gate,
		products:    products,
	}
	products.LinkTransactions(s)
	return s
}

// Create records a purchase or sale. A sale larger than the product's stock
// is rejected before the request.
func (s *TransactionStore) Create(ctx context.Context, in model.TransactionInput) error {
	if err := s.gate.RequireAdmin(); err != nil {
		return err
	}
	if in.ProductID == "" {
		return apperr.Invalid("productId", "Please select a product")
	}
	if err := validation.Struct(in); err != nil {
		return err
	}

	p, ok := s.products.Find(in.ProductID)
	if !ok {
		return apperr.Invalid("productId", "Selected product no longer exists")
	}
	if in.Type == model.Sale && in.Quantity > p.StockLevel {
		return apperr.Invalid("quantity", "Insufficient stock. Available: %d", p.StockLevel)
	}

	err := s.Mutate(ctx, func(ctx context.Context) error {
		_, err := s.api.CreateTransaction(ctx, in)
		return err
	})
	if err == nil {
		_ = s.products.Reload(ctx)
	}
	return err
}

// Delete removes transaction id. The server reverses its stock effect.
func (s *TransactionStore) Delete(ctx context.Context, id string) error {
	if err := s.gate.RequireAdmin(); err != nil {
		return err
	}
	err := s.Mutate(ctx, func(ctx context.Context) error {
		return s.api.DeleteTransaction(ctx, id)
	})
	if err == nil {
		_ = s.products.Reload(ctx)
	}
	return err
}

// Totals summarizes the transactions in the snapshot.
type Totals struct {
	Purchases     decimal.Decimal
	Sales         decimal.Decimal
	PurchaseCount int
	SaleCount     int
}

// Net is sales minus purchases.
func (t Totals) Net() decimal.Decimal {
	return t.Sales.Sub(t.Purchases)
}

// Totals sums the snapshot by type.
func (s *TransactionStore) Totals() Totals {
	return SumTransactions(s.Snapshot())
}

// SumTransactions sums txs by type.
func SumTransactions(txs []model.Transaction) Totals {
	t := Totals{Purchases: decimal.Zero, Sales: decimal.Zero}
	for _, tx := range txs {
		switch tx.Type {
		case model.Purchase:
			t.Purchases = t.Purchases.Add(tx.TotalAmount)
			t.PurchaseCount++
		case model.Sale:
			t.Sales = t.Sales.Add(tx.TotalAmount)
			t.SaleCount++
		}
	}
	return t
}
