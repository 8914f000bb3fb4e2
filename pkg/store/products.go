package store

import (
	"context"
	"sort"
	"strings"

	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/marshallshelly/stockdash/pkg/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ProductAPI is the backend surface of ProductStore.
type ProductAPI interface {
	ListProducts(ctx context.Context, q model.ProductQuery) ([]model.Product, error)
	CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, in model.ProductInput) error
	DeleteProduct(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, adj model.StockAdjustment) error
}

// ProductStore mirrors the product catalog.
type ProductStore struct {
	*RemoteStore[model.Product, model.ProductQuery]

	api          ProductAPI
	gate         Gate
	transactions Reloader
}

// NewProductStore creates a ProductStore.
func NewProductStore(api ProductAPI, gate Gate, log logrus.FieldLogger) *ProductStore {
	return &ProductStore{
		RemoteStore: NewRemoteStore[model.Product, model.ProductQuery]("products", "Failed to load products", api.ListProducts, log),
		api:         api,
		gate:        gate,
	}
}

// LinkTransactions makes stock adjustments refresh r, which records the
// implicit transaction the server creates for them.
func (s *ProductStore) LinkTransactions(r Reloader) {
	s.transactions = r
}

// Create adds a product.
func (s *ProductStore) Create(ctx context.Context, in model.ProductInput) error {
	if err := s.gate.RequireAdmin(); err != nil {
		return err
	}
	in = normalizeProduct(in)
	if err := validation.Struct(in); err != nil {
		return err
	}
	if err := s.checkSKU(in.SKU, ""); err != nil {
		return err
	}
	return s.Mutate(ctx, func(ctx context.Context) error {
		_, err := s.api.CreateProduct(ctx, in)
		return err
	})
}

// Update replaces the editable fields of product id.
func (s *ProductStore) Update(ctx context.Context, id string, in model.ProductInput) error {
	if err := s.gate.RequireAdmin(); err != nil {
		return err
	}
	in = normalizeProduct(in)
	if err := validation.Struct(in); err != nil {
		return err
	}
	if err := s.checkSKU(in.SKU, id); err != nil {
		return err
	}
	return s.Mutate(ctx, func(ctx context.Context) error {
		return s.api.UpdateProduct(ctx, id, in)
	})
}

// Delete removes product id.
func (s *ProductStore) Delete(ctx context.Context, id string) error {
	if err := s.gate.RequireAdmin(); err != nil {
		return err
	}
	return s.Mutate(ctx, func(ctx context.Context) error {
		return s.api.DeleteProduct(ctx, id)
	})
}

// AdjustStock moves stock of product id. Removing more than is on hand is
// rejected before the request.
func (s *ProductStore) AdjustStock(ctx context.Context, id string, adj model.StockAdjustment) error {
	if err := s.gate.RequireAdmin(); err != nil {
		return err
	}
	if err := validation.Struct(adj); err != nil {
		return err
	}
	if p, ok := s.Find(id); ok && adj.Type == model.AdjustOut && adj.Quantity > p.StockLevel {
		return apperr.Invalid("quantity", "Cannot remove %d units, only %d in stock", adj.Quantity, p.StockLevel)
	}

	err := s.Mutate(ctx, func(ctx context.Context) error {
		return s.api.AdjustStock(ctx, id, adj)
	})
	if err == nil && s.transactions != nil && s.transactions.Loaded() {
		_ = s.transactions.Reload(ctx)
	}
	return err
}

// Find returns the product with id from the snapshot.
func (s *ProductStore) Find(id string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.items {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

// FindBySKU returns the product with sku from the snapshot, ignoring case.
func (s *ProductStore) FindBySKU(sku string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.items {
		if strings.EqualFold(p.SKU, sku) {
			return p, true
		}
	}
	return model.Product{}, false
}

// Categories returns the distinct categories in the snapshot, sorted.
func (s *ProductStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, p := range s.items {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

// LowStock returns the products at or below their threshold.
func (s *ProductStore) LowStock() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Product
	for _, p := range s.items {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out
}

// InventoryValue sums unit price times stock level over the snapshot.
func (s *ProductStore) InventoryValue() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, p := range s.items {
		total = total.Add(p.StockValue())
	}
	return total
}

func (s *ProductStore) checkSKU(sku, exceptID string) error {
	if p, ok := s.FindBySKU(sku); ok && p.ID != exceptID {
		return apperr.Invalid("sku", "SKU %s already exists", sku)
	}
	return nil
}

func normalizeProduct(in model.ProductInput) model.ProductInput {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Supplier = strings.TrimSpace(in.Supplier)
	return in
}
