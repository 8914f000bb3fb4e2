package mockapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/shopspring/decimal"
)

func (s *Server) listProducts(c *gin.Context) {
	q := model.ProductQuery{
		Search:   strings.ToLower(strings.TrimSpace(c.Query("search"))),
		Category: strings.TrimSpace(c.Query("category")),
		LowStock: c.Query("lowStock") == "true",
	}

	s.mu.RLock()
	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		if matchProduct(*p, q) {
			out = append(out, *p)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	c.JSON(http.StatusOK, out)
}

func matchProduct(p model.Product, q model.ProductQuery) bool {
	if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
		return false
	}
	if q.LowStock && !p.IsLowStock() {
		return false
	}
	if q.Search == "" {
		return true
	}
	for _, f := range []string{p.Name, p.SKU, p.Category, p.Supplier} {
		if strings.Contains(strings.ToLower(f), q.Search) {
			return true
		}
	}
	return false
}

func (s *Server) lowStock(c *gin.Context) {
	s.mu.RLock()
	out := []model.Product{}
	for _, p := range s.products {
		if p.IsLowStock() {
			out = append(out, *p)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].StockLevel < out[j].StockLevel })
	c.JSON(http.StatusOK, out)
}

func bindProduct(c *gin.Context) (model.ProductInput, bool) {
	var in model.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return in, false
	}
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Supplier = strings.TrimSpace(in.Supplier)
	switch {
	case in.SKU == "" || in.Name == "" || in.Category == "":
		fail(c, http.StatusBadRequest, "SKU, name and category are required")
		return in, false
	case in.UnitPrice.IsNegative() || in.MinStockThreshold < 0:
		fail(c, http.StatusBadRequest, "Price and threshold must not be negative")
		return in, false
	}
	return in, true
}

func (s *Server) skuTaken(sku, exceptID string) bool {
	for _, p := range s.products {
		if p.ID != exceptID && strings.EqualFold(p.SKU, sku) {
			return true
		}
	}
	return false
}

func (s *Server) createProduct(c *gin.Context) {
	in, ok := bindProduct(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skuTaken(in.SKU, "") {
		fail(c, http.StatusConflict, "SKU already exists")
		return
	}
	now := s.now()
	p := &model.Product{
		ID:                uuid.NewString(),
		SKU:               in.SKU,
		Name:              in.Name,
		Category:          in.Category,
		Supplier:          in.Supplier,
		UnitPrice:         in.UnitPrice,
		MinStockThreshold: in.MinStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.products = append(s.products, p)
	c.JSON(http.StatusCreated, p)
}

func (s *Server) updateProduct(c *gin.Context) {
	in, ok := bindProduct(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, p := s.findProduct(c.Param("id"))
	if p == nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	if s.skuTaken(in.SKU, p.ID) {
		fail(c, http.StatusConflict, "SKU already exists")
		return
	}
	p.SKU = in.SKU
	p.Name = in.Name
	p.Category = in.Category
	p.Supplier = in.Supplier
	p.UnitPrice = in.UnitPrice
	p.MinStockThreshold = in.MinStockThreshold
	p.UpdatedAt = s.now()
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProduct(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, p := s.findProduct(c.Param("id"))
	if p == nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	c.Status(http.StatusNoContent)
}

// adjustStock moves stock in or out and records the movement as a purchase
// or sale at the product's current price.
func (s *Server) adjustStock(c *gin.Context) {
	var adj model.StockAdjustment
	if err := c.ShouldBindJSON(&adj); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if adj.Quantity <= 0 {
		fail(c, http.StatusBadRequest, "Quantity must be positive")
		return
	}

	var txType model.TransactionType
	switch adj.Type {
	case model.AdjustIn:
		txType = model.Purchase
	case model.AdjustOut:
		txType = model.Sale
	default:
		fail(c, http.StatusBadRequest, "Adjustment type must be in or out")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, p := s.findProduct(c.Param("id"))
	if p == nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	tx, err := s.applyTransaction(c, p, model.TransactionInput{
		ProductID: p.ID,
		Type:      txType,
		Quantity:  adj.Quantity,
		UnitPrice: p.UnitPrice,
		Notes:     adjustmentNote(adj),
	})
	if err != "" {
		fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p, "transaction": tx})
}

func adjustmentNote(adj model.StockAdjustment) string {
	if adj.Notes != "" {
		return adj.Notes
	}
	return "Stock adjustment (" + string(adj.Type) + ")"
}

// applyTransaction updates stock and appends the ledger entry. The caller
// holds the write lock. A non-empty string is a client error message.
func (s *Server) applyTransaction(c *gin.Context, p *model.Product, in model.TransactionInput) (*model.Transaction, string) {
	delta := in.Quantity
	if in.Type == model.Sale {
		if in.Quantity > p.StockLevel {
			return nil, "Insufficient stock"
		}
		delta = -delta
	}

	now := s.now()
	p.StockLevel += delta
	p.UpdatedAt = now

	tx := &model.Transaction{
		ID:          uuid.NewString(),
		ProductID:   p.ID,
		ProductName: p.Name,
		ProductSKU:  p.SKU,
		Type:        in.Type,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		TotalAmount: in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
		UserID:      asString(c.MustGet(ctxUserID)),
		UserName:    asString(c.MustGet(ctxUserName)),
		Date:        now,
		Notes:       in.Notes,
	}
	s.transactions = append(s.transactions, tx)
	return tx, ""
}
