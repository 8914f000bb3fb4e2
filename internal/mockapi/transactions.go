package mockapi

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// parseRange reads startDate and endDate. The end date covers the whole day.
func parseRange(c *gin.Context) (model.DateRange, bool) {
	var r model.DateRange
	if v := c.Query("startDate"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			fail(c, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
			return r, false
		}
		r.Start = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			fail(c, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
			return r, false
		}
		end := t.AddDate(0, 0, 1).Add(-time.Millisecond)
		r.End = &end
	}
	return r, true
}

func inRange(t time.Time, r model.DateRange) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

func (s *Server) listTransactions(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}
	txType := model.TransactionType(c.Query("type"))
	productID := c.Query("productId")
	userID := c.Query("userId")
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))

	s.mu.RLock()
	out := make([]model.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		switch {
		case txType != "" && tx.Type != txType:
		case productID != "" && tx.ProductID != productID:
		case userID != "" && tx.UserID != userID:
		case !inRange(tx.Date, r):
		case search != "" && !matchTransaction(*tx, search):
		default:
			out = append(out, *tx)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	c.JSON(http.StatusOK, out)
}

func matchTransaction(tx model.Transaction, search string) bool {
	for _, f := range []string{tx.ProductName, tx.ProductSKU, tx.UserName, tx.Notes} {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func (s *Server) createTransaction(c *gin.Context) {
	var in model.TransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	switch {
	case in.ProductID == "":
		fail(c, http.StatusBadRequest, "productId is required")
		return
	case in.Type != model.Purchase && in.Type != model.Sale:
		fail(c, http.StatusBadRequest, "type must be purchase or sale")
		return
	case in.Quantity <= 0:
		fail(c, http.StatusBadRequest, "Quantity must be positive")
		return
	case in.UnitPrice.IsNegative():
		fail(c, http.StatusBadRequest, "Unit price must not be negative")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, p := s.findProduct(in.ProductID)
	if p == nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	tx, msg := s.applyTransaction(c, p, in)
	if msg != "" {
		fail(c, http.StatusBadRequest, msg)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// deleteTransaction removes the entry and reverses its stock effect. A
// reversal that would drive stock negative is refused.
func (s *Server) deleteTransaction(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, tx := range s.transactions {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		fail(c, http.StatusNotFound, "Transaction not found")
		return
	}

	tx := s.transactions[idx]
	if _, p := s.findProduct(tx.ProductID); p != nil {
		delta := tx.Quantity
		if tx.Type == model.Purchase {
			delta = -delta
		}
		if p.StockLevel+delta < 0 {
			fail(c, http.StatusConflict, "Cannot reverse purchase, stock already used")
			return
		}
		p.StockLevel += delta
		p.UpdatedAt = s.now()
	}
	s.transactions = append(s.transactions[:idx], s.transactions[idx+1:]...)
	c.Status(http.StatusNoContent)
}

func (s *Server) dashboardStats(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}

	stats := model.DashboardStats{
		InventoryValue: decimal.Zero,
		PurchaseTotal:  decimal.Zero,
		SalesTotal:     decimal.Zero,
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	stats.TotalProducts = len(s.products)
	for _, p := range s.products {
		stats.InventoryValue = stats.InventoryValue.Add(p.StockValue())
		if p.IsLowStock() {
			stats.LowStockCount++
		}
		if p.IsOutOfStock() {
			stats.OutOfStockCount++
		}
	}
	for _, tx := range s.transactions {
		if !inRange(tx.Date, r) {
			continue
		}
		stats.TransactionCount++
		switch tx.Type {
		case model.Purchase:
			stats.PurchaseTotal = stats.PurchaseTotal.Add(tx.TotalAmount)
		case model.Sale:
			stats.SalesTotal = stats.SalesTotal.Add(tx.TotalAmount)
		}
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getAlerts(c *gin.Context) {
	s.mu.RLock()
	settings := s.alerts
	s.mu.RUnlock()
	c.JSON(http.StatusOK, settings)
}

func (s *Server) putAlerts(c *gin.Context) {
	var in model.AlertSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	s.alerts = in
	s.mu.Unlock()
	c.JSON(http.StatusOK, in)
}
