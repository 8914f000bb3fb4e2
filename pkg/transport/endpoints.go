package transport

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/marshallshelly/stockdash/pkg/model"
)

// DateLayout is the wire format of date query parameters.
const DateLayout = "2006-01-02"

// Login authenticates credentials.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", nil, creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListUsers fetches every user.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates a user.
func (c *Client) CreateUser(ctx context.Context, u model.User) (*model.User, error) {
	var created model.User
	if err := c.do(ctx, http.MethodPost, "/users", nil, u, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateUser updates the user whose current name is username.
func (c *Client) UpdateUser(ctx context.Context, username string, u model.User) error {
	return c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(username), nil, u, nil)
}

// DeleteUser deletes the user named username.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(username), nil, nil, nil)
}

// ListProducts fetches products matching q.
func (c *Client) ListProducts(ctx context.Context, q model.ProductQuery) ([]model.Product, error) {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.LowStock {
		params.Set("lowStock", "true")
	}

	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/products", params, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// LowStockProducts fetches products at or below their threshold.
func (c *Client) LowStockProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/products/low-stock", nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct creates a product.
func (c *Client) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodPost, "/products", nil, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct replaces the editable fields of product id.
func (c *Client) UpdateProduct(ctx context.Context, id string, in model.ProductInput) error {
	return c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id), nil, in, nil)
}

// DeleteProduct deletes product id.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil, nil)
}

// AdjustStock moves stock of product id in or out.
func (c *Client) AdjustStock(ctx context.Context, id string, adj model.StockAdjustment) error {
	return c.do(ctx, http.MethodPost, "/products/"+url.PathEscape(id)+"/stock", nil, adj, nil)
}

// ListTransactions fetches transactions matching q.
func (c *Client) ListTransactions(ctx context.Context, q model.TransactionQuery) ([]model.Transaction, error) {
	params := url.Values{}
	if q.Type != "" {
		params.Set("type", string(q.Type))
	}
	setDate(params, "startDate", q.StartDate)
	setDate(params, "endDate", q.EndDate)
	if q.ProductID != "" {
		params.Set("productId", q.ProductID)
	}
	if q.UserID != "" {
		params.Set("userId", q.UserID)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	var txs []model.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions", params, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// CreateTransaction records a purchase or sale.
func (c *Client) CreateTransaction(ctx context.Context, in model.TransactionInput) (*model.Transaction, error) {
	var tx model.Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", nil, in, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// DeleteTransaction deletes transaction id; the server reverses its stock effect.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/transactions/"+url.PathEscape(id), nil, nil, nil)
}

// DashboardStats fetches summary statistics for r.
func (c *Client) DashboardStats(ctx context.Context, r model.DateRange) (*model.DashboardStats, error) {
	params := url.Values{}
	setDate(params, "startDate", r.Start)
	setDate(params, "endDate", r.End)

	var stats model.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/dashboard/stats", params, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// AlertSettings fetches the alert configuration.
func (c *Client) AlertSettings(ctx context.Context) (*model.AlertSettings, error) {
	var s model.AlertSettings
	if err := c.do(ctx, http.MethodGet, "/alerts/settings", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateAlertSettings replaces the alert configuration.
func (c *Client) UpdateAlertSettings(ctx context.Context, s model.AlertSettings) error {
	return c.do(ctx, http.MethodPut, "/alerts/settings", nil, s, nil)
}

func setDate(params url.Values, key string, t *time.Time) {
	if t == nil || t.IsZero() {
		return
	}
	params.Set(key, t.Format(DateLayout))
}

// ParseDate parses a YYYY-MM-DD date in the local time zone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}
