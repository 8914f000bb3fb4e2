// Package model defines the inventory entities exchanged with the backend.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the permission level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an account of the dashboard. Name is the durable external key
// used by the backend for update and delete; ID is only meaningful locally.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role" validate:"required,oneof=admin user"`
}

// Redacted returns a copy of the user without credentials.
func (u User) Redacted() User {
	u.Password = ""
	return u
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Credentials is the body of a login request.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Token    string `json:"token,omitempty"`
}

// Product is a catalog entry with its current stock level.
type Product struct {
	ID                string          `json:"id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Supplier          string          `json:"supplier"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	StockLevel        int             `json:"stockLevel"`
	MinStockThreshold int             `json:"minStockThreshold"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// IsLowStock reports whether the stock level is at or below the threshold.
func (p Product) IsLowStock() bool {
	return p.StockLevel <= p.MinStockThreshold
}

// IsOutOfStock reports whether nothing is left in stock.
func (p Product) IsOutOfStock() bool {
	return p.StockLevel == 0
}

// StockValue is the value of the units on hand at the unit price.
func (p Product) StockValue() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.StockLevel)))
}

// Input returns the editable fields of the product.
func (p Product) Input() ProductInput {
	return ProductInput{
		SKU:               p.SKU,
		Name:              p.Name,
		Category:          p.Category,
		Supplier:          p.Supplier,
		UnitPrice:         p.UnitPrice,
		MinStockThreshold: p.MinStockThreshold,
	}
}

// ProductInput is the create/update payload of a product. Stock level is
// maintained by the server and is deliberately absent.
type ProductInput struct {
	SKU               string          `json:"sku" validate:"required"`
	Name              string          `json:"name" validate:"required"`
	Category          string          `json:"category" validate:"required"`
	Supplier          string          `json:"supplier"`
	UnitPrice         decimal.Decimal `json:"unitPrice" validate:"gte=0"`
	MinStockThreshold int             `json:"minStockThreshold" validate:"gte=0"`
}

// ProductQuery holds the server-side filters of GET /products.
type ProductQuery struct {
	Search   string
	Category string
	LowStock bool
}

// AdjustmentType is the direction of a stock adjustment.
type AdjustmentType string

const (
	AdjustIn  AdjustmentType = "in"
	AdjustOut AdjustmentType = "out"
)

// StockAdjustment is the body of POST /products/{id}/stock.
type StockAdjustment struct {
	Quantity int            `json:"quantity" validate:"gt=0"`
	Type     AdjustmentType `json:"type" validate:"required,oneof=in out"`
	Notes    string         `json:"notes,omitempty"`
}
