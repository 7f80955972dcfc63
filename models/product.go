package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Prices here are defaults offered when an item
// is added to a document; each document keeps its own snapshot.
type Product struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductInput is used for creating/updating products.
type ProductInput struct {
	Name          string          `json:"name"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
}

func (p *ProductInput) Validate() string {
	if p.Name == "" {
		return "name is required"
	}
	if p.PurchasePrice.IsNegative() {
		return "purchase_price must be non-negative"
	}
	if p.SalePrice.IsNegative() {
		return "sale_price must be non-negative"
	}
	return ""
}
