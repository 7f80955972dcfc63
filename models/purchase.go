package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is a persisted purchase header. It mirrors Sale without the
// partner/commission fields.
type Purchase struct {
	ID           int       `json:"id"`
	PurchaseDate string    `json:"purchase_date"`
	MerchantID   int       `json:"merchant_id"`
	CostCenterID int       `json:"cost_center_id"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	// Computed fields
	MerchantName   *string         `json:"merchant_name,omitempty"`
	CostCenterName *string         `json:"cost_center_name,omitempty"`
	Total          decimal.Decimal `json:"total"`
	Paid           decimal.Decimal `json:"paid"`
	Balance        decimal.Decimal `json:"balance"`
	Items          []PurchaseItem  `json:"items,omitempty"`
}

// PurchaseItem is one persisted line of a purchase.
type PurchaseItem struct {
	ID          int             `json:"id"`
	PurchaseID  int             `json:"purchase_id"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// PurchaseInput is used for creating/updating purchases.
type PurchaseInput struct {
	PurchaseDate string              `json:"purchase_date"`
	MerchantID   int                 `json:"merchant_id"`
	CostCenterID int                 `json:"cost_center_id"`
	Notes        *string             `json:"notes"`
	Items        []DocumentItemInput `json:"items"`
}
