package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a persisted sale header. Total, commission and payment figures are
// derived from items and payments on every read, never stored.
type Sale struct {
	ID             int             `json:"id"`
	SaleDate       string          `json:"sale_date"`
	MerchantID     int             `json:"merchant_id"`
	PartnerID      int             `json:"partner_id"`
	CostCenterID   int             `json:"cost_center_id"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Notes          *string         `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	// Computed fields
	MerchantName    *string         `json:"merchant_name,omitempty"`
	PartnerName     *string         `json:"partner_name,omitempty"`
	CostCenterName  *string         `json:"cost_center_name,omitempty"`
	Total           decimal.Decimal `json:"total"`
	CommissionValue decimal.Decimal `json:"commission_value"`
	Paid            decimal.Decimal `json:"paid"`
	Balance         decimal.Decimal `json:"balance"`
	Items           []SaleItem      `json:"items,omitempty"`
}

// SaleItem is one persisted line of a sale. ProductName is the snapshot taken
// when the line was added.
type SaleItem struct {
	ID          int             `json:"id"`
	SaleID      int             `json:"sale_id"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// DocumentItemInput is one line of a document being created or updated.
// Quantity and unit price arrive as form strings and are validated by the
// composer, which also tolerates comma decimals.
type DocumentItemInput struct {
	ProductID int    `json:"product_id"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"` // empty means: use the catalog default
}

// SaleInput is used for creating/updating sales. Structural checks live here;
// the composer owns the business validation (required header fields, item
// numerics, commission range).
type SaleInput struct {
	SaleDate       string              `json:"sale_date"`
	MerchantID     int                 `json:"merchant_id"`
	PartnerID      int                 `json:"partner_id"`
	CostCenterID   int                 `json:"cost_center_id"`
	CommissionRate string              `json:"commission_rate"`
	Notes          *string             `json:"notes"`
	Items          []DocumentItemInput `json:"items"`
}
