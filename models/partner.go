package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Partner is a salesperson who earns a percentage commission on sales.
type Partner struct {
	ID                    int             `json:"id"`
	Name                  string          `json:"name"`
	Email                 *string         `json:"email"`
	Phone                 *string         `json:"phone"`
	DefaultCommissionRate decimal.Decimal `json:"default_commission_rate"`
	Active                bool            `json:"active"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// PartnerInput is used for creating/updating partners.
type PartnerInput struct {
	Name                  string          `json:"name"`
	Email                 *string         `json:"email"`
	Phone                 *string         `json:"phone"`
	DefaultCommissionRate decimal.Decimal `json:"default_commission_rate"`
	Active                *bool           `json:"active"`
}

func (p *PartnerInput) Validate() string {
	if p.Name == "" {
		return "name is required"
	}
	if p.DefaultCommissionRate.IsNegative() || p.DefaultCommissionRate.GreaterThan(decimal.NewFromInt(100)) {
		return "default_commission_rate must be between 0 and 100"
	}
	return ""
}
