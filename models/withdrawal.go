package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal is a cash-out against a cost center.
type Withdrawal struct {
	ID           int             `json:"id"`
	CostCenterID int             `json:"cost_center_id"`
	WithdrawDate string          `json:"withdraw_date"`
	Amount       decimal.Decimal `json:"amount"`
	Description  *string         `json:"description"`
	CreatedAt    time.Time       `json:"created_at"`
	// Computed fields
	CostCenterName *string `json:"cost_center_name,omitempty"`
}

// WithdrawalInput is used for creating/updating withdrawals.
type WithdrawalInput struct {
	CostCenterID int             `json:"cost_center_id"`
	WithdrawDate string          `json:"withdraw_date"`
	Amount       decimal.Decimal `json:"amount"`
	Description  *string         `json:"description"`
}

func (w *WithdrawalInput) Validate() string {
	if w.CostCenterID <= 0 {
		return "cost_center_id is required"
	}
	if w.WithdrawDate == "" {
		return "withdraw_date is required"
	}
	if w.Amount.Sign() <= 0 {
		return "amount must be positive"
	}
	return ""
}
