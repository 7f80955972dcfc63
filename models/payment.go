package models

import "github.com/shopspring/decimal"

// Payment is one partial settlement against a sale or purchase.
type Payment struct {
	ID         int             `json:"id"`
	DocumentID int             `json:"document_id"`
	PayDate    string          `json:"pay_date"`
	Method     string          `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	Notes      *string         `json:"notes"`
}

// PaymentInput is used for registering/editing payments. Amount arrives as a
// form string; the ledger validates it and enforces the balance invariant.
type PaymentInput struct {
	PayDate string  `json:"pay_date"`
	Method  string  `json:"method"`
	Amount  string  `json:"amount"`
	Notes   *string `json:"notes"`
}

// PaymentList is the response for a document's payment listing, carrying the
// derived balance alongside the rows.
type PaymentList struct {
	Payments  []Payment       `json:"payments"`
	Total     decimal.Decimal `json:"total"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	Balance   decimal.Decimal `json:"balance"`
}
