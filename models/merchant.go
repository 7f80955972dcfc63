package models

import "time"

// Merchant is a counterparty on documents: a customer for sales, a supplier
// for purchases.
type Merchant struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"` // customer, supplier
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Document  *string   `json:"document"` // tax id
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MerchantInput is used for creating/updating merchants.
type MerchantInput struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Document *string `json:"document"`
}

func (m *MerchantInput) Validate() string {
	if m.Name == "" {
		return "name is required"
	}
	switch m.Type {
	case "customer", "supplier":
	default:
		return "type must be one of: customer, supplier"
	}
	return ""
}
