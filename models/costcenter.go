package models

import "time"

// CostCenter is an accounting tag attached to documents and withdrawals.
type CostCenter struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CostCenterInput is used for creating/updating cost centers.
type CostCenterInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (c *CostCenterInput) Validate() string {
	if c.Name == "" {
		return "name is required"
	}
	return ""
}
