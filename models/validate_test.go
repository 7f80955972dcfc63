package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMerchantInputValidate(t *testing.T) {
	tests := []struct {
		name  string
		input MerchantInput
		want  string
	}{
		{"valid customer", MerchantInput{Name: "Acme", Type: "customer"}, ""},
		{"valid supplier", MerchantInput{Name: "Acme", Type: "supplier"}, ""},
		{"missing name", MerchantInput{Type: "customer"}, "name is required"},
		{"bad type", MerchantInput{Name: "Acme", Type: "client"}, "type must be one of: customer, supplier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.Validate())
		})
	}
}

func TestPartnerInputValidate(t *testing.T) {
	assert.Empty(t, (&PartnerInput{Name: "Ana", DefaultCommissionRate: decimal.NewFromInt(10)}).Validate())
	assert.NotEmpty(t, (&PartnerInput{DefaultCommissionRate: decimal.NewFromInt(10)}).Validate())
	assert.NotEmpty(t, (&PartnerInput{Name: "Ana", DefaultCommissionRate: decimal.NewFromInt(101)}).Validate())
	assert.NotEmpty(t, (&PartnerInput{Name: "Ana", DefaultCommissionRate: decimal.NewFromInt(-1)}).Validate())
}

func TestProductInputValidate(t *testing.T) {
	ok := ProductInput{Name: "Mug", PurchasePrice: decimal.NewFromInt(4), SalePrice: decimal.NewFromInt(12)}
	assert.Empty(t, ok.Validate())

	neg := ok
	neg.SalePrice = decimal.NewFromInt(-1)
	assert.Equal(t, "sale_price must be non-negative", neg.Validate())
}

func TestWithdrawalInputValidate(t *testing.T) {
	ok := WithdrawalInput{CostCenterID: 1, WithdrawDate: "2026-08-01", Amount: decimal.NewFromInt(50)}
	assert.Empty(t, ok.Validate())

	zero := ok
	zero.Amount = decimal.Zero
	assert.Equal(t, "amount must be positive", zero.Validate())

	noDate := ok
	noDate.WithdrawDate = ""
	assert.Equal(t, "withdraw_date is required", noDate.Validate())
}
