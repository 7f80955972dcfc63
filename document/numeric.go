package document

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a form value cannot be read as a number.
var ErrInvalidAmount = errors.New("invalid numeric value")

// tolerance absorbs rounding drift when comparing payment amounts against a
// balance that was accumulated from many line totals.
var tolerance = decimal.NewFromFloat(0.001)

// ParseAmount reads a user-entered numeric form value. The UI locale uses a
// comma as decimal separator, so "12,5" and "12.5" are both accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
