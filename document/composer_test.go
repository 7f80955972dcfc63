package document

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = []Product{
	{ID: 1, Name: "Ceramic mug", PurchasePrice: dec("4.50"), SalePrice: dec("12.90")},
	{ID: 2, Name: "Espresso beans 1kg", PurchasePrice: dec("38.00"), SalePrice: dec("59.90")},
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeStore struct {
	createErr  error
	replaceErr error

	created  int
	replaced int
	lastID   int
	header   Header
	items    []LineItem
}

func (s *fakeStore) CreateWithItems(_ context.Context, h Header, items []LineItem) (int, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.created++
	s.header = h
	s.items = items
	s.lastID = 42
	return 42, nil
}

func (s *fakeStore) ReplaceWithItems(_ context.Context, id int, h Header, items []LineItem) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaced++
	s.lastID = id
	s.header = h
	s.items = items
	return nil
}

func validSaleComposer() *Composer {
	c := NewComposer(KindSale)
	c.Header.CounterpartyID = 7
	c.Header.CostCenterID = 3
	c.Header.PartnerID = 5
	return c
}

func addItem(t *testing.T, c *Composer, productID int, qty, price string) {
	t.Helper()
	c.SetProduct(productID, catalog)
	c.Staging.Quantity = qty
	if price != "" {
		c.Staging.UnitPrice = price
	}
	require.NoError(t, c.AddItem())
}

func TestSetProductDefaults(t *testing.T) {
	sale := NewComposer(KindSale)
	sale.SetProduct(1, catalog)
	assert.Equal(t, "Ceramic mug", sale.Staging.ProductName)
	assert.Equal(t, "12.90", sale.Staging.UnitPrice)

	purchase := NewComposer(KindPurchase)
	purchase.SetProduct(1, catalog)
	assert.Equal(t, "4.50", purchase.Staging.UnitPrice)

	// Unknown id clears the snapshot fields.
	sale.SetProduct(99, catalog)
	assert.Zero(t, sale.Staging.ProductID)
	assert.Empty(t, sale.Staging.ProductName)
	assert.Empty(t, sale.Staging.UnitPrice)
}

func TestAddItemSnapshotsAndComputes(t *testing.T) {
	c := validSaleComposer()
	addItem(t, c, 1, "2", "300.00")
	addItem(t, c, 2, "1", "400,00") // comma decimal

	require.Len(t, c.Items, 2)
	assert.True(t, c.Items[0].LineTotal.Equal(dec("600.00")), "got %s", c.Items[0].LineTotal)
	assert.True(t, c.Items[1].LineTotal.Equal(dec("400.00")))
	assert.Equal(t, "Ceramic mug", c.Items[0].ProductName)
	// Staging slot is cleared after a successful add.
	assert.Zero(t, c.Staging.ProductID)

	// Later catalog changes must not affect the snapshot.
	catalog[0].Name = "Renamed mug"
	assert.Equal(t, "Ceramic mug", c.Items[0].ProductName)
	catalog[0].Name = "Ceramic mug"
}

func TestAddItemRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Composer)
		wantErr error
	}{
		{"missing product", func(c *Composer) { c.Staging.Quantity = "1"; c.Staging.UnitPrice = "10" }, ErrMissingProduct},
		{"zero quantity", func(c *Composer) { c.SetProduct(1, catalog); c.Staging.Quantity = "0" }, ErrInvalidQuantity},
		{"negative quantity", func(c *Composer) { c.SetProduct(1, catalog); c.Staging.Quantity = "-2" }, ErrInvalidQuantity},
		{"garbage quantity", func(c *Composer) { c.SetProduct(1, catalog); c.Staging.Quantity = "two" }, ErrInvalidQuantity},
		{"negative price", func(c *Composer) {
			c.SetProduct(1, catalog)
			c.Staging.Quantity = "1"
			c.Staging.UnitPrice = "-5"
		}, ErrInvalidUnitPrice},
		{"garbage price", func(c *Composer) {
			c.SetProduct(1, catalog)
			c.Staging.Quantity = "1"
			c.Staging.UnitPrice = "abc"
		}, ErrInvalidUnitPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validSaleComposer()
			tt.mutate(c)
			err := c.AddItem()
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, c.Items, "a rejected add must not mutate the list")
		})
	}
}

func TestRemoveItemOutOfRangeIsNoop(t *testing.T) {
	c := validSaleComposer()
	addItem(t, c, 1, "1", "10")
	addItem(t, c, 2, "1", "20")

	c.RemoveItem(-1)
	c.RemoveItem(2)
	assert.Len(t, c.Items, 2)

	c.RemoveItem(0)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].ProductID)
}

func TestTotalsDerivation(t *testing.T) {
	c := validSaleComposer()
	addItem(t, c, 1, "2", "300.00")
	addItem(t, c, 2, "1", "400.00")

	got := c.Totals()
	assert.True(t, got.Overall.Equal(dec("1000.00")), "got %s", got.Overall)
	assert.True(t, got.Commission.IsZero())

	c.Header.CommissionRate = "5"
	got = c.Totals()
	assert.True(t, got.Commission.Equal(dec("50.00")), "got %s", got.Commission)

	// Comma rate, and totals follow item removal.
	c.Header.CommissionRate = "2,5"
	c.RemoveItem(1)
	got = c.Totals()
	assert.True(t, got.Overall.Equal(dec("600.00")))
	assert.True(t, got.Commission.Equal(dec("15.00")), "got %s", got.Commission)
}

func TestCommissionIgnoredForPurchases(t *testing.T) {
	c := NewComposer(KindPurchase)
	c.SetProduct(1, catalog)
	c.Staging.Quantity = "10"
	require.NoError(t, c.AddItem())
	c.Header.CommissionRate = "10"
	assert.True(t, c.Totals().Commission.IsZero())
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Composer)
		wantErr error
	}{
		{"missing date", func(c *Composer) { c.Header.Date = "" }, ErrMissingField},
		{"missing customer", func(c *Composer) { c.Header.CounterpartyID = 0 }, ErrMissingField},
		{"missing cost center", func(c *Composer) { c.Header.CostCenterID = 0 }, ErrMissingField},
		{"missing salesperson", func(c *Composer) { c.Header.PartnerID = 0 }, ErrMissingField},
		{"rate above 100", func(c *Composer) { c.Header.CommissionRate = "101" }, ErrInvalidRate},
		{"negative rate", func(c *Composer) { c.Header.CommissionRate = "-1" }, ErrInvalidRate},
		{"garbage rate", func(c *Composer) { c.Header.CommissionRate = "x" }, ErrInvalidRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validSaleComposer()
			addItem(t, c, 1, "1", "10")
			tt.mutate(c)
			store := &fakeStore{}
			_, err := c.Submit(context.Background(), store)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, store.created)
		})
	}
}

func TestSubmitRequiresItemsForNewDocuments(t *testing.T) {
	c := validSaleComposer()
	_, err := c.Submit(context.Background(), &fakeStore{})
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestSubmitCreateResetsDraft(t *testing.T) {
	c := validSaleComposer()
	c.Header.Notes = "first order"
	addItem(t, c, 1, "2", "300.00")

	store := &fakeStore{}
	id, err := c.Submit(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, 1, store.created)
	assert.Equal(t, "first order", store.header.Notes)
	require.Len(t, store.items, 1)

	// Draft is back to defaults.
	assert.False(t, c.Editing())
	assert.Empty(t, c.Items)
	assert.Zero(t, c.Header.CounterpartyID)
	assert.NotEmpty(t, c.Header.Date)
}

func TestSubmitFailurePreservesDraft(t *testing.T) {
	c := validSaleComposer()
	addItem(t, c, 1, "2", "300.00")

	store := &fakeStore{createErr: errors.New("duplicate invoice number")}
	_, err := c.Submit(context.Background(), store)
	assert.EqualError(t, err, "duplicate invoice number")

	// Header and items stay put for correction and resubmit.
	assert.Equal(t, 7, c.Header.CounterpartyID)
	assert.Len(t, c.Items, 1)

	store.createErr = nil
	_, err = c.Submit(context.Background(), store)
	assert.NoError(t, err)
}

func TestEditModeReplacesAtomically(t *testing.T) {
	c := NewComposer(KindPurchase)
	c.LoadForEdit(9, Header{Date: "2026-08-01", CounterpartyID: 2, CostCenterID: 1}, []LineItem{
		{ProductID: 1, ProductName: "Ceramic mug", Quantity: dec("3"), UnitPrice: dec("4.50"), LineTotal: dec("13.50")},
	})
	require.True(t, c.Editing())
	assert.Equal(t, 9, c.DocumentID())

	c.RemoveItem(0)
	store := &fakeStore{}
	id, err := c.Submit(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 9, id)
	assert.Equal(t, 1, store.replaced)
	assert.Zero(t, store.created)
	// Editing down to an empty list is allowed.
	assert.Empty(t, store.items)
	assert.False(t, c.Editing(), "draft resets after a successful save")
}

func TestLoadForEditCopiesItems(t *testing.T) {
	items := []LineItem{{ProductID: 1, Quantity: dec("1"), UnitPrice: dec("2"), LineTotal: dec("2")}}
	c := NewComposer(KindSale)
	c.LoadForEdit(1, Header{Date: "2026-01-01", CounterpartyID: 1, CostCenterID: 1, PartnerID: 1}, items)
	c.RemoveItem(0)
	assert.Len(t, items, 1, "caller's slice must not be mutated")
}

func TestCancelDiscardsDraft(t *testing.T) {
	c := validSaleComposer()
	addItem(t, c, 1, "1", "10")
	c.Reset()
	assert.Empty(t, c.Items)
	assert.Zero(t, c.Header.CounterpartyID)
	assert.False(t, c.Editing())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"12.5", "12.5", false},
		{"12,5", "12.5", false},
		{" 300.00 ", "300", false},
		{"-4", "-4", false},
		{"", "", true},
		{"abc", "", true},
		{"1,2,3", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}
