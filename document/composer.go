// Package document holds the in-memory draft logic shared by sales and
// purchases: the line-item composer used to build a document before it is
// persisted, and the payment ledger that guards the outstanding balance of a
// persisted document. Persistence itself is delegated to injected stores.
package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind selects which side of the catalog price a composer defaults to and
// whether commission applies.
type Kind string

const (
	KindSale     Kind = "sale"
	KindPurchase Kind = "purchase"
)

var (
	ErrSubmitInFlight   = errors.New("a submission is already in progress")
	ErrMissingField     = errors.New("required field is missing")
	ErrMissingProduct   = errors.New("select a product before adding the item")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidUnitPrice = errors.New("unit price must be zero or greater")
	ErrNoItems          = errors.New("add at least one item before saving")
	ErrInvalidRate      = errors.New("commission rate must be between 0 and 100")
)

// Product is a catalog entry supplied by the caller, used only to default the
// name and price of a staged item.
type Product struct {
	ID            int
	Name          string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
}

// LineItem is one confirmed row of a draft document. The product name and
// price are snapshots taken when the item was added; later catalog changes do
// not touch them.
type LineItem struct {
	ProductID   int
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Header carries the document-level fields of a draft. Numeric fields stay as
// form strings until submit-time validation.
type Header struct {
	Date           string
	CounterpartyID int
	CostCenterID   int
	PartnerID      int    // sales only
	CommissionRate string // percent, sales only
	Notes          string
}

// ItemForm is the staging slot for the item currently being composed.
type ItemForm struct {
	ProductID   int
	ProductName string
	Quantity    string
	UnitPrice   string
}

// Totals are derived from the current item list and commission rate; they are
// recomputed on demand and never stored.
type Totals struct {
	Overall    decimal.Decimal
	Commission decimal.Decimal
}

// Store persists a finished draft. Both operations must be atomic: a reader
// never observes a header without its items.
type Store interface {
	CreateWithItems(ctx context.Context, h Header, items []LineItem) (int, error)
	ReplaceWithItems(ctx context.Context, id int, h Header, items []LineItem) error
}

// Composer incrementally builds one draft document. It is not safe for
// concurrent use; each draft has exactly one owner.
type Composer struct {
	Kind    Kind
	Header  Header
	Staging ItemForm
	Items   []LineItem

	documentID int
	editing    bool
	submitting bool
}

// NewComposer returns an empty draft dated today.
func NewComposer(kind Kind) *Composer {
	return &Composer{
		Kind:   kind,
		Header: Header{Date: time.Now().Format("2006-01-02")},
	}
}

// Editing reports whether the composer was loaded from a persisted document.
func (c *Composer) Editing() bool { return c.editing }

// DocumentID returns the persisted id when editing, 0 otherwise.
func (c *Composer) DocumentID() int { return c.documentID }

// SetProduct points the staging slot at a catalog product, snapshotting its
// name and defaulting the unit price for this document kind. An unknown id
// clears both. The defaults are a convenience; the caller may override them.
func (c *Composer) SetProduct(productID int, catalog []Product) {
	c.Staging.ProductID = productID
	for _, p := range catalog {
		if p.ID == productID {
			c.Staging.ProductName = p.Name
			if c.Kind == KindPurchase {
				c.Staging.UnitPrice = p.PurchasePrice.String()
			} else {
				c.Staging.UnitPrice = p.SalePrice.String()
			}
			return
		}
	}
	c.Staging.ProductID = 0
	c.Staging.ProductName = ""
	c.Staging.UnitPrice = ""
}

// AddItem validates the staging slot and, on success, appends it to the item
// list and clears the slot. On failure nothing is mutated.
func (c *Composer) AddItem() error {
	if c.Staging.ProductID == 0 {
		return ErrMissingProduct
	}
	qty, err := ParseAmount(c.Staging.Quantity)
	if err != nil || qty.Sign() <= 0 {
		return ErrInvalidQuantity
	}
	price, err := ParseAmount(c.Staging.UnitPrice)
	if err != nil || price.Sign() < 0 {
		return ErrInvalidUnitPrice
	}
	c.Items = append(c.Items, LineItem{
		ProductID:   c.Staging.ProductID,
		ProductName: c.Staging.ProductName,
		Quantity:    qty,
		UnitPrice:   price,
		LineTotal:   qty.Mul(price),
	})
	c.Staging = ItemForm{}
	return nil
}

// RemoveItem drops the item at index i. An out-of-range index is a no-op.
func (c *Composer) RemoveItem(i int) {
	if i < 0 || i >= len(c.Items) {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// Totals derives the overall total and, for sales with a positive rate, the
// commission value. An unparseable or non-positive rate yields zero
// commission here; range errors are reported at submit time.
func (c *Composer) Totals() Totals {
	var t Totals
	for _, it := range c.Items {
		t.Overall = t.Overall.Add(it.LineTotal)
	}
	if c.Kind == KindSale {
		if rate, err := ParseAmount(c.Header.CommissionRate); err == nil && rate.Sign() > 0 {
			t.Commission = t.Overall.Mul(rate).Div(decimal.NewFromInt(100))
		}
	}
	return t
}

func (c *Composer) validateHeader() error {
	if c.Header.Date == "" {
		return fmt.Errorf("%w: date", ErrMissingField)
	}
	if c.Header.CounterpartyID == 0 {
		if c.Kind == KindSale {
			return fmt.Errorf("%w: customer", ErrMissingField)
		}
		return fmt.Errorf("%w: supplier", ErrMissingField)
	}
	if c.Header.CostCenterID == 0 {
		return fmt.Errorf("%w: cost center", ErrMissingField)
	}
	if c.Kind == KindSale {
		if c.Header.PartnerID == 0 {
			return fmt.Errorf("%w: salesperson", ErrMissingField)
		}
		if c.Header.CommissionRate != "" {
			rate, err := ParseAmount(c.Header.CommissionRate)
			if err != nil || rate.Sign() < 0 || rate.GreaterThan(decimal.NewFromInt(100)) {
				return ErrInvalidRate
			}
		}
	}
	return nil
}

// Submit validates the draft and hands it to the store: create when new,
// replace when editing. On success the draft is reset; on failure it is left
// untouched so the caller can correct and retry, and the store's error is
// returned verbatim.
func (c *Composer) Submit(ctx context.Context, store Store) (int, error) {
	if c.submitting {
		return 0, ErrSubmitInFlight
	}
	c.submitting = true
	defer func() { c.submitting = false }()

	if err := c.validateHeader(); err != nil {
		return 0, err
	}
	// An edited document may be saved with an empty list; a new one may not.
	if !c.editing && len(c.Items) == 0 {
		return 0, ErrNoItems
	}

	if c.editing {
		if err := store.ReplaceWithItems(ctx, c.documentID, c.Header, c.Items); err != nil {
			return 0, err
		}
		id := c.documentID
		c.Reset()
		return id, nil
	}
	id, err := store.CreateWithItems(ctx, c.Header, c.Items)
	if err != nil {
		return 0, err
	}
	c.Reset()
	return id, nil
}

// LoadForEdit populates the draft from a persisted document and switches the
// composer into edit mode.
func (c *Composer) LoadForEdit(id int, h Header, items []LineItem) {
	c.documentID = id
	c.editing = true
	c.Header = h
	c.Items = append([]LineItem(nil), items...)
	c.Staging = ItemForm{}
}

// Reset discards all draft state and returns the composer to create mode.
func (c *Composer) Reset() {
	c.documentID = 0
	c.editing = false
	c.Header = Header{Date: time.Now().Format("2006-01-02")}
	c.Staging = ItemForm{}
	c.Items = nil
}
