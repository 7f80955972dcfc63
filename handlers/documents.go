package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mfreitas/gestor/document"
	"github.com/mfreitas/gestor/models"
)

var (
	errSaleNotFound     = errors.New("sale not found")
	errPurchaseNotFound = errors.New("purchase not found")
)

// composeDocument runs the submitted lines through a composer: each line goes
// into the staging slot (picking up the catalog snapshot and default price)
// and is validated by AddItem before the next one.
func composeDocument(ctx context.Context, kind document.Kind, h document.Header, items []models.DocumentItemInput) (*document.Composer, error) {
	catalog, err := loadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading product catalog: %w", err)
	}

	comp := document.NewComposer(kind)
	comp.Header = h
	for _, it := range items {
		comp.SetProduct(it.ProductID, catalog)
		comp.Staging.Quantity = it.Quantity
		if it.UnitPrice != "" {
			comp.Staging.UnitPrice = it.UnitPrice
		}
		if err := comp.AddItem(); err != nil {
			return nil, err
		}
	}
	return comp, nil
}

// isDraftError reports whether err is a local validation failure of the draft
// rather than a persistence failure.
func isDraftError(err error) bool {
	return errors.Is(err, document.ErrMissingField) ||
		errors.Is(err, document.ErrMissingProduct) ||
		errors.Is(err, document.ErrInvalidQuantity) ||
		errors.Is(err, document.ErrInvalidUnitPrice) ||
		errors.Is(err, document.ErrNoItems) ||
		errors.Is(err, document.ErrInvalidRate) ||
		errors.Is(err, document.ErrInvalidAmount) ||
		errors.Is(err, document.ErrSubmitInFlight)
}

func insertItems(ctx context.Context, tx *sql.Tx, table, fk string, docID int, items []document.LineItem) error {
	stmt := fmt.Sprintf(
		`INSERT INTO %s (%s, product_id, product_name, quantity, unit_price, line_total) VALUES ($1, $2, $3, $4, $5, $6)`,
		table, fk)
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, stmt, docID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.LineTotal); err != nil {
			return err
		}
	}
	return nil
}
