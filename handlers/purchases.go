package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mfreitas/gestor/document"
	"github.com/mfreitas/gestor/models"
)

const purchaseSelectQuery = `SELECT p.id, p.purchase_date::text, p.merchant_id, p.cost_center_id,
	p.notes, p.created_at, p.updated_at,
	m.name, cc.name,
	COALESCE((SELECT SUM(pi.line_total) FROM purchase_items pi WHERE pi.purchase_id = p.id), 0),
	COALESCE((SELECT SUM(pp.amount) FROM purchase_payments pp WHERE pp.purchase_id = p.id), 0)
	FROM purchases p
	LEFT JOIN merchants m ON p.merchant_id = m.id
	LEFT JOIN cost_centers cc ON p.cost_center_id = cc.id`

func scanPurchase(scanner interface{ Scan(...any) error }) (models.Purchase, error) {
	var p models.Purchase
	err := scanner.Scan(&p.ID, &p.PurchaseDate, &p.MerchantID, &p.CostCenterID,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt,
		&p.MerchantName, &p.CostCenterName, &p.Total, &p.Paid)
	if err == nil {
		p.Balance = p.Total.Sub(p.Paid)
	}
	return p, err
}

func getPurchaseByID(ctx context.Context, id int) (models.Purchase, error) {
	p, err := scanPurchase(DB.QueryRowContext(ctx, purchaseSelectQuery+" WHERE p.id = $1", id))
	if err != nil {
		return p, err
	}
	rows, err := DB.QueryContext(ctx,
		`SELECT id, purchase_id, product_id, product_name, quantity, unit_price, line_total
		FROM purchase_items WHERE purchase_id = $1 ORDER BY id`, id)
	if err != nil {
		return p, err
	}
	defer rows.Close()

	p.Items = []models.PurchaseItem{}
	for rows.Next() {
		var it models.PurchaseItem
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return p, err
		}
		p.Items = append(p.Items, it)
	}
	return p, rows.Err()
}

// purchaseStore is the purchase-side counterpart of saleStore.
type purchaseStore struct {
	db *sql.DB
}

func (st purchaseStore) CreateWithItems(ctx context.Context, h document.Header, items []document.LineItem) (int, error) {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO purchases (purchase_date, merchant_id, cost_center_id, notes)
		VALUES ($1, $2, $3, NULLIF($4, '')) RETURNING id`,
		h.Date, h.CounterpartyID, h.CostCenterID, h.Notes).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := insertItems(ctx, tx, "purchase_items", "purchase_id", id, items); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

func (st purchaseStore) ReplaceWithItems(ctx context.Context, id int, h document.Header, items []document.LineItem) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE purchases SET purchase_date = $1, merchant_id = $2, cost_center_id = $3,
		notes = NULLIF($4, ''), updated_at = now() WHERE id = $5`,
		h.Date, h.CounterpartyID, h.CostCenterID, h.Notes, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errPurchaseNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM purchase_items WHERE purchase_id = $1", id); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, "purchase_items", "purchase_id", id, items); err != nil {
		return err
	}
	return tx.Commit()
}

func purchaseHeader(input models.PurchaseInput) document.Header {
	notes := ""
	if input.Notes != nil {
		notes = *input.Notes
	}
	return document.Header{
		Date:           input.PurchaseDate,
		CounterpartyID: input.MerchantID,
		CostCenterID:   input.CostCenterID,
		Notes:          notes,
	}
}

// ListPurchases lists all purchases
// @Summary      List purchases
// @Description  Get purchases with derived total, paid and balance figures.
// @Tags         purchases
// @Produce      json
// @Param        merchant_id     query     int     false  "Filter by supplier"
// @Param        cost_center_id  query     int     false  "Filter by cost center"
// @Param        from            query     string  false  "Purchase date from (YYYY-MM-DD)"
// @Param        to              query     string  false  "Purchase date to (YYYY-MM-DD)"
// @Param        search          query     string  false  "Search by notes or supplier name"
// @Success      200             {object}  Response{data=[]models.Purchase}
// @Router       /purchases [get]
// @Security     BasicAuth
func ListPurchases(w http.ResponseWriter, r *http.Request) {
	query := purchaseSelectQuery
	var conditions []string
	var args []any

	add := func(cond, val string) {
		args = append(args, val)
		conditions = append(conditions, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if v := r.URL.Query().Get("merchant_id"); v != "" {
		add("p.merchant_id = ?", v)
	}
	if v := r.URL.Query().Get("cost_center_id"); v != "" {
		add("p.cost_center_id = ?", v)
	}
	if v := r.URL.Query().Get("from"); v != "" {
		add("p.purchase_date >= ?", v)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		add("p.purchase_date <= ?", v)
	}
	if v := r.URL.Query().Get("search"); v != "" {
		args = append(args, "%"+v+"%")
		n := strconv.Itoa(len(args))
		conditions = append(conditions, "(p.notes ILIKE $"+n+" OR m.name ILIKE $"+n+")")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.purchase_date DESC, p.id DESC"

	rows, err := DB.QueryContext(r.Context(), query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	purchases := []models.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		purchases = append(purchases, p)
	}
	writeJSON(w, http.StatusOK, purchases)
}

// GetPurchase retrieves a single purchase with its items
// @Summary      Get purchase
// @Tags         purchases
// @Produce      json
// @Param        id   path      int  true  "Purchase ID"
// @Success      200  {object}  Response{data=models.Purchase}
// @Failure      404  {object}  Response{error=string}
// @Router       /purchases/{id} [get]
// @Security     BasicAuth
func GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	p, err := getPurchaseByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "purchase not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePurchase creates a purchase with its items in one atomic operation
// @Summary      Create purchase
// @Description  Create a purchase header plus line items atomically. An omitted unit price defaults to the product's purchase price.
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        purchase  body      models.PurchaseInput  true  "Purchase contents"
// @Success      201       {object}  Response{data=models.Purchase}
// @Failure      400       {object}  Response{error=string}
// @Router       /purchases [post]
// @Security     BasicAuth
func CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var input models.PurchaseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	comp, err := composeDocument(r.Context(), document.KindPurchase, purchaseHeader(input), input.Items)
	if err != nil {
		status := http.StatusInternalServerError
		if isDraftError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	id, err := comp.Submit(r.Context(), purchaseStore{DB})
	if err != nil {
		if isDraftError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	p, err := getPurchaseByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch created purchase: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePurchase updates a purchase, replacing its item set
// @Summary      Update purchase
// @Description  Update the header and replace the full item set in one atomic operation.
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        id        path      int                   true  "Purchase ID"
// @Param        purchase  body      models.PurchaseInput  true  "Updated purchase contents"
// @Success      200       {object}  Response{data=models.Purchase}
// @Failure      400       {object}  Response{error=string}
// @Failure      404       {object}  Response{error=string}
// @Router       /purchases/{id} [put]
// @Security     BasicAuth
func UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.PurchaseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	comp, err := composeDocument(r.Context(), document.KindPurchase, purchaseHeader(input), input.Items)
	if err != nil {
		status := http.StatusInternalServerError
		if isDraftError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	comp.LoadForEdit(id, comp.Header, comp.Items)

	if _, err := comp.Submit(r.Context(), purchaseStore{DB}); err != nil {
		switch {
		case errors.Is(err, errPurchaseNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case isDraftError(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	p, err := getPurchaseByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch updated purchase: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePurchase deletes a purchase and its items and payments
// @Summary      Delete purchase
// @Tags         purchases
// @Produce      json
// @Param        id   path      int  true  "Purchase ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /purchases/{id} [delete]
// @Security     BasicAuth
func DeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	res, err := DB.ExecContext(r.Context(), "DELETE FROM purchases WHERE id = $1", id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "purchase not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
