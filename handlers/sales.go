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
	"github.com/shopspring/decimal"

	"github.com/mfreitas/gestor/document"
	"github.com/mfreitas/gestor/models"
)

const saleSelectQuery = `SELECT s.id, s.sale_date::text, s.merchant_id, s.partner_id, s.cost_center_id,
	s.commission_rate, s.notes, s.created_at, s.updated_at,
	m.name, p.name, cc.name,
	COALESCE((SELECT SUM(si.line_total) FROM sale_items si WHERE si.sale_id = s.id), 0),
	COALESCE((SELECT SUM(sp.amount) FROM sale_payments sp WHERE sp.sale_id = s.id), 0)
	FROM sales s
	LEFT JOIN merchants m ON s.merchant_id = m.id
	LEFT JOIN partners p ON s.partner_id = p.id
	LEFT JOIN cost_centers cc ON s.cost_center_id = cc.id`

func scanSale(scanner interface{ Scan(...any) error }) (models.Sale, error) {
	var s models.Sale
	err := scanner.Scan(&s.ID, &s.SaleDate, &s.MerchantID, &s.PartnerID, &s.CostCenterID,
		&s.CommissionRate, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
		&s.MerchantName, &s.PartnerName, &s.CostCenterName, &s.Total, &s.Paid)
	if err == nil {
		s.Balance = s.Total.Sub(s.Paid)
		s.CommissionValue = s.Total.Mul(s.CommissionRate).Div(decimal.NewFromInt(100))
	}
	return s, err
}

func getSaleByID(ctx context.Context, id int) (models.Sale, error) {
	s, err := scanSale(DB.QueryRowContext(ctx, saleSelectQuery+" WHERE s.id = $1", id))
	if err != nil {
		return s, err
	}
	rows, err := DB.QueryContext(ctx,
		`SELECT id, sale_id, product_id, product_name, quantity, unit_price, line_total
		FROM sale_items WHERE sale_id = $1 ORDER BY id`, id)
	if err != nil {
		return s, err
	}
	defer rows.Close()

	s.Items = []models.SaleItem{}
	for rows.Next() {
		var it models.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return s, err
		}
		s.Items = append(s.Items, it)
	}
	return s, rows.Err()
}

// saleStore persists drafts for the composer. Header and items land in one
// transaction so no reader sees a sale without its items.
type saleStore struct {
	db *sql.DB
}

func (st saleStore) CreateWithItems(ctx context.Context, h document.Header, items []document.LineItem) (int, error) {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rate := decimal.Zero
	if h.CommissionRate != "" {
		rate, _ = document.ParseAmount(h.CommissionRate)
	}
	var id int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO sales (sale_date, merchant_id, partner_id, cost_center_id, commission_rate, notes)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')) RETURNING id`,
		h.Date, h.CounterpartyID, h.PartnerID, h.CostCenterID, rate, h.Notes).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := insertItems(ctx, tx, "sale_items", "sale_id", id, items); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

func (st saleStore) ReplaceWithItems(ctx context.Context, id int, h document.Header, items []document.LineItem) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rate := decimal.Zero
	if h.CommissionRate != "" {
		rate, _ = document.ParseAmount(h.CommissionRate)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE sales SET sale_date = $1, merchant_id = $2, partner_id = $3, cost_center_id = $4,
		commission_rate = $5, notes = NULLIF($6, ''), updated_at = now() WHERE id = $7`,
		h.Date, h.CounterpartyID, h.PartnerID, h.CostCenterID, rate, h.Notes, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errSaleNotFound
	}
	// Replace the whole item set rather than diffing.
	if _, err := tx.ExecContext(ctx, "DELETE FROM sale_items WHERE sale_id = $1", id); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, "sale_items", "sale_id", id, items); err != nil {
		return err
	}
	return tx.Commit()
}

func saleHeader(input models.SaleInput) document.Header {
	notes := ""
	if input.Notes != nil {
		notes = *input.Notes
	}
	return document.Header{
		Date:           input.SaleDate,
		CounterpartyID: input.MerchantID,
		PartnerID:      input.PartnerID,
		CostCenterID:   input.CostCenterID,
		CommissionRate: input.CommissionRate,
		Notes:          notes,
	}
}

// ListSales lists all sales
// @Summary      List sales
// @Description  Get sales with derived total, commission, paid and balance figures.
// @Tags         sales
// @Produce      json
// @Param        merchant_id     query     int     false  "Filter by customer"
// @Param        partner_id      query     int     false  "Filter by salesperson"
// @Param        cost_center_id  query     int     false  "Filter by cost center"
// @Param        from            query     string  false  "Sale date from (YYYY-MM-DD)"
// @Param        to              query     string  false  "Sale date to (YYYY-MM-DD)"
// @Param        search          query     string  false  "Search by notes or customer name"
// @Success      200             {object}  Response{data=[]models.Sale}
// @Router       /sales [get]
// @Security     BasicAuth
func ListSales(w http.ResponseWriter, r *http.Request) {
	query := saleSelectQuery
	var conditions []string
	var args []any

	add := func(cond, val string) {
		args = append(args, val)
		conditions = append(conditions, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if v := r.URL.Query().Get("merchant_id"); v != "" {
		add("s.merchant_id = ?", v)
	}
	if v := r.URL.Query().Get("partner_id"); v != "" {
		add("s.partner_id = ?", v)
	}
	if v := r.URL.Query().Get("cost_center_id"); v != "" {
		add("s.cost_center_id = ?", v)
	}
	if v := r.URL.Query().Get("from"); v != "" {
		add("s.sale_date >= ?", v)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		add("s.sale_date <= ?", v)
	}
	if v := r.URL.Query().Get("search"); v != "" {
		args = append(args, "%"+v+"%")
		n := strconv.Itoa(len(args))
		conditions = append(conditions, "(s.notes ILIKE $"+n+" OR m.name ILIKE $"+n+")")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.sale_date DESC, s.id DESC"

	rows, err := DB.QueryContext(r.Context(), query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		sales = append(sales, s)
	}
	writeJSON(w, http.StatusOK, sales)
}

// GetSale retrieves a single sale with its items
// @Summary      Get sale
// @Tags         sales
// @Produce      json
// @Param        id   path      int  true  "Sale ID"
// @Success      200  {object}  Response{data=models.Sale}
// @Failure      404  {object}  Response{error=string}
// @Router       /sales/{id} [get]
// @Security     BasicAuth
func GetSale(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	s, err := getSaleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "sale not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CreateSale creates a sale with its items in one atomic operation
// @Summary      Create sale
// @Description  Create a sale header plus line items atomically. Line quantity and unit price accept comma decimals; an omitted unit price defaults to the product's sale price.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        sale  body      models.SaleInput  true  "Sale contents"
// @Success      201   {object}  Response{data=models.Sale}
// @Failure      400   {object}  Response{error=string}
// @Router       /sales [post]
// @Security     BasicAuth
func CreateSale(w http.ResponseWriter, r *http.Request) {
	var input models.SaleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	comp, err := composeDocument(r.Context(), document.KindSale, saleHeader(input), input.Items)
	if err != nil {
		status := http.StatusInternalServerError
		if isDraftError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	id, err := comp.Submit(r.Context(), saleStore{DB})
	if err != nil {
		if isDraftError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s, err := getSaleByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch created sale: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// UpdateSale updates a sale, replacing its item set
// @Summary      Update sale
// @Description  Update the header and replace the full item set in one atomic operation.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id    path      int               true  "Sale ID"
// @Param        sale  body      models.SaleInput  true  "Updated sale contents"
// @Success      200   {object}  Response{data=models.Sale}
// @Failure      400   {object}  Response{error=string}
// @Failure      404   {object}  Response{error=string}
// @Router       /sales/{id} [put]
// @Security     BasicAuth
func UpdateSale(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.SaleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	comp, err := composeDocument(r.Context(), document.KindSale, saleHeader(input), input.Items)
	if err != nil {
		status := http.StatusInternalServerError
		if isDraftError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	comp.LoadForEdit(id, comp.Header, comp.Items)

	if _, err := comp.Submit(r.Context(), saleStore{DB}); err != nil {
		switch {
		case errors.Is(err, errSaleNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case isDraftError(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s, err := getSaleByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch updated sale: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// DeleteSale deletes a sale and its items and payments
// @Summary      Delete sale
// @Description  Remove a sale; its items and payments are removed with it.
// @Tags         sales
// @Produce      json
// @Param        id   path      int  true  "Sale ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /sales/{id} [delete]
// @Security     BasicAuth
func DeleteSale(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	res, err := DB.ExecContext(r.Context(), "DELETE FROM sales WHERE id = $1", id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "sale not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
