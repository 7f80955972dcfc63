package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mfreitas/gestor/document"
	"github.com/mfreitas/gestor/models"
)

// paymentKind binds the generic payment ledger to one document type's tables.
type paymentKind struct {
	docTable   string // sales
	docLabel   string // sale
	itemsTable string // sale_items
	payTable   string // sale_payments
	fk         string // sale_id
}

var (
	salePaymentKind = paymentKind{
		docTable: "sales", docLabel: "sale",
		itemsTable: "sale_items", payTable: "sale_payments", fk: "sale_id",
	}
	purchasePaymentKind = paymentKind{
		docTable: "purchases", docLabel: "purchase",
		itemsTable: "purchase_items", payTable: "purchase_payments", fk: "purchase_id",
	}
)

// paymentStore implements document.PaymentStore over one kind's tables.
type paymentStore struct {
	db   *sql.DB
	kind paymentKind
}

func (s paymentStore) ListPayments(ctx context.Context, documentID int) ([]document.Payment, error) {
	query := fmt.Sprintf(
		`SELECT id, %s, pay_date::text, method, amount, COALESCE(notes, '') FROM %s WHERE %s = $1 ORDER BY pay_date DESC, id DESC`,
		s.kind.fk, s.kind.payTable, s.kind.fk)
	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []document.Payment
	for rows.Next() {
		var p document.Payment
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Date, &p.Method, &p.Amount, &p.Notes); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s paymentStore) CreatePayment(ctx context.Context, p document.Payment) (document.Payment, error) {
	query := fmt.Sprintf(
		`INSERT INTO %s (%s, pay_date, method, amount, notes) VALUES ($1, $2, $3, $4, NULLIF($5, '')) RETURNING id`,
		s.kind.payTable, s.kind.fk)
	err := s.db.QueryRowContext(ctx, query, p.DocumentID, p.Date, p.Method, p.Amount, p.Notes).Scan(&p.ID)
	return p, err
}

func (s paymentStore) UpdatePayment(ctx context.Context, p document.Payment) error {
	query := fmt.Sprintf(
		`UPDATE %s SET pay_date = $1, method = $2, amount = $3, notes = NULLIF($4, '') WHERE id = $5 AND %s = $6`,
		s.kind.payTable, s.kind.fk)
	res, err := s.db.ExecContext(ctx, query, p.Date, p.Method, p.Amount, p.Notes, p.ID, p.DocumentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("payment not found")
	}
	return nil
}

func (s paymentStore) DeletePayment(ctx context.Context, paymentID int) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.kind.payTable), paymentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("payment not found")
	}
	return nil
}

// loadLedger builds the ledger for a document: persisted total from the item
// rows, then the current payment list. The bool reports document existence.
func loadLedger(ctx context.Context, kind paymentKind, docID int) (*document.Ledger, paymentStore, bool, error) {
	store := paymentStore{DB, kind}

	var exists bool
	err := DB.QueryRowContext(ctx,
		fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", kind.docTable), docID).Scan(&exists)
	if err != nil || !exists {
		return nil, store, false, err
	}

	var total decimal.Decimal
	err = DB.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(SUM(line_total), 0) FROM %s WHERE %s = $1", kind.itemsTable, kind.fk), docID).Scan(&total)
	if err != nil {
		return nil, store, true, err
	}

	ledger := document.NewLedger(docID, total)
	if err := ledger.Load(ctx, store); err != nil {
		return nil, store, true, err
	}
	return ledger, store, true, nil
}

func toModelPayment(p document.Payment) models.Payment {
	m := models.Payment{ID: p.ID, DocumentID: p.DocumentID, PayDate: p.Date, Method: p.Method, Amount: p.Amount}
	if p.Notes != "" {
		m.Notes = &p.Notes
	}
	return m
}

func toPaymentForm(id int, input models.PaymentInput) document.PaymentForm {
	notes := ""
	if input.Notes != nil {
		notes = *input.Notes
	}
	return document.PaymentForm{ID: id, Date: input.PayDate, Method: input.Method, Amount: input.Amount, Notes: notes}
}

func listPayments(w http.ResponseWriter, r *http.Request, kind paymentKind) {
	docID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	ledger, _, exists, err := loadLedger(r.Context(), kind, docID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, kind.docLabel+" not found")
		return
	}

	list := models.PaymentList{
		Payments:  []models.Payment{},
		Total:     ledger.Total,
		TotalPaid: ledger.TotalPaid(),
		Balance:   ledger.Balance(),
	}
	for _, p := range ledger.Payments {
		list.Payments = append(list.Payments, toModelPayment(p))
	}
	writeJSON(w, http.StatusOK, list)
}

func createPayment(w http.ResponseWriter, r *http.Request, kind paymentKind) {
	docID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.PaymentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ledger, store, exists, err := loadLedger(r.Context(), kind, docID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, kind.docLabel+" not found")
		return
	}

	p, err := ledger.Submit(r.Context(), store, toPaymentForm(0, input))
	if err != nil {
		writePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toModelPayment(p))
}

func updatePayment(w http.ResponseWriter, r *http.Request, kind paymentKind) {
	docID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	paymentID, _ := strconv.Atoi(chi.URLParam(r, "paymentID"))
	var input models.PaymentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ledger, store, exists, err := loadLedger(r.Context(), kind, docID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, kind.docLabel+" not found")
		return
	}
	if !ledgerHas(ledger, paymentID) {
		writeError(w, http.StatusNotFound, "payment not found")
		return
	}

	p, err := ledger.Submit(r.Context(), store, toPaymentForm(paymentID, input))
	if err != nil {
		writePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toModelPayment(p))
}

func deletePayment(w http.ResponseWriter, r *http.Request, kind paymentKind) {
	docID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	paymentID, _ := strconv.Atoi(chi.URLParam(r, "paymentID"))

	ledger, store, exists, err := loadLedger(r.Context(), kind, docID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, kind.docLabel+" not found")
		return
	}

	var target *document.Payment
	for i := range ledger.Payments {
		if ledger.Payments[i].ID == paymentID {
			target = &ledger.Payments[i]
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "payment not found")
		return
	}

	if err := ledger.Delete(r.Context(), store, requestConfirmer{r}, *target); err != nil {
		if errors.Is(err, document.ErrNotConfirmed) {
			writeError(w, http.StatusBadRequest, "pass confirm=true to delete this payment")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "deleted", "balance": ledger.Balance()})
}

func ledgerHas(l *document.Ledger, paymentID int) bool {
	for _, p := range l.Payments {
		if p.ID == paymentID {
			return true
		}
	}
	return false
}

func writePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, document.ErrOverpayment),
		errors.Is(err, document.ErrUnknownMethod),
		errors.Is(err, document.ErrMissingDate),
		errors.Is(err, document.ErrInvalidPaymentAmount),
		errors.Is(err, document.ErrSubmitInFlight):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// ListSalePayments lists payments for a sale
// @Summary      List sale payments
// @Description  Get the payments of a sale, newest first, with total paid and outstanding balance.
// @Tags         payments
// @Produce      json
// @Param        id   path      int  true  "Sale ID"
// @Success      200  {object}  Response{data=models.PaymentList}
// @Failure      404  {object}  Response{error=string}
// @Router       /sales/{id}/payments [get]
// @Security     BasicAuth
func ListSalePayments(w http.ResponseWriter, r *http.Request) { listPayments(w, r, salePaymentKind) }

// CreateSalePayment registers a payment against a sale
// @Summary      Register sale payment
// @Description  Register a payment. Rejected when the amount exceeds the outstanding balance.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id       path      int                  true  "Sale ID"
// @Param        payment  body      models.PaymentInput  true  "Payment contents"
// @Success      201      {object}  Response{data=models.Payment}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Router       /sales/{id}/payments [post]
// @Security     BasicAuth
func CreateSalePayment(w http.ResponseWriter, r *http.Request) { createPayment(w, r, salePaymentKind) }

// UpdateSalePayment edits a payment of a sale
// @Summary      Update sale payment
// @Description  Edit a payment in place. The balance check gives the old amount back first, so a payment can be raised up to the document total.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id         path      int                  true  "Sale ID"
// @Param        paymentID  path      int                  true  "Payment ID"
// @Param        payment    body      models.PaymentInput  true  "Updated payment contents"
// @Success      200        {object}  Response{data=models.Payment}
// @Failure      400        {object}  Response{error=string}
// @Failure      404        {object}  Response{error=string}
// @Router       /sales/{id}/payments/{paymentID} [put]
// @Security     BasicAuth
func UpdateSalePayment(w http.ResponseWriter, r *http.Request) { updatePayment(w, r, salePaymentKind) }

// DeleteSalePayment deletes a payment of a sale
// @Summary      Delete sale payment
// @Description  Remove a payment. Requires confirm=true.
// @Tags         payments
// @Produce      json
// @Param        id         path      int   true  "Sale ID"
// @Param        paymentID  path      int   true  "Payment ID"
// @Param        confirm    query     bool  true  "Must be true"
// @Success      200        {object}  Response{data=map[string]any}
// @Failure      400        {object}  Response{error=string}
// @Failure      404        {object}  Response{error=string}
// @Router       /sales/{id}/payments/{paymentID} [delete]
// @Security     BasicAuth
func DeleteSalePayment(w http.ResponseWriter, r *http.Request) { deletePayment(w, r, salePaymentKind) }

// ListPurchasePayments lists payments for a purchase
// @Summary      List purchase payments
// @Tags         payments
// @Produce      json
// @Param        id   path      int  true  "Purchase ID"
// @Success      200  {object}  Response{data=models.PaymentList}
// @Failure      404  {object}  Response{error=string}
// @Router       /purchases/{id}/payments [get]
// @Security     BasicAuth
func ListPurchasePayments(w http.ResponseWriter, r *http.Request) {
	listPayments(w, r, purchasePaymentKind)
}

// CreatePurchasePayment registers a payment against a purchase
// @Summary      Register purchase payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id       path      int                  true  "Purchase ID"
// @Param        payment  body      models.PaymentInput  true  "Payment contents"
// @Success      201      {object}  Response{data=models.Payment}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Router       /purchases/{id}/payments [post]
// @Security     BasicAuth
func CreatePurchasePayment(w http.ResponseWriter, r *http.Request) {
	createPayment(w, r, purchasePaymentKind)
}

// UpdatePurchasePayment edits a payment of a purchase
// @Summary      Update purchase payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id         path      int                  true  "Purchase ID"
// @Param        paymentID  path      int                  true  "Payment ID"
// @Param        payment    body      models.PaymentInput  true  "Updated payment contents"
// @Success      200        {object}  Response{data=models.Payment}
// @Failure      400        {object}  Response{error=string}
// @Failure      404        {object}  Response{error=string}
// @Router       /purchases/{id}/payments/{paymentID} [put]
// @Security     BasicAuth
func UpdatePurchasePayment(w http.ResponseWriter, r *http.Request) {
	updatePayment(w, r, purchasePaymentKind)
}

// DeletePurchasePayment deletes a payment of a purchase
// @Summary      Delete purchase payment
// @Tags         payments
// @Produce      json
// @Param        id         path      int   true  "Purchase ID"
// @Param        paymentID  path      int   true  "Payment ID"
// @Param        confirm    query     bool  true  "Must be true"
// @Success      200        {object}  Response{data=map[string]any}
// @Failure      400        {object}  Response{error=string}
// @Failure      404        {object}  Response{error=string}
// @Router       /purchases/{id}/payments/{paymentID} [delete]
// @Security     BasicAuth
func DeletePurchasePayment(w http.ResponseWriter, r *http.Request) {
	deletePayment(w, r, purchasePaymentKind)
}
