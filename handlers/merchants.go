package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mfreitas/gestor/models"
)

const merchantSelectQuery = `SELECT id, name, type, email, phone, document, created_at, updated_at FROM merchants`

func scanMerchant(scanner interface{ Scan(...any) error }) (models.Merchant, error) {
	var m models.Merchant
	err := scanner.Scan(&m.ID, &m.Name, &m.Type, &m.Email, &m.Phone, &m.Document, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// ListMerchants lists all merchants
// @Summary      List merchants
// @Description  Get all merchants (customers and suppliers), optionally filtered.
// @Tags         merchants
// @Produce      json
// @Param        type    query     string  false  "Filter by type (customer or supplier)"
// @Param        search  query     string  false  "Search by name, email, or document"
// @Success      200     {object}  Response{data=[]models.Merchant}
// @Router       /merchants [get]
// @Security     BasicAuth
func ListMerchants(w http.ResponseWriter, r *http.Request) {
	query := merchantSelectQuery
	var conditions []string
	var args []any

	if t := r.URL.Query().Get("type"); t != "" {
		args = append(args, t)
		conditions = append(conditions, "type = $"+strconv.Itoa(len(args)))
	}
	if search := r.URL.Query().Get("search"); search != "" {
		args = append(args, "%"+search+"%")
		n := strconv.Itoa(len(args))
		conditions = append(conditions, "(name ILIKE $"+n+" OR email ILIKE $"+n+" OR document ILIKE $"+n+")")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"

	rows, err := DB.QueryContext(r.Context(), query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	merchants := []models.Merchant{}
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		merchants = append(merchants, m)
	}
	writeJSON(w, http.StatusOK, merchants)
}

// GetMerchant retrieves a single merchant by ID
// @Summary      Get merchant
// @Tags         merchants
// @Produce      json
// @Param        id   path      int  true  "Merchant ID"
// @Success      200  {object}  Response{data=models.Merchant}
// @Failure      404  {object}  Response{error=string}
// @Router       /merchants/{id} [get]
// @Security     BasicAuth
func GetMerchant(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	m, err := scanMerchant(DB.QueryRowContext(r.Context(), merchantSelectQuery+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "merchant not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// CreateMerchant creates a new merchant
// @Summary      Create merchant
// @Tags         merchants
// @Accept       json
// @Produce      json
// @Param        merchant  body      models.MerchantInput  true  "Merchant contents"
// @Success      201       {object}  Response{data=models.Merchant}
// @Failure      400       {object}  Response{error=string}
// @Router       /merchants [post]
// @Security     BasicAuth
func CreateMerchant(w http.ResponseWriter, r *http.Request) {
	var input models.MerchantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var id int
	err := DB.QueryRowContext(r.Context(),
		`INSERT INTO merchants (name, type, email, phone, document) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		input.Name, input.Type, input.Email, input.Phone, input.Document).Scan(&id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	m, err := scanMerchant(DB.QueryRowContext(r.Context(), merchantSelectQuery+" WHERE id = $1", id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch created merchant: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// UpdateMerchant updates an existing merchant
// @Summary      Update merchant
// @Tags         merchants
// @Accept       json
// @Produce      json
// @Param        id        path      int                   true  "Merchant ID"
// @Param        merchant  body      models.MerchantInput  true  "Updated merchant contents"
// @Success      200       {object}  Response{data=models.Merchant}
// @Failure      400       {object}  Response{error=string}
// @Failure      404       {object}  Response{error=string}
// @Router       /merchants/{id} [put]
// @Security     BasicAuth
func UpdateMerchant(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.MerchantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := DB.ExecContext(r.Context(),
		`UPDATE merchants SET name = $1, type = $2, email = $3, phone = $4, document = $5, updated_at = now() WHERE id = $6`,
		input.Name, input.Type, input.Email, input.Phone, input.Document, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "merchant not found")
		return
	}

	m, err := scanMerchant(DB.QueryRowContext(r.Context(), merchantSelectQuery+" WHERE id = $1", id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch updated merchant: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteMerchant deletes a merchant
// @Summary      Delete merchant
// @Description  Remove a merchant. Fails while documents still reference it.
// @Tags         merchants
// @Produce      json
// @Param        id   path      int  true  "Merchant ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /merchants/{id} [delete]
// @Security     BasicAuth
func DeleteMerchant(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	res, err := DB.ExecContext(r.Context(), "DELETE FROM merchants WHERE id = $1", id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "merchant not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
