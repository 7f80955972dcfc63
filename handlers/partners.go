package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mfreitas/gestor/models"
)

const partnerSelectQuery = `SELECT id, name, email, phone, default_commission_rate, active, created_at, updated_at FROM partners`

func scanPartner(scanner interface{ Scan(...any) error }) (models.Partner, error) {
	var p models.Partner
	err := scanner.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.DefaultCommissionRate, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListPartners lists all partners
// @Summary      List partners
// @Description  Get all partners (salespeople). Pass active=true to hide inactive ones.
// @Tags         partners
// @Produce      json
// @Param        active  query     bool  false  "Only active partners"
// @Success      200     {object}  Response{data=[]models.Partner}
// @Router       /partners [get]
// @Security     BasicAuth
func ListPartners(w http.ResponseWriter, r *http.Request) {
	query := partnerSelectQuery
	if r.URL.Query().Get("active") == "true" {
		query += " WHERE active"
	}
	query += " ORDER BY name"

	rows, err := DB.QueryContext(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	partners := []models.Partner{}
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		partners = append(partners, p)
	}
	writeJSON(w, http.StatusOK, partners)
}

// GetPartner retrieves a single partner by ID
// @Summary      Get partner
// @Tags         partners
// @Produce      json
// @Param        id   path      int  true  "Partner ID"
// @Success      200  {object}  Response{data=models.Partner}
// @Failure      404  {object}  Response{error=string}
// @Router       /partners/{id} [get]
// @Security     BasicAuth
func GetPartner(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	p, err := scanPartner(DB.QueryRowContext(r.Context(), partnerSelectQuery+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "partner not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePartner creates a new partner
// @Summary      Create partner
// @Tags         partners
// @Accept       json
// @Produce      json
// @Param        partner  body      models.PartnerInput  true  "Partner contents"
// @Success      201      {object}  Response{data=models.Partner}
// @Failure      400      {object}  Response{error=string}
// @Router       /partners [post]
// @Security     BasicAuth
func CreatePartner(w http.ResponseWriter, r *http.Request) {
	var input models.PartnerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}

	var id int
	err := DB.QueryRowContext(r.Context(),
		`INSERT INTO partners (name, email, phone, default_commission_rate, active) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		input.Name, input.Email, input.Phone, input.DefaultCommissionRate, active).Scan(&id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	p, err := scanPartner(DB.QueryRowContext(r.Context(), partnerSelectQuery+" WHERE id = $1", id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch created partner: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePartner updates an existing partner
// @Summary      Update partner
// @Tags         partners
// @Accept       json
// @Produce      json
// @Param        id       path      int                  true  "Partner ID"
// @Param        partner  body      models.PartnerInput  true  "Updated partner contents"
// @Success      200      {object}  Response{data=models.Partner}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Router       /partners/{id} [put]
// @Security     BasicAuth
func UpdatePartner(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.PartnerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}

	res, err := DB.ExecContext(r.Context(),
		`UPDATE partners SET name = $1, email = $2, phone = $3, default_commission_rate = $4, active = $5, updated_at = now() WHERE id = $6`,
		input.Name, input.Email, input.Phone, input.DefaultCommissionRate, active, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "partner not found")
		return
	}

	p, err := scanPartner(DB.QueryRowContext(r.Context(), partnerSelectQuery+" WHERE id = $1", id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch updated partner: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePartner deletes a partner
// @Summary      Delete partner
// @Tags         partners
// @Produce      json
// @Param        id   path      int  true  "Partner ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /partners/{id} [delete]
// @Security     BasicAuth
func DeletePartner(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	res, err := DB.ExecContext(r.Context(), "DELETE FROM partners WHERE id = $1", id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "partner not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
