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

const costCenterSelectQuery = `SELECT id, name, description, created_at, updated_at FROM cost_centers`

func scanCostCenter(scanner interface{ Scan(...any) error }) (models.CostCenter, error) {
	var c models.CostCenter
	err := scanner.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ListCostCenters lists all cost centers
// @Summary      List cost centers
// @Tags         cost-centers
// @Produce      json
// @Success      200  {object}  Response{data=[]models.CostCenter}
// @Router       /cost-centers [get]
// @Security     BasicAuth
func ListCostCenters(w http.ResponseWriter, r *http.Request) {
	rows, err := DB.QueryContext(r.Context(), costCenterSelectQuery+" ORDER BY name")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	centers := []models.CostCenter{}
	for rows.Next() {
		c, err := scanCostCenter(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		centers = append(centers, c)
	}
	writeJSON(w, http.StatusOK, centers)
}

// GetCostCenter retrieves a single cost center by ID
// @Summary      Get cost center
// @Tags         cost-centers
// @Produce      json
// @Param        id   path      int  true  "Cost center ID"
// @Success      200  {object}  Response{data=models.CostCenter}
// @Failure      404  {object}  Response{error=string}
// @Router       /cost-centers/{id} [get]
// @Security     BasicAuth
func GetCostCenter(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	c, err := scanCostCenter(DB.QueryRowContext(r.Context(), costCenterSelectQuery+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "cost center not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateCostCenter creates a new cost center
// @Summary      Create cost center
// @Tags         cost-centers
// @Accept       json
// @Produce      json
// @Param        costCenter  body      models.CostCenterInput  true  "Cost center contents"
// @Success      201         {object}  Response{data=models.CostCenter}
// @Failure      400         {object}  Response{error=string}
// @Router       /cost-centers [post]
// @Security     BasicAuth
func CreateCostCenter(w http.ResponseWriter, r *http.Request) {
	var input models.CostCenterInput
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
		`INSERT INTO cost_centers (name, description) VALUES ($1, $2) RETURNING id`,
		input.Name, input.Description).Scan(&id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	c, err := scanCostCenter(DB.QueryRowContext(r.Context(), costCenterSelectQuery+" WHERE id = $1", id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch created cost center: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCostCenter updates an existing cost center
// @Summary      Update cost center
// @Tags         cost-centers
// @Accept       json
// @Produce      json
// @Param        id          path      int                     true  "Cost center ID"
// @Param        costCenter  body      models.CostCenterInput  true  "Updated cost center contents"
// @Success      200         {object}  Response{data=models.CostCenter}
// @Failure      400         {object}  Response{error=string}
// @Failure      404         {object}  Response{error=string}
// @Router       /cost-centers/{id} [put]
// @Security     BasicAuth
func UpdateCostCenter(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.CostCenterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := DB.ExecContext(r.Context(),
		`UPDATE cost_centers SET name = $1, description = $2, updated_at = now() WHERE id = $3`,
		input.Name, input.Description, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "cost center not found")
		return
	}

	c, err := scanCostCenter(DB.QueryRowContext(r.Context(), costCenterSelectQuery+" WHERE id = $1", id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch updated cost center: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCostCenter deletes a cost center
// @Summary      Delete cost center
// @Description  Remove a cost center. Fails while documents or withdrawals reference it.
// @Tags         cost-centers
// @Produce      json
// @Param        id   path      int  true  "Cost center ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /cost-centers/{id} [delete]
// @Security     BasicAuth
func DeleteCostCenter(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	res, err := DB.ExecContext(r.Context(), "DELETE FROM cost_centers WHERE id = $1", id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "cost center not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
