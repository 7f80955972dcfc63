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

const withdrawalSelectQuery = `SELECT w.id, w.cost_center_id, w.withdraw_date::text, w.amount, w.description, w.created_at, cc.name
	FROM withdrawals w
	LEFT JOIN cost_centers cc ON w.cost_center_id = cc.id`

func scanWithdrawal(scanner interface{ Scan(...any) error }) (models.Withdrawal, error) {
	var wd models.Withdrawal
	err := scanner.Scan(&wd.ID, &wd.CostCenterID, &wd.WithdrawDate, &wd.Amount, &wd.Description, &wd.CreatedAt, &wd.CostCenterName)
	return wd, err
}

// ListWithdrawals lists all withdrawals
// @Summary      List withdrawals
// @Description  Get cost-center withdrawals, optionally filtered by cost center and date range.
// @Tags         withdrawals
// @Produce      json
// @Param        cost_center_id  query     int     false  "Filter by cost center"
// @Param        from            query     string  false  "Date from (YYYY-MM-DD)"
// @Param        to              query     string  false  "Date to (YYYY-MM-DD)"
// @Success      200             {object}  Response{data=[]models.Withdrawal}
// @Router       /withdrawals [get]
// @Security     BasicAuth
func ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	query := withdrawalSelectQuery
	var conditions []string
	var args []any

	if v := r.URL.Query().Get("cost_center_id"); v != "" {
		args = append(args, v)
		conditions = append(conditions, "w.cost_center_id = $"+strconv.Itoa(len(args)))
	}
	if v := r.URL.Query().Get("from"); v != "" {
		args = append(args, v)
		conditions = append(conditions, "w.withdraw_date >= $"+strconv.Itoa(len(args)))
	}
	if v := r.URL.Query().Get("to"); v != "" {
		args = append(args, v)
		conditions = append(conditions, "w.withdraw_date <= $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY w.withdraw_date DESC, w.id DESC"

	rows, err := DB.QueryContext(r.Context(), query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	withdrawals := []models.Withdrawal{}
	for rows.Next() {
		wd, err := scanWithdrawal(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		withdrawals = append(withdrawals, wd)
	}
	writeJSON(w, http.StatusOK, withdrawals)
}

// GetWithdrawal retrieves a single withdrawal by ID
// @Summary      Get withdrawal
// @Tags         withdrawals
// @Produce      json
// @Param        id   path      int  true  "Withdrawal ID"
// @Success      200  {object}  Response{data=models.Withdrawal}
// @Failure      404  {object}  Response{error=string}
// @Router       /withdrawals/{id} [get]
// @Security     BasicAuth
func GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	wd, err := scanWithdrawal(DB.QueryRowContext(r.Context(), withdrawalSelectQuery+" WHERE w.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "withdrawal not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, wd)
}

// CreateWithdrawal creates a new withdrawal
// @Summary      Create withdrawal
// @Tags         withdrawals
// @Accept       json
// @Produce      json
// @Param        withdrawal  body      models.WithdrawalInput  true  "Withdrawal contents"
// @Success      201         {object}  Response{data=models.Withdrawal}
// @Failure      400         {object}  Response{error=string}
// @Router       /withdrawals [post]
// @Security     BasicAuth
func CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var input models.WithdrawalInput
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
		`INSERT INTO withdrawals (cost_center_id, withdraw_date, amount, description) VALUES ($1, $2, $3, $4) RETURNING id`,
		input.CostCenterID, input.WithdrawDate, input.Amount, input.Description).Scan(&id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	wd, err := scanWithdrawal(DB.QueryRowContext(r.Context(), withdrawalSelectQuery+" WHERE w.id = $1", id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch created withdrawal: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, wd)
}

// UpdateWithdrawal updates an existing withdrawal
// @Summary      Update withdrawal
// @Tags         withdrawals
// @Accept       json
// @Produce      json
// @Param        id          path      int                     true  "Withdrawal ID"
// @Param        withdrawal  body      models.WithdrawalInput  true  "Updated withdrawal contents"
// @Success      200         {object}  Response{data=models.Withdrawal}
// @Failure      400         {object}  Response{error=string}
// @Failure      404         {object}  Response{error=string}
// @Router       /withdrawals/{id} [put]
// @Security     BasicAuth
func UpdateWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.WithdrawalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := DB.ExecContext(r.Context(),
		`UPDATE withdrawals SET cost_center_id = $1, withdraw_date = $2, amount = $3, description = $4 WHERE id = $5`,
		input.CostCenterID, input.WithdrawDate, input.Amount, input.Description, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "withdrawal not found")
		return
	}

	wd, err := scanWithdrawal(DB.QueryRowContext(r.Context(), withdrawalSelectQuery+" WHERE w.id = $1", id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch updated withdrawal: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wd)
}

// DeleteWithdrawal deletes a withdrawal
// @Summary      Delete withdrawal
// @Tags         withdrawals
// @Produce      json
// @Param        id   path      int  true  "Withdrawal ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /withdrawals/{id} [delete]
// @Security     BasicAuth
func DeleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	res, err := DB.ExecContext(r.Context(), "DELETE FROM withdrawals WHERE id = $1", id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "withdrawal not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
