package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type costCenterLine struct {
	CostCenterID   int             `json:"cost_center_id"`
	CostCenterName string          `json:"cost_center_name"`
	Sales          decimal.Decimal `json:"sales"`
	Purchases      decimal.Decimal `json:"purchases"`
	Withdrawals    decimal.Decimal `json:"withdrawals"`
	Net            decimal.Decimal `json:"net"`
}

type financialReport struct {
	From             string           `json:"from"`
	To               string           `json:"to"`
	SalesTotal       decimal.Decimal  `json:"sales_total"`
	PurchasesTotal   decimal.Decimal  `json:"purchases_total"`
	WithdrawalsTotal decimal.Decimal  `json:"withdrawals_total"`
	CommissionsTotal decimal.Decimal  `json:"commissions_total"`
	Net              decimal.Decimal  `json:"net"`
	ByCostCenter     []costCenterLine `json:"by_cost_center"`
}

// GetFinancialReport summarizes sales, purchases and withdrawals for a period
// @Summary      Financial report
// @Description  Period totals for sales, purchases, withdrawals and commissions, broken down by cost center.
// @Tags         reports
// @Produce      json
// @Param        from  query     string  true  "Period start (YYYY-MM-DD)"
// @Param        to    query     string  true  "Period end (YYYY-MM-DD)"
// @Success      200   {object}  Response{data=financialReport}
// @Failure      400   {object}  Response{error=string}
// @Router       /reports/financial [get]
// @Security     BasicAuth
func GetFinancialReport(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required (YYYY-MM-DD)")
		return
	}

	rep := financialReport{From: from, To: to, ByCostCenter: []costCenterLine{}}
	ctx := r.Context()

	rows, err := DB.QueryContext(ctx, `SELECT cc.id, cc.name,
		COALESCE((SELECT SUM(si.line_total) FROM sales s JOIN sale_items si ON si.sale_id = s.id
			WHERE s.cost_center_id = cc.id AND s.sale_date BETWEEN $1 AND $2), 0),
		COALESCE((SELECT SUM(pi.line_total) FROM purchases p JOIN purchase_items pi ON pi.purchase_id = p.id
			WHERE p.cost_center_id = cc.id AND p.purchase_date BETWEEN $1 AND $2), 0),
		COALESCE((SELECT SUM(wd.amount) FROM withdrawals wd
			WHERE wd.cost_center_id = cc.id AND wd.withdraw_date BETWEEN $1 AND $2), 0)
		FROM cost_centers cc ORDER BY cc.name`, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	for rows.Next() {
		var line costCenterLine
		if err := rows.Scan(&line.CostCenterID, &line.CostCenterName, &line.Sales, &line.Purchases, &line.Withdrawals); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		line.Net = line.Sales.Sub(line.Purchases).Sub(line.Withdrawals)
		rep.SalesTotal = rep.SalesTotal.Add(line.Sales)
		rep.PurchasesTotal = rep.PurchasesTotal.Add(line.Purchases)
		rep.WithdrawalsTotal = rep.WithdrawalsTotal.Add(line.Withdrawals)
		rep.ByCostCenter = append(rep.ByCostCenter, line)
	}

	DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(t.total * s.commission_rate / 100), 0)
		FROM sales s
		JOIN (SELECT sale_id, SUM(line_total) AS total FROM sale_items GROUP BY sale_id) t ON t.sale_id = s.id
		WHERE s.sale_date BETWEEN $1 AND $2`, from, to).Scan(&rep.CommissionsTotal)

	rep.Net = rep.SalesTotal.Sub(rep.PurchasesTotal).Sub(rep.WithdrawalsTotal).Sub(rep.CommissionsTotal)
	writeJSON(w, http.StatusOK, rep)
}

type commissionLine struct {
	SaleID          int             `json:"sale_id"`
	SaleDate        string          `json:"sale_date"`
	PartnerID       int             `json:"partner_id"`
	PartnerName     string          `json:"partner_name"`
	MerchantName    *string         `json:"merchant_name"`
	SaleTotal       decimal.Decimal `json:"sale_total"`
	CommissionRate  decimal.Decimal `json:"commission_rate"`
	CommissionValue decimal.Decimal `json:"commission_value"`
}

type commissionReport struct {
	Lines      []commissionLine `json:"lines"`
	SalesTotal decimal.Decimal  `json:"sales_total"`
	Total      decimal.Decimal  `json:"total"`
}

// GetCommissionReport lists commissions owed per sale
// @Summary      Commission report
// @Description  Per-sale commission lines, optionally filtered by partner and period, with totals.
// @Tags         reports
// @Produce      json
// @Param        partner_id  query     int     false  "Filter by salesperson"
// @Param        from        query     string  false  "Period start (YYYY-MM-DD)"
// @Param        to          query     string  false  "Period end (YYYY-MM-DD)"
// @Success      200         {object}  Response{data=commissionReport}
// @Router       /reports/commissions [get]
// @Security     BasicAuth
func GetCommissionReport(w http.ResponseWriter, r *http.Request) {
	query := `SELECT s.id, s.sale_date::text, s.partner_id, p.name, m.name,
		COALESCE(t.total, 0), s.commission_rate
		FROM sales s
		JOIN partners p ON s.partner_id = p.id
		LEFT JOIN merchants m ON s.merchant_id = m.id
		LEFT JOIN (SELECT sale_id, SUM(line_total) AS total FROM sale_items GROUP BY sale_id) t ON t.sale_id = s.id
		WHERE s.commission_rate > 0`
	var conditions []string
	var args []any

	if v := r.URL.Query().Get("partner_id"); v != "" {
		args = append(args, v)
		conditions = append(conditions, "s.partner_id = $"+strconv.Itoa(len(args)))
	}
	if v := r.URL.Query().Get("from"); v != "" {
		args = append(args, v)
		conditions = append(conditions, "s.sale_date >= $"+strconv.Itoa(len(args)))
	}
	if v := r.URL.Query().Get("to"); v != "" {
		args = append(args, v)
		conditions = append(conditions, "s.sale_date <= $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.sale_date DESC, s.id DESC"

	rows, err := DB.QueryContext(r.Context(), query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	rep := commissionReport{Lines: []commissionLine{}}
	hundred := decimal.NewFromInt(100)
	for rows.Next() {
		var line commissionLine
		if err := rows.Scan(&line.SaleID, &line.SaleDate, &line.PartnerID, &line.PartnerName,
			&line.MerchantName, &line.SaleTotal, &line.CommissionRate); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		line.CommissionValue = line.SaleTotal.Mul(line.CommissionRate).Div(hundred)
		rep.SalesTotal = rep.SalesTotal.Add(line.SaleTotal)
		rep.Total = rep.Total.Add(line.CommissionValue)
		rep.Lines = append(rep.Lines, line)
	}
	writeJSON(w, http.StatusOK, rep)
}
