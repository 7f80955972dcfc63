package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

type dashboardData struct {
	TotalMerchants   int `json:"total_merchants"`
	TotalPartners    int `json:"total_partners"`
	TotalProducts    int `json:"total_products"`
	TotalSales       int `json:"total_sales"`
	TotalPurchases   int `json:"total_purchases"`
	TotalWithdrawals int `json:"total_withdrawals"`

	PeriodFrom       string          `json:"period_from"`
	PeriodTo         string          `json:"period_to"`
	SalesTotal       decimal.Decimal `json:"sales_total"`
	PurchasesTotal   decimal.Decimal `json:"purchases_total"`
	WithdrawalsTotal decimal.Decimal `json:"withdrawals_total"`
	CommissionsTotal decimal.Decimal `json:"commissions_total"`

	Receivable decimal.Decimal `json:"receivable"` // unpaid balance across all sales
	Payable    decimal.Decimal `json:"payable"`    // unpaid balance across all purchases

	RecentSales []map[string]any `json:"recent_sales"`
}

// GetDashboard retrieves dashboard summary statistics
// @Summary      Get dashboard
// @Description  Entity counts, current-period totals (defaults to the current month), open receivable/payable balances and recent sales.
// @Tags         dashboard
// @Produce      json
// @Param        from  query     string  false  "Period start (YYYY-MM-DD)"
// @Param        to    query     string  false  "Period end (YYYY-MM-DD)"
// @Success      200   {object}  Response{data=dashboardData}
// @Router       /dashboard [get]
// @Security     BasicAuth
func GetDashboard(w http.ResponseWriter, r *http.Request) {
	var d dashboardData
	ctx := r.Context()

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		now := time.Now()
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format("2006-01-02")
		to = now.Format("2006-01-02")
	}
	d.PeriodFrom, d.PeriodTo = from, to

	DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM merchants").Scan(&d.TotalMerchants)
	DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM partners").Scan(&d.TotalPartners)
	DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&d.TotalProducts)
	DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM sales").Scan(&d.TotalSales)
	DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM purchases").Scan(&d.TotalPurchases)
	DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM withdrawals").Scan(&d.TotalWithdrawals)

	DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(si.line_total), 0)
		FROM sales s JOIN sale_items si ON si.sale_id = s.id
		WHERE s.sale_date BETWEEN $1 AND $2`, from, to).Scan(&d.SalesTotal)
	DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(pi.line_total), 0)
		FROM purchases p JOIN purchase_items pi ON pi.purchase_id = p.id
		WHERE p.purchase_date BETWEEN $1 AND $2`, from, to).Scan(&d.PurchasesTotal)
	DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0)
		FROM withdrawals WHERE withdraw_date BETWEEN $1 AND $2`, from, to).Scan(&d.WithdrawalsTotal)
	DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(t.total * s.commission_rate / 100), 0)
		FROM sales s
		JOIN (SELECT sale_id, SUM(line_total) AS total FROM sale_items GROUP BY sale_id) t ON t.sale_id = s.id
		WHERE s.sale_date BETWEEN $1 AND $2`, from, to).Scan(&d.CommissionsTotal)

	DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(
		(SELECT COALESCE(SUM(si.line_total), 0) FROM sale_items si WHERE si.sale_id = s.id)
		- (SELECT COALESCE(SUM(sp.amount), 0) FROM sale_payments sp WHERE sp.sale_id = s.id)), 0)
		FROM sales s`).Scan(&d.Receivable)
	DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(
		(SELECT COALESCE(SUM(pi.line_total), 0) FROM purchase_items pi WHERE pi.purchase_id = p.id)
		- (SELECT COALESCE(SUM(pp.amount), 0) FROM purchase_payments pp WHERE pp.purchase_id = p.id)), 0)
		FROM purchases p`).Scan(&d.Payable)

	// Recent 5 sales
	rows, err := DB.QueryContext(ctx, `SELECT s.id, s.sale_date::text, m.name,
		COALESCE((SELECT SUM(si.line_total) FROM sale_items si WHERE si.sale_id = s.id), 0)
		FROM sales s LEFT JOIN merchants m ON s.merchant_id = m.id
		ORDER BY s.created_at DESC LIMIT 5`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var id int
			var date string
			var merchant *string
			var total decimal.Decimal
			rows.Scan(&id, &date, &merchant, &total)
			d.RecentSales = append(d.RecentSales, map[string]any{
				"id":            id,
				"sale_date":     date,
				"merchant_name": merchant,
				"total":         total,
			})
		}
	}
	if d.RecentSales == nil {
		d.RecentSales = []map[string]any{}
	}

	writeJSON(w, http.StatusOK, d)
}
