package main

//go:generate swag init

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/mfreitas/gestor/db"
	_ "github.com/mfreitas/gestor/docs"
	"github.com/mfreitas/gestor/handlers"
)

// @title           Gestor API
// @version         1.0.0
// @description     Small-business management API: sales, purchases, payments, merchants, partners, products, cost centers and reports.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.basic  BasicAuth

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	// Configure structured logging
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	// Open database
	database, err := db.Open()
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Run migrations
	if err := db.Migrate(database); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Set shared DB for handlers
	handlers.DB = database

	// Router setup
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// API routes with basic auth
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handlers.BasicAuth)

		// Merchants (customers and suppliers)
		r.Get("/merchants", handlers.ListMerchants)
		r.Post("/merchants", handlers.CreateMerchant)
		r.Get("/merchants/{id}", handlers.GetMerchant)
		r.Put("/merchants/{id}", handlers.UpdateMerchant)
		r.Delete("/merchants/{id}", handlers.DeleteMerchant)

		// Partners (salespeople)
		r.Get("/partners", handlers.ListPartners)
		r.Post("/partners", handlers.CreatePartner)
		r.Get("/partners/{id}", handlers.GetPartner)
		r.Put("/partners/{id}", handlers.UpdatePartner)
		r.Delete("/partners/{id}", handlers.DeletePartner)

		// Products
		r.Get("/products", handlers.ListProducts)
		r.Post("/products", handlers.CreateProduct)
		r.Get("/products/{id}", handlers.GetProduct)
		r.Put("/products/{id}", handlers.UpdateProduct)
		r.Delete("/products/{id}", handlers.DeleteProduct)

		// Cost centers
		r.Get("/cost-centers", handlers.ListCostCenters)
		r.Post("/cost-centers", handlers.CreateCostCenter)
		r.Get("/cost-centers/{id}", handlers.GetCostCenter)
		r.Put("/cost-centers/{id}", handlers.UpdateCostCenter)
		r.Delete("/cost-centers/{id}", handlers.DeleteCostCenter)

		// Sales
		r.Get("/sales", handlers.ListSales)
		r.Post("/sales", handlers.CreateSale)
		r.Get("/sales/{id}", handlers.GetSale)
		r.Put("/sales/{id}", handlers.UpdateSale)
		r.Delete("/sales/{id}", handlers.DeleteSale)

		// Sale payments
		r.Get("/sales/{id}/payments", handlers.ListSalePayments)
		r.Post("/sales/{id}/payments", handlers.CreateSalePayment)
		r.Put("/sales/{id}/payments/{paymentID}", handlers.UpdateSalePayment)
		r.Delete("/sales/{id}/payments/{paymentID}", handlers.DeleteSalePayment)

		// Purchases
		r.Get("/purchases", handlers.ListPurchases)
		r.Post("/purchases", handlers.CreatePurchase)
		r.Get("/purchases/{id}", handlers.GetPurchase)
		r.Put("/purchases/{id}", handlers.UpdatePurchase)
		r.Delete("/purchases/{id}", handlers.DeletePurchase)

		// Purchase payments
		r.Get("/purchases/{id}/payments", handlers.ListPurchasePayments)
		r.Post("/purchases/{id}/payments", handlers.CreatePurchasePayment)
		r.Put("/purchases/{id}/payments/{paymentID}", handlers.UpdatePurchasePayment)
		r.Delete("/purchases/{id}/payments/{paymentID}", handlers.DeletePurchasePayment)

		// Withdrawals
		r.Get("/withdrawals", handlers.ListWithdrawals)
		r.Post("/withdrawals", handlers.CreateWithdrawal)
		r.Get("/withdrawals/{id}", handlers.GetWithdrawal)
		r.Put("/withdrawals/{id}", handlers.UpdateWithdrawal)
		r.Delete("/withdrawals/{id}", handlers.DeleteWithdrawal)

		// Dashboard and reports
		r.Get("/dashboard", handlers.GetDashboard)
		r.Get("/reports/financial", handlers.GetFinancialReport)
		r.Get("/reports/commissions", handlers.GetCommissionReport)
	})

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := fmt.Sprintf(":%s", port)
	slog.Info("server starting", "address", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
