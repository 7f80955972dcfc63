package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mfreitas/gestor/document"
	"github.com/mfreitas/gestor/models"
)

const productSelectQuery = `SELECT id, name, purchase_price, sale_price, created_at, updated_at FROM products`

func scanProduct(scanner interface{ Scan(...any) error }) (models.Product, error) {
	var p models.Product
	err := scanner.Scan(&p.ID, &p.Name, &p.PurchasePrice, &p.SalePrice, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// loadCatalog fetches the product list in the shape the composer consumes.
func loadCatalog(ctx context.Context) ([]document.Product, error) {
	rows, err := DB.QueryContext(ctx, productSelectQuery+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var catalog []document.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, document.Product{
			ID:            p.ID,
			Name:          p.Name,
			PurchasePrice: p.PurchasePrice,
			SalePrice:     p.SalePrice,
		})
	}
	return catalog, rows.Err()
}

// ListProducts lists all products
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        search  query     string  false  "Search by name"
// @Success      200     {object}  Response{data=[]models.Product}
// @Router       /products [get]
// @Security     BasicAuth
func ListProducts(w http.ResponseWriter, r *http.Request) {
	query := productSelectQuery
	var args []any
	if search := r.URL.Query().Get("search"); search != "" {
		query += " WHERE name ILIKE $1"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY name"

	rows, err := DB.QueryContext(r.Context(), query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		products = append(products, p)
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct retrieves a single product by ID
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  Response{data=models.Product}
// @Failure      404  {object}  Response{error=string}
// @Router       /products/{id} [get]
// @Security     BasicAuth
func GetProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	p, err := scanProduct(DB.QueryRowContext(r.Context(), productSelectQuery+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "product not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProduct creates a new product
// @Summary      Create product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        product  body      models.ProductInput  true  "Product contents"
// @Success      201      {object}  Response{data=models.Product}
// @Failure      400      {object}  Response{error=string}
// @Router       /products [post]
// @Security     BasicAuth
func CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input models.ProductInput
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
		`INSERT INTO products (name, purchase_price, sale_price) VALUES ($1, $2, $3) RETURNING id`,
		input.Name, input.PurchasePrice, input.SalePrice).Scan(&id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	p, err := scanProduct(DB.QueryRowContext(r.Context(), productSelectQuery+" WHERE id = $1", id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch created product: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProduct updates an existing product
// @Summary      Update product
// @Description  Update a product. Items already on documents keep their snapshots.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id       path      int                  true  "Product ID"
// @Param        product  body      models.ProductInput  true  "Updated product contents"
// @Success      200      {object}  Response{data=models.Product}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Router       /products/{id} [put]
// @Security     BasicAuth
func UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := DB.ExecContext(r.Context(),
		`UPDATE products SET name = $1, purchase_price = $2, sale_price = $3, updated_at = now() WHERE id = $4`,
		input.Name, input.PurchasePrice, input.SalePrice, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	p, err := scanProduct(DB.QueryRowContext(r.Context(), productSelectQuery+" WHERE id = $1", id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch updated product: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProduct deletes a product
// @Summary      Delete product
// @Description  Remove a product. Fails while document items still reference it.
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /products/{id} [delete]
// @Security     BasicAuth
func DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	res, err := DB.ExecContext(r.Context(), "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
