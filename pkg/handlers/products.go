package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/services"
)

// ProductRequest for POST /api/products and PUT /api/products/{id}
type ProductRequest struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	PriceCents   int64  `json:"priceCents"`
	Stock        int    `json:"stock"`
	CategoryID   *int64 `json:"categoryId,omitempty"`
	DepartmentID int64  `json:"departmentId,omitempty"`
}

// ProductsHandler handles product catalog HTTP requests.
type ProductsHandler struct {
	productService services.ProductService
	logger         *zap.Logger
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(productService services.ProductService, logger *zap.Logger) *ProductsHandler {
	return &ProductsHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the products handler's routes on the given mux.
func (h *ProductsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	manage := authMiddleware.RequirePermission(auth.PermProductsManage)

	mux.HandleFunc("GET /api/products", manage(h.List))
	mux.HandleFunc("POST /api/products", manage(h.Create))
	mux.HandleFunc("GET /api/products/check-existence", manage(h.CheckExistence))
	mux.HandleFunc("GET /api/products/{id}", manage(h.Get))
	mux.HandleFunc("PUT /api/products/{id}", manage(h.Update))
	mux.HandleFunc("DELETE /api/products/{id}", manage(h.Delete))
}

// List handles GET /api/products
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	products, err := h.productService.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		handleServiceError(w, h.logger, err, "list_products_failed")
		return
	}
	if products == nil {
		products = []*models.Product{}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: products}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/products
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	product := &models.Product{
		Name:         req.Name,
		SKU:          req.SKU,
		PriceCents:   req.PriceCents,
		Stock:        req.Stock,
		CategoryID:   req.CategoryID,
		DepartmentID: req.DepartmentID,
	}

	created, err := h.productService.Create(r.Context(), actor, product)
	if err != nil {
		h.logger.Error("Failed to create product",
			zap.String("sku", req.SKU),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "create_product_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/products/{id}
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	product, err := h.productService.GetByID(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get_product_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: product}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/products/{id}
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	updated, err := h.productService.Update(r.Context(), actor, &models.Product{
		ID:         id,
		Name:       req.Name,
		SKU:        req.SKU,
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		h.logger.Error("Failed to update product",
			zap.Int64("product_id", id),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "update_product_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: updated}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/products/{id}
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), actor, id); err != nil {
		h.logger.Error("Failed to delete product",
			zap.Int64("product_id", id),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "delete_product_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CheckExistence handles GET /api/products/check-existence?ids=1,2,3
func (h *ProductsHandler) CheckExistence(w http.ResponseWriter, r *http.Request) {
	ids, ok := ParseIDList(w, r, h.logger)
	if !ok {
		return
	}

	existing, err := h.productService.CheckExistence(r.Context(), ids)
	if err != nil {
		h.logger.Error("Failed to check product existence", zap.Error(err))
		handleServiceError(w, h.logger, err, "check_existence_failed")
		return
	}
	if existing == nil {
		existing = []int64{}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: existing}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
