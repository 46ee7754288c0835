package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/services"
)

// CategoryRequest for POST /api/categories and PUT /api/categories/{id}
type CategoryRequest struct {
	Name         string `json:"name"`
	DepartmentID *int64 `json:"departmentId,omitempty"`
}

// CategoriesHandler handles category HTTP requests.
type CategoriesHandler struct {
	categoryService services.CategoryService
	logger          *zap.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(categoryService services.CategoryService, logger *zap.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// RegisterRoutes registers the categories handler's routes on the given mux.
func (h *CategoriesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	manage := authMiddleware.RequirePermission(auth.PermCategoriesManage)

	mux.HandleFunc("GET /api/categories", manage(h.List))
	mux.HandleFunc("POST /api/categories", manage(h.Create))
	mux.HandleFunc("GET /api/categories/check-existence", manage(h.CheckExistence))
	mux.HandleFunc("GET /api/categories/{id}", manage(h.Get))
	mux.HandleFunc("PUT /api/categories/{id}", manage(h.Update))
	mux.HandleFunc("DELETE /api/categories/{id}", manage(h.Delete))
}

// List handles GET /api/categories
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	categories, err := h.categoryService.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		handleServiceError(w, h.logger, err, "list_categories_failed")
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: categories}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/categories
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	category := &models.Category{
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
	}

	created, err := h.categoryService.Create(r.Context(), actor, category)
	if err != nil {
		h.logger.Error("Failed to create category",
			zap.String("name", req.Name),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "create_category_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/categories/{id}
func (h *CategoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	category, err := h.categoryService.GetByID(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get_category_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: category}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/categories/{id}
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	updated, err := h.categoryService.Update(r.Context(), actor, &models.Category{
		ID:   id,
		Name: req.Name,
	})
	if err != nil {
		h.logger.Error("Failed to update category",
			zap.Int64("category_id", id),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "update_category_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: updated}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/categories/{id}
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.categoryService.Delete(r.Context(), actor, id); err != nil {
		h.logger.Error("Failed to delete category",
			zap.Int64("category_id", id),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "delete_category_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CheckExistence handles GET /api/categories/check-existence?ids=1,2,3
func (h *CategoriesHandler) CheckExistence(w http.ResponseWriter, r *http.Request) {
	ids, ok := ParseIDList(w, r, h.logger)
	if !ok {
		return
	}

	existing, err := h.categoryService.CheckExistence(r.Context(), ids)
	if err != nil {
		h.logger.Error("Failed to check category existence", zap.Error(err))
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
