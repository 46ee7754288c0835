package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/services"
)

// CreateDepartmentRequest for POST /api/departments
type CreateDepartmentRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	CategoryIDs []int64 `json:"categoryIds,omitempty"`
}

// UpdateDepartmentRequest for PATCH /api/departments/{id}. Every field is
// optional; one request may rename, reshuffle categories and move members
// at once, producing a single aggregate log entry.
type UpdateDepartmentRequest struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	CategoryIDs   []int64 `json:"categoryIds,omitempty"`
	AddUserIDs    []int64 `json:"addUserIds,omitempty"`
	RemoveUserIDs []int64 `json:"removeUserIds,omitempty"`
}

// DepartmentsHandler handles department management HTTP requests.
type DepartmentsHandler struct {
	departmentService services.DepartmentService
	logger            *zap.Logger
}

// NewDepartmentsHandler creates a new departments handler.
func NewDepartmentsHandler(departmentService services.DepartmentService, logger *zap.Logger) *DepartmentsHandler {
	return &DepartmentsHandler{
		departmentService: departmentService,
		logger:            logger,
	}
}

// RegisterRoutes registers the departments handler's routes on the given mux.
func (h *DepartmentsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	view := authMiddleware.RequirePermission(auth.PermDepartmentsView)
	manage := authMiddleware.RequirePermission(auth.PermDepartmentsManage)

	mux.HandleFunc("GET /api/departments", view(h.List))
	mux.HandleFunc("POST /api/departments", manage(h.Create))
	mux.HandleFunc("GET /api/departments/check-existence", view(h.CheckExistence))
	mux.HandleFunc("GET /api/departments/{id}", view(h.Get))
	mux.HandleFunc("PATCH /api/departments/{id}", manage(h.Update))
	mux.HandleFunc("DELETE /api/departments/{id}", manage(h.Delete))
}

// List handles GET /api/departments
func (h *DepartmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	depts, err := h.departmentService.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("Failed to list departments", zap.Error(err))
		handleServiceError(w, h.logger, err, "list_departments_failed")
		return
	}
	if depts == nil {
		depts = []*models.Department{}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: depts}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/departments
func (h *DepartmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	var req CreateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	dept := &models.Department{
		Name:        req.Name,
		Description: req.Description,
		CategoryIDs: req.CategoryIDs,
	}

	created, err := h.departmentService.Create(r.Context(), actor, dept)
	if err != nil {
		h.logger.Error("Failed to create department",
			zap.String("name", req.Name),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "create_department_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/departments/{id}
func (h *DepartmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	dept, err := h.departmentService.GetByID(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get_department_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: dept}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PATCH /api/departments/{id}
func (h *DepartmentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	updated, err := h.departmentService.Update(r.Context(), actor, id, services.DepartmentUpdateInput{
		Name:          req.Name,
		Description:   req.Description,
		CategoryIDs:   req.CategoryIDs,
		AddUserIDs:    req.AddUserIDs,
		RemoveUserIDs: req.RemoveUserIDs,
	})
	if err != nil {
		h.logger.Error("Failed to update department",
			zap.Int64("department_id", id),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "update_department_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: updated}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/departments/{id}
func (h *DepartmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.departmentService.Delete(r.Context(), actor, id); err != nil {
		h.logger.Error("Failed to delete department",
			zap.Int64("department_id", id),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "delete_department_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CheckExistence handles GET /api/departments/check-existence?ids=1,2,3
func (h *DepartmentsHandler) CheckExistence(w http.ResponseWriter, r *http.Request) {
	ids, ok := ParseIDList(w, r, h.logger)
	if !ok {
		return
	}

	existing, err := h.departmentService.CheckExistence(r.Context(), ids)
	if err != nil {
		h.logger.Error("Failed to check department existence", zap.Error(err))
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
