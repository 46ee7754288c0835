package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/services"
)

// ServiceKitRequest for POST /api/service-kits and PUT /api/service-kits/{id}
type ServiceKitRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	ProductIDs  []int64 `json:"productIds,omitempty"`
}

// ServiceKitsHandler handles service kit HTTP requests.
type ServiceKitsHandler struct {
	kitService services.ServiceKitService
	logger     *zap.Logger
}

// NewServiceKitsHandler creates a new service kits handler.
func NewServiceKitsHandler(kitService services.ServiceKitService, logger *zap.Logger) *ServiceKitsHandler {
	return &ServiceKitsHandler{
		kitService: kitService,
		logger:     logger,
	}
}

// RegisterRoutes registers the service kits handler's routes on the given mux.
func (h *ServiceKitsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	manage := authMiddleware.RequirePermission(auth.PermKitsManage)

	mux.HandleFunc("GET /api/service-kits", manage(h.List))
	mux.HandleFunc("POST /api/service-kits", manage(h.Create))
	mux.HandleFunc("GET /api/service-kits/{id}", manage(h.Get))
	mux.HandleFunc("PUT /api/service-kits/{id}", manage(h.Update))
	mux.HandleFunc("DELETE /api/service-kits/{id}", manage(h.Delete))
}

// List handles GET /api/service-kits
func (h *ServiceKitsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	kits, err := h.kitService.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("Failed to list service kits", zap.Error(err))
		handleServiceError(w, h.logger, err, "list_service_kits_failed")
		return
	}
	if kits == nil {
		kits = []*models.ServiceKit{}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: kits}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/service-kits
func (h *ServiceKitsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	var req ServiceKitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	kit := &models.ServiceKit{
		Name:        req.Name,
		Description: req.Description,
		ProductIDs:  req.ProductIDs,
	}

	created, err := h.kitService.Create(r.Context(), actor, kit)
	if err != nil {
		h.logger.Error("Failed to create service kit",
			zap.String("name", req.Name),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "create_service_kit_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/service-kits/{id}
func (h *ServiceKitsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	kit, err := h.kitService.GetByID(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get_service_kit_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: kit}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/service-kits/{id}
func (h *ServiceKitsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var req ServiceKitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	updated, err := h.kitService.Update(r.Context(), actor, &models.ServiceKit{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		ProductIDs:  req.ProductIDs,
	})
	if err != nil {
		h.logger.Error("Failed to update service kit",
			zap.Int64("kit_id", id),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "update_service_kit_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: updated}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/service-kits/{id}
func (h *ServiceKitsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.kitService.Delete(r.Context(), actor, id); err != nil {
		h.logger.Error("Failed to delete service kit",
			zap.Int64("kit_id", id),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "delete_service_kit_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
