package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/services"
)

// CreateOrderRequest for POST /api/orders
type CreateOrderRequest struct {
	Number        string `json:"number"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	TotalCents    int64  `json:"totalCents"`
	DepartmentID  *int64 `json:"departmentId,omitempty"`
}

// ChangeOrderStatusRequest for PATCH /api/orders/{id}/status
type ChangeOrderStatusRequest struct {
	Status string `json:"status"`
}

// AssignOrderRequest for POST /api/orders/{id}/assign. ManagerID is
// optional; absent means the caller claims the order for themselves.
type AssignOrderRequest struct {
	ManagerID *int64 `json:"managerId,omitempty"`
}

// OrdersHandler handles order HTTP requests, including the assignment
// endpoints. Claiming is POST on the assign subresource, releasing is
// DELETE on the same path.
type OrdersHandler struct {
	orderService services.OrderService
	logger       *zap.Logger
}

// NewOrdersHandler creates a new orders handler.
func NewOrdersHandler(orderService services.OrderService, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers the orders handler's routes on the given mux.
func (h *OrdersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	view := authMiddleware.RequirePermission(auth.PermOrdersView)
	manage := authMiddleware.RequirePermission(auth.PermOrdersManage)
	assign := authMiddleware.RequirePermission(auth.PermOrdersAssign)
	release := authMiddleware.RequirePermission(auth.PermOrdersRelease)

	mux.HandleFunc("GET /api/orders", view(h.List))
	mux.HandleFunc("POST /api/orders", manage(h.Create))
	mux.HandleFunc("GET /api/orders/{id}", view(h.Get))
	mux.HandleFunc("POST /api/orders/{id}/assign", assign(h.Claim))
	mux.HandleFunc("DELETE /api/orders/{id}/assign", release(h.Release))
	mux.HandleFunc("PATCH /api/orders/{id}/status", manage(h.ChangeStatus))
}

// List handles GET /api/orders
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	orders, err := h.orderService.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		handleServiceError(w, h.logger, err, "list_orders_failed")
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: orders}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/orders
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	order := &models.Order{
		Number:        req.Number,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		TotalCents:    req.TotalCents,
		DepartmentID:  req.DepartmentID,
	}

	created, err := h.orderService.Create(r.Context(), actor, order)
	if err != nil {
		h.logger.Error("Failed to create order",
			zap.String("number", req.Number),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "create_order_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/orders/{id}
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get_order_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: order}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Claim handles POST /api/orders/{id}/assign
func (h *OrdersHandler) Claim(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	// An empty body is a plain self-claim.
	var req AssignOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	order, err := h.orderService.Claim(r.Context(), actor, id, req.ManagerID)
	if err != nil {
		h.logger.Warn("Failed to claim order",
			zap.Int64("order_id", id),
			zap.Int64("actor_id", actor.ID),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "claim_order_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: order}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Release handles DELETE /api/orders/{id}/assign
func (h *OrdersHandler) Release(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.orderService.Release(r.Context(), actor, id)
	if err != nil {
		h.logger.Warn("Failed to release order",
			zap.Int64("order_id", id),
			zap.Int64("actor_id", actor.ID),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "release_order_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: order}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ChangeStatus handles PATCH /api/orders/{id}/status
func (h *OrdersHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var req ChangeOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	order, err := h.orderService.ChangeStatus(r.Context(), actor, id, models.OrderStatus(req.Status))
	if err != nil {
		h.logger.Warn("Failed to change order status",
			zap.Int64("order_id", id),
			zap.String("status", req.Status),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "change_order_status_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: order}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
