package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/services"
)

// CreateBookingRequest for POST /api/bookings
type CreateBookingRequest struct {
	CustomerName string    `json:"customerName"`
	ServiceKitID *int64    `json:"serviceKitId,omitempty"`
	ScheduledAt  time.Time `json:"scheduledAt"`
}

// ChangeBookingStatusRequest for PATCH /api/bookings/{id}/status
type ChangeBookingStatusRequest struct {
	Status string `json:"status"`
}

// BookingsHandler handles booking HTTP requests.
type BookingsHandler struct {
	bookingService services.BookingService
	logger         *zap.Logger
}

// NewBookingsHandler creates a new bookings handler.
func NewBookingsHandler(bookingService services.BookingService, logger *zap.Logger) *BookingsHandler {
	return &BookingsHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// RegisterRoutes registers the bookings handler's routes on the given mux.
func (h *BookingsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	view := authMiddleware.RequirePermission(auth.PermBookingsView)
	manage := authMiddleware.RequirePermission(auth.PermBookingsManage)

	mux.HandleFunc("GET /api/bookings", view(h.List))
	mux.HandleFunc("POST /api/bookings", manage(h.Create))
	mux.HandleFunc("GET /api/bookings/{id}", view(h.Get))
	mux.HandleFunc("PATCH /api/bookings/{id}/status", manage(h.ChangeStatus))
	mux.HandleFunc("DELETE /api/bookings/{id}", manage(h.Delete))
}

// List handles GET /api/bookings
func (h *BookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	bookings, err := h.bookingService.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("Failed to list bookings", zap.Error(err))
		handleServiceError(w, h.logger, err, "list_bookings_failed")
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: bookings}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/bookings
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	booking := &models.Booking{
		CustomerName: req.CustomerName,
		ServiceKitID: req.ServiceKitID,
		ScheduledAt:  req.ScheduledAt,
	}

	created, err := h.bookingService.Create(r.Context(), actor, booking)
	if err != nil {
		h.logger.Error("Failed to create booking",
			zap.String("customer", req.CustomerName),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "create_booking_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/bookings/{id}
func (h *BookingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetByID(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get_booking_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: booking}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ChangeStatus handles PATCH /api/bookings/{id}/status
func (h *BookingsHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var req ChangeBookingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	booking, err := h.bookingService.ChangeStatus(r.Context(), actor, id, models.BookingStatus(req.Status))
	if err != nil {
		h.logger.Warn("Failed to change booking status",
			zap.Int64("booking_id", id),
			zap.String("status", req.Status),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "change_booking_status_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: booking}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/bookings/{id}
func (h *BookingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.bookingService.Delete(r.Context(), actor, id); err != nil {
		h.logger.Error("Failed to delete booking",
			zap.Int64("booking_id", id),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "delete_booking_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
