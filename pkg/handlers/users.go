package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/services"
)

// CreateUserRequest for POST /api/users
type CreateUserRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	DepartmentID *int64 `json:"departmentId,omitempty"`
}

// UpdateUserRequest for PUT /api/users/{id}
type UpdateUserRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	DepartmentID *int64 `json:"departmentId,omitempty"`
}

// UsersHandler handles user management HTTP requests.
type UsersHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	view := authMiddleware.RequirePermission(auth.PermUsersView)
	manage := authMiddleware.RequirePermission(auth.PermUsersManage)

	mux.HandleFunc("GET /api/users", view(h.List))
	mux.HandleFunc("POST /api/users", manage(h.Create))
	mux.HandleFunc("GET /api/users/check-existence", view(h.CheckExistence))
	mux.HandleFunc("GET /api/users/{id}", view(h.Get))
	mux.HandleFunc("PUT /api/users/{id}", manage(h.Update))
	mux.HandleFunc("DELETE /api/users/{id}", manage(h.Delete))
}

// List handles GET /api/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	users, err := h.userService.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		handleServiceError(w, h.logger, err, "list_users_failed")
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: users}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user := &models.User{
		Email:        req.Email,
		Name:         req.Name,
		Role:         models.Role(req.Role),
		DepartmentID: req.DepartmentID,
	}

	created, err := h.userService.Create(r.Context(), actor, user)
	if err != nil {
		h.logger.Error("Failed to create user",
			zap.String("email", req.Email),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "create_user_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get_user_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/users/{id}
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user := &models.User{
		ID:           id,
		Email:        req.Email,
		Name:         req.Name,
		Role:         models.Role(req.Role),
		DepartmentID: req.DepartmentID,
	}

	updated, err := h.userService.Update(r.Context(), actor, user)
	if err != nil {
		h.logger.Error("Failed to update user",
			zap.Int64("user_id", id),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "update_user_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: updated}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/users/{id}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.GetActor(r.Context())

	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), actor, id); err != nil {
		h.logger.Error("Failed to delete user",
			zap.Int64("user_id", id),
			zap.Error(err))
		handleServiceError(w, h.logger, err, "delete_user_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CheckExistence handles GET /api/users/check-existence?ids=1,2,3
// Returns the full records of the users that exist; ids with no matching
// user are simply absent from the result.
func (h *UsersHandler) CheckExistence(w http.ResponseWriter, r *http.Request) {
	ids, ok := ParseIDList(w, r, h.logger)
	if !ok {
		return
	}

	users, err := h.userService.CheckExistence(r.Context(), ids)
	if err != nil {
		h.logger.Error("Failed to check user existence", zap.Error(err))
		handleServiceError(w, h.logger, err, "check_existence_failed")
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: users}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
