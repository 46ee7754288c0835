package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/apperrors"
)

// Middleware provides HTTP authentication and permission middleware.
// It is thin and delegates authentication to AuthService and the access
// decision to the policy table.
type Middleware struct {
	authService AuthService
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware with the given AuthService.
func NewMiddleware(authService AuthService, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		logger:      logger,
	}
}

// RequirePermission authenticates the request, resolves the actor's scope
// for the given permission, and stores both in the request context.
// Fails closed: any token verification error yields 401; a role without
// the permission yields 403; department-scope access without a department
// yields 403 with a distinct error code.
//
// The resolved scope is the class of access only. Handlers and services
// must still check it against the concrete row's department.
func (m *Middleware) RequirePermission(perm Permission) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			actor, err := m.authService.ValidateRequest(r)
			if err != nil {
				m.unauthorized(w, "Authentication required")
				return
			}

			scope, err := ResolveActorScope(actor, perm)
			if err != nil {
				switch {
				case errors.Is(err, apperrors.ErrNoDepartmentAssigned):
					m.logger.Debug("Actor has no department for department-scoped permission",
						zap.Int64("user_id", actor.ID),
						zap.String("permission", string(perm)))
					m.writeError(w, http.StatusForbidden, "no_department_assigned",
						"A department assignment is required for this action")
				default:
					m.logger.Debug("Permission denied",
						zap.Int64("user_id", actor.ID),
						zap.String("role", string(actor.Role)),
						zap.String("permission", string(perm)))
					m.forbidden(w, "Insufficient permissions")
				}
				return
			}

			next(w, r.WithContext(WithAccess(r.Context(), actor, scope)))
		}
	}
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	m.writeError(w, http.StatusUnauthorized, "unauthorized", message)
}

// forbidden returns a 403 response with JSON error body.
func (m *Middleware) forbidden(w http.ResponseWriter, message string) {
	m.writeError(w, http.StatusForbidden, "forbidden", message)
}

func (m *Middleware) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
