// Package auth provides JWT-based authentication and the permission policy
// for backoffice-engine. Tokens are issued by the account service and
// validated against its JWKS endpoints.
package auth

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brightmall/backoffice-engine/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ActorKey is the context key for storing the authenticated actor.
	ActorKey contextKey = "actor"
	// ScopeKey is the context key for storing the resolved access scope.
	ScopeKey contextKey = "scope"
)

// Claims represents the JWT claims structure from the account service.
// It embeds RegisteredClaims for standard JWT fields (sub, iss, exp, etc.)
// and adds custom claims for role and department context.
type Claims struct {
	jwt.RegisteredClaims
	Role           string `json:"role,omitempty"`
	DepartmentID   *int64 `json:"dept,omitempty"`
	DepartmentName string `json:"dept_name,omitempty"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
}

// Actor is the authenticated caller derived from validated claims.
// It exists only for the lifetime of a request.
type Actor struct {
	ID             int64
	Name           string
	Email          string
	Role           models.Role
	DepartmentID   *int64
	DepartmentName string
}

// Snapshot freezes the actor's displayable fields for a change log entry.
func (a *Actor) Snapshot() models.ActorSnapshot {
	var deptID *int64
	if a.DepartmentID != nil {
		v := *a.DepartmentID
		deptID = &v
	}
	return models.ActorSnapshot{
		UserID:         a.ID,
		Name:           a.Name,
		Email:          a.Email,
		Role:           a.Role,
		DepartmentID:   deptID,
		DepartmentName: a.DepartmentName,
	}
}

// ActorFromClaims builds an Actor from validated claims.
// The subject carries the user id as a decimal string.
func ActorFromClaims(claims *Claims) (*Actor, error) {
	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject in JWT claims")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid subject %q: %w", claims.Subject, err)
	}

	role := models.Role(claims.Role)
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("invalid role %q in JWT claims", claims.Role)
	}

	return &Actor{
		ID:             id,
		Name:           claims.Name,
		Email:          claims.Email,
		Role:           role,
		DepartmentID:   claims.DepartmentID,
		DepartmentName: claims.DepartmentName,
	}, nil
}

// GetActor retrieves the authenticated actor from the request context.
// Returns nil and false if not present.
func GetActor(ctx context.Context) (*Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(*Actor)
	return actor, ok
}

// GetScope retrieves the resolved access scope from the request context.
// Returns empty scope and false if not present.
func GetScope(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(Scope)
	return scope, ok
}

// WithAccess stores the actor and resolved scope in the context.
// Exposed for tests that exercise handlers without the middleware.
func WithAccess(ctx context.Context, actor *Actor, scope Scope) context.Context {
	ctx = context.WithValue(ctx, ActorKey, actor)
	return context.WithValue(ctx, ScopeKey, scope)
}
