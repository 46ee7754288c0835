package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
)

// sessionCookieName is where browser clients carry the JWT.
const sessionCookieName = "backoffice_jwt"

// AuthService defines the interface for authentication operations.
// This abstraction separates HTTP handling from authentication logic,
// making both easier to test.
type AuthService interface {
	// ValidateRequest extracts and validates a JWT from the request.
	// It checks for the token in:
	//   1. Cookie named "backoffice_jwt" (browser clients)
	//   2. Authorization header with "Bearer" scheme (API clients)
	// Returns the authenticated actor or an error.
	ValidateRequest(r *http.Request) (*Actor, error)
}

type authService struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService with the given token validator.
func NewAuthService(validator TokenValidator, logger *zap.Logger) AuthService {
	return &authService{
		validator: validator,
		logger:    logger,
	}
}

// ValidateRequest extracts and validates a JWT from the request.
func (s *authService) ValidateRequest(r *http.Request) (*Actor, error) {
	var tokenString string
	var tokenSource string

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		tokenString = cookie.Value
		tokenSource = "cookie"
	} else {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.logger.Debug("No JWT found in request",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method))
			return nil, ErrMissingAuthorization
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.logger.Debug("Invalid Authorization header format",
				zap.String("path", r.URL.Path))
			return nil, ErrInvalidAuthFormat
		}
		tokenString = parts[1]
		tokenSource = "header"
	}

	claims, err := s.validator.ValidateToken(tokenString)
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("token_source", tokenSource))
		return nil, err
	}

	actor, err := ActorFromClaims(claims)
	if err != nil {
		s.logger.Debug("Rejected token with malformed identity claims",
			zap.Error(err),
			zap.String("path", r.URL.Path))
		return nil, err
	}

	return actor, nil
}

// Ensure authService implements AuthService at compile time.
var _ AuthService = (*authService)(nil)
