package auth

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/models"
)

// unsignedToken builds an alg:none token the way the local dev account
// service stub does.
func unsignedToken(sub, role string, deptID *int64) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := fmt.Sprintf(`{"sub":"%s","role":"%s","name":"Test User"`, sub, role)
	if deptID != nil {
		payload += fmt.Sprintf(`,"dept":%d`, *deptID)
	}
	payload += "}"
	return header + "." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + "."
}

func devAuthService(t *testing.T) AuthService {
	t.Helper()
	validator, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	require.NoError(t, err)
	return NewAuthService(validator, zap.NewNop())
}

func TestValidateRequest_BearerHeader(t *testing.T) {
	svc := devAuthService(t)

	deptID := int64(3)
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+unsignedToken("42", "manager", &deptID))

	actor, err := svc.ValidateRequest(req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), actor.ID)
	assert.Equal(t, models.RoleManager, actor.Role)
	require.NotNil(t, actor.DepartmentID)
	assert.Equal(t, int64(3), *actor.DepartmentID)
}

func TestValidateRequest_Cookie(t *testing.T) {
	svc := devAuthService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: unsignedToken("7", "superadmin", nil)})

	actor, err := svc.ValidateRequest(req)
	require.NoError(t, err)
	assert.Equal(t, int64(7), actor.ID)
	assert.Equal(t, models.RoleSuperadmin, actor.Role)
	assert.Nil(t, actor.DepartmentID)
}

func TestValidateRequest_MissingToken(t *testing.T) {
	svc := devAuthService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	_, err := svc.ValidateRequest(req)
	assert.ErrorIs(t, err, ErrMissingAuthorization)
}

func TestValidateRequest_MalformedHeader(t *testing.T) {
	svc := devAuthService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	_, err := svc.ValidateRequest(req)
	assert.ErrorIs(t, err, ErrInvalidAuthFormat)
}

func TestValidateRequest_InvalidRole(t *testing.T) {
	svc := devAuthService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+unsignedToken("42", "owner", nil))

	_, err := svc.ValidateRequest(req)
	assert.Error(t, err)
}

func TestValidateRequest_NonNumericSubject(t *testing.T) {
	svc := devAuthService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+unsignedToken("not-a-number", "admin", nil))

	_, err := svc.ValidateRequest(req)
	assert.Error(t, err)
}

func TestActorFromClaims_Snapshot(t *testing.T) {
	deptID := int64(3)
	actor := &Actor{
		ID:             42,
		Name:           "Jo",
		Email:          "jo@example.com",
		Role:           models.RoleManager,
		DepartmentID:   &deptID,
		DepartmentName: "Support",
	}

	snap := actor.Snapshot()
	assert.Equal(t, int64(42), snap.UserID)
	assert.Equal(t, "Support", snap.DepartmentName)

	// The snapshot must not alias the actor's department pointer.
	*snap.DepartmentID = 99
	assert.Equal(t, int64(3), *actor.DepartmentID)
}
