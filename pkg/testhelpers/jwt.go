package testhelpers

import (
	"encoding/base64"
	"fmt"
)

// GenerateTestJWT creates a test JWT token for use when verification is
// disabled. The token has a valid structure but no signature (alg: none).
// This is useful for testing auth flows without needing real JWKS validation.
func GenerateTestJWT(sub, role, name string, departmentID *int64) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	payload := fmt.Sprintf(`{"sub":"%s","role":"%s"`, sub, role)
	if name != "" {
		payload += fmt.Sprintf(`,"name":"%s"`, name)
	}
	if departmentID != nil {
		payload += fmt.Sprintf(`,"dept":%d`, *departmentID)
	}
	payload += "}"

	encodedPayload := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return fmt.Sprintf("%s.%s.", header, encodedPayload)
}

// GenerateTestJWTWithBearer returns token with "Bearer " prefix for
// Authorization header.
func GenerateTestJWTWithBearer(sub, role, name string, departmentID *int64) string {
	return "Bearer " + GenerateTestJWT(sub, role, name, departmentID)
}
