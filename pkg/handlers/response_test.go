package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/apperrors"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"no department", apperrors.ErrNoDepartmentAssigned, http.StatusForbidden, "no_department_assigned"},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"invalid transition", apperrors.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition"},
		{"conflict", apperrors.ErrConflict, http.StatusConflict, "conflict"},
		{"invalid input", apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{"unknown", errors.New("pg: connection reset"), http.StatusInternalServerError, "op_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, zap.NewNop(), tt.err, "op_failed")

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func TestHandleServiceError_WrappedSentinel(t *testing.T) {
	// Services wrap sentinels with context; the mapping must survive that.
	rec := httptest.NewRecorder()
	wrapped := errors.Join(errors.New("claim order 5"), apperrors.ErrInvalidStateTransition)
	handleServiceError(rec, zap.NewNop(), wrapped, "op_failed")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWriteJSON_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteJSON(rec, http.StatusCreated, ApiResponse{Success: true, Data: map[string]int{"id": 5}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"success":true`)
}
