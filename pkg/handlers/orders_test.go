package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/apperrors"
	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
)

func TestOrdersHandler_Claim(t *testing.T) {
	managerID := int64(7)
	svc := &mockOrderService{
		claimFn: func(ctx context.Context, actor *auth.Actor, orderID int64, target *int64) (*models.Order, error) {
			assert.Equal(t, int64(5), orderID)
			assert.Nil(t, target)
			return &models.Order{ID: 5, Number: "ORD-5", Status: models.OrderStatusNew, ManagerID: &managerID}, nil
		},
	}
	h := NewOrdersHandler(svc, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/orders/5/assign", nil, testManager(), auth.ScopeOwn)
	req.SetPathValue("id", "5")
	rec := httptest.NewRecorder()

	h.Claim(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool         `json:"success"`
		Data    models.Order `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data.ManagerID)
	assert.Equal(t, int64(7), *resp.Data.ManagerID)
}

func TestOrdersHandler_Claim_NamedManager(t *testing.T) {
	svc := &mockOrderService{
		claimFn: func(ctx context.Context, actor *auth.Actor, orderID int64, target *int64) (*models.Order, error) {
			require.NotNil(t, target)
			assert.Equal(t, int64(9), *target)
			return &models.Order{ID: 5, Number: "ORD-5", Status: models.OrderStatusNew, ManagerID: target}, nil
		},
	}
	h := NewOrdersHandler(svc, zap.NewNop())

	deptID := int64(3)
	admin := &auth.Actor{ID: 2, Name: "Admin", Role: models.RoleAdmin, DepartmentID: &deptID}
	body := strings.NewReader(`{"managerId":9}`)
	req := authedRequest(http.MethodPost, "/api/orders/5/assign", body, admin, auth.ScopeDepartment)
	req.SetPathValue("id", "5")
	rec := httptest.NewRecorder()

	h.Claim(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrdersHandler_Claim_BadBody(t *testing.T) {
	h := NewOrdersHandler(&mockOrderService{}, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/orders/5/assign", strings.NewReader("{"), testManager(), auth.ScopeOwn)
	req.SetPathValue("id", "5")
	rec := httptest.NewRecorder()

	h.Claim(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersHandler_Claim_AlreadyAssigned(t *testing.T) {
	svc := &mockOrderService{
		claimFn: func(ctx context.Context, actor *auth.Actor, orderID int64, target *int64) (*models.Order, error) {
			return nil, apperrors.ErrInvalidStateTransition
		},
	}
	h := NewOrdersHandler(svc, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/orders/5/assign", nil, testManager(), auth.ScopeOwn)
	req.SetPathValue("id", "5")
	rec := httptest.NewRecorder()

	h.Claim(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "invalid_state_transition", body["error"])
}

func TestOrdersHandler_Claim_OutOfScope(t *testing.T) {
	// The service reports out-of-scope orders as not found; the handler
	// must pass that through as 404.
	svc := &mockOrderService{
		claimFn: func(ctx context.Context, actor *auth.Actor, orderID int64, target *int64) (*models.Order, error) {
			return nil, apperrors.ErrNotFound
		},
	}
	h := NewOrdersHandler(svc, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/orders/5/assign", nil, testManager(), auth.ScopeOwn)
	req.SetPathValue("id", "5")
	rec := httptest.NewRecorder()

	h.Claim(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrdersHandler_Claim_InvalidID(t *testing.T) {
	h := NewOrdersHandler(&mockOrderService{}, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/orders/abc/assign", nil, testManager(), auth.ScopeOwn)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()

	h.Claim(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "invalid_id", body["error"])
}

func TestOrdersHandler_Release_Forbidden(t *testing.T) {
	svc := &mockOrderService{
		releaseFn: func(ctx context.Context, actor *auth.Actor, orderID int64) (*models.Order, error) {
			return nil, apperrors.ErrForbidden
		},
	}
	h := NewOrdersHandler(svc, zap.NewNop())

	req := authedRequest(http.MethodDelete, "/api/orders/5/assign", nil, testManager(), auth.ScopeOwn)
	req.SetPathValue("id", "5")
	rec := httptest.NewRecorder()

	h.Release(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "forbidden", body["error"])
}

func TestOrdersHandler_ChangeStatus(t *testing.T) {
	svc := &mockOrderService{
		changeStatusFn: func(ctx context.Context, actor *auth.Actor, orderID int64, status models.OrderStatus) (*models.Order, error) {
			assert.Equal(t, models.OrderStatusInWork, status)
			return &models.Order{ID: 5, Number: "ORD-5", Status: status}, nil
		},
	}
	h := NewOrdersHandler(svc, zap.NewNop())

	body := strings.NewReader(`{"status":"in_work"}`)
	req := authedRequest(http.MethodPatch, "/api/orders/5/status", body, testManager(), auth.ScopeOwn)
	req.SetPathValue("id", "5")
	rec := httptest.NewRecorder()

	h.ChangeStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool         `json:"success"`
		Data    models.Order `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, models.OrderStatusInWork, resp.Data.Status)
}

func TestOrdersHandler_ChangeStatus_BadBody(t *testing.T) {
	h := NewOrdersHandler(&mockOrderService{}, zap.NewNop())

	req := authedRequest(http.MethodPatch, "/api/orders/5/status", strings.NewReader("{"), testManager(), auth.ScopeOwn)
	req.SetPathValue("id", "5")
	rec := httptest.NewRecorder()

	h.ChangeStatus(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersHandler_List_EmptyIsArray(t *testing.T) {
	svc := &mockOrderService{
		listFn: func(ctx context.Context, actor *auth.Actor) ([]*models.Order, error) {
			return nil, nil
		},
	}
	h := NewOrdersHandler(svc, zap.NewNop())

	req := authedRequest(http.MethodGet, "/api/orders", nil, testManager(), auth.ScopeDepartment)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// Clients get an empty array, never null.
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}
