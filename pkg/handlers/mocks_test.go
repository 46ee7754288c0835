package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"

	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/services"
)

// authedRequest builds a request that looks like it passed the auth
// middleware: actor and scope are stored in the context.
func authedRequest(method, target string, body io.Reader, actor *auth.Actor, scope auth.Scope) *http.Request {
	r := httptest.NewRequest(method, target, body)
	return r.WithContext(auth.WithAccess(r.Context(), actor, scope))
}

func testManager() *auth.Actor {
	deptID := int64(3)
	return &auth.Actor{ID: 7, Name: "Manager", Role: models.RoleManager, DepartmentID: &deptID}
}

// mockOrderService delegates to injectable funcs; unset methods panic so a
// test cannot silently exercise the wrong path.
type mockOrderService struct {
	createFn       func(ctx context.Context, actor *auth.Actor, order *models.Order) (*models.Order, error)
	getFn          func(ctx context.Context, actor *auth.Actor, id int64) (*models.Order, error)
	listFn         func(ctx context.Context, actor *auth.Actor) ([]*models.Order, error)
	claimFn        func(ctx context.Context, actor *auth.Actor, orderID int64, managerID *int64) (*models.Order, error)
	releaseFn      func(ctx context.Context, actor *auth.Actor, orderID int64) (*models.Order, error)
	changeStatusFn func(ctx context.Context, actor *auth.Actor, orderID int64, status models.OrderStatus) (*models.Order, error)
}

func (m *mockOrderService) Create(ctx context.Context, actor *auth.Actor, order *models.Order) (*models.Order, error) {
	return m.createFn(ctx, actor, order)
}

func (m *mockOrderService) GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.Order, error) {
	return m.getFn(ctx, actor, id)
}

func (m *mockOrderService) List(ctx context.Context, actor *auth.Actor) ([]*models.Order, error) {
	return m.listFn(ctx, actor)
}

func (m *mockOrderService) Claim(ctx context.Context, actor *auth.Actor, orderID int64, managerID *int64) (*models.Order, error) {
	return m.claimFn(ctx, actor, orderID, managerID)
}

func (m *mockOrderService) Release(ctx context.Context, actor *auth.Actor, orderID int64) (*models.Order, error) {
	return m.releaseFn(ctx, actor, orderID)
}

func (m *mockOrderService) ChangeStatus(ctx context.Context, actor *auth.Actor, orderID int64, status models.OrderStatus) (*models.Order, error) {
	return m.changeStatusFn(ctx, actor, orderID, status)
}

var _ services.OrderService = (*mockOrderService)(nil)

// mockChangeLogService serves a canned listing and remembers what it was
// asked for.
type mockChangeLogService struct {
	entries []*models.ChangeLogEntry
	total   int
	err     error

	gotKind    models.EntityKind
	gotFilters models.ChangeLogFilters
}

func (m *mockChangeLogService) Record(ctx context.Context, actor models.ActorSnapshot, changes ...services.Change) ([]uuid.UUID, error) {
	panic("not used in handler tests")
}

func (m *mockChangeLogService) List(ctx context.Context, kind models.EntityKind, filters models.ChangeLogFilters) ([]*models.ChangeLogEntry, int, error) {
	m.gotKind = kind
	m.gotFilters = filters
	return m.entries, m.total, m.err
}

var _ services.ChangeLogService = (*mockChangeLogService)(nil)
