package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/brightmall/backoffice-engine/pkg/apperrors"
	"github.com/brightmall/backoffice-engine/pkg/models"
)

// nopTx runs the function directly, without a transaction.
type nopTx struct{}

func (nopTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// mockChangeLogRepo collects created entries in memory.
type mockChangeLogRepo struct {
	entries []*models.ChangeLogEntry
}

func (m *mockChangeLogRepo) Create(ctx context.Context, entry *models.ChangeLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockChangeLogRepo) ListByKind(ctx context.Context, kind models.EntityKind, filters models.ChangeLogFilters) ([]*models.ChangeLogEntry, int, error) {
	var result []*models.ChangeLogEntry
	for _, e := range m.entries {
		if e.EntityKind == kind {
			result = append(result, e)
		}
	}
	return result, len(result), nil
}

// recordingChangeLog implements ChangeLogService and remembers every
// recorded change in order, so tests can inspect cascades.
type recordingChangeLog struct {
	actor   models.ActorSnapshot
	changes []Change
}

func (m *recordingChangeLog) Record(ctx context.Context, actor models.ActorSnapshot, changes ...Change) ([]uuid.UUID, error) {
	m.actor = actor
	m.changes = append(m.changes, changes...)
	ids := make([]uuid.UUID, len(changes))
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids, nil
}

func (m *recordingChangeLog) List(ctx context.Context, kind models.EntityKind, filters models.ChangeLogFilters) ([]*models.ChangeLogEntry, int, error) {
	return nil, 0, nil
}

// mockUserRepo keeps users in a map keyed by id.
type mockUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	// IDs start above the range tests use for actor ids.
	return &mockUserRepo{users: make(map[int64]*models.User), nextID: 100}
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(ctx context.Context, departmentID *int64) ([]*models.User, error) {
	var result []*models.User
	for _, u := range m.users {
		if departmentID == nil || (u.DepartmentID != nil && *u.DepartmentID == *departmentID) {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockUserRepo) ListByDepartment(ctx context.Context, departmentID int64) ([]*models.User, error) {
	return m.List(ctx, &departmentID)
}

func (m *mockUserRepo) SetDepartment(ctx context.Context, userID int64, departmentID *int64) error {
	user, ok := m.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.DepartmentID = departmentID
	return nil
}

func (m *mockUserRepo) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	var result []*models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}

// mockDeptRepo keeps departments in memory. Membership is derived from the
// attached user repo so SetDepartment is reflected in MemberIDs.
type mockDeptRepo struct {
	depts      map[int64]*models.Department
	orderCount map[int64]int
	users      *mockUserRepo
	nextID     int64
}

func newMockDeptRepo(users *mockUserRepo) *mockDeptRepo {
	return &mockDeptRepo{
		depts:      make(map[int64]*models.Department),
		orderCount: make(map[int64]int),
		users:      users,
		nextID:     1,
	}
}

func (m *mockDeptRepo) Create(ctx context.Context, dept *models.Department) error {
	dept.ID = m.nextID
	m.nextID++
	m.depts[dept.ID] = dept
	return nil
}

func (m *mockDeptRepo) GetByID(ctx context.Context, id int64) (*models.Department, error) {
	dept, ok := m.depts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return dept, nil
}

func (m *mockDeptRepo) Update(ctx context.Context, dept *models.Department) error {
	if _, ok := m.depts[dept.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.depts[dept.ID] = dept
	return nil
}

func (m *mockDeptRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.depts[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.depts, id)
	return nil
}

func (m *mockDeptRepo) List(ctx context.Context) ([]*models.Department, error) {
	var result []*models.Department
	for _, d := range m.depts {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockDeptRepo) MemberIDs(ctx context.Context, id int64) ([]int64, error) {
	var ids []int64
	for _, u := range m.users.users {
		if u.DepartmentID != nil && *u.DepartmentID == id {
			ids = append(ids, u.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *mockDeptRepo) CountOrders(ctx context.Context, id int64) (int, error) {
	return m.orderCount[id], nil
}

func (m *mockDeptRepo) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	var existing []int64
	for _, id := range ids {
		if _, ok := m.depts[id]; ok {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

// mockOrderRepo keeps orders in memory.
type mockOrderRepo struct {
	orders map[int64]*models.Order
	nextID int64
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[int64]*models.Order), nextID: 1}
}

func (m *mockOrderRepo) Create(ctx context.Context, order *models.Order) error {
	order.ID = m.nextID
	m.nextID++
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return order, nil
}

func (m *mockOrderRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	return m.GetByID(ctx, id)
}

func (m *mockOrderRepo) List(ctx context.Context, departmentID *int64) ([]*models.Order, error) {
	var result []*models.Order
	for _, o := range m.orders {
		if departmentID == nil || (o.DepartmentID != nil && *o.DepartmentID == *departmentID) {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockOrderRepo) SetManager(ctx context.Context, orderID int64, managerID *int64) error {
	order, ok := m.orders[orderID]
	if !ok {
		return apperrors.ErrNotFound
	}
	order.ManagerID = managerID
	return nil
}

func (m *mockOrderRepo) SetStatus(ctx context.Context, orderID int64, status models.OrderStatus) error {
	order, ok := m.orders[orderID]
	if !ok {
		return apperrors.ErrNotFound
	}
	order.Status = status
	return nil
}
