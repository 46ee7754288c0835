package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/apperrors"
	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
)

func managerActor(id int64, deptID int64) *auth.Actor {
	return &auth.Actor{ID: id, Name: "Manager", Role: models.RoleManager, DepartmentID: &deptID}
}

func adminActor(id int64, deptID int64) *auth.Actor {
	return &auth.Actor{ID: id, Name: "Admin", Role: models.RoleAdmin, DepartmentID: &deptID}
}

func seedOrder(repo *mockOrderRepo, deptID int64, managerID *int64, status models.OrderStatus) *models.Order {
	order := &models.Order{
		Number:       "ORD-100",
		Status:       status,
		CustomerName: "Customer",
		DepartmentID: &deptID,
		ManagerID:    managerID,
	}
	_ = repo.Create(context.Background(), order)
	return order
}

func TestOrderService_Claim(t *testing.T) {
	repo := newMockOrderRepo()
	changeLog := &recordingChangeLog{}
	svc := NewOrderService(repo, newMockUserRepo(), changeLog, nopTx{}, zap.NewNop())

	order := seedOrder(repo, 3, nil, models.OrderStatusNew)
	actor := managerActor(7, 3)

	claimed, err := svc.Claim(context.Background(), actor, order.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, claimed.ManagerID)
	assert.Equal(t, int64(7), *claimed.ManagerID)

	require.Len(t, changeLog.changes, 1)
	change := changeLog.changes[0]
	assert.Equal(t, models.EntityKindOrder, change.Kind)
	assert.Equal(t, []models.ChangeAction{models.ActionAssign}, change.Actions)
	assert.NotNil(t, change.Before)
	assert.NotNil(t, change.After)
}

func TestOrderService_Claim_AlreadyAssigned(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	otherManager := int64(8)
	order := seedOrder(repo, 3, &otherManager, models.OrderStatusNew)

	_, err := svc.Claim(context.Background(), managerActor(7, 3), order.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestOrderService_Claim_AlreadyAssignedToSelf(t *testing.T) {
	// Re-claiming an order you already hold is still a state error.
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	self := int64(7)
	order := seedOrder(repo, 3, &self, models.OrderStatusNew)

	_, err := svc.Claim(context.Background(), managerActor(7, 3), order.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestOrderService_Claim_OtherDepartment(t *testing.T) {
	// Out-of-scope orders read as not found, not forbidden.
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	order := seedOrder(repo, 5, nil, models.OrderStatusNew)

	_, err := svc.Claim(context.Background(), managerActor(7, 3), order.ID, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func seedManagerUser(repo *mockUserRepo, name string, role models.Role, deptID *int64) *models.User {
	user := &models.User{Email: name + "@example.com", Name: name, Role: role, DepartmentID: deptID}
	_ = repo.Create(context.Background(), user)
	return user
}

func TestOrderService_Claim_AdminAssignsNamedManager(t *testing.T) {
	repo := newMockOrderRepo()
	users := newMockUserRepo()
	changeLog := &recordingChangeLog{}
	svc := NewOrderService(repo, users, changeLog, nopTx{}, zap.NewNop())

	deptID := int64(3)
	target := seedManagerUser(users, "Nadia", models.RoleManager, &deptID)
	order := seedOrder(repo, 3, nil, models.OrderStatusNew)

	claimed, err := svc.Claim(context.Background(), adminActor(2, 3), order.ID, &target.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.ManagerID)
	assert.Equal(t, target.ID, *claimed.ManagerID)

	require.Len(t, changeLog.changes, 1)
	change := changeLog.changes[0]
	assert.Equal(t, "order ORD-100 assigned to Nadia", change.Message)
	assert.Equal(t, []models.EntityRef{{Kind: models.EntityKindUser, ID: target.ID}}, change.Related)
}

func TestOrderService_Claim_NamedManagerOtherDepartment(t *testing.T) {
	// Department-scoped admins cannot hand an order to a manager from
	// another department.
	repo := newMockOrderRepo()
	users := newMockUserRepo()
	svc := NewOrderService(repo, users, &recordingChangeLog{}, nopTx{}, zap.NewNop())

	otherDept := int64(5)
	target := seedManagerUser(users, "Nadia", models.RoleManager, &otherDept)
	order := seedOrder(repo, 3, nil, models.OrderStatusNew)

	_, err := svc.Claim(context.Background(), adminActor(2, 3), order.ID, &target.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	got, _ := repo.GetByID(context.Background(), order.ID)
	assert.Nil(t, got.ManagerID)
}

func TestOrderService_Claim_SuperadminCrossDepartment(t *testing.T) {
	repo := newMockOrderRepo()
	users := newMockUserRepo()
	svc := NewOrderService(repo, users, &recordingChangeLog{}, nopTx{}, zap.NewNop())

	otherDept := int64(5)
	target := seedManagerUser(users, "Nadia", models.RoleManager, &otherDept)
	order := seedOrder(repo, 3, nil, models.OrderStatusNew)

	superadmin := &auth.Actor{ID: 1, Name: "Root", Role: models.RoleSuperadmin}
	claimed, err := svc.Claim(context.Background(), superadmin, order.ID, &target.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.ManagerID)
	assert.Equal(t, target.ID, *claimed.ManagerID)
}

func TestOrderService_Claim_ManagerCannotNameOther(t *testing.T) {
	// Own scope means claiming for yourself; naming someone else is a
	// permission error, not a state error.
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	order := seedOrder(repo, 3, nil, models.OrderStatusNew)

	other := int64(8)
	_, err := svc.Claim(context.Background(), managerActor(7, 3), order.ID, &other)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestOrderService_Claim_NamedManagerNotFound(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	order := seedOrder(repo, 3, nil, models.OrderStatusNew)

	missing := int64(999)
	_, err := svc.Claim(context.Background(), adminActor(2, 3), order.ID, &missing)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderService_Claim_NamedTargetNotAManager(t *testing.T) {
	repo := newMockOrderRepo()
	users := newMockUserRepo()
	svc := NewOrderService(repo, users, &recordingChangeLog{}, nopTx{}, zap.NewNop())

	deptID := int64(3)
	target := seedManagerUser(users, "Shopper", models.RoleClient, &deptID)
	order := seedOrder(repo, 3, nil, models.OrderStatusNew)

	_, err := svc.Claim(context.Background(), adminActor(2, 3), order.ID, &target.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestOrderService_Release_ManagerForbidden(t *testing.T) {
	// Managers cannot release orders, not even their own claims.
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	self := int64(7)
	order := seedOrder(repo, 3, &self, models.OrderStatusNew)

	_, err := svc.Release(context.Background(), managerActor(7, 3), order.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestOrderService_Release_Admin(t *testing.T) {
	repo := newMockOrderRepo()
	changeLog := &recordingChangeLog{}
	svc := NewOrderService(repo, newMockUserRepo(), changeLog, nopTx{}, zap.NewNop())

	managerID := int64(7)
	order := seedOrder(repo, 3, &managerID, models.OrderStatusNew)

	released, err := svc.Release(context.Background(), adminActor(2, 3), order.ID)
	require.NoError(t, err)
	assert.Nil(t, released.ManagerID)

	require.Len(t, changeLog.changes, 1)
	assert.Equal(t, []models.ChangeAction{models.ActionUnassign}, changeLog.changes[0].Actions)
}

func TestOrderService_Release_Unassigned(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	order := seedOrder(repo, 3, nil, models.OrderStatusNew)

	_, err := svc.Release(context.Background(), adminActor(2, 3), order.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestOrderService_ChangeStatus(t *testing.T) {
	repo := newMockOrderRepo()
	changeLog := &recordingChangeLog{}
	svc := NewOrderService(repo, newMockUserRepo(), changeLog, nopTx{}, zap.NewNop())

	order := seedOrder(repo, 3, nil, models.OrderStatusNew)

	updated, err := svc.ChangeStatus(context.Background(), adminActor(2, 3), order.ID, models.OrderStatusInWork)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInWork, updated.Status)

	require.Len(t, changeLog.changes, 1)
	change := changeLog.changes[0]
	assert.Equal(t, []models.ChangeAction{models.ActionChangeStatus}, change.Actions)
	assert.Equal(t, "order ORD-100 status changed from new to in_work", change.Message)
}

func TestOrderService_ChangeStatus_InvalidTransition(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	order := seedOrder(repo, 3, nil, models.OrderStatusCompleted)

	_, err := svc.ChangeStatus(context.Background(), adminActor(2, 3), order.ID, models.OrderStatusInWork)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestOrderService_ChangeStatus_UnknownStatus(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	order := seedOrder(repo, 3, nil, models.OrderStatusNew)

	_, err := svc.ChangeStatus(context.Background(), adminActor(2, 3), order.ID, models.OrderStatus("shipped"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestOrderService_ChangeStatus_OwnScopeRequiresClaim(t *testing.T) {
	// A manager can only move orders they hold; another manager's order
	// reads as not found.
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	otherManager := int64(8)
	order := seedOrder(repo, 3, &otherManager, models.OrderStatusNew)

	_, err := svc.ChangeStatus(context.Background(), managerActor(7, 3), order.ID, models.OrderStatusInWork)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderService_ChangeStatus_OwnClaim(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	self := int64(7)
	order := seedOrder(repo, 3, &self, models.OrderStatusNew)

	updated, err := svc.ChangeStatus(context.Background(), managerActor(7, 3), order.ID, models.OrderStatusInWork)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInWork, updated.Status)
}

func TestOrderService_GetByID_OutOfScope(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	order := seedOrder(repo, 5, nil, models.OrderStatusNew)

	_, err := svc.GetByID(context.Background(), managerActor(7, 3), order.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderService_List_ScopedToDepartment(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	seedOrder(repo, 3, nil, models.OrderStatusNew)
	seedOrder(repo, 5, nil, models.OrderStatusNew)

	orders, err := svc.List(context.Background(), managerActor(7, 3))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(3), *orders[0].DepartmentID)

	all, err := svc.List(context.Background(), &auth.Actor{ID: 1, Role: models.RoleSuperadmin})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOrderService_Create_DepartmentScoped(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo, newMockUserRepo(), &recordingChangeLog{}, nopTx{}, zap.NewNop())

	otherDept := int64(5)
	order := &models.Order{Number: "ORD-200", CustomerName: "Customer", DepartmentID: &otherDept}

	created, err := svc.Create(context.Background(), adminActor(2, 3), order)
	require.NoError(t, err)

	// Department-scoped callers create into their own department,
	// whatever the request says.
	require.NotNil(t, created.DepartmentID)
	assert.Equal(t, int64(3), *created.DepartmentID)
	assert.Equal(t, models.OrderStatusNew, created.Status)
}
