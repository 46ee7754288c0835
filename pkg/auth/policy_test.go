package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightmall/backoffice-engine/pkg/apperrors"
	"github.com/brightmall/backoffice-engine/pkg/models"
)

func TestResolveScope_Superadmin(t *testing.T) {
	perms := []Permission{
		PermUsersView, PermUsersManage,
		PermDepartmentsView, PermDepartmentsManage,
		PermCategoriesManage, PermProductsManage, PermKitsManage,
		PermOrdersView, PermOrdersManage, PermOrdersAssign, PermOrdersRelease,
		PermBookingsView, PermBookingsManage,
		PermLogsView,
	}
	for _, perm := range perms {
		scope, err := ResolveScope(models.RoleSuperadmin, perm)
		require.NoError(t, err, "permission %s", perm)
		assert.Equal(t, ScopeAll, scope, "permission %s", perm)
	}
}

func TestResolveScope_AdminIsDepartmentScoped(t *testing.T) {
	scope, err := ResolveScope(models.RoleAdmin, PermUsersManage)
	require.NoError(t, err)
	assert.Equal(t, ScopeDepartment, scope)

	// Admins can release orders within their department.
	scope, err = ResolveScope(models.RoleAdmin, PermOrdersRelease)
	require.NoError(t, err)
	assert.Equal(t, ScopeDepartment, scope)
}

func TestResolveScope_Manager(t *testing.T) {
	tests := []struct {
		perm  Permission
		scope Scope
	}{
		{PermUsersView, ScopeDepartment},
		{PermDepartmentsView, ScopeDepartment},
		{PermOrdersView, ScopeDepartment},
		{PermOrdersAssign, ScopeOwn},
		{PermOrdersManage, ScopeOwn},
		{PermBookingsView, ScopeDepartment},
		{PermBookingsManage, ScopeOwn},
		{PermLogsView, ScopeDepartment},
	}
	for _, tt := range tests {
		scope, err := ResolveScope(models.RoleManager, tt.perm)
		require.NoError(t, err, "permission %s", tt.perm)
		assert.Equal(t, tt.scope, scope, "permission %s", tt.perm)
	}
}

func TestResolveScope_ManagerCannotRelease(t *testing.T) {
	// Managers can claim orders but releasing a claim, even their own,
	// is reserved for admins.
	_, err := ResolveScope(models.RoleManager, PermOrdersRelease)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestResolveScope_ManagerDeniedManagement(t *testing.T) {
	denied := []Permission{
		PermUsersManage, PermDepartmentsManage,
		PermCategoriesManage, PermProductsManage, PermKitsManage,
	}
	for _, perm := range denied {
		_, err := ResolveScope(models.RoleManager, perm)
		assert.ErrorIs(t, err, apperrors.ErrForbidden, "permission %s", perm)
	}
}

func TestResolveScope_ClientDeniedEverything(t *testing.T) {
	perms := []Permission{
		PermUsersView, PermUsersManage,
		PermDepartmentsView, PermDepartmentsManage,
		PermCategoriesManage, PermProductsManage, PermKitsManage,
		PermOrdersView, PermOrdersManage, PermOrdersAssign, PermOrdersRelease,
		PermBookingsView, PermBookingsManage,
		PermLogsView,
	}
	for _, perm := range perms {
		_, err := ResolveScope(models.RoleClient, perm)
		assert.ErrorIs(t, err, apperrors.ErrForbidden, "permission %s", perm)
	}
}

func TestResolveScope_UnknownRole(t *testing.T) {
	_, err := ResolveScope(models.Role("intruder"), PermOrdersView)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestResolveActorScope_NoDepartment(t *testing.T) {
	actor := &Actor{ID: 7, Role: models.RoleAdmin}

	_, err := ResolveActorScope(actor, PermUsersManage)
	assert.ErrorIs(t, err, apperrors.ErrNoDepartmentAssigned)

	// The distinct error must not be conflated with plain forbidden.
	assert.NotErrorIs(t, err, apperrors.ErrForbidden)
}

func TestResolveActorScope_WithDepartment(t *testing.T) {
	deptID := int64(3)
	actor := &Actor{ID: 7, Role: models.RoleAdmin, DepartmentID: &deptID}

	scope, err := ResolveActorScope(actor, PermUsersManage)
	require.NoError(t, err)
	assert.Equal(t, ScopeDepartment, scope)
}

func TestResolveActorScope_AllScopeIgnoresDepartment(t *testing.T) {
	// Superadmins hold all-scope permissions without any department.
	actor := &Actor{ID: 1, Role: models.RoleSuperadmin}

	scope, err := ResolveActorScope(actor, PermDepartmentsManage)
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, scope)
}

func TestResolveActorScope_OwnScopeWithoutDepartment(t *testing.T) {
	// Own-scope permissions do not require a department at resolve time;
	// the concrete row check happens in the service.
	actor := &Actor{ID: 9, Role: models.RoleManager}

	scope, err := ResolveActorScope(actor, PermOrdersAssign)
	require.NoError(t, err)
	assert.Equal(t, ScopeOwn, scope)
}

func TestCanAccessDepartment(t *testing.T) {
	dept3 := int64(3)
	dept5 := int64(5)

	actor := &Actor{ID: 7, Role: models.RoleAdmin, DepartmentID: &dept3}

	assert.True(t, CanAccessDepartment(actor, ScopeAll, &dept5))
	assert.True(t, CanAccessDepartment(actor, ScopeAll, nil))

	assert.True(t, CanAccessDepartment(actor, ScopeDepartment, &dept3))
	assert.False(t, CanAccessDepartment(actor, ScopeDepartment, &dept5))
	assert.False(t, CanAccessDepartment(actor, ScopeDepartment, nil))

	assert.True(t, CanAccessDepartment(actor, ScopeOwn, &dept3))
	assert.False(t, CanAccessDepartment(actor, ScopeOwn, &dept5))

	noDept := &Actor{ID: 8, Role: models.RoleManager}
	assert.False(t, CanAccessDepartment(noDept, ScopeDepartment, &dept3))
	assert.False(t, CanAccessDepartment(noDept, ScopeOwn, &dept3))
}
