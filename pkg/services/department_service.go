package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/apperrors"
	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/repositories"
)

// DepartmentUpdateInput carries the aspects of a department a single update
// request may change. Nil pointer / nil slice means "leave unchanged".
type DepartmentUpdateInput struct {
	Name          *string
	Description   *string
	CategoryIDs   []int64
	AddUserIDs    []int64
	RemoveUserIDs []int64
}

// DepartmentService manages departments and their membership. A membership
// change is a cascade: each affected user gets its own change log entry
// first, then the department gets one aggregate entry tagged with every
// category of change the request made. Mutation and all log writes commit
// in one transaction.
type DepartmentService interface {
	Create(ctx context.Context, actor *auth.Actor, dept *models.Department) (*models.Department, error)
	GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.Department, error)
	List(ctx context.Context, actor *auth.Actor) ([]*models.Department, error)
	Update(ctx context.Context, actor *auth.Actor, id int64, input DepartmentUpdateInput) (*models.Department, error)
	// Delete removes an empty-of-orders department, detaching members first.
	// A department with orders cannot be deleted.
	Delete(ctx context.Context, actor *auth.Actor, id int64) error
	// CheckExistence filters ids down to departments that exist.
	CheckExistence(ctx context.Context, ids []int64) ([]int64, error)
}

type departmentService struct {
	deptRepo  repositories.DepartmentRepository
	userRepo  repositories.UserRepository
	changeLog ChangeLogService
	db        TxRunner
	logger    *zap.Logger
}

// NewDepartmentService creates a new DepartmentService.
func NewDepartmentService(
	deptRepo repositories.DepartmentRepository,
	userRepo repositories.UserRepository,
	changeLog ChangeLogService,
	db TxRunner,
	logger *zap.Logger,
) DepartmentService {
	return &departmentService{
		deptRepo:  deptRepo,
		userRepo:  userRepo,
		changeLog: changeLog,
		db:        db,
		logger:    logger.Named("department-service"),
	}
}

var _ DepartmentService = (*departmentService)(nil)

func (s *departmentService) Create(ctx context.Context, actor *auth.Actor, dept *models.Department) (*models.Department, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermDepartmentsManage)
	if err != nil {
		return nil, err
	}
	// Only all-scope callers create departments; a department-scoped admin
	// administers an existing department, it does not mint new ones.
	if scope != auth.ScopeAll {
		return nil, apperrors.ErrForbidden
	}
	if strings.TrimSpace(dept.Name) == "" {
		return nil, apperrors.ErrInvalidInput
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		if err := s.deptRepo.Create(ctx, dept); err != nil {
			return err
		}
		_, err := s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindDepartment,
			ID:      dept.ID,
			Actions: []models.ChangeAction{models.ActionCreate},
			After:   dept.Snapshot(nil),
			Message: fmt.Sprintf("created department %q", dept.Name),
		})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to create department", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Department created",
		zap.Int64("department_id", dept.ID),
		zap.Int64("actor_id", actor.ID))
	return dept, nil
}

func (s *departmentService) GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.Department, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermDepartmentsView)
	if err != nil {
		return nil, err
	}
	if err := s.checkDeptScope(actor, scope, id); err != nil {
		return nil, err
	}
	return s.deptRepo.GetByID(ctx, id)
}

func (s *departmentService) List(ctx context.Context, actor *auth.Actor) ([]*models.Department, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermDepartmentsView)
	if err != nil {
		return nil, err
	}

	if scope == auth.ScopeAll {
		return s.deptRepo.List(ctx)
	}
	// Department scope sees only the actor's own department.
	dept, err := s.deptRepo.GetByID(ctx, *actor.DepartmentID)
	if err != nil {
		return nil, err
	}
	return []*models.Department{dept}, nil
}

func (s *departmentService) Update(ctx context.Context, actor *auth.Actor, id int64, input DepartmentUpdateInput) (*models.Department, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermDepartmentsManage)
	if err != nil {
		return nil, err
	}
	if err := s.checkDeptScope(actor, scope, id); err != nil {
		return nil, err
	}

	var updated *models.Department
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		dept, err := s.deptRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		memberIDs, err := s.deptRepo.MemberIDs(ctx, id)
		if err != nil {
			return err
		}
		before := dept.Snapshot(memberIDs)
		actorSnap := actor.Snapshot()
		deptRef := []models.EntityRef{{Kind: models.EntityKindDepartment, ID: dept.ID}}

		// Per-user entries are written before the department aggregate so a
		// reader walking the log in order sees the member moves first.
		var userChanges []Change
		var actions []models.ChangeAction
		var messages []string

		if input.Name != nil && *input.Name != dept.Name {
			if strings.TrimSpace(*input.Name) == "" {
				return apperrors.ErrInvalidInput
			}
			dept.Name = *input.Name
			actions = append(actions, models.ActionChangeName)
			messages = append(messages, fmt.Sprintf("renamed to %q", dept.Name))
		}
		if input.Description != nil && *input.Description != dept.Description {
			dept.Description = *input.Description
			actions = append(actions, models.ActionUpdate)
			messages = append(messages, "changed description")
		}
		if input.CategoryIDs != nil && !equalIDs(dept.CategoryIDs, input.CategoryIDs) {
			dept.CategoryIDs = input.CategoryIDs
			actions = append(actions, models.ActionChangeCategories)
			messages = append(messages, "changed categories")
		}

		if len(input.AddUserIDs) > 0 {
			users, err := s.userRepo.GetByIDs(ctx, input.AddUserIDs)
			if err != nil {
				return err
			}
			if len(users) != len(input.AddUserIDs) {
				return apperrors.ErrNotFound
			}
			for _, user := range users {
				userBefore := user.Snapshot()
				if err := s.userRepo.SetDepartment(ctx, user.ID, &dept.ID); err != nil {
					return err
				}
				user.DepartmentID = &dept.ID
				userChanges = append(userChanges, Change{
					Kind:    models.EntityKindUser,
					ID:      user.ID,
					Actions: []models.ChangeAction{models.ActionUpdate},
					Before:  userBefore,
					After:   user.Snapshot(),
					Message: fmt.Sprintf("assigned to department %q", dept.Name),
					Related: deptRef,
				})
			}
			actions = append(actions, models.ActionAddEmployees)
			messages = append(messages, fmt.Sprintf("added %s", pluralEmployees(len(users))))
		}

		if len(input.RemoveUserIDs) > 0 {
			users, err := s.userRepo.GetByIDs(ctx, input.RemoveUserIDs)
			if err != nil {
				return err
			}
			if len(users) != len(input.RemoveUserIDs) {
				return apperrors.ErrNotFound
			}
			for _, user := range users {
				if user.DepartmentID == nil || *user.DepartmentID != dept.ID {
					return apperrors.ErrInvalidInput
				}
				userBefore := user.Snapshot()
				if err := s.userRepo.SetDepartment(ctx, user.ID, nil); err != nil {
					return err
				}
				user.DepartmentID = nil
				userChanges = append(userChanges, Change{
					Kind:    models.EntityKindUser,
					ID:      user.ID,
					Actions: []models.ChangeAction{models.ActionUpdate},
					Before:  userBefore,
					After:   user.Snapshot(),
					Message: fmt.Sprintf("removed from department %q", dept.Name),
					Related: deptRef,
				})
			}
			actions = append(actions, models.ActionRemoveEmployees)
			messages = append(messages, fmt.Sprintf("removed %s", pluralEmployees(len(users))))
		}

		if len(actions) == 0 {
			updated = dept
			return nil
		}

		if err := s.deptRepo.Update(ctx, dept); err != nil {
			return err
		}
		afterMembers, err := s.deptRepo.MemberIDs(ctx, id)
		if err != nil {
			return err
		}
		after := dept.Snapshot(afterMembers)

		changes := append(userChanges, Change{
			Kind:    models.EntityKindDepartment,
			ID:      dept.ID,
			Actions: actions,
			Before:  before,
			After:   after,
			Message: strings.Join(messages, "; "),
			Related: userRefs(userChanges),
		})
		if _, err := s.changeLog.Record(ctx, actorSnap, changes...); err != nil {
			return err
		}

		updated = dept
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update department",
			zap.Int64("department_id", id),
			zap.Error(err))
		return nil, err
	}

	return updated, nil
}

func (s *departmentService) Delete(ctx context.Context, actor *auth.Actor, id int64) error {
	scope, err := auth.ResolveActorScope(actor, auth.PermDepartmentsManage)
	if err != nil {
		return err
	}
	// Deleting a department is an all-scope operation, same as creating one.
	if scope != auth.ScopeAll {
		return apperrors.ErrForbidden
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		dept, err := s.deptRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		orders, err := s.deptRepo.CountOrders(ctx, id)
		if err != nil {
			return err
		}
		if orders > 0 {
			return apperrors.ErrConflict
		}

		memberIDs, err := s.deptRepo.MemberIDs(ctx, id)
		if err != nil {
			return err
		}
		before := dept.Snapshot(memberIDs)
		actorSnap := actor.Snapshot()
		deptRef := []models.EntityRef{{Kind: models.EntityKindDepartment, ID: dept.ID}}

		var userChanges []Change
		if len(memberIDs) > 0 {
			users, err := s.userRepo.GetByIDs(ctx, memberIDs)
			if err != nil {
				return err
			}
			for _, user := range users {
				userBefore := user.Snapshot()
				if err := s.userRepo.SetDepartment(ctx, user.ID, nil); err != nil {
					return err
				}
				user.DepartmentID = nil
				userChanges = append(userChanges, Change{
					Kind:    models.EntityKindUser,
					ID:      user.ID,
					Actions: []models.ChangeAction{models.ActionUpdate},
					Before:  userBefore,
					After:   user.Snapshot(),
					Message: fmt.Sprintf("removed from department %q", dept.Name),
					Related: deptRef,
				})
			}
		}

		if err := s.deptRepo.Delete(ctx, id); err != nil {
			return err
		}

		changes := append(userChanges, Change{
			Kind:    models.EntityKindDepartment,
			ID:      dept.ID,
			Actions: []models.ChangeAction{models.ActionDeleteDepartment},
			Before:  before,
			Message: fmt.Sprintf("deleted department %q", dept.Name),
			Related: userRefs(userChanges),
		})
		_, err = s.changeLog.Record(ctx, actorSnap, changes...)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to delete department",
			zap.Int64("department_id", id),
			zap.Error(err))
		return err
	}

	s.logger.Info("Department deleted",
		zap.Int64("department_id", id),
		zap.Int64("actor_id", actor.ID))
	return nil
}

func (s *departmentService) CheckExistence(ctx context.Context, ids []int64) ([]int64, error) {
	return s.deptRepo.ExistingIDs(ctx, ids)
}

// checkDeptScope rejects department-scoped actors touching a department
// other than their own. Departments report forbidden, not not-found: their
// existence is not a secret, only their administration is gated.
func (s *departmentService) checkDeptScope(actor *auth.Actor, scope auth.Scope, deptID int64) error {
	if scope == auth.ScopeAll {
		return nil
	}
	if actor.DepartmentID == nil || *actor.DepartmentID != deptID {
		return apperrors.ErrForbidden
	}
	return nil
}

func userRefs(changes []Change) []models.EntityRef {
	if len(changes) == 0 {
		return nil
	}
	refs := make([]models.EntityRef, 0, len(changes))
	for _, c := range changes {
		refs = append(refs, models.EntityRef{Kind: c.Kind, ID: c.ID})
	}
	return refs
}

func pluralEmployees(n int) string {
	if n == 1 {
		return "1 employee"
	}
	return fmt.Sprintf("%d employees", n)
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
