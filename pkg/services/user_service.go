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

// UserService manages back-office user accounts. Unlike orders and
// bookings, out-of-scope users answer forbidden rather than not-found:
// account administration is an explicit permission boundary, not a
// visibility one.
type UserService interface {
	Create(ctx context.Context, actor *auth.Actor, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.User, error)
	List(ctx context.Context, actor *auth.Actor) ([]*models.User, error)
	Update(ctx context.Context, actor *auth.Actor, user *models.User) (*models.User, error)
	Delete(ctx context.Context, actor *auth.Actor, id int64) error
	// CheckExistence returns the full records of the users that exist among
	// the given ids. Users return records, not bare ids, because callers
	// need name and role to render assignment pickers.
	CheckExistence(ctx context.Context, ids []int64) ([]*models.User, error)
}

type userService struct {
	userRepo  repositories.UserRepository
	changeLog ChangeLogService
	db        TxRunner
	logger    *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, changeLog ChangeLogService, db TxRunner, logger *zap.Logger) UserService {
	return &userService{
		userRepo:  userRepo,
		changeLog: changeLog,
		db:        db,
		logger:    logger.Named("user-service"),
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) Create(ctx context.Context, actor *auth.Actor, user *models.User) (*models.User, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermUsersManage)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(user.Email) == "" || strings.TrimSpace(user.Name) == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if !models.IsValidRole(user.Role) {
		return nil, apperrors.ErrInvalidInput
	}
	// Department-scoped admins create users inside their own department.
	if scope != auth.ScopeAll {
		user.DepartmentID = copyID(actor.DepartmentID)
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
		_, err := s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindUser,
			ID:      user.ID,
			Actions: []models.ChangeAction{models.ActionCreate},
			After:   user.Snapshot(),
			Message: fmt.Sprintf("created user %s", user.Email),
		})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, err
	}

	s.logger.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.Int64("actor_id", actor.ID))
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.User, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermUsersView)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope != auth.ScopeAll && !sameDepartment(actor.DepartmentID, user.DepartmentID) {
		return nil, apperrors.ErrForbidden
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, actor *auth.Actor) ([]*models.User, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermUsersView)
	if err != nil {
		return nil, err
	}

	if scope == auth.ScopeAll {
		return s.userRepo.List(ctx, nil)
	}
	return s.userRepo.List(ctx, actor.DepartmentID)
}

func (s *userService) Update(ctx context.Context, actor *auth.Actor, user *models.User) (*models.User, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermUsersManage)
	if err != nil {
		return nil, err
	}
	if !models.IsValidRole(user.Role) {
		return nil, apperrors.ErrInvalidInput
	}

	var updated *models.User
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.userRepo.GetByID(ctx, user.ID)
		if err != nil {
			return err
		}
		if scope != auth.ScopeAll && !sameDepartment(actor.DepartmentID, existing.DepartmentID) {
			return apperrors.ErrForbidden
		}

		before := existing.Snapshot()
		existing.Email = user.Email
		existing.Name = user.Name
		existing.Role = user.Role
		if scope == auth.ScopeAll {
			existing.DepartmentID = user.DepartmentID
		}

		if err := s.userRepo.Update(ctx, existing); err != nil {
			return err
		}
		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindUser,
			ID:      existing.ID,
			Actions: []models.ChangeAction{models.ActionUpdate},
			Before:  before,
			After:   existing.Snapshot(),
		})
		if err != nil {
			return err
		}

		updated = existing
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update user",
			zap.Int64("user_id", user.ID),
			zap.Error(err))
		return nil, err
	}

	return updated, nil
}

func (s *userService) Delete(ctx context.Context, actor *auth.Actor, id int64) error {
	scope, err := auth.ResolveActorScope(actor, auth.PermUsersManage)
	if err != nil {
		return err
	}
	if actor.ID == id {
		// Nobody deletes their own account through the admin surface.
		return apperrors.ErrInvalidInput
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if scope != auth.ScopeAll && !sameDepartment(actor.DepartmentID, user.DepartmentID) {
			return apperrors.ErrForbidden
		}

		before := user.Snapshot()
		if err := s.userRepo.Delete(ctx, id); err != nil {
			return err
		}
		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindUser,
			ID:      id,
			Actions: []models.ChangeAction{models.ActionDelete},
			Before:  before,
			Message: fmt.Sprintf("deleted user %s", user.Email),
		})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to delete user",
			zap.Int64("user_id", id),
			zap.Error(err))
		return err
	}

	s.logger.Info("User deleted",
		zap.Int64("user_id", id),
		zap.Int64("actor_id", actor.ID))
	return nil
}

func (s *userService) CheckExistence(ctx context.Context, ids []int64) ([]*models.User, error) {
	return s.userRepo.GetByIDs(ctx, ids)
}

func sameDepartment(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}
