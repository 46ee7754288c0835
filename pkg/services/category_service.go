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

// CategoryService manages product categories.
type CategoryService interface {
	Create(ctx context.Context, actor *auth.Actor, category *models.Category) (*models.Category, error)
	GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.Category, error)
	List(ctx context.Context, actor *auth.Actor) ([]*models.Category, error)
	Update(ctx context.Context, actor *auth.Actor, category *models.Category) (*models.Category, error)
	Delete(ctx context.Context, actor *auth.Actor, id int64) error
	CheckExistence(ctx context.Context, ids []int64) ([]int64, error)
}

type categoryService struct {
	categoryRepo repositories.CategoryRepository
	changeLog    ChangeLogService
	db           TxRunner
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categoryRepo repositories.CategoryRepository, changeLog ChangeLogService, db TxRunner, logger *zap.Logger) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		changeLog:    changeLog,
		db:           db,
		logger:       logger.Named("category-service"),
	}
}

var _ CategoryService = (*categoryService)(nil)

func (s *categoryService) Create(ctx context.Context, actor *auth.Actor, category *models.Category) (*models.Category, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermCategoriesManage)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(category.Name) == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if scope != auth.ScopeAll {
		category.DepartmentID = copyID(actor.DepartmentID)
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		if err := s.categoryRepo.Create(ctx, category); err != nil {
			return err
		}
		_, err := s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindCategory,
			ID:      category.ID,
			Actions: []models.ChangeAction{models.ActionCreate},
			After:   category.Snapshot(),
			Message: fmt.Sprintf("created category %q", category.Name),
		})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to create category", zap.Error(err))
		return nil, err
	}

	return category, nil
}

func (s *categoryService) GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.Category, error) {
	if _, err := auth.ResolveActorScope(actor, auth.PermCategoriesManage); err != nil {
		return nil, err
	}
	return s.categoryRepo.GetByID(ctx, id)
}

func (s *categoryService) List(ctx context.Context, actor *auth.Actor) ([]*models.Category, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermCategoriesManage)
	if err != nil {
		return nil, err
	}
	if scope == auth.ScopeAll {
		return s.categoryRepo.List(ctx, nil)
	}
	return s.categoryRepo.List(ctx, actor.DepartmentID)
}

func (s *categoryService) Update(ctx context.Context, actor *auth.Actor, category *models.Category) (*models.Category, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermCategoriesManage)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(category.Name) == "" {
		return nil, apperrors.ErrInvalidInput
	}

	var updated *models.Category
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.categoryRepo.GetByID(ctx, category.ID)
		if err != nil {
			return err
		}
		if scope != auth.ScopeAll && !sameDepartment(actor.DepartmentID, existing.DepartmentID) {
			return apperrors.ErrForbidden
		}

		before := existing.Snapshot()
		existing.Name = category.Name

		if err := s.categoryRepo.Update(ctx, existing); err != nil {
			return err
		}
		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindCategory,
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
		s.logger.Error("Failed to update category",
			zap.Int64("category_id", category.ID),
			zap.Error(err))
		return nil, err
	}

	return updated, nil
}

func (s *categoryService) Delete(ctx context.Context, actor *auth.Actor, id int64) error {
	scope, err := auth.ResolveActorScope(actor, auth.PermCategoriesManage)
	if err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		category, err := s.categoryRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if scope != auth.ScopeAll && !sameDepartment(actor.DepartmentID, category.DepartmentID) {
			return apperrors.ErrForbidden
		}

		count, err := s.categoryRepo.CountProducts(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrConflict
		}

		before := category.Snapshot()
		if err := s.categoryRepo.Delete(ctx, id); err != nil {
			return err
		}
		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindCategory,
			ID:      id,
			Actions: []models.ChangeAction{models.ActionDelete},
			Before:  before,
			Message: fmt.Sprintf("deleted category %q", category.Name),
		})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to delete category",
			zap.Int64("category_id", id),
			zap.Error(err))
		return err
	}

	return nil
}

func (s *categoryService) CheckExistence(ctx context.Context, ids []int64) ([]int64, error) {
	return s.categoryRepo.ExistingIDs(ctx, ids)
}
