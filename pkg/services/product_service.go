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

// ProductService manages the product catalog. Every product belongs to a
// department; creating one without a department is rejected.
type ProductService interface {
	Create(ctx context.Context, actor *auth.Actor, product *models.Product) (*models.Product, error)
	GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.Product, error)
	List(ctx context.Context, actor *auth.Actor) ([]*models.Product, error)
	Update(ctx context.Context, actor *auth.Actor, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, actor *auth.Actor, id int64) error
	CheckExistence(ctx context.Context, ids []int64) ([]int64, error)
}

type productService struct {
	productRepo repositories.ProductRepository
	deptRepo    repositories.DepartmentRepository
	changeLog   ChangeLogService
	db          TxRunner
	logger      *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(
	productRepo repositories.ProductRepository,
	deptRepo repositories.DepartmentRepository,
	changeLog ChangeLogService,
	db TxRunner,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		deptRepo:    deptRepo,
		changeLog:   changeLog,
		db:          db,
		logger:      logger.Named("product-service"),
	}
}

var _ ProductService = (*productService)(nil)

func (s *productService) Create(ctx context.Context, actor *auth.Actor, product *models.Product) (*models.Product, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermProductsManage)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(product.Name) == "" || strings.TrimSpace(product.SKU) == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if product.PriceCents < 0 || product.Stock < 0 {
		return nil, apperrors.ErrInvalidInput
	}
	if scope != auth.ScopeAll {
		product.DepartmentID = *actor.DepartmentID
	}
	if product.DepartmentID == 0 {
		return nil, apperrors.ErrInvalidInput
	}
	product.CreatedBy = actor.ID

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.deptRepo.GetByID(ctx, product.DepartmentID); err != nil {
			return err
		}
		if err := s.productRepo.Create(ctx, product); err != nil {
			return err
		}
		_, err := s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindProduct,
			ID:      product.ID,
			Actions: []models.ChangeAction{models.ActionCreate},
			After:   product.Snapshot(),
			Message: fmt.Sprintf("created product %q (%s)", product.Name, product.SKU),
		})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.Int64("actor_id", actor.ID))
	return product, nil
}

func (s *productService) GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.Product, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermProductsManage)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope != auth.ScopeAll && !sameDepartment(actor.DepartmentID, &product.DepartmentID) {
		return nil, apperrors.ErrForbidden
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, actor *auth.Actor) ([]*models.Product, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermProductsManage)
	if err != nil {
		return nil, err
	}
	if scope == auth.ScopeAll {
		return s.productRepo.List(ctx, nil)
	}
	return s.productRepo.List(ctx, actor.DepartmentID)
}

func (s *productService) Update(ctx context.Context, actor *auth.Actor, product *models.Product) (*models.Product, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermProductsManage)
	if err != nil {
		return nil, err
	}
	if product.PriceCents < 0 || product.Stock < 0 {
		return nil, apperrors.ErrInvalidInput
	}

	var updated *models.Product
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.productRepo.GetByID(ctx, product.ID)
		if err != nil {
			return err
		}
		if scope != auth.ScopeAll && !sameDepartment(actor.DepartmentID, &existing.DepartmentID) {
			return apperrors.ErrForbidden
		}

		before := existing.Snapshot()
		existing.Name = product.Name
		existing.SKU = product.SKU
		existing.PriceCents = product.PriceCents
		existing.Stock = product.Stock
		existing.CategoryID = product.CategoryID

		if err := s.productRepo.Update(ctx, existing); err != nil {
			return err
		}
		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindProduct,
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
		s.logger.Error("Failed to update product",
			zap.Int64("product_id", product.ID),
			zap.Error(err))
		return nil, err
	}

	return updated, nil
}

func (s *productService) Delete(ctx context.Context, actor *auth.Actor, id int64) error {
	scope, err := auth.ResolveActorScope(actor, auth.PermProductsManage)
	if err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		product, err := s.productRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if scope != auth.ScopeAll && !sameDepartment(actor.DepartmentID, &product.DepartmentID) {
			return apperrors.ErrForbidden
		}

		before := product.Snapshot()
		if err := s.productRepo.Delete(ctx, id); err != nil {
			return err
		}
		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindProduct,
			ID:      id,
			Actions: []models.ChangeAction{models.ActionDelete},
			Before:  before,
			Message: fmt.Sprintf("deleted product %q (%s)", product.Name, product.SKU),
		})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to delete product",
			zap.Int64("product_id", id),
			zap.Error(err))
		return err
	}

	return nil
}

func (s *productService) CheckExistence(ctx context.Context, ids []int64) ([]int64, error) {
	return s.productRepo.ExistingIDs(ctx, ids)
}
