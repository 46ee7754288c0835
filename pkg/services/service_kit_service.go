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

// ServiceKitService manages service kits, the product bundles bookings are
// fulfilled with. A kit referenced by bookings cannot be deleted.
type ServiceKitService interface {
	Create(ctx context.Context, actor *auth.Actor, kit *models.ServiceKit) (*models.ServiceKit, error)
	GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.ServiceKit, error)
	List(ctx context.Context, actor *auth.Actor) ([]*models.ServiceKit, error)
	Update(ctx context.Context, actor *auth.Actor, kit *models.ServiceKit) (*models.ServiceKit, error)
	Delete(ctx context.Context, actor *auth.Actor, id int64) error
}

type serviceKitService struct {
	kitRepo     repositories.ServiceKitRepository
	productRepo repositories.ProductRepository
	changeLog   ChangeLogService
	db          TxRunner
	logger      *zap.Logger
}

// NewServiceKitService creates a new ServiceKitService.
func NewServiceKitService(
	kitRepo repositories.ServiceKitRepository,
	productRepo repositories.ProductRepository,
	changeLog ChangeLogService,
	db TxRunner,
	logger *zap.Logger,
) ServiceKitService {
	return &serviceKitService{
		kitRepo:     kitRepo,
		productRepo: productRepo,
		changeLog:   changeLog,
		db:          db,
		logger:      logger.Named("service-kit-service"),
	}
}

var _ ServiceKitService = (*serviceKitService)(nil)

func (s *serviceKitService) Create(ctx context.Context, actor *auth.Actor, kit *models.ServiceKit) (*models.ServiceKit, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermKitsManage)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(kit.Name) == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if scope != auth.ScopeAll {
		kit.DepartmentID = copyID(actor.DepartmentID)
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		if err := s.checkProducts(ctx, kit.ProductIDs); err != nil {
			return err
		}
		if err := s.kitRepo.Create(ctx, kit); err != nil {
			return err
		}
		_, err := s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindServiceKit,
			ID:      kit.ID,
			Actions: []models.ChangeAction{models.ActionCreate},
			After:   kit.Snapshot(),
			Message: fmt.Sprintf("created service kit %q", kit.Name),
		})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to create service kit", zap.Error(err))
		return nil, err
	}

	return kit, nil
}

func (s *serviceKitService) GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.ServiceKit, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermKitsManage)
	if err != nil {
		return nil, err
	}

	kit, err := s.kitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope != auth.ScopeAll && !sameDepartment(actor.DepartmentID, kit.DepartmentID) {
		return nil, apperrors.ErrForbidden
	}
	return kit, nil
}

func (s *serviceKitService) List(ctx context.Context, actor *auth.Actor) ([]*models.ServiceKit, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermKitsManage)
	if err != nil {
		return nil, err
	}
	if scope == auth.ScopeAll {
		return s.kitRepo.List(ctx, nil)
	}
	return s.kitRepo.List(ctx, actor.DepartmentID)
}

func (s *serviceKitService) Update(ctx context.Context, actor *auth.Actor, kit *models.ServiceKit) (*models.ServiceKit, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermKitsManage)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(kit.Name) == "" {
		return nil, apperrors.ErrInvalidInput
	}

	var updated *models.ServiceKit
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.kitRepo.GetByID(ctx, kit.ID)
		if err != nil {
			return err
		}
		if scope != auth.ScopeAll && !sameDepartment(actor.DepartmentID, existing.DepartmentID) {
			return apperrors.ErrForbidden
		}
		if err := s.checkProducts(ctx, kit.ProductIDs); err != nil {
			return err
		}

		before := existing.Snapshot()
		existing.Name = kit.Name
		existing.Description = kit.Description
		existing.ProductIDs = kit.ProductIDs

		if err := s.kitRepo.Update(ctx, existing); err != nil {
			return err
		}
		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindServiceKit,
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
		s.logger.Error("Failed to update service kit",
			zap.Int64("kit_id", kit.ID),
			zap.Error(err))
		return nil, err
	}

	return updated, nil
}

func (s *serviceKitService) Delete(ctx context.Context, actor *auth.Actor, id int64) error {
	scope, err := auth.ResolveActorScope(actor, auth.PermKitsManage)
	if err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		kit, err := s.kitRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if scope != auth.ScopeAll && !sameDepartment(actor.DepartmentID, kit.DepartmentID) {
			return apperrors.ErrForbidden
		}

		count, err := s.kitRepo.CountBookings(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrConflict
		}

		before := kit.Snapshot()
		if err := s.kitRepo.Delete(ctx, id); err != nil {
			return err
		}
		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindServiceKit,
			ID:      id,
			Actions: []models.ChangeAction{models.ActionDelete},
			Before:  before,
			Message: fmt.Sprintf("deleted service kit %q", kit.Name),
		})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to delete service kit",
			zap.Int64("kit_id", id),
			zap.Error(err))
		return err
	}

	return nil
}

// checkProducts verifies every referenced product exists.
func (s *serviceKitService) checkProducts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	existing, err := s.productRepo.ExistingIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(existing) != len(uniqueIDs(ids)) {
		return apperrors.ErrNotFound
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
