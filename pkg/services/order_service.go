package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/apperrors"
	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/repositories"
)

// OrderService handles order visibility, lifecycle and manager assignment.
//
// Orders outside the caller's scope read as not found, never as forbidden,
// so a probing client cannot distinguish "exists elsewhere" from "does not
// exist".
type OrderService interface {
	Create(ctx context.Context, actor *auth.Actor, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.Order, error)
	List(ctx context.Context, actor *auth.Actor) ([]*models.Order, error)

	// Claim assigns an unassigned order. Own-scoped callers always claim
	// for themselves; department- and all-scoped callers may name a target
	// manager, who must belong to the order's department unless the caller
	// sees all departments. Claiming an already assigned order fails with
	// ErrInvalidStateTransition, whoever holds it.
	Claim(ctx context.Context, actor *auth.Actor, orderID int64, managerID *int64) (*models.Order, error)

	// Release returns an assigned order to the unassigned pool. Managers
	// cannot release at all - not even their own claims; release is an
	// admin operation.
	Release(ctx context.Context, actor *auth.Actor, orderID int64) (*models.Order, error)

	ChangeStatus(ctx context.Context, actor *auth.Actor, orderID int64, status models.OrderStatus) (*models.Order, error)
}

type orderService struct {
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
	changeLog ChangeLogService
	db        TxRunner
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, changeLog ChangeLogService, db TxRunner, logger *zap.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		changeLog: changeLog,
		db:        db,
		logger:    logger.Named("order-service"),
	}
}

var _ OrderService = (*orderService)(nil)

// orderTransitions lists the allowed status transitions. Completed and
// cancelled are terminal.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusNew:    {models.OrderStatusInWork, models.OrderStatusCancelled},
	models.OrderStatusInWork: {models.OrderStatusCompleted, models.OrderStatusCancelled},
}

func orderCanTransition(from, to models.OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *orderService) Create(ctx context.Context, actor *auth.Actor, order *models.Order) (*models.Order, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermOrdersManage)
	if err != nil {
		return nil, err
	}
	// Department-scoped callers always create into their own department.
	if scope != auth.ScopeAll {
		order.DepartmentID = copyID(actor.DepartmentID)
	}
	if order.Status == "" {
		order.Status = models.OrderStatusNew
	}
	if !models.IsValidOrderStatus(order.Status) {
		return nil, apperrors.ErrInvalidInput
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.Create(ctx, order); err != nil {
			return err
		}
		_, err := s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindOrder,
			ID:      order.ID,
			Actions: []models.ChangeAction{models.ActionCreate},
			After:   order.Snapshot(),
			Message: fmt.Sprintf("created order %s", order.Number),
		})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to create order", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("number", order.Number),
		zap.Int64("actor_id", actor.ID))
	return order, nil
}

func (s *orderService) GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.Order, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermOrdersView)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessDepartment(actor, scope, order.DepartmentID) {
		return nil, apperrors.ErrNotFound
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, actor *auth.Actor) ([]*models.Order, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermOrdersView)
	if err != nil {
		return nil, err
	}

	if scope == auth.ScopeAll {
		return s.orderRepo.List(ctx, nil)
	}
	return s.orderRepo.List(ctx, actor.DepartmentID)
}

func (s *orderService) Claim(ctx context.Context, actor *auth.Actor, orderID int64, managerID *int64) (*models.Order, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermOrdersAssign)
	if err != nil {
		return nil, err
	}
	// Own scope means claiming for yourself, full stop.
	if scope == auth.ScopeOwn && managerID != nil && *managerID != actor.ID {
		return nil, apperrors.ErrForbidden
	}

	var claimed *models.Order
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		// Row lock serializes concurrent claims: the loser observes the
		// winner's assignment and fails the state check below.
		order, err := s.orderRepo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !auth.CanAccessDepartment(actor, scope, order.DepartmentID) {
			return apperrors.ErrNotFound
		}
		if order.Assigned() {
			return apperrors.ErrInvalidStateTransition
		}

		targetID := actor.ID
		targetName := actor.Name
		if managerID != nil && *managerID != actor.ID {
			target, err := s.userRepo.GetByID(ctx, *managerID)
			if err != nil {
				return err
			}
			if target.Role != models.RoleManager && target.Role != models.RoleAdmin {
				return apperrors.ErrInvalidInput
			}
			// The target must work the order's department; only all-scoped
			// callers may cross that line.
			if scope != auth.ScopeAll && !sameDepartment(target.DepartmentID, order.DepartmentID) {
				return apperrors.ErrForbidden
			}
			targetID = target.ID
			targetName = target.Name
		}

		before := order.Snapshot()
		if err := s.orderRepo.SetManager(ctx, order.ID, &targetID); err != nil {
			return err
		}
		order.ManagerID = &targetID

		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindOrder,
			ID:      order.ID,
			Actions: []models.ChangeAction{models.ActionAssign},
			Before:  before,
			After:   order.Snapshot(),
			Message: fmt.Sprintf("order %s assigned to %s", order.Number, targetName),
			Related: []models.EntityRef{{Kind: models.EntityKindUser, ID: targetID}},
		})
		if err != nil {
			return err
		}

		claimed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order claimed",
		zap.Int64("order_id", claimed.ID),
		zap.Int64("manager_id", *claimed.ManagerID),
		zap.Int64("actor_id", actor.ID))
	return claimed, nil
}

func (s *orderService) Release(ctx context.Context, actor *auth.Actor, orderID int64) (*models.Order, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermOrdersRelease)
	if err != nil {
		return nil, err
	}

	var released *models.Order
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !auth.CanAccessDepartment(actor, scope, order.DepartmentID) {
			return apperrors.ErrNotFound
		}
		if !order.Assigned() {
			return apperrors.ErrInvalidStateTransition
		}

		before := order.Snapshot()
		if err := s.orderRepo.SetManager(ctx, order.ID, nil); err != nil {
			return err
		}
		order.ManagerID = nil

		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindOrder,
			ID:      order.ID,
			Actions: []models.ChangeAction{models.ActionUnassign},
			Before:  before,
			After:   order.Snapshot(),
			Message: fmt.Sprintf("order %s released", order.Number),
		})
		if err != nil {
			return err
		}

		released = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order released",
		zap.Int64("order_id", released.ID),
		zap.Int64("actor_id", actor.ID))
	return released, nil
}

func (s *orderService) ChangeStatus(ctx context.Context, actor *auth.Actor, orderID int64, status models.OrderStatus) (*models.Order, error) {
	if !models.IsValidOrderStatus(status) {
		return nil, apperrors.ErrInvalidInput
	}

	scope, err := auth.ResolveActorScope(actor, auth.PermOrdersManage)
	if err != nil {
		return nil, err
	}

	var updated *models.Order
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !auth.CanAccessDepartment(actor, scope, order.DepartmentID) {
			return apperrors.ErrNotFound
		}
		// Own scope additionally requires holding the assignment.
		if scope == auth.ScopeOwn && (order.ManagerID == nil || *order.ManagerID != actor.ID) {
			return apperrors.ErrNotFound
		}
		if !orderCanTransition(order.Status, status) {
			return apperrors.ErrInvalidStateTransition
		}

		before := order.Snapshot()
		if err := s.orderRepo.SetStatus(ctx, order.ID, status); err != nil {
			return err
		}
		oldStatus := order.Status
		order.Status = status

		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindOrder,
			ID:      order.ID,
			Actions: []models.ChangeAction{models.ActionChangeStatus},
			Before:  before,
			After:   order.Snapshot(),
			Message: fmt.Sprintf("order %s status changed from %s to %s", order.Number, oldStatus, status),
		})
		if err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func copyID(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
