package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/apperrors"
	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/repositories"
)

// BookingService manages service bookings. Like orders, out-of-scope
// bookings read as not found.
type BookingService interface {
	Create(ctx context.Context, actor *auth.Actor, booking *models.Booking) (*models.Booking, error)
	GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.Booking, error)
	List(ctx context.Context, actor *auth.Actor) ([]*models.Booking, error)
	ChangeStatus(ctx context.Context, actor *auth.Actor, id int64, status models.BookingStatus) (*models.Booking, error)
	Delete(ctx context.Context, actor *auth.Actor, id int64) error
}

type bookingService struct {
	bookingRepo repositories.BookingRepository
	kitRepo     repositories.ServiceKitRepository
	changeLog   ChangeLogService
	db          TxRunner
	logger      *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookingRepo repositories.BookingRepository,
	kitRepo repositories.ServiceKitRepository,
	changeLog ChangeLogService,
	db TxRunner,
	logger *zap.Logger,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		kitRepo:     kitRepo,
		changeLog:   changeLog,
		db:          db,
		logger:      logger.Named("booking-service"),
	}
}

var _ BookingService = (*bookingService)(nil)

// bookingTransitions: scheduled bookings can finish or be cancelled, done
// and cancelled are terminal.
var bookingTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusScheduled: {models.BookingStatusDone, models.BookingStatusCancelled},
}

func bookingCanTransition(from, to models.BookingStatus) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *bookingService) Create(ctx context.Context, actor *auth.Actor, booking *models.Booking) (*models.Booking, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermBookingsManage)
	if err != nil {
		return nil, err
	}
	if booking.CustomerName == "" || booking.ScheduledAt.IsZero() {
		return nil, apperrors.ErrInvalidInput
	}
	if booking.ScheduledAt.Before(time.Now()) {
		return nil, apperrors.ErrInvalidInput
	}
	if scope != auth.ScopeAll {
		booking.DepartmentID = copyID(actor.DepartmentID)
	}
	// Managers create bookings for themselves.
	if scope == auth.ScopeOwn {
		managerID := actor.ID
		booking.ManagerID = &managerID
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		if booking.ServiceKitID != nil {
			if _, err := s.kitRepo.GetByID(ctx, *booking.ServiceKitID); err != nil {
				return err
			}
		}
		if err := s.bookingRepo.Create(ctx, booking); err != nil {
			return err
		}
		_, err := s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindBooking,
			ID:      booking.ID,
			Actions: []models.ChangeAction{models.ActionCreate},
			After:   booking.Snapshot(),
			Message: fmt.Sprintf("created booking for %s", booking.CustomerName),
		})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to create booking", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("actor_id", actor.ID))
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, actor *auth.Actor, id int64) (*models.Booking, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermBookingsView)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessDepartment(actor, scope, booking.DepartmentID) {
		return nil, apperrors.ErrNotFound
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, actor *auth.Actor) ([]*models.Booking, error) {
	scope, err := auth.ResolveActorScope(actor, auth.PermBookingsView)
	if err != nil {
		return nil, err
	}
	if scope == auth.ScopeAll {
		return s.bookingRepo.List(ctx, nil)
	}
	return s.bookingRepo.List(ctx, actor.DepartmentID)
}

func (s *bookingService) ChangeStatus(ctx context.Context, actor *auth.Actor, id int64, status models.BookingStatus) (*models.Booking, error) {
	if !models.IsValidBookingStatus(status) {
		return nil, apperrors.ErrInvalidInput
	}

	scope, err := auth.ResolveActorScope(actor, auth.PermBookingsManage)
	if err != nil {
		return nil, err
	}

	var updated *models.Booking
	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !auth.CanAccessDepartment(actor, scope, booking.DepartmentID) {
			return apperrors.ErrNotFound
		}
		if scope == auth.ScopeOwn && (booking.ManagerID == nil || *booking.ManagerID != actor.ID) {
			return apperrors.ErrNotFound
		}
		if !bookingCanTransition(booking.Status, status) {
			return apperrors.ErrInvalidStateTransition
		}

		before := booking.Snapshot()
		oldStatus := booking.Status
		booking.Status = status
		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return err
		}

		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindBooking,
			ID:      booking.ID,
			Actions: []models.ChangeAction{models.ActionChangeStatus},
			Before:  before,
			After:   booking.Snapshot(),
			Message: fmt.Sprintf("booking status changed from %s to %s", oldStatus, status),
		})
		if err != nil {
			return err
		}

		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *bookingService) Delete(ctx context.Context, actor *auth.Actor, id int64) error {
	scope, err := auth.ResolveActorScope(actor, auth.PermBookingsManage)
	if err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !auth.CanAccessDepartment(actor, scope, booking.DepartmentID) {
			return apperrors.ErrNotFound
		}
		if scope == auth.ScopeOwn && (booking.ManagerID == nil || *booking.ManagerID != actor.ID) {
			return apperrors.ErrNotFound
		}
		// Only cancelled bookings may be removed.
		if booking.Status != models.BookingStatusCancelled {
			return apperrors.ErrConflict
		}

		before := booking.Snapshot()
		if err := s.bookingRepo.Delete(ctx, id); err != nil {
			return err
		}
		_, err = s.changeLog.Record(ctx, actor.Snapshot(), Change{
			Kind:    models.EntityKindBooking,
			ID:      id,
			Actions: []models.ChangeAction{models.ActionDelete},
			Before:  before,
			Message: fmt.Sprintf("deleted booking for %s", booking.CustomerName),
		})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to delete booking",
			zap.Int64("booking_id", id),
			zap.Error(err))
		return err
	}

	return nil
}
