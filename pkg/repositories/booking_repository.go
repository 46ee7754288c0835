package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brightmall/backoffice-engine/pkg/apperrors"
	"github.com/brightmall/backoffice-engine/pkg/database"
	"github.com/brightmall/backoffice-engine/pkg/models"
)

// BookingRepository defines the interface for booking data access.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, departmentID *int64) ([]*models.Booking, error)
}

type bookingRepository struct {
	db *database.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *database.DB) BookingRepository {
	return &bookingRepository{db: db}
}

var _ BookingRepository = (*bookingRepository)(nil)

const bookingColumns = `id, customer_name, service_kit_id, department_id, manager_id, status, scheduled_at, created_at, updated_at`

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.Status == "" {
		booking.Status = models.BookingStatusScheduled
	}

	query := `
		INSERT INTO bookings (customer_name, service_kit_id, department_id, manager_id, status, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		booking.CustomerName, booking.ServiceKitID, booking.DepartmentID,
		booking.ManagerID, booking.Status, booking.ScheduledAt,
		booking.CreatedAt, booking.UpdatedAt,
	).Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now()

	query := `
		UPDATE bookings
		SET customer_name = $1, service_kit_id = $2, manager_id = $3, status = $4, scheduled_at = $5, updated_at = $6
		WHERE id = $7`

	result, err := r.db.Querier(ctx).Exec(ctx, query,
		booking.CustomerName, booking.ServiceKitID, booking.ManagerID,
		booking.Status, booking.ScheduledAt, booking.UpdatedAt, booking.ID)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *bookingRepository) List(ctx context.Context, departmentID *int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY scheduled_at DESC`
	args := []any{}
	if departmentID != nil {
		query = `SELECT ` + bookingColumns + ` FROM bookings WHERE department_id = $1 ORDER BY scheduled_at DESC`
		args = append(args, *departmentID)
	}

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var booking models.Booking
	err := row.Scan(
		&booking.ID,
		&booking.CustomerName,
		&booking.ServiceKitID,
		&booking.DepartmentID,
		&booking.ManagerID,
		&booking.Status,
		&booking.ScheduledAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
