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

// ServiceKitRepository defines the interface for service kit data access.
type ServiceKitRepository interface {
	Create(ctx context.Context, kit *models.ServiceKit) error
	GetByID(ctx context.Context, id int64) (*models.ServiceKit, error)
	Update(ctx context.Context, kit *models.ServiceKit) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, departmentID *int64) ([]*models.ServiceKit, error)
	// CountBookings returns how many bookings reference the kit.
	CountBookings(ctx context.Context, id int64) (int, error)
}

type serviceKitRepository struct {
	db *database.DB
}

// NewServiceKitRepository creates a new service kit repository.
func NewServiceKitRepository(db *database.DB) ServiceKitRepository {
	return &serviceKitRepository{db: db}
}

var _ ServiceKitRepository = (*serviceKitRepository)(nil)

const kitColumns = `id, name, description, product_ids, department_id, created_at, updated_at`

func (r *serviceKitRepository) Create(ctx context.Context, kit *models.ServiceKit) error {
	now := time.Now()
	kit.CreatedAt = now
	kit.UpdatedAt = now

	query := `
		INSERT INTO service_kits (name, description, product_ids, department_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		kit.Name, kit.Description, kit.ProductIDs, kit.DepartmentID,
		kit.CreatedAt, kit.UpdatedAt,
	).Scan(&kit.ID)
	if err != nil {
		return fmt.Errorf("failed to create service kit: %w", err)
	}

	return nil
}

func (r *serviceKitRepository) GetByID(ctx context.Context, id int64) (*models.ServiceKit, error) {
	query := `SELECT ` + kitColumns + ` FROM service_kits WHERE id = $1`

	kit, err := scanServiceKit(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service kit: %w", err)
	}

	return kit, nil
}

func (r *serviceKitRepository) Update(ctx context.Context, kit *models.ServiceKit) error {
	kit.UpdatedAt = time.Now()

	query := `
		UPDATE service_kits
		SET name = $1, description = $2, product_ids = $3, updated_at = $4
		WHERE id = $5`

	result, err := r.db.Querier(ctx).Exec(ctx, query,
		kit.Name, kit.Description, kit.ProductIDs, kit.UpdatedAt, kit.ID)
	if err != nil {
		return fmt.Errorf("failed to update service kit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *serviceKitRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM service_kits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service kit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *serviceKitRepository) List(ctx context.Context, departmentID *int64) ([]*models.ServiceKit, error) {
	query := `SELECT ` + kitColumns + ` FROM service_kits ORDER BY name`
	args := []any{}
	if departmentID != nil {
		query = `SELECT ` + kitColumns + ` FROM service_kits WHERE department_id = $1 ORDER BY name`
		args = append(args, *departmentID)
	}

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list service kits: %w", err)
	}
	defer rows.Close()

	var kits []*models.ServiceKit
	for rows.Next() {
		kit, err := scanServiceKit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service kit: %w", err)
		}
		kits = append(kits, kit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service kits: %w", err)
	}

	return kits, nil
}

func (r *serviceKitRepository) CountBookings(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE service_kit_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count kit bookings: %w", err)
	}
	return count, nil
}

func scanServiceKit(row pgx.Row) (*models.ServiceKit, error) {
	var kit models.ServiceKit
	err := row.Scan(
		&kit.ID,
		&kit.Name,
		&kit.Description,
		&kit.ProductIDs,
		&kit.DepartmentID,
		&kit.CreatedAt,
		&kit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &kit, nil
}
