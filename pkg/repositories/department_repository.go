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

// DepartmentRepository defines the interface for department data access.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *models.Department) error
	GetByID(ctx context.Context, id int64) (*models.Department, error)
	Update(ctx context.Context, dept *models.Department) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*models.Department, error)
	// MemberIDs returns the ids of users currently in the department.
	MemberIDs(ctx context.Context, id int64) ([]int64, error)
	// CountOrders returns how many orders reference the department.
	CountOrders(ctx context.Context, id int64) (int, error)
	// ExistingIDs filters the given ids down to those that still exist.
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type departmentRepository struct {
	db *database.DB
}

// NewDepartmentRepository creates a new department repository.
func NewDepartmentRepository(db *database.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

var _ DepartmentRepository = (*departmentRepository)(nil)

func (r *departmentRepository) Create(ctx context.Context, dept *models.Department) error {
	now := time.Now()
	dept.CreatedAt = now
	dept.UpdatedAt = now

	query := `
		INSERT INTO departments (name, description, category_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		dept.Name, dept.Description, dept.CategoryIDs, dept.CreatedAt, dept.UpdatedAt,
	).Scan(&dept.ID)
	if err != nil {
		return fmt.Errorf("failed to create department: %w", err)
	}

	return nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*models.Department, error) {
	query := `
		SELECT id, name, description, category_ids, created_at, updated_at
		FROM departments WHERE id = $1`

	var dept models.Department
	err := r.db.Querier(ctx).QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.Description,
		&dept.CategoryIDs,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}

	return &dept, nil
}

func (r *departmentRepository) Update(ctx context.Context, dept *models.Department) error {
	dept.UpdatedAt = time.Now()

	query := `
		UPDATE departments
		SET name = $1, description = $2, category_ids = $3, updated_at = $4
		WHERE id = $5`

	result, err := r.db.Querier(ctx).Exec(ctx, query,
		dept.Name, dept.Description, dept.CategoryIDs, dept.UpdatedAt, dept.ID)
	if err != nil {
		return fmt.Errorf("failed to update department: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *departmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *departmentRepository) List(ctx context.Context) ([]*models.Department, error) {
	query := `
		SELECT id, name, description, category_ids, created_at, updated_at
		FROM departments ORDER BY name`

	rows, err := r.db.Querier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var depts []*models.Department
	for rows.Next() {
		var dept models.Department
		err := rows.Scan(
			&dept.ID,
			&dept.Name,
			&dept.Description,
			&dept.CategoryIDs,
			&dept.CreatedAt,
			&dept.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		depts = append(depts, &dept)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating departments: %w", err)
	}

	return depts, nil
}

func (r *departmentRepository) MemberIDs(ctx context.Context, id int64) ([]int64, error) {
	query := `SELECT id FROM users WHERE department_id = $1 ORDER BY id`

	rows, err := r.db.Querier(ctx).Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get department members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return ids, nil
}

func (r *departmentRepository) CountOrders(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE department_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count department orders: %w", err)
	}
	return count, nil
}

func (r *departmentRepository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return existingIDs(ctx, r.db.Querier(ctx), "departments", ids)
}

// existingIDs is shared by the check-existence queries.
func existingIDs(ctx context.Context, q database.Querier, table string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := q.Query(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE id = ANY($1) ORDER BY id`, table), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing ids in %s: %w", table, err)
	}
	defer rows.Close()

	var existing []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		existing = append(existing, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ids: %w", err)
	}

	return existing, nil
}
