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

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	// GetByIDForUpdate loads an order with a row lock. Must run inside a
	// transaction; assignment transitions use it to serialize claims.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Order, error)
	// List returns orders, optionally restricted to a department.
	List(ctx context.Context, departmentID *int64) ([]*models.Order, error)
	SetManager(ctx context.Context, orderID int64, managerID *int64) error
	SetStatus(ctx context.Context, orderID int64, status models.OrderStatus) error
}

type orderRepository struct {
	db *database.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *database.DB) OrderRepository {
	return &orderRepository{db: db}
}

var _ OrderRepository = (*orderRepository)(nil)

const orderColumns = `id, number, status, customer_name, customer_email, total_cents, department_id, manager_id, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = models.OrderStatusNew
	}

	query := `
		INSERT INTO orders (number, status, customer_name, customer_email, total_cents, department_id, manager_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.db.Querier(ctx).QueryRow(ctx, query,
		order.Number, order.Status, order.CustomerName, order.CustomerEmail,
		order.TotalCents, order.DepartmentID, order.ManagerID,
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	return r.getByID(ctx, id, false)
}

func (r *orderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	return r.getByID(ctx, id, true)
}

func (r *orderRepository) getByID(ctx context.Context, id int64, forUpdate bool) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	order, err := scanOrder(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) List(ctx context.Context, departmentID *int64) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	args := []any{}
	if departmentID != nil {
		query = `SELECT ` + orderColumns + ` FROM orders WHERE department_id = $1 ORDER BY created_at DESC`
		args = append(args, *departmentID)
	}

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) SetManager(ctx context.Context, orderID int64, managerID *int64) error {
	query := `UPDATE orders SET manager_id = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Querier(ctx).Exec(ctx, query, managerID, time.Now(), orderID)
	if err != nil {
		return fmt.Errorf("failed to set order manager: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *orderRepository) SetStatus(ctx context.Context, orderID int64, status models.OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Querier(ctx).Exec(ctx, query, status, time.Now(), orderID)
	if err != nil {
		return fmt.Errorf("failed to set order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID,
		&order.Number,
		&order.Status,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.TotalCents,
		&order.DepartmentID,
		&order.ManagerID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
