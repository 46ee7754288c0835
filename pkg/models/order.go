package models

import "time"

// OrderStatus is the fulfillment status of an order.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusInWork    OrderStatus = "in_work"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValidOrderStatus checks if the given status is valid.
func IsValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusNew, OrderStatusInWork, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Order is a customer order. ManagerID is nil until a manager claims it.
type Order struct {
	ID            int64       `json:"id"`
	Number        string      `json:"number"`
	Status        OrderStatus `json:"status"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email,omitempty"`
	TotalCents    int64       `json:"total_cents"`
	DepartmentID  *int64      `json:"department_id,omitempty"`
	ManagerID     *int64      `json:"manager_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Assigned reports whether the order has been claimed by a manager.
func (o *Order) Assigned() bool {
	return o.ManagerID != nil
}

const orderSnapshotVersion = 1

// OrderSnapshot is the versioned loggable view of an order.
type OrderSnapshot struct {
	SchemaVersion int         `json:"schema_version"`
	ID            int64       `json:"id"`
	Number        string      `json:"number"`
	Status        OrderStatus `json:"status"`
	CustomerName  string      `json:"customer_name"`
	TotalCents    int64       `json:"total_cents"`
	DepartmentID  *int64      `json:"department_id"`
	ManagerID     *int64      `json:"manager_id"`
}

// Snapshot returns the loggable view of the order.
func (o *Order) Snapshot() OrderSnapshot {
	return OrderSnapshot{
		SchemaVersion: orderSnapshotVersion,
		ID:            o.ID,
		Number:        o.Number,
		Status:        o.Status,
		CustomerName:  o.CustomerName,
		TotalCents:    o.TotalCents,
		DepartmentID:  copyInt64Ptr(o.DepartmentID),
		ManagerID:     copyInt64Ptr(o.ManagerID),
	}
}
