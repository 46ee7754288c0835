package models

import "time"

// Product is a sellable item owned by a department.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SKU          string    `json:"sku"`
	PriceCents   int64     `json:"price_cents"`
	Stock        int       `json:"stock"`
	CategoryID   *int64    `json:"category_id,omitempty"`
	DepartmentID int64     `json:"department_id"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const productSnapshotVersion = 1

// ProductSnapshot is the versioned loggable view of a product.
type ProductSnapshot struct {
	SchemaVersion int    `json:"schema_version"`
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	PriceCents    int64  `json:"price_cents"`
	Stock         int    `json:"stock"`
	CategoryID    *int64 `json:"category_id"`
	DepartmentID  int64  `json:"department_id"`
}

// Snapshot returns the loggable view of the product.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		SchemaVersion: productSnapshotVersion,
		ID:            p.ID,
		Name:          p.Name,
		SKU:           p.SKU,
		PriceCents:    p.PriceCents,
		Stock:         p.Stock,
		CategoryID:    copyInt64Ptr(p.CategoryID),
		DepartmentID:  p.DepartmentID,
	}
}
