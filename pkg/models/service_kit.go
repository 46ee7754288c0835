package models

import "time"

// ServiceKit is a named bundle of products used when fulfilling bookings.
type ServiceKit struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	ProductIDs   []int64   `json:"product_ids"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const serviceKitSnapshotVersion = 1

// ServiceKitSnapshot is the versioned loggable view of a service kit.
type ServiceKitSnapshot struct {
	SchemaVersion int     `json:"schema_version"`
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	ProductIDs    []int64 `json:"product_ids"`
	DepartmentID  *int64  `json:"department_id"`
}

// Snapshot returns the loggable view of the service kit.
func (k *ServiceKit) Snapshot() ServiceKitSnapshot {
	return ServiceKitSnapshot{
		SchemaVersion: serviceKitSnapshotVersion,
		ID:            k.ID,
		Name:          k.Name,
		Description:   k.Description,
		ProductIDs:    copyInt64s(k.ProductIDs),
		DepartmentID:  copyInt64Ptr(k.DepartmentID),
	}
}
