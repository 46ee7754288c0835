package models

import "time"

// Category classifies products within a department.
type Category struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const categorySnapshotVersion = 1

// CategorySnapshot is the versioned loggable view of a category.
type CategorySnapshot struct {
	SchemaVersion int    `json:"schema_version"`
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	DepartmentID  *int64 `json:"department_id"`
}

// Snapshot returns the loggable view of the category.
func (c *Category) Snapshot() CategorySnapshot {
	return CategorySnapshot{
		SchemaVersion: categorySnapshotVersion,
		ID:            c.ID,
		Name:          c.Name,
		DepartmentID:  copyInt64Ptr(c.DepartmentID),
	}
}
