package models

import "time"

// Department groups users, products, orders and bookings for scoping.
type Department struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CategoryIDs []int64   `json:"category_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const departmentSnapshotVersion = 1

// DepartmentSnapshot is the versioned loggable view of a department.
// EmployeeIDs freezes membership at snapshot time so historical logs can
// show who belonged to the department even after later membership changes.
type DepartmentSnapshot struct {
	SchemaVersion int     `json:"schema_version"`
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	CategoryIDs   []int64 `json:"category_ids"`
	EmployeeIDs   []int64 `json:"employee_ids"`
}

// Snapshot returns the loggable view of the department with the given
// member user ids. Slices are copied, not aliased.
func (d *Department) Snapshot(employeeIDs []int64) DepartmentSnapshot {
	return DepartmentSnapshot{
		SchemaVersion: departmentSnapshotVersion,
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		CategoryIDs:   copyInt64s(d.CategoryIDs),
		EmployeeIDs:   copyInt64s(employeeIDs),
	}
}

func copyInt64s(in []int64) []int64 {
	if in == nil {
		return nil
	}
	out := make([]int64, len(in))
	copy(out, in)
	return out
}
