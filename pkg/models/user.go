// Package models contains domain types for backoffice-engine.
package models

import "time"

// Role is a user's role in the back office.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleClient     Role = "client"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleSuperadmin, RoleAdmin, RoleManager, RoleClient}

// IsValidRole checks if the given role is valid.
func IsValidRole(role Role) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents a back-office user account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const userSnapshotVersion = 1

// UserSnapshot is the versioned loggable view of a user.
type UserSnapshot struct {
	SchemaVersion int    `json:"schema_version"`
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          Role   `json:"role"`
	DepartmentID  *int64 `json:"department_id"`
}

// Snapshot returns the loggable view of the user. DepartmentID is copied so
// the snapshot does not alias the live row.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		SchemaVersion: userSnapshotVersion,
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		DepartmentID:  copyInt64Ptr(u.DepartmentID),
	}
}

func copyInt64Ptr(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
