package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityKind identifies the kind of entity a change log entry belongs to.
type EntityKind string

const (
	EntityKindUser       EntityKind = "user"
	EntityKindDepartment EntityKind = "department"
	EntityKindCategory   EntityKind = "category"
	EntityKindProduct    EntityKind = "product"
	EntityKindOrder      EntityKind = "order"
	EntityKindBooking    EntityKind = "booking"
	EntityKindServiceKit EntityKind = "service_kit"
)

// IsValidEntityKind checks if the given kind is valid.
func IsValidEntityKind(k EntityKind) bool {
	switch k {
	case EntityKindUser, EntityKindDepartment, EntityKindCategory,
		EntityKindProduct, EntityKindOrder, EntityKindBooking, EntityKindServiceKit:
		return true
	default:
		return false
	}
}

// ChangeAction tags what happened to an entity. A single entry may carry
// several actions when one request changes several aspects at once.
type ChangeAction string

const (
	ActionCreate ChangeAction = "create"
	ActionUpdate ChangeAction = "update"
	ActionDelete ChangeAction = "delete"

	// Order and booking assignment.
	ActionAssign   ChangeAction = "assign"
	ActionUnassign ChangeAction = "unassign"

	ActionChangeStatus ChangeAction = "change_status"

	// Department aggregate actions.
	ActionChangeName       ChangeAction = "change_name"
	ActionAddEmployees     ChangeAction = "add_employees"
	ActionRemoveEmployees  ChangeAction = "remove_employees"
	ActionChangeCategories ChangeAction = "change_categories"
	ActionDeleteDepartment ChangeAction = "delete_department"
)

// ActorSnapshot freezes the actor's displayable fields at the time of the
// action. If the actor's profile changes later, historical logs still show
// what was true when the entry was written.
type ActorSnapshot struct {
	UserID         int64  `json:"user_id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Role           Role   `json:"role"`
	DepartmentID   *int64 `json:"department_id,omitempty"`
	DepartmentName string `json:"department_name,omitempty"`
}

// EntityRef points at a related entity affected by the same request.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   int64      `json:"id"`
}

// ChangeLogEntry is an append-only audit record. Once written it is never
// updated or deleted. Before/After hold full entity snapshots (not just the
// diff) so readers can reconstruct complete state for any point in time.
type ChangeLogEntry struct {
	ID         uuid.UUID       `json:"id"`
	EntityKind EntityKind      `json:"entity_kind"`
	EntityID   int64           `json:"entity_id"`
	Actions    []ChangeAction  `json:"actions"`
	Actor      ActorSnapshot   `json:"actor"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	Message    string          `json:"message"`
	Related    []EntityRef     `json:"related,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// HasAction reports whether the entry carries the given action tag.
func (e *ChangeLogEntry) HasAction(a ChangeAction) bool {
	for _, action := range e.Actions {
		if action == a {
			return true
		}
	}
	return false
}

// FieldChange represents the old and new values for a changed field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ChangeLogFilters narrows change log list queries.
type ChangeLogFilters struct {
	Since      *time.Time
	Until      *time.Time
	ActorQuery string // matches actor snapshot name or email, case-insensitive
	Action     ChangeAction
	EntityID   *int64
	Page       int
	PageSize   int
}
