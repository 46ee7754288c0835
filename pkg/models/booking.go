package models

import "time"

// BookingStatus is the lifecycle status of a service booking.
type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "scheduled"
	BookingStatusDone      BookingStatus = "done"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsValidBookingStatus checks if the given status is valid.
func IsValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusScheduled, BookingStatusDone, BookingStatusCancelled:
		return true
	default:
		return false
	}
}

// Booking is a scheduled service visit, optionally backed by a service kit.
type Booking struct {
	ID           int64         `json:"id"`
	CustomerName string        `json:"customer_name"`
	ServiceKitID *int64        `json:"service_kit_id,omitempty"`
	DepartmentID *int64        `json:"department_id,omitempty"`
	ManagerID    *int64        `json:"manager_id,omitempty"`
	Status       BookingStatus `json:"status"`
	ScheduledAt  time.Time     `json:"scheduled_at"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

const bookingSnapshotVersion = 1

// BookingSnapshot is the versioned loggable view of a booking.
type BookingSnapshot struct {
	SchemaVersion int           `json:"schema_version"`
	ID            int64         `json:"id"`
	CustomerName  string        `json:"customer_name"`
	ServiceKitID  *int64        `json:"service_kit_id"`
	DepartmentID  *int64        `json:"department_id"`
	ManagerID     *int64        `json:"manager_id"`
	Status        BookingStatus `json:"status"`
	ScheduledAt   time.Time     `json:"scheduled_at"`
}

// Snapshot returns the loggable view of the booking.
func (b *Booking) Snapshot() BookingSnapshot {
	return BookingSnapshot{
		SchemaVersion: bookingSnapshotVersion,
		ID:            b.ID,
		CustomerName:  b.CustomerName,
		ServiceKitID:  copyInt64Ptr(b.ServiceKitID),
		DepartmentID:  copyInt64Ptr(b.DepartmentID),
		ManagerID:     copyInt64Ptr(b.ManagerID),
		Status:        b.Status,
		ScheduledAt:   b.ScheduledAt,
	}
}
