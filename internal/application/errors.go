package application

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when creating a resource that collides with an existing one.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication input does not match a known account.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when the presented session token is past its validity window.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when the presented session token was explicitly revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrInvalidTransition is returned when the requested status change is not
	// permitted by the booking state machine.
	ErrInvalidTransition = errors.New("application: invalid status transition")
	// ErrRoomInUse is returned when deleting a room that active bookings still reference.
	ErrRoomInUse = errors.New("application: room has active bookings")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictOverlap identifies one booking that collides with a submitted or
// approved interval.
type ConflictOverlap struct {
	BookingID string
	RoomID    string
	Start     time.Time
	End       time.Time
}

// ConflictError reports that a booking interval collides with active bookings
// for the same room. The overlapping entries are listed so callers can render
// them to the requester.
type ConflictError struct {
	Overlaps []ConflictOverlap
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil || len(c.Overlaps) == 0 {
		return "booking conflict"
	}
	ids := make([]string, 0, len(c.Overlaps))
	for _, o := range c.Overlaps {
		ids = append(ids, o.BookingID)
	}
	return fmt.Sprintf("booking conflict with %s", strings.Join(ids, ", "))
}
