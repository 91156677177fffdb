package domain

import (
	"time"

	"github.com/google/uuid"
)

// Assignment links one reservation to one group at a 1-based position.
// A reservation has at most one assignment at any time.
type Assignment struct {
	ID            uuid.UUID
	GroupID       uuid.UUID
	ReservationID string
	Position      int
	CompletedAt   *time.Time
}

func NewAssignment(groupID uuid.UUID, reservationID string) Assignment {
	return Assignment{
		ID:            uuid.New(),
		GroupID:       groupID,
		ReservationID: reservationID,
	}
}

// IsCompleted reports whether the stop has been delivered.
func (a Assignment) IsCompleted() bool { return a.CompletedAt != nil }

// Complete moves the assignment from pending to completed.
// It returns false when the assignment was already completed.
func (a *Assignment) Complete(at time.Time) bool {
	if a.CompletedAt != nil {
		return false
	}
	t := at.UTC()
	a.CompletedAt = &t
	return true
}
