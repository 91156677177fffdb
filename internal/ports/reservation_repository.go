package ports

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"time"
)

// Port: read-only boundary to the reservation store.
type ReservationRepository interface {
	// Return one reservation or an error wrapping domain.ErrReservationNotFound.
	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
	// Return every reservation scheduled on the given service date, by scheduled time.
	ListReservationsByDate(ctx context.Context, date time.Time) ([]*domain.Reservation, error)
}
