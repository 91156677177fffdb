package ports

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"time"

	"github.com/google/uuid"
)

// AssignmentStore persists groups and their assignments.
//
// Reads outside WithinTx see committed state only. Every mutation goes
// through WithinTx so a multi-row change is applied entirely or not at all.
type AssignmentStore interface {
	// WithinTx runs fn in one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx AssignmentTx) error) error

	GetGroup(ctx context.Context, id uuid.UUID) (*domain.DeliveryGroup, error)
	ListGroupsByDate(ctx context.Context, date time.Time) ([]*domain.DeliveryGroup, error)
	ListAssignments(ctx context.Context, groupID uuid.UUID) ([]domain.Assignment, error)
	// SetRouteURL overwrites the cached route link of a group.
	SetRouteURL(ctx context.Context, groupID uuid.UUID, url string) error
}

// AssignmentTx is the transactional view handed to WithinTx callbacks.
type AssignmentTx interface {
	GetGroup(ctx context.Context, id uuid.UUID) (*domain.DeliveryGroup, error)
	InsertGroup(ctx context.Context, g *domain.DeliveryGroup) error
	ListAssignments(ctx context.Context, groupID uuid.UUID) ([]domain.Assignment, error)
	// FindByReservation returns the reservation's assignment in any group,
	// or nil when the reservation is unassigned.
	FindByReservation(ctx context.Context, reservationID string) (*domain.Assignment, error)
	InsertAssignment(ctx context.Context, a domain.Assignment) error
	DeleteAssignment(ctx context.Context, id uuid.UUID) error
	// UpdateAssignments writes group, position and completion of each row.
	UpdateAssignments(ctx context.Context, as []domain.Assignment) error
	// SaveCounters writes the group's counters if its version is unchanged
	// since it was read, then advances g.Version. A stale version yields
	// domain.ErrConflict.
	SaveCounters(ctx context.Context, g *domain.DeliveryGroup) error
}
