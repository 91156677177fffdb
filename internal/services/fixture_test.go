package services

import (
	"context"
	"delivery-sequencing-service/internal/adapters/repositories"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/db/dbtest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var serviceDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return serviceDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

type fixture struct {
	store        *repositories.SQLAssignmentStore
	reservations *repositories.SQLReservationRepository
	registry     *GroupRegistry
	seq          *SequencingService
}

// newFixture opens an in-memory database holding reservations A..E,
// scheduled 09:00, 09:30, 10:15, 11:00 and 11:20 on serviceDay.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)

	reservations := repositories.NewSQLReservationRepository(conn)
	require.NoError(t, reservations.Upsert(context.Background(), []domain.Reservation{
		{ID: "A", ScheduledAt: at(9, 0), Address: "addr A"},
		{ID: "B", ScheduledAt: at(9, 30), Address: "addr B"},
		{ID: "C", ScheduledAt: at(10, 15), Address: "addr C"},
		{ID: "D", ScheduledAt: at(11, 0), Address: "addr D"},
		{ID: "E", ScheduledAt: at(11, 20), Address: "addr E"},
	}))

	store := repositories.NewSQLAssignmentStore(conn, 5*time.Second)
	return &fixture{
		store:        store,
		reservations: reservations,
		registry:     NewGroupRegistry(store, 4),
		seq:          NewSequencingService(store, reservations),
	}
}

func (f *fixture) group(t *testing.T, name string, reservationIDs ...string) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	g, err := f.registry.CreateGroup(ctx, name, serviceDay, "")
	require.NoError(t, err)

	if len(reservationIDs) > 0 {
		_, err := f.seq.AssignBatch(ctx, g.ID, reservationIDs)
		require.NoError(t, err)
	}
	return g.ID
}

// order returns the group's reservation ids in stored position order and
// fails the test unless positions are exactly 1..N.
func (f *fixture) order(t *testing.T, groupID uuid.UUID) []string {
	t.Helper()

	stops, err := f.store.ListAssignments(context.Background(), groupID)
	require.NoError(t, err)

	ids := make([]string, 0, len(stops))
	for i, a := range stops {
		require.Equal(t, i+1, a.Position, "positions must be dense")
		ids = append(ids, a.ReservationID)
	}
	return ids
}

func (f *fixture) counters(t *testing.T, groupID uuid.UUID) (total, completed int) {
	t.Helper()

	g, err := f.store.GetGroup(context.Background(), groupID)
	require.NoError(t, err)
	return g.TotalAssigned, g.CompletedAssigned
}

func reservationIDs(stops []domain.Assignment) []string {
	out := make([]string, 0, len(stops))
	for _, a := range stops {
		out = append(out, a.ReservationID)
	}
	return out
}
