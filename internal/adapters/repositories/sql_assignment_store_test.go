package repositories

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/db"
	"delivery-sequencing-service/internal/ports"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, InitSchema(ctx, conn))
	// Schema creation is idempotent.
	require.NoError(t, InitSchema(ctx, conn))
	return conn
}

func insertGroup(t *testing.T, store *SQLAssignmentStore, name string) *domain.DeliveryGroup {
	t.Helper()

	g, err := domain.NewDeliveryGroup(name, testDay, "ops", time.Now())
	require.NoError(t, err)
	require.NoError(t, store.WithinTx(context.Background(), func(ctx context.Context, tx ports.AssignmentTx) error {
		return tx.InsertGroup(ctx, g)
	}))
	return g
}

func TestSQLAssignmentStore_GroupRoundTrip(t *testing.T) {
	store := NewSQLAssignmentStore(openTestDB(t), time.Second)
	ctx := context.Background()
	g := insertGroup(t, store, "Team 1")

	got, err := store.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Name, got.Name)
	assert.Equal(t, "ops", got.Owner)
	assert.True(t, got.ServiceDate.Equal(testDay))
	assert.Zero(t, got.Version)

	_, err = store.GetGroup(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)

	groups, err := store.ListGroupsByDate(ctx, testDay)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	groups, err = store.ListGroupsByDate(ctx, testDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestSQLAssignmentStore_AssignmentLifecycle(t *testing.T) {
	store := NewSQLAssignmentStore(openTestDB(t), time.Second)
	ctx := context.Background()
	g := insertGroup(t, store, "Team 1")

	a := domain.NewAssignment(g.ID, "R-1")
	a.Position = 1
	b := domain.NewAssignment(g.ID, "R-2")
	b.Position = 2

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		none, err := tx.FindByReservation(ctx, "R-1")
		require.NoError(t, err)
		assert.Nil(t, none)

		require.NoError(t, tx.InsertAssignment(ctx, a))
		return tx.InsertAssignment(ctx, b)
	})
	require.NoError(t, err)

	done := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	a.Position, b.Position = 2, 1
	a.CompletedAt = &done
	err = store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		found, err := tx.FindByReservation(ctx, "R-2")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, b.ID, found.ID)

		return tx.UpdateAssignments(ctx, []domain.Assignment{a, b})
	})
	require.NoError(t, err)

	stops, err := store.ListAssignments(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, "R-2", stops[0].ReservationID)
	assert.Equal(t, "R-1", stops[1].ReservationID)
	require.NotNil(t, stops[1].CompletedAt)
	assert.True(t, stops[1].CompletedAt.Equal(done))
	assert.Nil(t, stops[0].CompletedAt)

	err = store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		return tx.DeleteAssignment(ctx, a.ID)
	})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		return tx.DeleteAssignment(ctx, a.ID)
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSQLAssignmentStore_ReservationIsUnique(t *testing.T) {
	store := NewSQLAssignmentStore(openTestDB(t), time.Second)
	g1 := insertGroup(t, store, "Team 1")
	g2 := insertGroup(t, store, "Team 2")

	first := domain.NewAssignment(g1.ID, "R-1")
	first.Position = 1
	second := domain.NewAssignment(g2.ID, "R-1")
	second.Position = 1

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx ports.AssignmentTx) error {
		if err := tx.InsertAssignment(ctx, first); err != nil {
			return err
		}
		return tx.InsertAssignment(ctx, second)
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	stops, err := store.ListAssignments(context.Background(), g1.ID)
	require.NoError(t, err)
	assert.Empty(t, stops, "failed transaction must roll back")
}

func TestSQLAssignmentStore_SaveCountersDetectsStaleVersion(t *testing.T) {
	store := NewSQLAssignmentStore(openTestDB(t), time.Second)
	ctx := context.Background()
	g := insertGroup(t, store, "Team 1")

	stale, err := store.GetGroup(ctx, g.ID)
	require.NoError(t, err)

	fresh, err := store.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	fresh.TotalAssigned = 3
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		return tx.SaveCounters(ctx, fresh)
	}))
	assert.EqualValues(t, 1, fresh.Version)

	stale.TotalAssigned = 7
	err = store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		return tx.SaveCounters(ctx, stale)
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := store.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalAssigned)
	assert.EqualValues(t, 1, got.Version)
}

func TestSQLAssignmentStore_WithinTxRollsBackOnError(t *testing.T) {
	store := NewSQLAssignmentStore(openTestDB(t), time.Second)
	ctx := context.Background()
	boom := errors.New("boom")

	g, err := domain.NewDeliveryGroup("Team 1", testDay, "", time.Now())
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		require.NoError(t, tx.InsertGroup(ctx, g))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.GetGroup(ctx, g.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLAssignmentStore_SetRouteURL(t *testing.T) {
	store := NewSQLAssignmentStore(openTestDB(t), time.Second)
	ctx := context.Background()
	g := insertGroup(t, store, "Team 1")

	require.NoError(t, store.SetRouteURL(ctx, g.ID, "https://example.test/route"))
	got, err := store.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/route", got.RouteURL)

	err = store.SetRouteURL(ctx, uuid.New(), "x")
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)
}
