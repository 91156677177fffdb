// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"context"
	"delivery-sequencing-service/internal/adapters/repositories"
	"delivery-sequencing-service/internal/platform/db"
	"testing"

	"github.com/jmoiron/sqlx"
)

// Open returns a fresh in-memory SQLite database with the schema applied.
// It is closed when the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := repositories.InitSchema(ctx, conn); err != nil {
		t.Fatalf("init test schema: %v", err)
	}
	return conn
}
