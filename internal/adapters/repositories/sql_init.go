package repositories

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
)

// The schema sticks to types and syntax shared by SQLite and PostgreSQL:
// ids are TEXT, timestamps are unix seconds, dates are YYYY-MM-DD text.
var schemaStatements = []string{
	`
	CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		service_date TEXT NOT NULL,
		scheduled_at BIGINT NOT NULL,
		address TEXT NOT NULL
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_reservations_service_date
	ON reservations(service_date, scheduled_at);
	`,
	`
	CREATE TABLE IF NOT EXISTS delivery_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		service_date TEXT NOT NULL,
		owner TEXT NOT NULL DEFAULT '',
		total_assigned INTEGER NOT NULL DEFAULT 0,
		completed_assigned INTEGER NOT NULL DEFAULT 0,
		route_url TEXT NOT NULL DEFAULT '',
		version BIGINT NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_delivery_groups_service_date
	ON delivery_groups(service_date);
	`,
	// reservation_id is UNIQUE: a reservation belongs to at most one group.
	`
	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES delivery_groups(id),
		reservation_id TEXT NOT NULL UNIQUE,
		position INTEGER NOT NULL CHECK (position > 0),
		completed_at BIGINT
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_assignments_group_position
	ON assignments(group_id, position);
	`,
	`
	CREATE TABLE IF NOT EXISTS distance_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_meters INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		PRIMARY KEY (origin, destination)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL
	);
	`,
}

// Initialize the database schema. Statements are idempotent.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type ReservationSeed struct {
	ID          string `json:"id"`
	ScheduledAt string `json:"scheduled_at"`
	Address     string `json:"address"`
}

// Populate the reservations table from a JSON file. Existing rows with the
// same id are replaced. Returns the number of rows written.
func SeedFromJSON(ctx context.Context, db *sqlx.DB, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed reservations: read %q: %w", jsonPath, err)
	}

	var data []ReservationSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed reservations: parse json: %w", err)
	}

	rows := make([]domain.Reservation, 0, len(data))
	for i, item := range data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return 0, fmt.Errorf("seed reservations: item %d: id cannot be empty", i+1)
		}

		at, err := parseTimestamp(item.ScheduledAt)
		if err != nil {
			return 0, fmt.Errorf("seed reservations: item %d: scheduled_at: %w", i+1, err)
		}

		addr := domain.NormalizeAddress(item.Address)
		if addr == "" {
			return 0, fmt.Errorf("seed reservations: item %d: address cannot be empty", i+1)
		}

		rows = append(rows, domain.Reservation{ID: id, ScheduledAt: at, Address: addr})
	}

	repo := NewSQLReservationRepository(db)
	if err := repo.Upsert(ctx, rows); err != nil {
		return 0, fmt.Errorf("seed reservations: %w", err)
	}

	return len(rows), nil
}
