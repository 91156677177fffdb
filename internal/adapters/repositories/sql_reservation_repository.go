package repositories

import (
	"context"
	"database/sql"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/obs"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQL-backed implementation of the ReservationRepository port.
type SQLReservationRepository struct{ DB *sqlx.DB }

func NewSQLReservationRepository(db *sqlx.DB) *SQLReservationRepository {
	return &SQLReservationRepository{DB: db}
}

type reservationRow struct {
	ID          string `db:"id"`
	ServiceDate string `db:"service_date"`
	ScheduledAt int64  `db:"scheduled_at"`
	Address     string `db:"address"`
}

func (r reservationRow) toDomain() (*domain.Reservation, error) {
	date, err := domain.ParseDate(r.ServiceDate)
	if err != nil {
		return nil, fmt.Errorf("reservation %q: parse service date: %w", r.ID, err)
	}
	return &domain.Reservation{
		ID:          r.ID,
		ServiceDate: date,
		ScheduledAt: time.Unix(r.ScheduledAt, 0).UTC(),
		Address:     r.Address,
	}, nil
}

// Return a single reservation by id.
func (s *SQLReservationRepository) GetReservation(ctx context.Context, id string) (_ *domain.Reservation, err error) {
	defer obs.Time(ctx, "reservations.Get")(&err)

	if s.DB == nil {
		return nil, errors.New("sql reservation repository: DB is nil")
	}

	q := s.DB.Rebind(`
	SELECT id, service_date, scheduled_at, address
	FROM reservations
	WHERE id = ?;
	`)

	var row reservationRow
	if err := s.DB.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get reservation %q: %w", id, domain.ErrReservationNotFound)
		}
		return nil, classify("get reservation", err)
	}

	return row.toDomain()
}

// Return all reservations for a service date ordered by scheduled time.
func (s *SQLReservationRepository) ListReservationsByDate(ctx context.Context, date time.Time) (_ []*domain.Reservation, err error) {
	defer obs.Time(ctx, "reservations.ListByDate")(&err)

	if s.DB == nil {
		return nil, errors.New("sql reservation repository: DB is nil")
	}

	q := s.DB.Rebind(`
	SELECT id, service_date, scheduled_at, address
	FROM reservations
	WHERE service_date = ?
	ORDER BY scheduled_at, id;
	`)

	var rows []reservationRow
	if err := s.DB.SelectContext(ctx, &rows, q, domain.DateKey(date)); err != nil {
		return nil, classify("list reservations", err)
	}

	out := make([]*domain.Reservation, 0, len(rows))
	for _, row := range rows {
		r, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("list reservations: %w", err)
		}
		out = append(out, r)
	}

	return out, nil
}

// Upsert writes reservations, replacing rows that share an id.
// The service date is derived from ScheduledAt in UTC.
func (s *SQLReservationRepository) Upsert(ctx context.Context, reservations []domain.Reservation) error {
	if s.DB == nil {
		return errors.New("sql reservation repository: DB is nil")
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert reservations: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
	INSERT INTO reservations (id, service_date, scheduled_at, address)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET service_date = excluded.service_date,
		scheduled_at = excluded.scheduled_at,
		address = excluded.address;
	`))
	if err != nil {
		return fmt.Errorf("upsert reservations: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range reservations {
		at := r.ScheduledAt.UTC()
		if _, err := stmt.ExecContext(ctx, r.ID, domain.DateKey(at), at.Unix(), r.Address); err != nil {
			return fmt.Errorf("upsert reservations: insert id=%q: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert reservations: commit tx: %w", err)
	}

	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
