package repositories

import (
	"context"
	"database/sql"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/obs"
	"delivery-sequencing-service/internal/ports"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SQLAssignmentStore implements ports.AssignmentStore on SQLite or PostgreSQL.
//
// Concurrent writers are serialized per group with an optimistic version:
// every mutation ends with SaveCounters, which only succeeds if the group
// row still carries the version read at the start of the transaction.
type SQLAssignmentStore struct {
	DB        *sqlx.DB
	TxTimeout time.Duration
}

func NewSQLAssignmentStore(db *sqlx.DB, txTimeout time.Duration) *SQLAssignmentStore {
	return &SQLAssignmentStore{DB: db, TxTimeout: txTimeout}
}

var _ ports.AssignmentStore = (*SQLAssignmentStore)(nil)

func (s *SQLAssignmentStore) WithinTx(
	ctx context.Context,
	fn func(ctx context.Context, tx ports.AssignmentTx) error,
) error {
	if s.DB == nil {
		return errors.New("assignment store: DB is nil")
	}

	if s.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.TxTimeout)
		defer cancel()
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return classify("assignment store: begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &sqlAssignmentTx{tx: tx}); err != nil {
		if ctx.Err() != nil && !errors.Is(err, domain.ErrStorage) {
			return classify("assignment store", ctx.Err())
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify("assignment store: commit tx", err)
	}

	return nil
}

func (s *SQLAssignmentStore) GetGroup(ctx context.Context, id uuid.UUID) (_ *domain.DeliveryGroup, err error) {
	defer obs.Time(ctx, "store.GetGroup")(&err)
	return getGroup(ctx, s.DB, id)
}

func (s *SQLAssignmentStore) ListGroupsByDate(ctx context.Context, date time.Time) (_ []*domain.DeliveryGroup, err error) {
	defer obs.Time(ctx, "store.ListGroupsByDate")(&err)

	q := s.DB.Rebind(`
	SELECT id, name, service_date, owner, total_assigned, completed_assigned,
		route_url, version, created_at
	FROM delivery_groups
	WHERE service_date = ?
	ORDER BY name, created_at, id;
	`)

	var rows []groupRow
	if err := s.DB.SelectContext(ctx, &rows, q, domain.DateKey(date)); err != nil {
		return nil, classify("list groups by date", err)
	}

	out := make([]*domain.DeliveryGroup, 0, len(rows))
	for _, row := range rows {
		g, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("list groups by date: %w", err)
		}
		out = append(out, g)
	}

	return out, nil
}

func (s *SQLAssignmentStore) ListAssignments(ctx context.Context, groupID uuid.UUID) (_ []domain.Assignment, err error) {
	defer obs.Time(ctx, "store.ListAssignments")(&err)
	return listAssignments(ctx, s.DB, groupID)
}

func (s *SQLAssignmentStore) SetRouteURL(ctx context.Context, groupID uuid.UUID, url string) error {
	q := s.DB.Rebind(`UPDATE delivery_groups SET route_url = ? WHERE id = ?;`)

	res, err := s.DB.ExecContext(ctx, q, url, groupID)
	if err != nil {
		return classify("set route url", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("set route url: rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("set route url: %w", domain.ErrGroupNotFound)
	}

	return nil
}

type sqlAssignmentTx struct {
	tx *sqlx.Tx
}

func (t *sqlAssignmentTx) GetGroup(ctx context.Context, id uuid.UUID) (*domain.DeliveryGroup, error) {
	return getGroup(ctx, t.tx, id)
}

func (t *sqlAssignmentTx) InsertGroup(ctx context.Context, g *domain.DeliveryGroup) error {
	q := t.tx.Rebind(`
	INSERT INTO delivery_groups (
		id, name, service_date, owner, total_assigned, completed_assigned,
		route_url, version, created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)

	_, err := t.tx.ExecContext(ctx, q,
		g.ID, g.Name, domain.DateKey(g.ServiceDate), g.Owner,
		g.TotalAssigned, g.CompletedAssigned, g.RouteURL, g.Version, g.CreatedAt.Unix(),
	)
	if err != nil {
		return classify(fmt.Sprintf("insert group %s", g.ID), err)
	}

	return nil
}

func (t *sqlAssignmentTx) ListAssignments(ctx context.Context, groupID uuid.UUID) ([]domain.Assignment, error) {
	return listAssignments(ctx, t.tx, groupID)
}

func (t *sqlAssignmentTx) FindByReservation(ctx context.Context, reservationID string) (*domain.Assignment, error) {
	q := t.tx.Rebind(`
	SELECT id, group_id, reservation_id, position, completed_at
	FROM assignments
	WHERE reservation_id = ?;
	`)

	var row assignmentRow
	if err := t.tx.GetContext(ctx, &row, q, reservationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("find assignment by reservation", err)
	}

	a := row.toDomain()
	return &a, nil
}

func (t *sqlAssignmentTx) InsertAssignment(ctx context.Context, a domain.Assignment) error {
	q := t.tx.Rebind(`
	INSERT INTO assignments (id, group_id, reservation_id, position, completed_at)
	VALUES (?, ?, ?, ?, ?);
	`)

	if _, err := t.tx.ExecContext(ctx, q, a.ID, a.GroupID, a.ReservationID, a.Position, unixOrNull(a.CompletedAt)); err != nil {
		return classify(fmt.Sprintf("insert assignment reservation=%q", a.ReservationID), err)
	}

	return nil
}

func (t *sqlAssignmentTx) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	q := t.tx.Rebind(`DELETE FROM assignments WHERE id = ?;`)

	res, err := t.tx.ExecContext(ctx, q, id)
	if err != nil {
		return classify("delete assignment", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("delete assignment: rows affected", err)
	}
	if n == 0 {
		// Someone else removed it after we read it.
		return fmt.Errorf("delete assignment %s: %w", id, domain.ErrConflict)
	}

	return nil
}

func (t *sqlAssignmentTx) UpdateAssignments(ctx context.Context, as []domain.Assignment) error {
	if len(as) == 0 {
		return nil
	}

	stmt, err := t.tx.PreparexContext(ctx, t.tx.Rebind(`
	UPDATE assignments
	SET group_id = ?, position = ?, completed_at = ?
	WHERE id = ?;
	`))
	if err != nil {
		return classify("update assignments: prepare", err)
	}
	defer stmt.Close()

	for _, a := range as {
		res, err := stmt.ExecContext(ctx, a.GroupID, a.Position, unixOrNull(a.CompletedAt), a.ID)
		if err != nil {
			return classify(fmt.Sprintf("update assignment reservation=%q", a.ReservationID), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return classify("update assignments: rows affected", err)
		}
		if n == 0 {
			return fmt.Errorf("update assignment reservation=%q: %w", a.ReservationID, domain.ErrConflict)
		}
	}

	return nil
}

func (t *sqlAssignmentTx) SaveCounters(ctx context.Context, g *domain.DeliveryGroup) error {
	q := t.tx.Rebind(`
	UPDATE delivery_groups
	SET total_assigned = ?, completed_assigned = ?, version = version + 1
	WHERE id = ? AND version = ?;
	`)

	res, err := t.tx.ExecContext(ctx, q, g.TotalAssigned, g.CompletedAssigned, g.ID, g.Version)
	if err != nil {
		return classify(fmt.Sprintf("save counters group=%s", g.ID), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("save counters: rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("save counters group=%s version=%d: %w", g.ID, g.Version, domain.ErrConflict)
	}

	g.Version++
	return nil
}

type groupRow struct {
	ID                uuid.UUID `db:"id"`
	Name              string    `db:"name"`
	ServiceDate       string    `db:"service_date"`
	Owner             string    `db:"owner"`
	TotalAssigned     int       `db:"total_assigned"`
	CompletedAssigned int       `db:"completed_assigned"`
	RouteURL          string    `db:"route_url"`
	Version           int64     `db:"version"`
	CreatedAt         int64     `db:"created_at"`
}

func (r groupRow) toDomain() (*domain.DeliveryGroup, error) {
	date, err := domain.ParseDate(r.ServiceDate)
	if err != nil {
		return nil, fmt.Errorf("group %s: parse service date: %w", r.ID, err)
	}

	return &domain.DeliveryGroup{
		ID:                r.ID,
		Name:              r.Name,
		ServiceDate:       date,
		Owner:             r.Owner,
		TotalAssigned:     r.TotalAssigned,
		CompletedAssigned: r.CompletedAssigned,
		RouteURL:          r.RouteURL,
		Version:           r.Version,
		CreatedAt:         time.Unix(r.CreatedAt, 0).UTC(),
	}, nil
}

type assignmentRow struct {
	ID            uuid.UUID     `db:"id"`
	GroupID       uuid.UUID     `db:"group_id"`
	ReservationID string        `db:"reservation_id"`
	Position      int           `db:"position"`
	CompletedAt   sql.NullInt64 `db:"completed_at"`
}

func (r assignmentRow) toDomain() domain.Assignment {
	a := domain.Assignment{
		ID:            r.ID,
		GroupID:       r.GroupID,
		ReservationID: r.ReservationID,
		Position:      r.Position,
	}
	if r.CompletedAt.Valid {
		t := time.Unix(r.CompletedAt.Int64, 0).UTC()
		a.CompletedAt = &t
	}
	return a
}

func getGroup(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.DeliveryGroup, error) {
	query := q.Rebind(`
	SELECT id, name, service_date, owner, total_assigned, completed_assigned,
		route_url, version, created_at
	FROM delivery_groups
	WHERE id = ?;
	`)

	var row groupRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get group %s: %w", id, domain.ErrGroupNotFound)
		}
		return nil, classify("get group", err)
	}

	return row.toDomain()
}

func listAssignments(ctx context.Context, q sqlx.ExtContext, groupID uuid.UUID) ([]domain.Assignment, error) {
	query := q.Rebind(`
	SELECT id, group_id, reservation_id, position, completed_at
	FROM assignments
	WHERE group_id = ?
	ORDER BY position, id;
	`)

	var rows []assignmentRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, groupID); err != nil {
		return nil, classify("list assignments", err)
	}

	out := make([]domain.Assignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}

	return out, nil
}

func unixOrNull(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
