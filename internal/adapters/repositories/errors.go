package repositories

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// classify maps driver errors onto the domain taxonomy. Lock contention,
// serialization failures and uniqueness races mean another writer got
// there first and the caller may retry; anything else is a storage failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", // unique_violation
			"40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03": // lock_not_available
			return fmt.Errorf("%s: %w: %s", op, domain.ErrConflict, pgErr.Message)
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch code := liteErr.Code(); {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			code&0xff == sqlite3.SQLITE_BUSY,
			code&0xff == sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%s: %w: %v", op, domain.ErrConflict, liteErr)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: transaction timed out", op, domain.ErrStorage)
	}

	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}
