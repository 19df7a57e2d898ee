package pgstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrEthical07/goAuthz/identity"
)

var (
	// ErrConflict is returned when a write violates a unique constraint, for
	// example a mobile number already owned by another user.
	ErrConflict = errors.New("pgstore: conflicting value")
	// ErrUnavailable wraps connection-class and transient failures.
	ErrUnavailable = errors.New("pgstore: database unavailable")
	// ErrQuery wraps every other database failure.
	ErrQuery = errors.New("pgstore: query failed")
)

// classify maps driver errors onto package sentinels. sql.ErrNoRows and
// NoDataFound become identity.ErrNotFound.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return identity.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch pgErr.Code {
	case pgerrcode.NoDataFound:
		return identity.ErrNotFound
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.AdminShutdown,
		pgerrcode.TooManyConnections:
		return fmt.Errorf("%w: %s", ErrUnavailable, pgErr.Code)
	}
	return fmt.Errorf("%w: %s %s", ErrQuery, pgErr.Code, pgErr.Message)
}
