package persistence

import (
	"errors"

	"deal_server/core/port/out"

	"github.com/jackc/pgx/v5/pgconn"
)

// Common persistence errors. Not-found and duplicate alias the port
// sentinels so services can match them without importing this package.
var (
	ErrNotFound     = out.ErrNotFound
	ErrDuplicate    = out.ErrDuplicate
	ErrInvalidInput = errors.New("invalid input")
)

// isForeignKeyViolation reports whether err is SQLSTATE 23503, which
// Postgres raises when an insert references a row that does not exist.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
