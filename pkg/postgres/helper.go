package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation = "23505"
)

// IsUniqueViolation reports whether err (or anything it wraps) is a
// PostgreSQL unique violation, SQLSTATE 23505.
//
// Two processes running CREATE TABLE IF NOT EXISTS at the same time can get
// this error from the pg_type catalog even though the table now exists.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == codeUniqueViolation
	}

	return false
}
