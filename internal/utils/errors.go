package utils

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsUniqueViolation reports whether err is a unique constraint violation from
// PostgreSQL (code 23505) or SQLite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		return pge.Code == "23505"
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
