package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

// IsForeignKeyViolation reports a 23503 error; column narrows it to constraints mentioning that column.
func IsForeignKeyViolation(err error, column string) bool {
	var pgErr *pgconn.PgError

	if !errors.As(err, &pgErr) || pgErr.Code != "23503" {
		return false
	}

	if column == "" {
		return true
	}

	return strings.Contains(pgErr.ConstraintName, column) || strings.Contains(pgErr.Detail, column)
}
