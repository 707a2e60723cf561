package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a tenant-scoped row does not exist. Rows owned by another
	// tenant are reported the same way.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("record conflict")
	// ErrPageNotConnected is returned when a page-scoped row references a page the tenant has
	// not connected.
	ErrPageNotConnected = errors.New("page not connected")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

type rowScanner interface {
	Scan(dest ...any) error
}
