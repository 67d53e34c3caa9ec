package catalog

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrPersist marks a failed staging write for a single record
	ErrPersist = errors.New("failed to persist record")

	// ErrPromotion marks a failed promotion of staging to production
	ErrPromotion = errors.New("failed to promote release")

	// ErrNoProduction is returned when a production view is required but absent
	ErrNoProduction = errors.New("release has no production view")

	// ErrUnknownColumn is returned when a patch names a column that cannot be patched
	ErrUnknownColumn = errors.New("column cannot be patched")
)

// StorageError is returned by store operations that fail after a connection
// has been established.
type StorageError struct {
	Op      string
	Release string
	Kind    error // ErrPersist, ErrPromotion or nil
	Err     error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.Release == "" {
		return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("catalog %s (release %s): %v", e.Op, e.Release, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *StorageError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

// StorageConnectionError is returned when the catalog store cannot be
// reached or initialized.
type StorageConnectionError struct {
	Target string
	Err    error
}

// Error implements the error interface
func (e *StorageConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to catalog store %s: %v", e.Target, e.Err)
}

// Unwrap returns the cause
func (e *StorageConnectionError) Unwrap() error {
	return e.Err
}

func storageErr(op, release string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Release: release, Kind: kind, Err: err}
}

// IsPersistError reports whether err is a failed record write
func IsPersistError(err error) bool {
	return errors.Is(err, ErrPersist)
}

// IsPromotionError reports whether err is a failed promotion
func IsPromotionError(err error) bool {
	return errors.Is(err, ErrPromotion)
}

// IsConnectionError reports whether err means the store itself is gone, as
// opposed to a single statement failing. Runs abort on these.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var connErr *StorageConnectionError
	if errors.As(err, &connErr) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pgConnectErr *pgconn.ConnectError
	if errors.As(err, &pgConnectErr) {
		return true
	}

	// SQLSTATE class 08: connection exception
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08") {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "08" {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
