package db

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mdt/mdt/internal/platform/apperr"
)

// PostgreSQL SQLSTATE codes the store reacts to.
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
	QueryCanceled       = "57014"
)

// MapError translates a pgx error into the apperr taxonomy. resource and id
// name the entity for NotFound messages. Errors that already carry a kind are
// returned unchanged and nil stays nil.
func MapError(err error, resource, id string) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case UniqueViolation:
			e := apperr.Conflict("duplicate value violates a unique constraint")
			e.Details = map[string]string{"constraint": pgErr.ConstraintName}
			e.Cause = err
			return e
		case ForeignKeyViolation:
			e := apperr.NotFound(resource, id)
			e.Cause = err
			return e
		case QueryCanceled:
			return apperr.Unavailable(err)
		}
		return apperr.Internal(err)
	}

	if IsUnavailable(err) {
		return apperr.Unavailable(err)
	}
	return apperr.Internal(err)
}

// IsUnavailable reports whether err stems from a timeout or a broken
// connection rather than from the statement itself.
func IsUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.Timeout(err)
}

// ConstraintOf returns the violated constraint name for a Conflict produced
// by MapError, or "".
func ConstraintOf(err error) string {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) && appErr.Details != nil {
		return appErr.Details["constraint"]
	}
	return ""
}
