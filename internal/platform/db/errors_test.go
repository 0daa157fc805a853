package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mdt/mdt/internal/platform/apperr"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, apperr.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("get patient: %w", pgx.ErrNoRows), apperr.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: UniqueViolation, ConstraintName: "patient_hospital_number_key"}, apperr.ErrConflict},
		{"foreign key violation", &pgconn.PgError{Code: ForeignKeyViolation}, apperr.ErrNotFound},
		{"query canceled", &pgconn.PgError{Code: QueryCanceled}, apperr.ErrUnavailable},
		{"other pg error", &pgconn.PgError{Code: "42P01"}, apperr.ErrInternal},
		{"deadline", fmt.Errorf("begin transaction: %w", context.DeadlineExceeded), apperr.ErrUnavailable},
		{"unknown", errors.New("boom"), apperr.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err, "patient", "7")
			if !errors.Is(got, tt.want) {
				t.Errorf("MapError(%v) = %v, want kind %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	if err := MapError(nil, "patient", "1"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestMapError_KeepsAppError(t *testing.T) {
	in := apperr.Validation("date_of_birth", "bad date")
	out := MapError(fmt.Errorf("register: %w", in), "patient", "")
	if !errors.Is(out, apperr.ErrValidation) {
		t.Errorf("expected validation kind to survive, got %v", out)
	}
}

func TestMapError_NotFoundDetails(t *testing.T) {
	appErr := apperr.From(MapError(pgx.ErrNoRows, "mdt_case", "42"))
	if appErr.Details["resource"] != "mdt_case" || appErr.Details["id"] != "42" {
		t.Errorf("unexpected details: %v", appErr.Details)
	}
}

func TestMapError_ConflictKeepsCause(t *testing.T) {
	pgErr := &pgconn.PgError{Code: UniqueViolation, ConstraintName: "users_email_key"}
	err := MapError(pgErr, "user", "")

	var target *pgconn.PgError
	if !errors.As(err, &target) {
		t.Fatal("expected the pg error to remain reachable")
	}
	if got := ConstraintOf(err); got != "users_email_key" {
		t.Errorf("expected constraint users_email_key, got %q", got)
	}
}

func TestConstraintOf_NonConflict(t *testing.T) {
	if got := ConstraintOf(errors.New("x")); got != "" {
		t.Errorf("expected empty constraint, got %q", got)
	}
}

func TestIsUnavailable(t *testing.T) {
	if !IsUnavailable(context.DeadlineExceeded) {
		t.Error("deadline should be unavailable")
	}
	if !IsUnavailable(fmt.Errorf("query: %w", context.Canceled)) {
		t.Error("cancellation should be unavailable")
	}
	if IsUnavailable(errors.New("syntax error")) {
		t.Error("plain error should not be unavailable")
	}
}
