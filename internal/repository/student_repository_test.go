package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestAsWriteError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "students_registration_number_key"`,
		Detail:         "Key (registration_number)=(REG1) already exists.",
		ConstraintName: ConstraintRegistrationNumber,
	}

	err := asWriteError(fmt.Errorf("exec: %w", pgErr))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("asWriteError = %v", err)
	}
	if conflict.Error() != pgErr.Message {
		t.Errorf("Error() = %q, want database message", conflict.Error())
	}
	if conflict.Field() != "registration_number" {
		t.Errorf("Field() = %q", conflict.Field())
	}
	if !errors.Is(err, ErrConflict) {
		t.Error("errors.Is(err, ErrConflict) = false")
	}
}

func TestAsWriteError_Rejected(t *testing.T) {
	tests := []struct {
		name string
		err  *pgconn.PgError
	}{
		{"too long", &pgconn.PgError{Code: "22001", Message: "value too long for type character varying(5)"}},
		{"not null", &pgconn.PgError{Code: "23502", Message: `null value in column "name"`, ColumnName: "name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := asWriteError(fmt.Errorf("exec: %w", tt.err))
			var rejected *RejectedError
			if !errors.As(err, &rejected) {
				t.Fatalf("asWriteError = %v", err)
			}
			if rejected.Error() != tt.err.Message || rejected.Code != tt.err.Code || rejected.Column != tt.err.ColumnName {
				t.Errorf("rejected = %+v", rejected)
			}
			if !errors.Is(err, ErrRejected) || errors.Is(err, ErrConflict) {
				t.Error("sentinel matching is wrong")
			}
		})
	}
}

func TestAsWriteError_OtherErrors(t *testing.T) {
	for _, err := range []error{
		errors.New("connection refused"),
		&pgconn.PgError{Code: "08006", Message: "connection failure"},
		&pgconn.PgError{Code: "42P01", Message: `relation "students" does not exist`},
	} {
		if got := asWriteError(err); got != nil {
			t.Errorf("asWriteError(%v) = %v, want nil", err, got)
		}
	}
}

func TestConflictError_PrimaryKey(t *testing.T) {
	e := &ConflictError{Constraint: constraintPrimaryKey}
	if e.Field() != "id" {
		t.Errorf("Field() = %q", e.Field())
	}
	if (&ConflictError{Constraint: "other"}).Field() != "" {
		t.Error("unknown constraint should map to no field")
	}
}
