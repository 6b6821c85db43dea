package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/student-dashboard/internal/model"
)

// ErrConflict matches every unique-constraint violation on the students table.
var ErrConflict = errors.New("student conflicts with an existing record")

// ErrRejected matches values the database refused for reasons other than
// uniqueness, such as a string longer than its column.
var ErrRejected = errors.New("student rejected by the database")

const (
	uniqueViolation = "23505"

	// ConstraintRegistrationNumber is the UNIQUE constraint on registration_number.
	ConstraintRegistrationNumber = "students_registration_number_key"
	constraintPrimaryKey         = "students_pkey"
)

var studentColumns = []string{
	"id", "name", "registration_number", "department", "blood_group", "year", "average_marks", "created_at",
}

// ConflictError carries the store's own message for a uniqueness violation
// so callers can show it verbatim.
type ConflictError struct {
	Constraint string
	Message    string
	Detail     string
}

func (e *ConflictError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrConflict) match.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// Field names the record field the violated constraint covers.
func (e *ConflictError) Field() string {
	switch e.Constraint {
	case ConstraintRegistrationNumber:
		return "registration_number"
	case constraintPrimaryKey:
		return "id"
	default:
		return ""
	}
}

// RejectedError carries the store's message for a data exception (SQLSTATE
// class 22) or an integrity violation other than uniqueness (class 23).
type RejectedError struct {
	Code    string
	Column  string
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrRejected) match.
func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

// asWriteError turns a database error caused by the submitted values into
// a *ConflictError or *RejectedError. Anything else gives nil.
func asWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch {
	case pgErr.Code == uniqueViolation:
		return &ConflictError{
			Constraint: pgErr.ConstraintName,
			Message:    pgErr.Message,
			Detail:     pgErr.Detail,
		}
	case strings.HasPrefix(pgErr.Code, "22"), strings.HasPrefix(pgErr.Code, "23"):
		return &RejectedError{
			Code:    pgErr.Code,
			Column:  pgErr.ColumnName,
			Message: pgErr.Message,
		}
	default:
		return nil
	}
}

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List retrieves every student, newest first.
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).
		From("students").
		OrderBy("created_at DESC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list students query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.RegistrationNumber, &s.Department, &s.BloodGroup,
			&s.Year, &s.AverageMarks, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Create inserts a student. The caller supplies the ID; the database sets
// created_at, which is written back into s.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	sql, args, err := r.sb.Insert("students").
		Columns("id", "name", "registration_number", "department", "blood_group", "year", "average_marks").
		Values(s.ID, s.Name, s.RegistrationNumber, s.Department, s.BloodGroup, s.Year, s.AverageMarks).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert student query: %w", err)
	}

	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&s.CreatedAt); err != nil {
		if werr := asWriteError(err); werr != nil {
			return werr
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// Replace overwrites every field except id and created_at. It reports
// whether a row with s.ID existed.
func (r *StudentRepository) Replace(ctx context.Context, s *model.Student) (bool, error) {
	sql, args, err := r.sb.Update("students").
		SetMap(map[string]interface{}{
			"name":                s.Name,
			"registration_number": s.RegistrationNumber,
			"department":          s.Department,
			"blood_group":         s.BloodGroup,
			"year":                s.Year,
			"average_marks":       s.AverageMarks,
		}).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update student query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		if werr := asWriteError(err); werr != nil {
			return false, werr
		}
		return false, fmt.Errorf("update student: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a student by ID. Missing IDs are not an error.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	sql, args, err := r.sb.Delete("students").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete student query: %w", err)
	}
	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// DeleteAll removes every student and returns how many were removed.
func (r *StudentRepository) DeleteAll(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Delete("students").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build reset students query: %w", err)
	}
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("reset students: %w", err)
	}
	return tag.RowsAffected(), nil
}
