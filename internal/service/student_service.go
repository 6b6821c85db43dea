package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/repository"
)

// StudentStore is the persistence contract the service needs.
// *repository.StudentRepository implements it.
type StudentStore interface {
	List(ctx context.Context) ([]model.Student, error)
	Create(ctx context.Context, s *model.Student) error
	Replace(ctx context.Context, s *model.Student) (bool, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// ListCache holds a copy of the full student list between writes.
type ListCache interface {
	Get(ctx context.Context) ([]model.Student, bool)
	Set(ctx context.Context, students []model.Student)
	Invalidate(ctx context.Context)
}

// StudentService handles student business logic.
type StudentService struct {
	store StudentStore
	cache ListCache
	log   zerolog.Logger
}

// NewStudentService creates a new StudentService. A nil cache disables caching.
func NewStudentService(store StudentStore, cache ListCache, log zerolog.Logger) *StudentService {
	if cache == nil {
		cache = noopCache{}
	}
	return &StudentService{
		store: store,
		cache: cache,
		log:   log.With().Str("component", "student_service").Logger(),
	}
}

// List returns every student, newest first.
func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	if students, ok := s.cache.Get(ctx); ok {
		return students, nil
	}

	students, err := s.store.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list students")
		return nil, err
	}
	s.cache.Set(ctx, students)
	return students, nil
}

// Create inserts a student, generating an ID when the caller sent none.
// A duplicate registration number returns a *repository.ConflictError.
func (s *StudentService) Create(ctx context.Context, student *model.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}

	if err := s.store.Create(ctx, student); err != nil {
		s.logWriteError(err, "create", student)
		return err
	}

	s.cache.Invalidate(ctx)
	return nil
}

// Replace overwrites every field of the student with the given ID except
// the ID itself. A missing ID is a no-op that still succeeds; the returned
// bool reports whether a record was replaced.
func (s *StudentService) Replace(ctx context.Context, id string, student *model.Student) (bool, error) {
	student.ID = id

	replaced, err := s.store.Replace(ctx, student)
	if err != nil {
		s.logWriteError(err, "replace", student)
		return false, err
	}
	if !replaced {
		s.log.Warn().Str("student_id", id).Msg("replace target does not exist, nothing updated")
		return false, nil
	}

	s.cache.Invalidate(ctx)
	return true, nil
}

// Delete removes a student by ID. Deleting a missing ID succeeds.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.log.Error().Err(err).Str("student_id", id).Msg("failed to delete student")
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// Reset removes every student and returns how many were removed.
func (s *StudentService) Reset(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to reset students")
		return 0, err
	}
	s.cache.Invalidate(ctx)
	s.log.Info().Int64("removed", n).Msg("student table reset")
	return n, nil
}

func (s *StudentService) logWriteError(err error, op string, student *model.Student) {
	var conflict *repository.ConflictError
	if errors.As(err, &conflict) {
		s.log.Warn().
			Str("op", op).
			Str("constraint", conflict.Constraint).
			Str("registration_number", student.RegistrationNumber).
			Msg("student write rejected by unique constraint")
		return
	}
	var rejected *repository.RejectedError
	if errors.As(err, &rejected) {
		s.log.Warn().
			Str("op", op).
			Str("sqlstate", rejected.Code).
			Str("column", rejected.Column).
			Msg("student write rejected by the database")
		return
	}
	s.log.Error().Err(err).Str("op", op).Str("student_id", student.ID).Msg("student write failed")
}

type noopCache struct{}

func (noopCache) Get(context.Context) ([]model.Student, bool) { return nil, false }
func (noopCache) Set(context.Context, []model.Student)        {}
func (noopCache) Invalidate(context.Context)                  {}

var _ StudentStore = (*repository.StudentRepository)(nil)
