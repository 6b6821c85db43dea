package handler_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/repository"
)

var errStoreDown = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

// fakeStore mimics the students table: newest first, unique registration numbers.
type fakeStore struct {
	mu       sync.Mutex
	students []model.Student
	clock    time.Time
	down     bool
	// writeErr, when set, is returned by Create and Replace.
	writeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func conflictOn(reg string) error {
	return &repository.ConflictError{
		Constraint: repository.ConstraintRegistrationNumber,
		Message:    `duplicate key value violates unique constraint "students_registration_number_key"`,
		Detail:     fmt.Sprintf("Key (registration_number)=(%s) already exists.", reg),
	}
}

func (f *fakeStore) List(context.Context) ([]model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errStoreDown
	}
	out := make([]model.Student, len(f.students))
	copy(out, f.students)
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, s *model.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errStoreDown
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	for _, e := range f.students {
		if e.RegistrationNumber == s.RegistrationNumber {
			return conflictOn(s.RegistrationNumber)
		}
	}
	f.clock = f.clock.Add(time.Second)
	s.CreatedAt = f.clock
	f.students = append([]model.Student{*s}, f.students...)
	return nil
}

func (f *fakeStore) Replace(_ context.Context, s *model.Student) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false, errStoreDown
	}
	if f.writeErr != nil {
		return false, f.writeErr
	}
	idx := -1
	for i, e := range f.students {
		switch {
		case e.ID == s.ID:
			idx = i
		case e.RegistrationNumber == s.RegistrationNumber:
			return false, conflictOn(s.RegistrationNumber)
		}
	}
	if idx < 0 {
		return false, nil
	}
	s.CreatedAt = f.students[idx].CreatedAt
	f.students[idx] = *s
	return true, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errStoreDown
	}
	for i, e := range f.students {
		if e.ID == id {
			f.students = append(f.students[:i], f.students[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) DeleteAll(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return 0, errStoreDown
	}
	n := int64(len(f.students))
	f.students = nil
	return n, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.students)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }
