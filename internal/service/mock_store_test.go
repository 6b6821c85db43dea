package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/repository"
)

// ── Mock Store ──

var errStoreDown = errors.New("connection refused")

type memStore struct {
	mu       sync.Mutex
	students []model.Student // newest first
	clock    time.Time
	down     bool
	lists    int
}

func newMemStore(seed ...model.Student) *memStore {
	m := &memStore{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	for i := range seed {
		s := seed[i]
		_ = m.Create(context.Background(), &s)
	}
	return m
}

func duplicate(reg string) error {
	return &repository.ConflictError{
		Constraint: repository.ConstraintRegistrationNumber,
		Message:    `duplicate key value violates unique constraint "students_registration_number_key"`,
		Detail:     fmt.Sprintf("Key (registration_number)=(%s) already exists.", reg),
	}
}

func (m *memStore) List(_ context.Context) ([]model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.down {
		return nil, errStoreDown
	}
	out := make([]model.Student, len(m.students))
	copy(out, m.students)
	return out, nil
}

func (m *memStore) Create(_ context.Context, s *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errStoreDown
	}
	for _, existing := range m.students {
		if existing.RegistrationNumber == s.RegistrationNumber {
			return duplicate(s.RegistrationNumber)
		}
	}
	m.clock = m.clock.Add(time.Second)
	s.CreatedAt = m.clock
	m.students = append([]model.Student{*s}, m.students...)
	return nil
}

func (m *memStore) Replace(_ context.Context, s *model.Student) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return false, errStoreDown
	}
	idx := -1
	for i, existing := range m.students {
		if existing.ID == s.ID {
			idx = i
		} else if existing.RegistrationNumber == s.RegistrationNumber {
			return false, duplicate(s.RegistrationNumber)
		}
	}
	if idx < 0 {
		return false, nil
	}
	s.CreatedAt = m.students[idx].CreatedAt
	m.students[idx] = *s
	return true, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errStoreDown
	}
	for i, existing := range m.students {
		if existing.ID == id {
			m.students = append(m.students[:i], m.students[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memStore) DeleteAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return 0, errStoreDown
	}
	n := int64(len(m.students))
	m.students = nil
	return n, nil
}

// ── Mock Cache ──

type memCache struct {
	students    []model.Student
	ok          bool
	invalidated int
}

func (c *memCache) Get(context.Context) ([]model.Student, bool) { return c.students, c.ok }

func (c *memCache) Set(_ context.Context, students []model.Student) {
	c.students, c.ok = students, true
}

func (c *memCache) Invalidate(context.Context) {
	c.students, c.ok = nil, false
	c.invalidated++
}
