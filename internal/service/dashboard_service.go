package service

import (
	"context"

	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/query"
)

// DashboardService runs the query pipeline over the current student list.
type DashboardService struct {
	students *StudentService
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(students *StudentService) *DashboardService {
	return &DashboardService{students: students}
}

// View returns one page of the filtered, sorted list together with the
// summary, chart series and top performers.
func (s *DashboardService) View(ctx context.Context, state query.ViewState) (*query.Result, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	result := query.Run(students, state)
	return &result, nil
}

// Rows returns every filtered, sorted record, ignoring pagination.
func (s *DashboardService) Rows(ctx context.Context, state query.ViewState) ([]model.Student, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	return query.Process(students, state), nil
}
