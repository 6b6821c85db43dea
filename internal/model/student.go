package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Department is one of the fixed academic departments offered in forms.
type Department string

const (
	DepartmentComputerScience Department = "Computer Science"
	DepartmentElectrical      Department = "Electrical"
	DepartmentMechanical      Department = "Mechanical"
	DepartmentCivil           Department = "Civil"
	DepartmentArchitecture    Department = "Architecture"
	DepartmentAeronautical    Department = "Aeronautical"
	DepartmentIT              Department = "IT"
	DepartmentBusiness        Department = "Business"
	DepartmentBiomedical      Department = "Biomedical"
	DepartmentCommunications  Department = "Communications"
)

// Departments lists every department in display order.
var Departments = []Department{
	DepartmentComputerScience,
	DepartmentElectrical,
	DepartmentMechanical,
	DepartmentCivil,
	DepartmentArchitecture,
	DepartmentAeronautical,
	DepartmentIT,
	DepartmentBusiness,
	DepartmentBiomedical,
	DepartmentCommunications,
}

// BloodGroups lists the ABO/Rh groups offered in forms.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// Years lists the study years offered in forms and the report-year filter.
var Years = []int{1, 2, 3, 4}

// Student is a single student record. The store owns CreatedAt.
type Student struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	RegistrationNumber string    `json:"registration_number"`
	Department         string    `json:"department"`
	BloodGroup         string    `json:"blood_group"`
	Year               int       `json:"year"`
	AverageMarks       float64   `json:"average_marks"`
	CreatedAt          time.Time `json:"created_at"`
}

// StudentRequest is the full-record payload accepted by create and replace.
// Year and marks carry no range checks; the text columns must be present
// and fit their database columns.
type StudentRequest struct {
	ID                 string  `json:"id" binding:"max=36"`
	Name               string  `json:"name" binding:"required,max=255"`
	RegistrationNumber string  `json:"registration_number" binding:"required,max=50"`
	Department         string  `json:"department" binding:"required,max=100"`
	BloodGroup         string  `json:"blood_group" binding:"required,max=5"`
	Year               int     `json:"year"`
	AverageMarks       float64 `json:"average_marks"`
}

// UnmarshalJSON accepts year and average_marks as JSON numbers or as
// numeric strings, the way HTML forms post them. Null or "" is zero.
func (r *StudentRequest) UnmarshalJSON(data []byte) error {
	type plain StudentRequest
	aux := struct {
		*plain
		Year         json.RawMessage `json:"year"`
		AverageMarks json.RawMessage `json:"average_marks"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	text, err := numberText(aux.Year)
	if err != nil {
		return fmt.Errorf("year: %w", err)
	}
	r.Year = 0
	if text != "" {
		year, err := strconv.Atoi(text)
		if err != nil {
			return fmt.Errorf("year: %q is not a whole number", text)
		}
		r.Year = year
	}

	text, err = numberText(aux.AverageMarks)
	if err != nil {
		return fmt.Errorf("average_marks: %w", err)
	}
	r.AverageMarks = 0
	if text != "" {
		marks, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(marks) || math.IsInf(marks, 0) {
			return fmt.Errorf("average_marks: %q is not a number", text)
		}
		r.AverageMarks = marks
	}
	return nil
}

func numberText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] != '"' {
		return string(raw), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// ToStudent converts the payload into a record. CreatedAt is left zero.
func (r *StudentRequest) ToStudent() *Student {
	return &Student{
		ID:                 r.ID,
		Name:               r.Name,
		RegistrationNumber: r.RegistrationNumber,
		Department:         r.Department,
		BloodGroup:         r.BloodGroup,
		Year:               r.Year,
		AverageMarks:       r.AverageMarks,
	}
}
