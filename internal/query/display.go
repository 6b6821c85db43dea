package query

import (
	"strconv"

	"github.com/stemsi/student-dashboard/internal/model"
)

// Placeholders shown instead of blank cells.
const (
	PlaceholderName         = "Unknown"
	PlaceholderRegistration = "N/A"
	PlaceholderDepartment   = "N/A"
	PlaceholderBloodGroup   = "-"
)

// DisplayRow is a record formatted for a table cell by cell. No cell is
// ever empty.
type DisplayRow struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	Department         string `json:"department"`
	BloodGroup         string `json:"blood_group"`
	Year               string `json:"year"`
	AverageMarks       string `json:"average_marks"`
}

// Display formats a record. Numeric fields keep their literal value, so
// marks of 0 show as "0%".
func Display(s model.Student) DisplayRow {
	return DisplayRow{
		ID:                 s.ID,
		Name:               orPlaceholder(s.Name, PlaceholderName),
		RegistrationNumber: orPlaceholder(s.RegistrationNumber, PlaceholderRegistration),
		Department:         orPlaceholder(s.Department, PlaceholderDepartment),
		BloodGroup:         orPlaceholder(s.BloodGroup, PlaceholderBloodGroup),
		Year:               strconv.Itoa(s.Year),
		AverageMarks:       FormatMarks(s.AverageMarks),
	}
}

// DisplayAll formats every record.
func DisplayAll(records []model.Student) []DisplayRow {
	rows := make([]DisplayRow, len(records))
	for i, s := range records {
		rows[i] = Display(s)
	}
	return rows
}

// FormatMarks renders a percentage without trailing zeros.
func FormatMarks(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

func orPlaceholder(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}
