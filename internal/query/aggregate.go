package query

import (
	"math"
	"sort"

	"github.com/stemsi/student-dashboard/internal/model"
)

// TopPerformerCount is how many records the top-performers view holds.
const TopPerformerCount = 5

// UnknownLabel groups records with an empty department in charts.
const UnknownLabel = "Unknown"

// Summary holds the stat cards, computed over the whole filtered set.
type Summary struct {
	Total        int     `json:"total"`
	AverageMarks float64 `json:"average_marks"`
	Departments  int     `json:"departments"`
}

// CountBucket is one bar of a count chart.
type CountBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// YearBucket is one bar of the students-per-year chart.
type YearBucket struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// MeanBucket is one bar of the average-marks chart.
type MeanBucket struct {
	Label string  `json:"label"`
	Mean  float64 `json:"mean"`
}

// Charts holds the three dashboard charts.
type Charts struct {
	ByDepartment        []CountBucket `json:"by_department"`
	ByYear              []YearBucket  `json:"by_year"`
	AverageByDepartment []MeanBucket  `json:"average_by_department"`
}

// Summarize computes the stat cards. The mean is rounded to one decimal and
// is 0 for an empty set.
func Summarize(records []model.Student) Summary {
	s := Summary{Total: len(records)}
	if len(records) == 0 {
		return s
	}

	depts := make(map[string]struct{})
	var sum float64
	for _, r := range records {
		sum += r.AverageMarks
		depts[r.Department] = struct{}{}
	}
	s.AverageMarks = Round1(sum / float64(len(records)))
	s.Departments = len(depts)
	return s
}

// BuildCharts computes the department and year counts over records, and the
// per-department mean restricted to reportYear when it is set. Departments
// left without records by that restriction are omitted, not zeroed.
func BuildCharts(records []model.Student, reportYear *int) Charts {
	deptIdx := make(map[string]int)
	yearCounts := make(map[int]int)

	type acc struct {
		sum float64
		n   int
	}
	meanIdx := make(map[string]int)
	var meanOrder []string
	var meanAcc []acc

	c := Charts{
		ByDepartment:        []CountBucket{},
		ByYear:              []YearBucket{},
		AverageByDepartment: []MeanBucket{},
	}

	for _, r := range records {
		label := DepartmentLabel(r.Department)

		if i, ok := deptIdx[label]; ok {
			c.ByDepartment[i].Count++
		} else {
			deptIdx[label] = len(c.ByDepartment)
			c.ByDepartment = append(c.ByDepartment, CountBucket{Label: label, Count: 1})
		}
		yearCounts[r.Year]++

		if reportYear != nil && r.Year != *reportYear {
			continue
		}
		i, ok := meanIdx[label]
		if !ok {
			i = len(meanOrder)
			meanIdx[label] = i
			meanOrder = append(meanOrder, label)
			meanAcc = append(meanAcc, acc{})
		}
		meanAcc[i].sum += r.AverageMarks
		meanAcc[i].n++
	}

	for y, n := range yearCounts {
		c.ByYear = append(c.ByYear, YearBucket{Year: y, Count: n})
	}
	sort.Slice(c.ByYear, func(i, j int) bool { return c.ByYear[i].Year < c.ByYear[j].Year })

	for i, label := range meanOrder {
		c.AverageByDepartment = append(c.AverageByDepartment, MeanBucket{
			Label: label,
			Mean:  Round1(meanAcc[i].sum / float64(meanAcc[i].n)),
		})
	}
	return c
}

// TopPerformers returns up to n records with the highest marks, descending.
// Ties keep their order in records.
func TopPerformers(records []model.Student, n int) []model.Student {
	ranked := make([]model.Student, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AverageMarks > ranked[j].AverageMarks
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// DepartmentLabel is the chart label for a department value.
func DepartmentLabel(dept string) string {
	if dept == "" {
		return UnknownLabel
	}
	return dept
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
