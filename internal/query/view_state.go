// Package query derives everything a dashboard displays from the full
// in-memory record set: the filtered and sorted list, the current page,
// summary statistics and chart aggregates.
//
// All functions are pure. Callers hold a ViewState value, derive a new one
// for every UI event and call Run again; nothing in this package keeps state
// between calls.
package query

// SortDir is the sort direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// ParseSortDir maps a query-string value to a direction, defaulting to Asc.
func ParseSortDir(s string) SortDir {
	if SortDir(s) == Desc {
		return Desc
	}
	return Asc
}

// Sortable field keys.
const (
	FieldID                 = "id"
	FieldName               = "name"
	FieldRegistrationNumber = "registration_number"
	FieldDepartment         = "department"
	FieldBloodGroup         = "blood_group"
	FieldYear               = "year"
	FieldAverageMarks       = "average_marks"
	FieldCreatedAt          = "created_at"
)

// SortKeys lists every key SortRecords understands.
var SortKeys = []string{
	FieldID, FieldName, FieldRegistrationNumber, FieldDepartment,
	FieldBloodGroup, FieldYear, FieldAverageMarks, FieldCreatedAt,
}

const (
	DefaultPageSize = 10
	DefaultSortKey  = FieldName
)

// ViewState is everything that decides what the dashboard shows.
// The With* methods return modified copies; the receiver is never changed.
type ViewState struct {
	Filter   string
	SortKey  string
	SortDir  SortDir
	Page     int
	PageSize int
	// ReportYear restricts the average-marks-by-department chart only.
	// Nil means all years.
	ReportYear *int
}

// DefaultViewState is the state a fresh dashboard starts with.
func DefaultViewState() ViewState {
	return ViewState{
		SortKey:  DefaultSortKey,
		SortDir:  Asc,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// WithFilter sets the search text and goes back to the first page.
func (v ViewState) WithFilter(filter string) ViewState {
	v.Filter = filter
	v.Page = 1
	return v
}

// WithSort selects a sort key. Selecting the current key flips the
// direction; selecting a new key starts ascending.
func (v ViewState) WithSort(key string) ViewState {
	if key == v.SortKey {
		if v.SortDir == Asc {
			v.SortDir = Desc
		} else {
			v.SortDir = Asc
		}
		return v
	}
	v.SortKey = key
	v.SortDir = Asc
	return v
}

// WithSortDir sets key and direction explicitly.
func (v ViewState) WithSortDir(key string, dir SortDir) ViewState {
	v.SortKey = key
	v.SortDir = dir
	return v
}

// WithPage jumps to page. No clamping happens here; use
// Pagination.HasPrev/HasNext to disable navigation instead.
func (v ViewState) WithPage(page int) ViewState {
	v.Page = page
	return v
}

// NextPage moves one page forward.
func (v ViewState) NextPage() ViewState {
	return v.WithPage(v.Page + 1)
}

// PrevPage moves one page back.
func (v ViewState) PrevPage() ViewState {
	return v.WithPage(v.Page - 1)
}

// WithReportYear restricts the average chart to one year. Nil clears it.
func (v ViewState) WithReportYear(year *int) ViewState {
	if year == nil {
		v.ReportYear = nil
		return v
	}
	y := *year
	v.ReportYear = &y
	return v
}

func (v ViewState) pageSize() int {
	if v.PageSize < 1 {
		return DefaultPageSize
	}
	return v.PageSize
}
