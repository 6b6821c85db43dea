package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/stemsi/student-dashboard/internal/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Pagination describes the current page of the filtered set.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// Result is the derived view for one ViewState.
type Result struct {
	Rows          []model.Student `json:"rows"`
	Pagination    Pagination      `json:"pagination"`
	Summary       Summary         `json:"summary"`
	Charts        Charts          `json:"charts"`
	TopPerformers []model.Student `json:"top_performers"`
}

// Run applies filter, sort and pagination to records and computes the
// aggregates over the whole filtered set. records is not modified.
func Run(records []model.Student, state ViewState) Result {
	processed := Process(records, state)
	rows, pagination := Paginate(processed, state.Page, state.pageSize())

	return Result{
		Rows:          rows,
		Pagination:    pagination,
		Summary:       Summarize(processed),
		Charts:        BuildCharts(processed, state.ReportYear),
		TopPerformers: TopPerformers(processed, TopPerformerCount),
	}
}

// Process returns the filtered and sorted records: the exact set an export
// or a page walk covers.
func Process(records []model.Student, state ViewState) []model.Student {
	out := Filter(records, state.Filter)
	SortRecords(out, state.SortKey, state.SortDir)
	return out
}

// Filter keeps records whose name, registration number, blood group or
// department contains text, case-insensitively. Empty text keeps everything.
// The result is always a fresh slice.
func Filter(records []model.Student, text string) []model.Student {
	out := make([]model.Student, 0, len(records))
	if text == "" {
		return append(out, records...)
	}

	needle := strings.ToLower(text)
	for _, s := range records {
		if containsFold(s.Name, needle) ||
			containsFold(s.RegistrationNumber, needle) ||
			containsFold(s.BloodGroup, needle) ||
			containsFold(s.Department, needle) {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(field, lowerNeedle string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), lowerNeedle)
}

// SortRecords sorts records in place by the text form of key using a
// numeric-aware, case-insensitive collation, so "2" sorts before "10".
// The sort is stable.
func SortRecords(records []model.Student, key string, dir SortDir) {
	// Collators keep scratch buffers and must not be shared between runs.
	col := collate.New(language.Und, collate.Numeric, collate.IgnoreCase)

	keys := make([]string, len(records))
	for i := range records {
		keys[i] = FieldText(&records[i], key)
	}

	sort.Stable(byKey{records: records, keys: keys, col: col, desc: dir == Desc})
}

type byKey struct {
	records []model.Student
	keys    []string
	col     *collate.Collator
	desc    bool
}

func (b byKey) Len() int { return len(b.records) }

func (b byKey) Swap(i, j int) {
	b.records[i], b.records[j] = b.records[j], b.records[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

func (b byKey) Less(i, j int) bool {
	c := b.col.CompareString(b.keys[i], b.keys[j])
	if b.desc {
		return c > 0
	}
	return c < 0
}

// FieldText is the text form of a field used for sorting. Unknown keys and
// unset timestamps yield the empty string.
func FieldText(s *model.Student, key string) string {
	switch key {
	case FieldID:
		return s.ID
	case FieldName:
		return s.Name
	case FieldRegistrationNumber:
		return s.RegistrationNumber
	case FieldDepartment:
		return s.Department
	case FieldBloodGroup:
		return s.BloodGroup
	case FieldYear:
		return strconv.Itoa(s.Year)
	case FieldAverageMarks:
		return strconv.FormatFloat(s.AverageMarks, 'f', -1, 64)
	case FieldCreatedAt:
		if s.CreatedAt.IsZero() {
			return ""
		}
		return s.CreatedAt.UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// PageCount is ceil(total/pageSize) but never less than 1.
func PageCount(total, pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	if pages < 1 {
		return 1
	}
	return pages
}

// Paginate slices one page out of records. Pages outside 1..TotalPages
// give an empty slice rather than an error.
func Paginate(records []model.Student, page, pageSize int) ([]model.Student, Pagination) {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := len(records)
	pages := PageCount(total, pageSize)

	p := Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: pages,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}

	// page <= pages keeps (page-1)*pageSize below total.
	if page < 1 || page > pages || total == 0 {
		return []model.Student{}, p
	}
	start := (page - 1) * pageSize
	end := total
	if total-start > pageSize {
		end = start + pageSize
	}

	rows := make([]model.Student, end-start)
	copy(rows, records[start:end])
	return rows, p
}
