package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/student-dashboard/internal/query"
	"github.com/stemsi/student-dashboard/internal/response"
	"github.com/stemsi/student-dashboard/internal/service"
	"github.com/stemsi/student-dashboard/internal/validator"
)

// viewQuery is the query string accepted by the view and export endpoints.
type viewQuery struct {
	Filter string `form:"filter"`
	Sort   string `form:"sort" binding:"omitempty,oneof=id name registration_number department blood_group year average_marks created_at"`
	Dir    string `form:"dir"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Size   int    `form:"size" binding:"omitempty,min=1,max=500"`
	Year   string `form:"year"`
}

// bindViewState reads a query.ViewState from the query string. It writes
// the error response itself and returns false when the query is invalid.
func bindViewState(c *gin.Context) (query.ViewState, bool) {
	var q viewQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuery, fields)
		return query.ViewState{}, false
	}

	state := query.DefaultViewState().WithFilter(q.Filter)
	if q.Sort != "" {
		state = state.WithSortDir(q.Sort, query.ParseSortDir(q.Dir))
	} else {
		state = state.WithSortDir(state.SortKey, query.ParseSortDir(q.Dir))
	}
	if q.Page > 0 {
		state = state.WithPage(q.Page)
	}
	if q.Size > 0 {
		state.PageSize = q.Size
	}

	if q.Year != "" && q.Year != "all" {
		year, err := strconv.Atoi(q.Year)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuery,
				map[string]string{"year": "year must be a number or \"all\""})
			return query.ViewState{}, false
		}
		state = state.WithReportYear(&year)
	}
	return state, true
}

// DashboardHandler serves the derived dashboard view.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// View godoc
// GET /api/students/view?filter=&sort=&dir=&page=&size=&year=
// Returns one page of the filtered, sorted list with summary cards, chart
// series and top performers computed over the whole filtered set.
func (h *DashboardHandler) View(c *gin.Context) {
	state, ok := bindViewState(c)
	if !ok {
		return
	}

	result, err := h.dashboardService.View(c.Request.Context(), state)
	if err != nil {
		failStore(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
