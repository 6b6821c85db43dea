package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/student-dashboard/internal/response"
	"github.com/stemsi/student-dashboard/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves file downloads of the filtered, sorted list.
type ExportHandler struct {
	dashboardService *service.DashboardService
	exportService    *service.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(dashboardService *service.DashboardService, exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{dashboardService: dashboardService, exportService: exportService}
}

// CSV godoc
// GET /api/students/export.csv?filter=&sort=&dir=
// Every matching row, not just one page.
func (h *ExportHandler) CSV(c *gin.Context) {
	state, ok := bindViewState(c)
	if !ok {
		return
	}

	rows, err := h.dashboardService.Rows(c.Request.Context(), state)
	if err != nil {
		failStore(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.exportService.WriteCSV(&buf, rows); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="students.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// XLSX godoc
// GET /api/students/export.xlsx?filter=&sort=&dir=
func (h *ExportHandler) XLSX(c *gin.Context) {
	state, ok := bindViewState(c)
	if !ok {
		return
	}

	rows, err := h.dashboardService.Rows(c.Request.Context(), state)
	if err != nil {
		failStore(c, err)
		return
	}

	buf, err := h.exportService.XLSX(rows)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="students.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
