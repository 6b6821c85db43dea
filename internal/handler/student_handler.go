package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/response"
	"github.com/stemsi/student-dashboard/internal/service"
	"github.com/stemsi/student-dashboard/internal/validator"
)

// StudentHandler serves the student resource.
type StudentHandler struct {
	studentService *service.StudentService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// List godoc
// GET /api/students
// Returns every student as a bare JSON array, newest first.
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.studentService.List(c.Request.Context())
	if err != nil {
		failStore(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// Create godoc
// POST /api/students
// Inserts a full record. The ID is generated when omitted.
func (h *StudentHandler) Create(c *gin.Context) {
	var req model.StudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		failBind(c, fields)
		return
	}

	if err := h.studentService.Create(c.Request.Context(), req.ToStudent()); err != nil {
		failStore(c, err)
		return
	}
	response.Acknowledge(c, http.StatusOK, "Success")
}

// Replace godoc
// PUT /api/students/:id
// Overwrites every field except the ID. An unknown ID changes nothing and
// still answers "Updated".
func (h *StudentHandler) Replace(c *gin.Context) {
	id := c.Param("id")

	var req model.StudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		failBind(c, fields)
		return
	}

	if _, err := h.studentService.Replace(c.Request.Context(), id, req.ToStudent()); err != nil {
		failStore(c, err)
		return
	}
	response.Acknowledge(c, http.StatusOK, "Updated")
}

// Delete godoc
// DELETE /api/students/:id
// Succeeds whether or not the ID existed.
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.studentService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failStore(c, err)
		return
	}
	response.Acknowledge(c, http.StatusOK, "Deleted")
}

// Reset godoc
// POST /api/reset
// Removes every student.
func (h *StudentHandler) Reset(c *gin.Context) {
	if _, err := h.studentService.Reset(c.Request.Context()); err != nil {
		failStore(c, err)
		return
	}
	response.Acknowledge(c, http.StatusOK, "Reset")
}
