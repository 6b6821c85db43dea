package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/student-dashboard/internal/repository"
	"github.com/stemsi/student-dashboard/internal/response"
)

// failStore maps a service error to the API error contract. Uniqueness
// violations and values the database refused are a 400 carrying the
// database message verbatim; anything else is a 500.
func failStore(c *gin.Context, err error) {
	var conflict *repository.ConflictError
	if errors.As(err, &conflict) {
		var fields map[string]string
		if field := conflict.Field(); field != "" && conflict.Detail != "" {
			fields = map[string]string{field: conflict.Detail}
		}
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrConflict, conflict.Message, fields)
		return
	}
	var rejected *repository.RejectedError
	if errors.As(err, &rejected) {
		var fields map[string]string
		if rejected.Column != "" {
			fields = map[string]string{rejected.Column: rejected.Message}
		}
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, rejected.Message, fields)
		return
	}
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// failBind reports a binding failure. A body that could not be decoded at
// all is INVALID_PAYLOAD; rule violations are VALIDATION_ERROR.
func failBind(c *gin.Context, fields map[string]string) {
	if _, malformed := fields["detail"]; malformed && len(fields) == 1 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, fields)
		return
	}
	response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
}
