package response

import (
	"github.com/gin-gonic/gin"
)

// Ack is the body of a successful write.
type Ack struct {
	Message string `json:"message"`
}

// ErrorBody is the body of every failed request. Error holds the message a
// client shows to the user.
type ErrorBody struct {
	Error     string            `json:"error"`
	Code      ErrCode           `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// ────────────────────────────────────────────────────────────────────────────
// Helper builders
// ────────────────────────────────────────────────────────────────────────────

// JSON sends data as the whole body, without an envelope.
func JSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// Acknowledge sends {"message": message}.
func Acknowledge(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Ack{Message: message})
}

// Fail sends an error response with the code's default message.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, buildError(c, code, GetMessage(code), nil))
}

// FailWithMessage sends an error response whose message is passed through
// unchanged, e.g. a database constraint message.
func FailWithMessage(c *gin.Context, statusCode int, code ErrCode, message string, fields map[string]string) {
	c.JSON(statusCode, buildError(c, code, message, fields))
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, buildError(c, code, GetMessage(code), fields))
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, buildError(c, code, GetMessage(code), nil))
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func buildError(c *gin.Context, code ErrCode, message string, fields map[string]string) ErrorBody {
	return ErrorBody{
		Error:     message,
		Code:      code,
		Fields:    fields,
		RequestID: c.GetString(ContextKeyRequestID),
	}
}
