package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the success envelope.
type APIResponse[T any] struct {
	StatusCode int    `json:"statusCode"`
	Data       T      `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorResponse is the failure envelope. Data is always null and Error always an array.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
	Error      []any  `json:"error"`
}

// HTTPError is implemented by errors that know their HTTP status.
type HTTPError interface {
	error
	HTTPStatus() int
	Details() []any
}

func Success[T any](c *gin.Context, status int, data T, message string) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, APIResponse[T]{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func Error(c *gin.Context, status int, message string, details []any) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	if details == nil {
		details = []any{}
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		StatusCode: status,
		Data:       nil,
		Message:    message,
		Success:    false,
		Error:      details,
	})
}

// Fail writes err using its HTTP status when it carries one, otherwise a generic 500.
func Fail(c *gin.Context, err error) {
	var he HTTPError
	if errors.As(err, &he) {
		Error(c, he.HTTPStatus(), he.Error(), he.Details())
		return
	}
	_ = c.Error(err)
	Error(c, http.StatusInternalServerError, "internal server error", nil)
}
