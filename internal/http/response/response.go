package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studygraph-backend/internal/platform/apierr"
)

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type envelope struct {
	Error *errorBody `json:"error,omitempty"`
	Data  any        `json:"data,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, envelope{Data: data})
}

// Error maps an error to the envelope, honoring *apierr.Error status and
// code when present and defaulting to 500 otherwise.
func Error(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		c.JSON(statusOf(ae), envelope{Error: &errorBody{Message: ae.Error(), Code: ae.Code}})
		return
	}
	c.JSON(http.StatusInternalServerError, envelope{Error: &errorBody{Message: err.Error()}})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Error: &errorBody{Message: message, Code: "bad_request"}})
}

func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, envelope{Error: &errorBody{Message: message, Code: "unauthorized"}})
}

func Forbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, envelope{Error: &errorBody{Message: message, Code: "forbidden"}})
}

func statusOf(ae *apierr.Error) int {
	if ae.Status >= 400 && ae.Status < 600 {
		return ae.Status
	}
	return http.StatusInternalServerError
}
