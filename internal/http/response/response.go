package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/activity-tracker-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps a service error onto the wire using the status and
// code it carries, defaulting to a 500.
func RespondServiceError(c *gin.Context, err error) {
	status := apierr.Status(err)
	code := apierr.Code(err)
	if code == "" {
		code = "internal_error"
	}
	RespondError(c, status, code, err)
}
