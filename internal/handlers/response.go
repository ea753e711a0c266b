package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/traceleaf/dpp-backend/internal/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondAPIError maps a service error onto the wire envelope. Anything that
// is not an *apierr.Error goes out as a 500 with a generic message.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.From(err)
	msg := ae.Error()
	if ae.Status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(ae.Status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    ae.Code,
		},
	})
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

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
