package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/salon-ingest/pkg/errors"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RespondWithError aborts the request with the status mapped from the
// AppError code. Only the AppError's message is rendered, never the error
// it wraps. Errors that are not AppErrors become a bare 500.
func RespondWithError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{
			Error: "internal server error",
			Code:  errors.ErrInternal.String(),
		})
		return
	}

	c.AbortWithStatusJSON(appErr.StatusCode(), ErrorBody{
		Error: errors.PublicMessage(appErr),
		Code:  appErr.Code.String(),
	})
}

// RespondWithMessage aborts with a plain {error} body.
func RespondWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: message})
}
