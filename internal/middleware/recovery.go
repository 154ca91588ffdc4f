package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/salon-ingest/pkg/httputil"
	"github.com/jwalitptl/salon-ingest/pkg/logger"
)

// Recovery turns a panic into a 500 {error} response.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.ZL.Error().
					Interface("error", err).
					Str("stack", string(debug.Stack())).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("client_ip", c.ClientIP()).
					Str("request_id", GetRequestID(c)).
					Msg("request panic recovered")

				httputil.RespondWithMessage(c, http.StatusInternalServerError, "internal server error")
			}
		}()
		c.Next()
	}
}
