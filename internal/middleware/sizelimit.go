package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/salon-ingest/pkg/httputil"
)

// SizeLimit rejects declared oversize bodies up front and caps undeclared
// ones with http.MaxBytesReader. A non-positive limit disables it.
func SizeLimit(maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBodyBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBodyBytes {
			httputil.RespondWithMessage(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		c.Next()
	}
}
