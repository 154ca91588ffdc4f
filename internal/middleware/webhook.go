package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/salon-ingest/pkg/httputil"
	"github.com/jwalitptl/salon-ingest/pkg/webhookauth"
)

type WebhookSignatureConfig struct {
	// Secret disables verification when empty.
	Secret string
	Now    func() time.Time
}

// WebhookSignature verifies the HMAC headers against the raw body and puts
// the body back for the handler. Place it after SizeLimit.
func WebhookSignature(config WebhookSignatureConfig) gin.HandlerFunc {
	if config.Now == nil {
		config.Now = time.Now
	}
	return func(c *gin.Context) {
		if config.Secret == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httputil.RespondWithMessage(c, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			httputil.RespondWithMessage(c, http.StatusBadRequest, "unreadable request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		err = webhookauth.Verify(webhookauth.Input{
			Secret:    config.Secret,
			Timestamp: c.GetHeader(webhookauth.TimestampHeader),
			Signature: c.GetHeader(webhookauth.SignatureHeader),
			Body:      body,
			Now:       config.Now(),
		})
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, webhookauth.ErrInvalidTimestamp):
			httputil.RespondWithMessage(c, http.StatusBadRequest, err.Error())
		default:
			httputil.RespondWithMessage(c, http.StatusUnauthorized, err.Error())
		}
	}
}
