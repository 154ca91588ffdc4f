package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/salon-ingest/pkg/errors"
)

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validationBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields []ValidationError `json:"fields,omitempty"`
}

var messages = map[string]string{
	"required": "is required",
	"uuid":     "must be a UUID",
	"oneof":    "has an unsupported value",
	"min":      "is too short",
	"max":      "is too long",
}

var registerTagNames sync.Once

// UseJSONFieldNames makes validator report json names (tenantId) instead of
// Go field names (TenantID).
func UseJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// Validation renders bind errors a handler attached with c.Error as a 400
// TRANSPORT_ERROR listing the offending fields.
func Validation() gin.HandlerFunc {
	UseJSONFieldNames()

	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		bindErrs := c.Errors.ByType(gin.ErrorTypeBind)
		if len(bindErrs) == 0 {
			return
		}

		body := validationBody{Code: apperrors.ErrBadRequest.String()}
		for _, e := range bindErrs {
			var verrs validator.ValidationErrors
			if !errors.As(e.Err, &verrs) {
				body.Error = "invalid request body: " + e.Err.Error()
				continue
			}
			for _, fe := range verrs {
				msg, ok := messages[fe.Tag()]
				if !ok {
					msg = "failed " + fe.Tag() + " validation"
				}
				body.Fields = append(body.Fields, ValidationError{Field: fe.Field(), Message: msg})
			}
		}
		if body.Error == "" {
			parts := make([]string, 0, len(body.Fields))
			for _, f := range body.Fields {
				parts = append(parts, f.Field+" "+f.Message)
			}
			body.Error = strings.Join(parts, "; ")
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
	}
}
