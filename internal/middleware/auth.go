package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/pkg/auth"
	"github.com/jwalitptl/salon-ingest/pkg/httputil"
)

const (
	ContextTenantID = "tenant_id"
	ContextSubject  = "subject"
)

type AuthMiddleware struct {
	tokens auth.JWTService
}

func NewAuthMiddleware(tokens auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate requires a bearer token carrying a tenant_id claim and stores
// the tenant in the context. Every tenant-scoped read uses that id and
// nothing from the request itself.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithMessage(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			httputil.RespondWithMessage(c, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		claims, err := m.tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			httputil.RespondWithMessage(c, http.StatusUnauthorized, "invalid token")
			return
		}
		tenantID, err := claims.Tenant()
		if err != nil {
			httputil.RespondWithMessage(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(ContextTenantID, tenantID)
		c.Set(ContextSubject, claims.Subject)
		c.Next()
	}
}

// TenantID returns the tenant stored by Authenticate.
func TenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextTenantID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
