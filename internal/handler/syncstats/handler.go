package syncstats

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/internal/middleware"
	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/pkg/httputil"
)

type Reader interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*model.SyncStats, error)
}

type StatusResponse struct {
	LastSyncAt *time.Time       `json:"lastSyncAt"`
	SyncStats  *model.SyncStats `json:"syncStats"`
}

type Handler struct {
	stats Reader
}

func NewHandler(stats Reader) *Handler {
	return &Handler{stats: stats}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/sync/status", h.Status)
}

func (h *Handler) Status(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		httputil.RespondWithMessage(c, http.StatusUnauthorized, "tenant not authenticated")
		return
	}

	stats, err := h.stats.Get(c.Request.Context(), tenantID)
	if err != nil {
		_ = c.Error(err)
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{LastSyncAt: stats.LastSyncAt, SyncStats: stats})
}
