package pending

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/internal/middleware"
	"github.com/jwalitptl/salon-ingest/internal/model"
	apperrors "github.com/jwalitptl/salon-ingest/pkg/errors"
	"github.com/jwalitptl/salon-ingest/pkg/httputil"
)

type Queue interface {
	List(ctx context.Context, tenantID uuid.UUID, status model.PendingStatus) ([]*model.PendingNotification, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status model.PendingStatus) (*model.PendingNotification, error)
}

type ListResponse struct {
	Pending []*model.PendingNotification `json:"pending"`
	Count   int                          `json:"count"`
}

type UpdateStatusRequest struct {
	Status model.PendingStatus `json:"status" binding:"required,oneof=pending resolved ignored"`
}

type Handler struct {
	queue Queue
}

func NewHandler(queue Queue) *Handler {
	return &Handler{queue: queue}
}

// RegisterRoutes expects r to already require a tenant token.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	pending := r.Group("/pending")
	{
		pending.GET("", h.List)
		pending.PATCH("/:id", h.UpdateStatus)
	}
}

func (h *Handler) List(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		httputil.RespondWithMessage(c, http.StatusUnauthorized, "tenant not authenticated")
		return
	}

	status, ok := model.ParsePendingFilter(c.Query("status"))
	if !ok {
		httputil.RespondWithError(c, apperrors.NewBadRequest("status must be one of pending, resolved, ignored, all", nil))
		return
	}

	items, err := h.queue.List(c.Request.Context(), tenantID, status)
	if err != nil {
		_ = c.Error(err)
		httputil.RespondWithError(c, err)
		return
	}
	if items == nil {
		items = []*model.PendingNotification{}
	}

	c.JSON(http.StatusOK, ListResponse{Pending: items, Count: len(items)})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		httputil.RespondWithMessage(c, http.StatusUnauthorized, "tenant not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid pending notification id", nil))
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	item, err := h.queue.UpdateStatus(c.Request.Context(), tenantID, id, req.Status)
	if err != nil {
		_ = c.Error(err)
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}
