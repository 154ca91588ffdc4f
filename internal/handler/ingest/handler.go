package ingest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/salon-ingest/internal/model"
	ingestsvc "github.com/jwalitptl/salon-ingest/internal/service/ingest"
	apperrors "github.com/jwalitptl/salon-ingest/pkg/errors"
	"github.com/jwalitptl/salon-ingest/pkg/httputil"
)

// Processor is the batch entry point of the ingestion pipeline.
type Processor interface {
	ProcessBatch(ctx context.Context, tenantID uuid.UUID, notifications []model.IncomingNotification) (*ingestsvc.BatchResult, error)
}

type WebhookRequest struct {
	TenantID      string                       `json:"tenantId" binding:"required,uuid"`
	Notifications []model.IncomingNotification `json:"notifications" binding:"required"`
}

type WebhookResponse struct {
	Success bool `json:"success"`
	*ingestsvc.BatchResult
}

type Handler struct {
	processor Processor
}

func NewHandler(processor Processor) *Handler {
	return &Handler{processor: processor}
}

// RegisterRoutes mounts the webhook. Signature and size checks are attached
// by the caller through mw.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw ...gin.HandlerFunc) {
	webhooks := r.Group("/webhooks", mw...)
	{
		webhooks.POST("/notifications", h.ReceiveNotifications)
	}
}

func (h *Handler) ReceiveNotifications(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondWithMessage(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("tenantId must be a UUID", err))
		return
	}
	// A batch runs to completion even if the caller hangs up; otherwise the
	// remaining items and the sync stats would be lost half way.
	result, err := h.processor.ProcessBatch(context.WithoutCancel(c.Request.Context()), tenantID, req.Notifications)
	if err != nil {
		_ = c.Error(err)
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, WebhookResponse{Success: true, BatchResult: result})
}
