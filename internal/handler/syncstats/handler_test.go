package syncstats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/salon-ingest/internal/middleware"
	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository/memory"
	"github.com/jwalitptl/salon-ingest/internal/service/syncstats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(svc *syncstats.Service, tenant uuid.UUID) *httptest.ResponseRecorder {
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.ContextTenantID, tenant)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(api)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil))
	return w
}

func TestStatusNeverSynced(t *testing.T) {
	store, _ := memory.NewStore()
	w := get(syncstats.NewService(store.SyncStats), uuid.New())

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"lastSyncAt":null,"syncStats":{"total":0,"success":0,"errors":0}}`, w.Body.String())
}

func TestStatusAfterBatches(t *testing.T) {
	store, _ := memory.NewStore()
	svc := syncstats.NewService(store.SyncStats)
	tenant := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, tenant, model.SyncDelta{Total: 4, Success: 3, Errors: 1}))
	require.NoError(t, svc.Record(ctx, tenant, model.SyncDelta{Total: 1, Success: 1}))
	require.NoError(t, svc.Record(ctx, uuid.New(), model.SyncDelta{Total: 9, Errors: 9}))

	w := get(svc, tenant)
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.LastSyncAt)
	assert.WithinDuration(t, time.Now(), *resp.LastSyncAt, time.Minute)
	assert.Equal(t, int64(5), resp.SyncStats.Total)
	assert.Equal(t, int64(4), resp.SyncStats.Success)
	assert.Equal(t, int64(1), resp.SyncStats.Errors)
}
