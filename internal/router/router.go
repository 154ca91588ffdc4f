package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/salon-ingest/internal/middleware"
	"github.com/jwalitptl/salon-ingest/pkg/logger"
	"github.com/jwalitptl/salon-ingest/pkg/metrics"
)

const APIVersion = "1.0"

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// WebhookHandler accepts the middleware that guards its group.
type WebhookHandler interface {
	RegisterRoutes(*gin.RouterGroup, ...gin.HandlerFunc)
}

type Handlers struct {
	Webhook   WebhookHandler
	Pending   Handler
	SyncStats Handler
	Health    Handler
}

type RouterConfig struct {
	RateLimit     rate.Limit
	RateBurst     int
	MaxBodyBytes  int64
	WebhookSecret string
	CORSConfig    middleware.CORSConfig
	Logger        *logger.Logger
	Metrics       *metrics.Metrics
	// Now is the clock for webhook timestamp checks; nil means time.Now.
	Now func() time.Time
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	config   RouterConfig
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Metrics == nil {
		config.Metrics = metrics.New("", nil)
	}

	engine := gin.New()
	engine.Use(
		middleware.Recovery(config.Logger),
		middleware.RequestID(),
		middleware.Logger(config.Logger),
		middleware.Metrics(config.Metrics),
		middleware.CORS(config.CORSConfig),
		middleware.Validation(),
	)

	return &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		config:   config,
	}
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", APIVersion)
		c.Next()
	})

	r.handlers.Health.RegisterRoutes(api)

	// The webhook authenticates by signature, not by tenant token.
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  r.config.RateLimit,
		Burst: r.config.RateBurst,
	})
	r.handlers.Webhook.RegisterRoutes(api,
		limiter.RateLimit(),
		middleware.SizeLimit(r.config.MaxBodyBytes),
		middleware.WebhookSignature(middleware.WebhookSignatureConfig{
			Secret: r.config.WebhookSecret,
			Now:    r.config.Now,
		}),
	)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.handlers.Pending.RegisterRoutes(protected)
	r.handlers.SyncStats.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
