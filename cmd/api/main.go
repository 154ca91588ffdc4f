package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/salon-ingest/internal/config"
	"github.com/jwalitptl/salon-ingest/internal/handler/health"
	ingestHandler "github.com/jwalitptl/salon-ingest/internal/handler/ingest"
	pendingHandler "github.com/jwalitptl/salon-ingest/internal/handler/pending"
	syncStatsHandler "github.com/jwalitptl/salon-ingest/internal/handler/syncstats"
	"github.com/jwalitptl/salon-ingest/internal/middleware"
	"github.com/jwalitptl/salon-ingest/internal/repository"
	"github.com/jwalitptl/salon-ingest/internal/repository/memory"
	"github.com/jwalitptl/salon-ingest/internal/repository/postgres"
	"github.com/jwalitptl/salon-ingest/internal/router"
	ingestService "github.com/jwalitptl/salon-ingest/internal/service/ingest"
	pendingService "github.com/jwalitptl/salon-ingest/internal/service/pending"
	syncStatsService "github.com/jwalitptl/salon-ingest/internal/service/syncstats"
	"github.com/jwalitptl/salon-ingest/pkg/auth"
	"github.com/jwalitptl/salon-ingest/pkg/logger"
	"github.com/jwalitptl/salon-ingest/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Log.Pretty,
	})
	log.Logger = appLogger.ZL

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to open store", "driver", cfg.Database.Driver)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(cfg.Metrics.Namespace, registry)

	// Services
	pendingSvc := pendingService.NewService(store.Pending)
	statsSvc := syncStatsService.NewService(store.SyncStats)
	ingestSvc := ingestService.NewService(store, pendingSvc, statsSvc, ingestService.Options{
		RosterCacheTTL: cfg.Ingest.RosterCacheTTL,
		Logger:         appLogger.With("component", "ingest"),
		Metrics:        m,
	})

	tokens := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	gin.SetMode(gin.ReleaseMode)
	r := router.NewRouter(middleware.NewAuthMiddleware(tokens), router.Handlers{
		Webhook:   ingestHandler.NewHandler(ingestSvc),
		Pending:   pendingHandler.NewHandler(pendingSvc),
		SyncStats: syncStatsHandler.NewHandler(statsSvc),
		Health:    health.NewHandler(store.Pinger, registry),
	}, router.RouterConfig{
		RateLimit:     rate.Limit(cfg.Webhook.RateLimitRPS),
		RateBurst:     cfg.Webhook.RateBurst,
		MaxBodyBytes:  cfg.Webhook.MaxBodyBytes,
		WebhookSecret: cfg.Webhook.Secret,
		CORSConfig:    middleware.DefaultCORSConfig(),
		Logger:        appLogger.With("component", "http"),
		Metrics:       m,
	})
	r.Setup()

	if cfg.Webhook.Secret == "" {
		appLogger.Warn("webhook signature verification is disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("starting server", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal(err, "server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}

// openStore picks the repository backend. The memory driver keeps nothing
// across restarts and is meant for local runs.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*repository.Store, error) {
	switch cfg.Driver {
	case "memory":
		store, db := memory.NewStore()
		if err := seedMemory(db, cfg.Seed); err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		return postgres.NewStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func seedMemory(db *memory.DB, seeds []config.TenantSeed) error {
	for _, s := range seeds {
		tenantID, err := uuid.Parse(s.TenantID)
		if err != nil {
			return fmt.Errorf("invalid seed tenant id %q: %w", s.TenantID, err)
		}
		for _, name := range s.Services {
			db.AddService(tenantID, name)
		}
		for _, full := range s.Employees {
			parts := strings.Fields(full)
			if len(parts) == 0 {
				continue
			}
			db.AddEmployee(tenantID, parts[0], strings.Join(parts[1:], " "))
		}
	}
	return nil
}
