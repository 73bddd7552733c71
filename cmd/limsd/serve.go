package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bactolab/lims/internal/api"
	"github.com/bactolab/lims/internal/api/handler"
	"github.com/bactolab/lims/internal/core/permission"
	"github.com/bactolab/lims/internal/core/ratelimit"
	"github.com/bactolab/lims/internal/core/service"
	"github.com/bactolab/lims/internal/infrastructure/db/mongo"
	"github.com/bactolab/lims/internal/infrastructure/db/redis"
	"github.com/bactolab/lims/internal/infrastructure/queue"
	"github.com/bactolab/lims/internal/pkg/config"
	"github.com/bactolab/lims/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "limsd",
		Version: version,
	})

	matrix := permission.Default()
	if err := matrix.Validate(); err != nil {
		return err
	}

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	checks := map[string]handler.Check{
		"mongodb": func(ctx context.Context) error { return mongo.Ping(ctx, db) },
	}

	var store ratelimit.Store
	switch cfg.RateLimit.Backend {
	case config.BackendRedis:
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		store = redis.NewRateLimitStore(rdb)
		checks["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, rdb) }
	default:
		store = ratelimit.NewMemoryStore()
	}

	auditRepo := mongo.NewAuditRepository(db)
	dispatcher := queue.NewAuditDispatcher(cfg.Audit.Workers, auditRepo, logger.Component("audit"))

	lockout := ratelimit.NewLockout(store, ratelimit.LockoutConfig{
		MaxAttempts: cfg.RateLimit.LockoutMaxAttempts,
		Window:      cfg.RateLimit.LockoutWindow,
	})
	authService := service.NewAuthService(
		mongo.NewUserRepository(db),
		lockout,
		dispatcher,
		cfg.JWTSecret,
		cfg.TokenTTL,
		logger.Component("auth"),
	)

	e := api.NewRouter(api.Deps{
		AuthService: authService,
		Guard:       service.NewGuard(nil, matrix, logger.Component("guard")),
		Limiter:     ratelimit.NewLimiter(store),
		Audit:       dispatcher,
		AuditRepo:   auditRepo,
		JWTSecret:   cfg.JWTSecret,
		Production:  cfg.IsProduction(),
		Checks:      checks,
		Log:         logger.Component("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Audit workers outlive the server so entries recorded by in-flight
	// requests during shutdown are still persisted.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher.Start(auditCtx)

	g, gctx := errgroup.WithContext(ctx)
	if _, ok := store.(*ratelimit.MemoryStore); ok {
		sweeper := ratelimit.NewSweeper(store, cfg.RateLimit.SweepInterval, logger.Component("ratelimit"))
		g.Go(func() error { return sweeper.Run(gctx) })
	}
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("rate_limit_backend", cfg.RateLimit.Backend).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	stopAudit()
	dispatcher.Wait()
	return err
}
