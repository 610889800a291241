package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/auth"
	"tally/internal/cache"
	"tally/internal/cli"
	"tally/internal/config"
	"tally/internal/core"
	apphttp "tally/internal/http"
	"tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/services"
	"tally/internal/storage"
	"tally/internal/storage/memory"
)

const (
	statsCacheSize  = 1000
	shutdownTimeout = 30 * time.Second
	tokenIssuer     = "tally"
	demoEmail       = "demo@example.com"
	demoPassword    = "password"
	demoFullName    = "Demo User"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig((*config.Config).Validate)
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}

	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("Starting tally", "port", cfg.Port, "amqp_enabled", cfg.AMQPEnabled())

	sessionRepo, err := storage.NewSQLiteRepository(cfg.SessionDBPath)
	if err != nil {
		cli.Fatal(logger, "Failed to open session database", err)
	}
	defer sessionRepo.Close()

	// Leave the interface nil when AMQP is off; a typed nil pointer would be
	// called and panic.
	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize AMQP client", err)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	var statsCache cache.Cache[core.ExpenseStats]
	if cfg.StatsCacheTTL > 0 {
		statsCache = cache.NewLRUCache[core.ExpenseStats](statsCacheSize, cfg.StatsCacheTTL)
	}

	store := memory.New()
	stats := services.NewStatsService(store, statsCache)
	users := services.NewUserService(store, publisher)
	categories := services.NewCategoryService(store, stats, publisher)
	expenses := services.NewExpenseService(store, stats, publisher)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
	ctx = log.NewContext(ctx, logger)

	if cfg.SeedDemoUser {
		seedDemoUser(ctx, logger, users, categories)
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.AuthRateLimitPerMinute})
	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		Users:          users,
		Categories:     categories,
		Expenses:       expenses,
		Stats:          stats,
		Sessions:       apphttp.NewSessionManager(sessionRepo, auth.NewTokenSigner(cfg.SessionSecret, tokenIssuer), cfg.SessionTTL, cfg.CookieSecure),
		Readiness:      sessionRepo,
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AuthLimiter:    limiter,
		Detector:       security.NewDetector(),
	})

	scheduler, err := newScheduler(ctx, logger,
		maintenanceJob{name: "expired_sessions", spec: cfg.SessionCleanupSchedule, run: func(ctx context.Context) (int, error) {
			n, err := sessionRepo.DeleteExpiredSessions(ctx)
			return int(n), err
		}},
		maintenanceJob{name: "stats_cache", spec: "@every 1m", run: func(ctx context.Context) (int, error) {
			return stats.CleanExpired(ctx), nil
		}},
		maintenanceJob{name: "rate_limit_clients", spec: "@every 5m", run: func(context.Context) (int, error) {
			return limiter.CleanupStale(), nil
		}},
	)
	if err != nil {
		cli.Fatal(logger, "Failed to schedule maintenance jobs", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		<-scheduler.Stop().Done()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		cli.Fatal(logger, "Server error", err)
	}
	logger.Info("Server stopped gracefully")
}

// seedDemoUser creates the demo account with default categories. An existing
// account is left alone.
func seedDemoUser(ctx context.Context, logger *log.Logger, users *services.UserService, categories *services.CategoryService) {
	u, err := users.Register(ctx, core.NewUser{Email: demoEmail, Password: demoPassword, FullName: demoFullName})
	if errors.Is(err, core.ErrConflict) {
		logger.Info("Demo user already exists", "email", demoEmail)
		return
	}
	if err != nil {
		logger.Error("Failed to create demo user", log.FieldError, err)
		return
	}
	if _, err := categories.SeedDefaults(ctx, u.ID); err != nil {
		logger.Error("Failed to seed demo categories", log.FieldError, err, log.FieldUserID, u.ID)
		return
	}
	logger.Info("Demo user created", "email", demoEmail, log.FieldUserID, u.ID)
}
