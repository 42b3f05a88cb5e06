// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carterperez-dev/persona-advice/internal/admin"
	"github.com/carterperez-dev/persona-advice/internal/advice"
	"github.com/carterperez-dev/persona-advice/internal/auth"
	"github.com/carterperez-dev/persona-advice/internal/config"
	"github.com/carterperez-dev/persona-advice/internal/core"
	"github.com/carterperez-dev/persona-advice/internal/entity"
	"github.com/carterperez-dev/persona-advice/internal/health"
	"github.com/carterperez-dev/persona-advice/internal/middleware"
	"github.com/carterperez-dev/persona-advice/internal/migrations"
	"github.com/carterperez-dev/persona-advice/internal/server"
	"github.com/carterperez-dev/persona-advice/internal/upstream"
	"github.com/carterperez-dev/persona-advice/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "optional path to a YAML config file")
	migrate := flag.Bool("migrate", false, "apply pending migrations before serving")
	flag.Parse()

	if err := run(*configPath, *migrate); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string, migrate bool) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if migrate {
		if err := applyMigrations(db); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	tokens, err := auth.NewTokenManager(cfg.Token)
	if err != nil {
		return err
	}
	logger.Info("token manager initialized",
		"algorithm", "HS256",
		"max_age", tokens.MaxAge(),
	)

	retry := upstream.NewRetryPolicy(cfg.Upstream)
	slips := upstream.NewAdviceSlipClient(cfg.AdviceSlip, retry)
	completer := upstream.NewCompletionClient(cfg.Completion, retry)

	userSvc := user.NewService(db)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(tokens, userSvc)
	authHandler := auth.NewHandler(authSvc)

	adviceCache := core.NewCache(redis.Client, "advice")
	adviceSvc := advice.NewService(db, slips, completer, adviceCache, cfg.Advice)
	if err := adviceSvc.LoadDefaultPersona(ctx); err != nil {
		return err
	}
	logger.Info("default persona resolved",
		"name", cfg.Advice.DefaultPersona,
		"persona_id", adviceSvc.DefaultPersonaID(),
	)
	adviceHandler := advice.NewHandler(adviceSvc, cfg.Pagination)
	if cfg.RateLimit.Enabled && cfg.RateLimit.Generate > 0 {
		adviceHandler.LimitGeneration(
			middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
				Limit: redis_rate.Limit{
					Rate:   cfg.RateLimit.Generate,
					Burst:  cfg.RateLimit.Generate,
					Period: cfg.RateLimit.Window,
				},
				KeyFunc:  middleware.KeyByIPAndEndpoint,
				Prefix:   "ratelimit:generate",
				FailOpen: true,
			}).Handler,
		)
	}

	entityHandler := entity.NewHandler(
		entity.NewService(db).WithCache(adviceCache, cfg.Advice.CacheTTL),
	)

	healthHandler := health.NewHandler(cfg.App.Version,
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis, Optional: true},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Repository: admin.NewRepository(db.DB),
		SlipMaxID:  cfg.Advice.SlipMaxID,
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics)
	if telemetry.Enabled() {
		router.Use(middleware.Tracing)
	}
	if cfg.RateLimit.Enabled {
		router.Use(
			middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
				Limit: redis_rate.Limit{
					Rate:   cfg.RateLimit.Requests,
					Burst:  cfg.RateLimit.Burst,
					Period: cfg.RateLimit.Window,
				},
				KeyFunc:  middleware.KeyByIP,
				FailOpen: true,
			}).Handler,
		)
	}
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	authenticator := middleware.Authenticator(authSvc)
	optionalAuth := middleware.OptionalAuth(authSvc)
	adminOnly := middleware.RequireRole(userSvc, user.RoleAdmin)

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator, optionalAuth)

		r.Route("/advice", func(r chi.Router) {
			adviceHandler.RegisterRoutes(r, authenticator)
			entityHandler.RegisterRoutes(r, authenticator)
		})

		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func applyMigrations(db *core.Database) error {
	m, err := migrations.Open(db)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			slog.Warn("close migrator", "error", err)
		}
	}()

	return m.Up()
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
