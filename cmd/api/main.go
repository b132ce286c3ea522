package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukedaW/shortlinks/internal/config"
	"github.com/dukedaW/shortlinks/internal/infrastructure/db"
	"github.com/dukedaW/shortlinks/internal/infrastructure/logger"
	"github.com/dukedaW/shortlinks/internal/infrastructure/telemetry"
	"github.com/dukedaW/shortlinks/internal/processing/auth"
	"github.com/dukedaW/shortlinks/internal/processing/links"
	mongoStorage "github.com/dukedaW/shortlinks/internal/storage/mongo"
	postgresStorage "github.com/dukedaW/shortlinks/internal/storage/postgres"
	redisStorage "github.com/dukedaW/shortlinks/internal/storage/redis"
	httpTransport "github.com/dukedaW/shortlinks/internal/transport/http"
	"github.com/dukedaW/shortlinks/internal/transport/http/middleware"
	"github.com/dukedaW/shortlinks/pkg/httpclient"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.Env, cfg.App.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
	)

	var shutdownTracer func(context.Context) error
	if cfg.OTel.Enabled {
		var err error
		shutdownTracer, err = telemetry.InitTracer(cfg.OTel.Endpoint, cfg.App.Name, cfg.App.Version)
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			logger.Info("OpenTelemetry tracer initialized", zap.String("endpoint", cfg.OTel.Endpoint))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgConn, err := db.ConnectPostgres(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgConn.Close()

	if err := postgresStorage.Migrate(ctx, pgConn); err != nil {
		logger.Fatal("Failed to apply database schema", zap.Error(err))
	}

	linkRepo, err := postgresStorage.NewLinksRepository(pgConn)
	if err != nil {
		logger.Fatal("Failed to initialize links repository", zap.Error(err))
	}
	userRepo, err := postgresStorage.NewUsersRepository(pgConn)
	if err != nil {
		logger.Fatal("Failed to initialize users repository", zap.Error(err))
	}
	outboxRepo, err := postgresStorage.NewClickOutboxRepository(pgConn)
	if err != nil {
		logger.Fatal("Failed to initialize outbox repository", zap.Error(err))
	}

	redisClient, err := redisStorage.Connect(ctx, redisStorage.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	linkCache, err := redisStorage.NewLinkCache(redisClient)
	if err != nil {
		logger.Fatal("Failed to initialize link cache", zap.Error(err))
	}

	var checker links.TargetChecker
	if cfg.Shortener.VerifyTargets {
		checker = httpclient.NewChecker(5*time.Second, 5, 30*time.Second)
	}

	linkSvc := links.NewService(linkRepo, linkCache, links.NewCryptoAliasSource(), links.ServiceOptions{
		AliasLength: cfg.Shortener.AliasLength,
		MaxAttempts: cfg.Shortener.GenAttempts,
		DefaultTTL:  cfg.Shortener.DefaultLinkTTL,
		CacheTTL:    cfg.Shortener.CacheTTL,
		Outbox:      outboxRepo,
		Checker:     checker,
	})
	authSvc := auth.NewService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	sweeper := links.NewSweeper(linkRepo, linkCache, links.SweeperOptions{
		Interval:       cfg.Sweep.Interval,
		StaleAge:       cfg.Sweep.StaleAge,
		StaleMaxClicks: cfg.Sweep.StaleMaxClicks,
	})
	go sweeper.Run(ctx)

	// Daily click aggregates are optional: the API serves totals from the
	// store even when the analytics database is unreachable.
	var dailyStats httpTransport.DailyStatsReader
	if mongoConn, err := db.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database); err != nil {
		logger.Warn("MongoDB unavailable, stats served without daily breakdown", zap.Error(err))
	} else {
		defer func() { _ = mongoConn.Disconnect() }()
		statsRepo, err := mongoStorage.NewClickStatsRepository(mongoConn)
		if err != nil {
			logger.Warn("Failed to initialize stats repository", zap.Error(err))
		} else {
			dailyStats = statsRepo
		}
	}

	limiterStore := redisStorage.NewFixedWindowLimiter(redisClient, "rl:create", time.Minute)
	createLimiter := middleware.NewRedisFixedWindowLimiter(limiterStore, cfg.RateLimit.CreatePerMinute)

	router := httpTransport.NewRouter(cfg, httpTransport.RouterDeps{
		LinkService: linkSvc,
		AuthService: authSvc,
		DailyStats:  dailyStats,
		Limiter:     createLimiter,
		Store:       pgConn.Pool,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if shutdownTracer != nil {
			_ = shutdownTracer(shutdownCtx)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("Server starting",
		zap.String("port", cfg.Server.Port),
		zap.String("env", cfg.App.Env),
		zap.String("address", fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)),
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
