package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-analyzer/internal/auth"
	"crypto-analyzer/internal/bot"
	"crypto-analyzer/internal/cache"
	"crypto-analyzer/internal/config"
	"crypto-analyzer/internal/db"
	"crypto-analyzer/internal/handler"
	"crypto-analyzer/internal/job"
	"crypto-analyzer/internal/provider"
	"crypto-analyzer/internal/repository"
	"crypto-analyzer/internal/service"
	"crypto-analyzer/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "crypto-analyzer/docs"
)

var (
	loadEnvFunc              = godotenv.Load
	loadConfigFunc           = config.Load
	initPostgresFunc         = db.InitPostgres
	initRedisFunc            = cache.InitRedis
	initTracerFunc           = tracing.InitTracer
	newSnapshotRepoFunc      = repository.NewSnapshotRepository
	newCoinGeckoProviderFunc = func(tracer trace.Tracer) service.MarketProvider {
		return provider.NewCoinGeckoProvider(tracer)
	}
	newFearGreedProviderFunc = func(tracer trace.Tracer) service.FearGreedProvider {
		return provider.NewFearGreedProvider(tracer)
	}
	newMarketServiceFunc   = service.NewMarketService
	newMarketPollerFunc    = job.NewMarketPoller
	startPollerFunc        = func(p *job.MarketPoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Crypto Analyzer API
// @version         1.0
// @description     Market data, sentiment analysis, and investment projections for the top cryptocurrencies.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Snapshot store is optional: without DATABASE_URL the service runs
	// cache-only and history reads return nothing.
	var snapshotRepo service.SnapshotRepository
	if db.Pool != nil {
		repo := newSnapshotRepoFunc(db.Pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		snapshotRepo = repo
	}

	var redisClient service.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
	}

	marketService := newMarketServiceFunc(
		tracer,
		newCoinGeckoProviderFunc(tracer),
		newFearGreedProviderFunc(tracer),
		snapshotRepo,
		redisClient,
	)

	// Start market poller (background goroutines, stopped by ctx cancel)
	poller := newMarketPollerFunc(tracer, marketService, cfg.CoinGeckoPollSecs)
	startPollerFunc(poller, ctx)

	// Start Telegram bot
	startTelegramBotFunc(cfg.TelegramBotToken, marketService)

	// Create handlers and routes
	authService := auth.NewService(nil, cfg.IdentityAPIKey, tracer)
	h := newHandlerFunc(tracer, marketService, authService)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("crypto-analyzer"))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
