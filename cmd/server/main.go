package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Falcon-J/saathi/common/id"
	"github.com/Falcon-J/saathi/common/logger"
	"github.com/Falcon-J/saathi/common/otel"
	"github.com/Falcon-J/saathi/core/config"
	"github.com/Falcon-J/saathi/internal/http/middleware"
	httprouter "github.com/Falcon-J/saathi/internal/http/router"
	"github.com/Falcon-J/saathi/internal/realtime"
	"github.com/Falcon-J/saathi/internal/service"
	"github.com/Falcon-J/saathi/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint, "sample_ratio", cfg.OTel.SampleRatio)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "saathi starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	kv, redisClient, err := setupStore(ctx, cfg.Redis)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up store", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	if cfg.Redis.Enabled() {
		go kv.Monitor(monitorCtx, cfg.Redis.HealthEvery)
	}

	rt := realtime.NewService(kv, cfg.Realtime)
	services := service.NewServices(store.NewStores(kv), rt, cfg.Session)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, rt, kv)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Streams stay open up to the realtime lifetime cap.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Streams never go idle; Shutdown would otherwise wait out its timeout.
	server.RegisterOnShutdown(rt.CloseConnections)
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	rt.Close()
	stopMonitor()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// setupStore returns the shared store. Without a Redis URL it runs on the
// in-memory store only; an unreachable Redis at startup is not fatal.
func setupStore(ctx context.Context, cfg config.RedisConfig) (*store.FallbackKV, *redis.Client, error) {
	fallbackCfg := store.FallbackConfig{
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}

	if !cfg.Enabled() {
		slog.WarnContext(ctx, "REDIS_URL not set, using in-memory store")
		return store.NewFallbackKV(nil, store.NewMemoryKV(), fallbackCfg), nil, nil
	}

	redisOpts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}
	redisOpts.DialTimeout = cfg.DialTimeout
	redisOpts.ReadTimeout = cfg.OperationTime
	redisOpts.WriteTimeout = cfg.OperationTime

	redisClient := redis.NewClient(redisOpts)
	kv := store.NewFallbackKV(store.NewRedisKV(redisClient), store.NewMemoryKV(), fallbackCfg)

	if err := kv.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "redis unreachable, serving from in-memory store", "error", err)
	} else {
		slog.InfoContext(ctx, "redis connected")
	}

	return kv, redisClient, nil
}

func setupRouter(cfg config.Config, services *service.Services, rt *realtime.Service, kv *store.FallbackKV) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, rt, kv, httprouter.RouterConfig{
		Session:   cfg.Session,
		RateLimit: cfg.RateLimit,
	})

	return router
}

const banner = `
 ___  __ _  __ _| |_| |__ (_)
/ __|/ _` + "`" + ` |/ _` + "`" + ` | __| '_ \| |
\__ \ (_| | (_| | |_| | | | |
|___/\__,_|\__,_|\__|_| |_|_|
`
