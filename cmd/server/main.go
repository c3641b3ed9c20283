package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	echoapi "github.com/shopd-io/shopd/api/echo"
	"github.com/shopd-io/shopd/cache"
	redicache "github.com/shopd-io/shopd/cache/redis"
	"github.com/shopd-io/shopd/config"
	"github.com/shopd-io/shopd/internal/auth"
	"github.com/shopd-io/shopd/internal/crypto"
	"github.com/shopd-io/shopd/internal/metrics"
	"github.com/shopd-io/shopd/log"
	appmw "github.com/shopd-io/shopd/middleware"
	"github.com/shopd-io/shopd/mongodb"
	"github.com/shopd-io/shopd/services"
	"github.com/shopd-io/shopd/tracing"
	"golang.org/x/crypto/bcrypt"
)

var (
	appLogger      log.Logger
	httpServer     *echo.Echo
	tracerProvider *sdktrace.TracerProvider
)

func main() {
	// Load configuration first
	cfg, err := config.LoadConfig()
	if err != nil {
		stdLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		stdLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize Logger
	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
		fallbackLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		fallbackLogger.Warn().
			Str("configured_log_level", cfg.LogLevel).
			Str("fallback_log_level", logLevel.String()).
			Err(parseErr).
			Msg("Invalid LOG_LEVEL configured, defaulting to 'info'")
	}
	appLogger = log.NewZerologAdapter(logLevel, cfg.LogPretty)
	appLogger.Info(context.Background(), "Starting shopd server...")
	appLogger.Info(context.Background(), "Configuration loaded successfully", map[string]interface{}{
		"http_port":     cfg.HTTPPort,
		"mongo_uri":     cfg.MongoURI,
		"mongo_db_name": cfg.MongoDBName,
		"log_level":     cfg.LogLevel,
		"cache_backend": cfg.CacheBackend,
		"otel_service":  cfg.OtelServiceName,
	})

	// Initialize OpenTelemetry TracerProvider
	tp, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		appLogger.Fatal(context.Background(), "Failed to initialize TracerProvider", err, nil)
	}
	tracerProvider = tp

	// --- Initialize Dependencies ---
	ctx := context.Background()
	if initErr := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); initErr != nil {
		appLogger.Fatal(ctx, "Failed to initialize MongoDB connection", initErr, nil)
	}
	db := mongodb.GetDB()

	// Repositories
	userRepo, err := mongodb.NewUserRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize UserRepository", err, nil)
	}
	sessionRepo, err := mongodb.NewSessionRepositoryMongo(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize SessionRepository", err, nil)
	}
	productRepo, err := mongodb.NewProductRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize ProductRepository", err, nil)
	}

	// Signing keys: the process must not start without usable key material.
	keys, err := crypto.LoadKeyPair(cfg.JWTPrivateKeyB64, cfg.JWTPublicKeyB64)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to load token signing keys", err, nil)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.InitCustomMetrics(registry)

	// Login attempt throttle store
	var attemptStore cache.AttemptStore
	switch cfg.CacheBackend {
	case "redis":
		redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		attemptStore = redicache.NewAttemptStore(redisClient, "shopd")
	default:
		attemptStore = cache.NewMemoryAttemptStore()
	}

	// Services
	passwordHasher := auth.NewBcryptPasswordHasher(bcrypt.DefaultCost)
	tokenService := services.NewTokenService(keys, cfg.JWTIssuer, time.Duration(cfg.VerifyLeewaySec)*time.Second)
	authService := services.NewAuthService(
		userRepo, sessionRepo, tokenService, passwordHasher, attemptStore,
		time.Duration(cfg.AccessTokenTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTokenTTLHour)*time.Hour,
		int64(cfg.LoginAttemptLimit),
		time.Duration(cfg.LoginAttemptWindow)*time.Minute,
	)
	userService := services.NewUserService(userRepo, passwordHasher)
	productService := services.NewProductService(productRepo)
	authenticator := appmw.NewAuthenticator(tokenService, authService)

	// --- HTTP Server ---
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	api := echoapi.NewAPI(authService, userService, productService, authenticator)
	api.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	httpServer = e
	go func() {
		appLogger.Info(context.Background(), fmt.Sprintf("HTTP server listening on port %s", cfg.HTTPPort))
		if err := e.Start(":" + cfg.HTTPPort); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(context.Background(), "Failed to start HTTP server", err, nil)
		}
	}()

	appLogger.Info(context.Background(), "Server components initialized. Waiting for interrupt signal...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit

	appLogger.Info(context.Background(), fmt.Sprintf("Received signal: %v. Shutting down server...", receivedSignal))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if httpServer != nil {
		appLogger.Info(shutdownCtx, "Shutting down HTTP server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "HTTP server shutdown error", err, nil)
		}
	}

	if tracerProvider != nil {
		appLogger.Info(shutdownCtx, "Shutting down TracerProvider...")
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "TracerProvider shutdown error", err, nil)
		}
	}

	appLogger.Info(shutdownCtx, "Closing MongoDB connection...")
	mongodb.CloseMongoDB(shutdownCtx)

	appLogger.Info(shutdownCtx, "Server gracefully stopped.")
}
