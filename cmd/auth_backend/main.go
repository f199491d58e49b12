package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	portsrepo "github.com/SscSPs/user_auth_backend/internal/core/ports/repositories"
	"github.com/SscSPs/user_auth_backend/internal/core/services"
	"github.com/SscSPs/user_auth_backend/internal/handlers"
	"github.com/SscSPs/user_auth_backend/internal/middleware"
	"github.com/SscSPs/user_auth_backend/internal/platform/config"
	"github.com/SscSPs/user_auth_backend/internal/platform/telemetry"
	"github.com/SscSPs/user_auth_backend/internal/repositories/database/memory"
	"github.com/SscSPs/user_auth_backend/internal/repositories/database/pgsql"
	"github.com/SscSPs/user_auth_backend/internal/repositories/media/localstore"
	"github.com/SscSPs/user_auth_backend/internal/repositories/media/s3store"
	"github.com/SscSPs/user_auth_backend/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// @title User Auth Backend API
// @version 1.0
// @description Registration, login and rotating access/refresh tokens.

// @host localhost:8000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Initialize structured logger
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	level.Set(parseLevel(cfg.LogLevel))

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPTracesEndpoint, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("Failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	userRepo, closeStore, err := newUserRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	media, localMediaDir, err := newMediaStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	authLimiter, err := middleware.NewAuthRateLimiter(ctx, cfg.AuthRateLimit, cfg.RedisURL)
	if err != nil {
		return err
	}

	svc := services.NewServiceContainer(cfg, portsrepo.RepositoryProvider{UserRepo: userRepo, MediaStore: media})

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (recovery, logging, tracing, CORS)
	r.Use(
		middleware.Recovery(),
		middleware.StructuredLoggingMiddleware(logger),
		middleware.Tracing(cfg.ServiceName),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	if localMediaDir != "" {
		r.Static("/media", localMediaDir)
	}

	handlers.RegisterRoutes(r, cfg, svc, authLimiter, userRepo)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newUserRepository connects to Postgres and runs migrations, or falls back to
// the in-memory store when no database is configured outside production.
func newUserRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.UserRepositoryFacade, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("PGSQL_URL not set, using in-memory user store. Data is lost on restart.")
		return memory.NewUserRepository(), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		database.ClosePgxPool(dbPool)
		return nil, nil, err
	}

	return pgsql.NewUserRepository(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

// newMediaStore returns the S3 store when a bucket is configured, otherwise a
// local directory that is served under /media.
func newMediaStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.MediaStore, string, error) {
	if cfg.Media.Enabled() {
		store, err := s3store.New(ctx, cfg.Media)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize media store: %w", err)
		}
		logger.Info("Using S3 media store", slog.String("bucket", cfg.Media.Bucket))
		return store, "", nil
	}

	store, err := localstore.New(cfg.Media.LocalDir, cfg.Media.LocalBaseURL)
	if err != nil {
		return nil, "", err
	}
	logger.Warn("S3_BUCKET not set, storing media on local disk", slog.String("dir", store.Dir()))
	return store, store.Dir(), nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
