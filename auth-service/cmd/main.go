package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/auth-service/internal/command"
	"github.com/startupstarter/admin/auth-service/internal/handler"
	"github.com/startupstarter/admin/auth-service/internal/query"
	"github.com/startupstarter/admin/auth-service/internal/repository"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/config"
	"github.com/startupstarter/admin/shared/database"
	"github.com/startupstarter/admin/shared/events"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/middleware"
	redisClient "github.com/startupstarter/admin/shared/redis"
)

const (
	serviceName     = "auth-service"
	shutdownTimeout = 15 * time.Second
	limiterCleanup  = 5 * time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAuth()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(logger.Options{Service: serviceName, Level: cfg.LogLevel, Mode: cfg.LogMode, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// Write store, shared with admin-service which owns the schema
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	clk := clock.NewRealClock()
	publisher := events.NewPublisher(rdb.Client, log)
	users := repository.NewUserRepository(db, rdb.Client, log)
	accounts := repository.NewAccountRepository(db)
	sessions := repository.NewSessionRepository(db)

	commands := command.NewAuthCommandService(users, accounts, sessions, publisher, command.Settings{
		Secret:            []byte(cfg.JWTSecret),
		AccessTokenTTL:    cfg.AccessTokenTTL,
		RefreshTokenTTL:   cfg.RefreshTokenTTL,
		MFATokenTTL:       cfg.MFATokenTTL,
		MFAIssuer:         cfg.MFAIssuer,
		MaxFailedLogins:   cfg.MaxFailedLogins,
		PlatformAccountID: cfg.PlatformAccountID,
	}, clk, log)
	queries := query.NewSessionQueryService(sessions, clk)

	loginLimiter := middleware.NewRateLimiter("login", cfg.LoginRatePerSecond, cfg.LoginRateBurst)
	go loginLimiter.RunCleanup(ctx, limiterCleanup)
	go cleanupSessions(ctx, commands, cfg.SessionCleanup, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, log, handler.NewAuthHandler(commands, queries), loginLimiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Auth service starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(cfg *config.AuthConfig, log *logger.Logger, h *handler.AuthHandler, loginLimiter *middleware.RateLimiter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Metrics(serviceName),
		middleware.CORS(cfg.CORSOrigins),
		middleware.SecurityHeaders(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", middleware.MetricsHandler())

	h.RegisterPublicRoutes(router.Group("/v1/auth", loginLimiter.Middleware()))

	authn := middleware.NewAuthenticator([]byte(cfg.JWTSecret), nil)
	h.RegisterRoutes(router.Group("/v1/auth", authn.Middleware()))
	return router
}

// cleanupSessions deletes dead sessions every interval until ctx is cancelled.
func cleanupSessions(ctx context.Context, commands *command.AuthCommandService, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := commands.CleanupSessions(ctx)
			if err != nil {
				log.Warn("Session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("Expired sessions removed", "count", n)
			}
		}
	}
}
