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
	"github.com/startupstarter/admin/shared/config"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/middleware"
)

const (
	serviceName     = "api-gateway"
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

	cfg, err := config.LoadGateway()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(logger.Options{Service: serviceName, Level: cfg.LogLevel, Mode: cfg.LogMode, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	limiter := middleware.NewRateLimiter("gateway", cfg.RatePerSecond, cfg.RateBurst)
	go limiter.RunCleanup(ctx, limiterCleanup)

	proxy := NewProxy(Upstreams{Auth: cfg.AuthServiceURL, Admin: cfg.AdminServiceURL}, cfg.UpstreamTimeout)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, log, proxy, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("API gateway starting", "port", cfg.Port, "auth", cfg.AuthServiceURL, "admin", cfg.AdminServiceURL)
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

func newRouter(cfg *config.GatewayConfig, log *logger.Logger, proxy *Proxy, limiter *middleware.RateLimiter) *gin.Engine {
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
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
	router.GET("/metrics", middleware.MetricsHandler())

	router.Any("/v1/*path", limiter.Middleware(), proxy.Handle)
	return router
}
