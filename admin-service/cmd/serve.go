package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/startupstarter/admin/admin-service/internal/handler"
	"github.com/startupstarter/admin/shared/events"
	"github.com/startupstarter/admin/shared/middleware"
)

const (
	auditGroup   = "audit-projector"
	webhookGroup = "webhook-dispatcher"

	shutdownTimeout = 15 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin API and run the event consumers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.migrate(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	for _, sub := range []*events.Subscriber{
		events.NewSubscriber(a.rdb.Client, a.log, events.SubscriberConfig{
			Group:    auditGroup,
			Consumer: a.cfg.ConsumerName,
			Handler:  a.projector.HandleEvent,
		}),
		events.NewSubscriber(a.rdb.Client, a.log, events.SubscriberConfig{
			Group:    webhookGroup,
			Consumer: a.cfg.ConsumerName,
			Handler:  a.dispatcher.HandleEvent,
		}),
	} {
		wg.Add(1)
		go func(s *events.Subscriber) {
			defer wg.Done()
			if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("Subscriber stopped", "error", err)
			}
		}(sub)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Admin service starting", "port", a.cfg.Port, "version", a.cfg.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stop()
		wg.Wait()
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Server shutdown failed", "error", err)
	}
	wg.Wait()
	return nil
}

func (a *app) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(a.log),
		middleware.Metrics(appName),
		middleware.CORS(a.cfg.CORSOrigins),
		middleware.SecurityHeaders(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", middleware.MetricsHandler())

	accounts := handler.NewAccountHandler(a.accountCmds, a.accountQueries)

	v1 := router.Group("/v1")
	accounts.RegisterPublicRoutes(v1)

	authn := middleware.NewAuthenticator([]byte(a.cfg.JWTSecret), a.apiKeyCmds)
	authed := v1.Group("", authn.Middleware(), middleware.MaintenanceGuard(a.maintenance))
	for _, h := range []handler.Routes{
		accounts,
		handler.NewUserHandler(a.userCmds, a.userQueries),
		handler.NewRoleHandler(a.roleCmds, a.roleQueries),
		handler.NewWorkflowHandler(a.workflowCmds, a.workflowQueries),
		handler.NewContentHandler(a.contentCmds, a.contentQueries),
		handler.NewMediaHandler(a.mediaCmds, a.mediaQueries, a.cfg.MediaMaxBytes),
		handler.NewAPIKeyHandler(a.apiKeyCmds, a.apiKeyQueries),
		handler.NewWebhookHandler(a.webhookCmds, a.webhookQueries),
		handler.NewAuditHandler(a.auditQueries, a.dashboardQueries),
		handler.NewSystemHandler(a.systemCmds, a.systemQueries),
	} {
		h.RegisterRoutes(authed)
	}
	return router
}
