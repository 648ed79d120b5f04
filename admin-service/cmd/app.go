package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/startupstarter/admin/admin-service/internal/command"
	"github.com/startupstarter/admin/admin-service/internal/dispatch"
	"github.com/startupstarter/admin/admin-service/internal/projection"
	"github.com/startupstarter/admin/admin-service/internal/query"
	"github.com/startupstarter/admin/admin-service/internal/repository"
	"github.com/startupstarter/admin/admin-service/internal/storage"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/config"
	"github.com/startupstarter/admin/shared/database"
	"github.com/startupstarter/admin/shared/events"
	"github.com/startupstarter/admin/shared/logger"
	redisClient "github.com/startupstarter/admin/shared/redis"
)

// app holds every long-lived dependency of the service. The serve command and
// the operational subcommands build it the same way.
type app struct {
	cfg *config.AdminConfig
	log *logger.Logger
	db  *sql.DB
	rdb *redisClient.Client
	clk clock.Clock

	maintenance *redisClient.MaintenanceStore

	accountWrites *repository.AccountWriteRepository
	accountReads  *repository.AccountReadRepository
	userWrites    *repository.UserWriteRepository
	userReads     *repository.UserReadRepository
	roles         *repository.RoleRepository
	workflows     *repository.WorkflowRepository
	content       *repository.ContentRepository
	media         *repository.MediaRepository
	apiKeys       *repository.APIKeyRepository
	webhooks      *repository.WebhookRepository
	audit         *repository.AuditRepository
	dashboard     *repository.DashboardRepository
	system        *repository.SystemRepository
	blobs         *storage.LocalStore

	dispatcher *dispatch.Dispatcher
	projector  *projection.AuditProjector

	accountCmds  *command.AccountCommandService
	userCmds     *command.UserCommandService
	roleCmds     *command.RoleCommandService
	workflowCmds *command.WorkflowCommandService
	contentCmds  *command.ContentCommandService
	mediaCmds    *command.MediaCommandService
	apiKeyCmds   *command.APIKeyCommandService
	webhookCmds  *command.WebhookCommandService
	systemCmds   *command.SystemCommandService

	accountQueries   *query.AccountQueryService
	userQueries      *query.UserQueryService
	roleQueries      *query.RoleQueryService
	workflowQueries  *query.WorkflowQueryService
	contentQueries   *query.ContentQueryService
	mediaQueries     *query.MediaQueryService
	apiKeyQueries    *query.APIKeyQueryService
	webhookQueries   *query.WebhookQueryService
	auditQueries     *query.AuditQueryService
	dashboardQueries *query.DashboardQueryService
	systemQueries    *query.SystemQueryService
}

func loadConfigOnly() (*config.AdminConfig, error) {
	cfg, err := config.LoadAdmin()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfigOnly()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Options{Service: appName, Level: cfg.LogLevel, Mode: cfg.LogMode, File: cfg.LogFile})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	// Write store
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Read models, flags and event streams
	rdb, err := redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		db.Close()
		return nil, err
	}

	blobs, err := storage.NewLocalStore(cfg.MediaRoot)
	if err != nil {
		db.Close()
		rdb.Close()
		return nil, err
	}

	a := &app{cfg: cfg, log: log, db: db, rdb: rdb, clk: clock.NewRealClock(), blobs: blobs}
	a.wire()
	return a, nil
}

func (a *app) wire() {
	publisher := events.NewPublisher(a.rdb.Client, a.log)
	a.maintenance = redisClient.NewMaintenanceStore(a.rdb.Client)

	a.accountWrites = repository.NewAccountWriteRepository(a.db)
	a.accountReads = repository.NewAccountReadRepository(a.accountWrites, a.rdb.Client, a.log)
	a.userWrites = repository.NewUserWriteRepository(a.db)
	a.userReads = repository.NewUserReadRepository(a.userWrites, a.rdb.Client, a.log)
	a.roles = repository.NewRoleRepository(a.db)
	a.workflows = repository.NewWorkflowRepository(a.db)
	a.content = repository.NewContentRepository(a.db)
	a.media = repository.NewMediaRepository(a.db)
	a.apiKeys = repository.NewAPIKeyRepository(a.db)
	a.webhooks = repository.NewWebhookRepository(a.db)
	a.audit = repository.NewAuditRepository(a.db)
	a.dashboard = repository.NewDashboardRepository(a.db, a.audit, a.rdb.Client, a.log, a.cfg.DashboardCacheTTL)
	a.system = repository.NewSystemRepository(a.db)

	processed := redisClient.NewProcessedSet(a.rdb.Client, webhookGroup, dispatch.ProcessedTTL)
	a.dispatcher = dispatch.NewDispatcher(a.webhooks, processed, a.cfg.WebhookTimeout, a.clk, a.log)
	a.projector = projection.NewAuditProjector(a.audit, a.log)

	a.accountCmds = command.NewAccountCommandService(a.accountWrites, a.accountReads, publisher, a.clk)
	a.userCmds = command.NewUserCommandService(a.userWrites, a.userReads, a.roles, a.accountWrites, publisher, a.clk)
	a.roleCmds = command.NewRoleCommandService(a.roles, publisher, a.clk)
	a.workflowCmds = command.NewWorkflowCommandService(a.workflows, a.roles, publisher, a.clk)
	a.contentCmds = command.NewContentCommandService(a.content, a.workflows, a.userWrites, publisher, a.clk)
	a.mediaCmds = command.NewMediaCommandService(a.media, a.blobs, publisher, a.clk, a.log, a.cfg.MediaMaxBytes)
	a.apiKeyCmds = command.NewAPIKeyCommandService(a.apiKeys, a.accountWrites, publisher, a.clk, a.log)
	a.webhookCmds = command.NewWebhookCommandService(a.webhooks, a.dispatcher, publisher, a.clk)
	a.systemCmds = command.NewSystemCommandService(a.maintenance, a.rdb, a.system, a.blobs, publisher, a.clk, a.log)

	a.accountQueries = query.NewAccountQueryService(a.accountReads, a.accountWrites)
	a.userQueries = query.NewUserQueryService(a.userReads)
	a.roleQueries = query.NewRoleQueryService(a.roles)
	a.workflowQueries = query.NewWorkflowQueryService(a.workflows)
	a.contentQueries = query.NewContentQueryService(a.content)
	a.mediaQueries = query.NewMediaQueryService(a.media, a.blobs)
	a.apiKeyQueries = query.NewAPIKeyQueryService(a.apiKeys)
	a.webhookQueries = query.NewWebhookQueryService(a.webhooks)
	a.auditQueries = query.NewAuditQueryService(a.audit)
	a.dashboardQueries = query.NewDashboardQueryService(a.dashboard, a.clk)
	redisPing := query.PingFunc(func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() })
	a.systemQueries = query.NewSystemQueryService(a.cfg.Version, a.maintenance, a.system, redisPing, a.clk, a.log)
}

func (a *app) Close() {
	if err := a.rdb.Close(); err != nil {
		a.log.Warn("Failed to close redis", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn("Failed to close database", "error", err)
	}
	a.log.Sync()
}
