package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/regops/dossier-flow-api/api/swagger"
	"github.com/regops/dossier-flow-api/internal/handler"
	"github.com/regops/dossier-flow-api/internal/middleware"
	"github.com/regops/dossier-flow-api/internal/models"
	"github.com/regops/dossier-flow-api/internal/repository"
	"github.com/regops/dossier-flow-api/internal/service"
	"github.com/regops/dossier-flow-api/pkg/cache"
	"github.com/regops/dossier-flow-api/pkg/config"
	"github.com/regops/dossier-flow-api/pkg/database"
	"github.com/regops/dossier-flow-api/pkg/jobs"
	"github.com/regops/dossier-flow-api/pkg/letter"
	"github.com/regops/dossier-flow-api/pkg/logger"
	corsmiddleware "github.com/regops/dossier-flow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/regops/dossier-flow-api/pkg/middleware/requestid"
	"github.com/regops/dossier-flow-api/pkg/storage"
)

// @title Dossier Flow API
// @version 1.0.0
// @description Multi-stage regulatory dossier review workflow
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Inbox.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, inbox cache disabled", "error", err)
			cfg.Inbox.CacheEnabled = false
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	certificateFiles, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare certificate storage", "error", err)
	}
	reportFiles, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare report storage", "error", err)
	}

	// repositories
	workflowRepo := repository.NewWorkflowRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	segmentRepo := repository.NewSegmentRepository(db)
	inboxRepo := repository.NewInboxRepository(db)
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// services
	metrics := service.NewMetricsService()
	certificates := service.NewCertificateService(
		letter.NewClearanceRenderer("National Regulatory Authority"),
		certificateFiles, companyRepo, cfg.Certificates, logr,
	)
	workflow := service.NewWorkflowService(workflowRepo, userRepo, cfg.Workflow, logr,
		service.WithCertificateIssuer(certificates),
		service.WithTransitionObserver(metrics),
	)
	applications := service.NewApplicationService(applicationRepo, segmentRepo, logr)
	sla := service.NewSLAService(segmentRepo, cfg.SLA, logr)
	sla.SetObserver(metrics)
	inbox := service.NewInboxService(inboxRepo, sla, redisClient, cfg.Inbox, logr)
	auth := service.NewAuthService(userRepo, cfg.JWT, logr)
	users := service.NewUserService(userRepo, segmentRepo, logr)
	companies := service.NewCompanyService(companyRepo, logr)
	reports := service.NewReportService(reportRepo, segmentRepo, reportFiles, cfg.Reports, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Reports.Enabled {
		queue := jobs.NewQueue("reports", reports.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		reports.SetQueue(queue)
	}

	// handlers
	authHandler := handler.NewAuthHandler(auth)
	workflowHandler := handler.NewWorkflowHandler(workflow)
	applicationHandler := handler.NewApplicationHandler(applications, sla, certificates)
	inboxHandler := handler.NewInboxHandler(inbox, sla)
	reportHandler := handler.NewReportHandler(reports)
	userHandler := handler.NewUserHandler(users)
	companyHandler := handler.NewCompanyHandler(companies)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	// signed-token downloads carry their own credential
	api.GET("/downloads/certificates", applicationHandler.DownloadCertificate)
	api.GET("/downloads/reports", reportHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(auth))

	apps := authed.Group("/applications")
	{
		apps.GET("", applicationHandler.List)
		apps.GET("/:id", applicationHandler.Get)
		apps.GET("/number/:number", applicationHandler.GetByNumber)
		apps.GET("/:id/trail", applicationHandler.Trail)
		apps.GET("/:id/timeline", applicationHandler.Timeline)
		apps.GET("/:id/clocks", applicationHandler.Clocks)
		apps.GET("/:id/certificate", applicationHandler.CertificateLink)

		apps.POST("", middleware.RequireRoles(models.RoleLOD), workflowHandler.Intake)
		apps.POST("/:id/push", middleware.RequireRoles(models.RoleDirector), workflowHandler.Push)
		apps.POST("/:id/assign", middleware.RequireRoles(models.RoleDDD), workflowHandler.Assign)
		apps.POST("/:id/submit", middleware.RequireRoles(models.RoleStaff), workflowHandler.Submit)
		apps.POST("/:id/endorse", middleware.RequireRoles(models.RoleDDD, models.RoleDirector), workflowHandler.Endorse)
		apps.POST("/:id/rework", middleware.RequireRoles(models.RoleDDD), workflowHandler.Rework)
		apps.POST("/:id/clearance", middleware.RequireRoles(models.RoleDirector), workflowHandler.Clearance)
		apps.POST("/:id/reject", middleware.RequireRoles(models.RoleDirector), workflowHandler.Reject)
	}

	inboxes := authed.Group("/inbox")
	{
		inboxes.GET("/divisions/:division", inboxHandler.Division)
		inboxes.GET("/staff/:id", inboxHandler.Staff)
		inboxes.GET("/staff/:id/clocks", inboxHandler.StaffClocks)
	}

	reportsGroup := authed.Group("/reports")
	reportsGroup.Use(middleware.RequireRoles(models.RoleDDD, models.RoleDirector))
	{
		reportsGroup.POST("", reportHandler.Request)
		reportsGroup.GET("/:id", reportHandler.Status)
	}

	usersGroup := authed.Group("/users")
	{
		usersGroup.GET("", userHandler.List)
		usersGroup.GET("/:id", userHandler.Get)
		usersGroup.GET("/:id/performance", userHandler.Performance)
		usersGroup.POST("", middleware.RequireRoles(models.RoleDirector), userHandler.Create)
	}

	companiesGroup := authed.Group("/companies")
	{
		companiesGroup.GET("", companyHandler.List)
		companiesGroup.GET("/:id", companyHandler.Get)
		companiesGroup.POST("", middleware.RequireRoles(models.RoleLOD, models.RoleDirector), companyHandler.Create)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
