package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/asetdigital/plant-moc-api/api/swagger"
	"github.com/asetdigital/plant-moc-api/internal/handler"
	"github.com/asetdigital/plant-moc-api/internal/middleware"
	"github.com/asetdigital/plant-moc-api/internal/models"
	"github.com/asetdigital/plant-moc-api/internal/repository"
	"github.com/asetdigital/plant-moc-api/internal/service"
	"github.com/asetdigital/plant-moc-api/pkg/cache"
	"github.com/asetdigital/plant-moc-api/pkg/config"
	"github.com/asetdigital/plant-moc-api/pkg/database"
	"github.com/asetdigital/plant-moc-api/pkg/logger"
	corsmiddleware "github.com/asetdigital/plant-moc-api/pkg/middleware/cors"
	reqidmiddleware "github.com/asetdigital/plant-moc-api/pkg/middleware/requestid"
)

// @title Plant MOC API
// @version 1.0.0
// @description Management of Change workflow service
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Repositories.
	mocRepo := repository.NewMocRepository(db)
	dmocRepo := repository.NewDmocRepository(db)
	levelRepo := repository.NewApprovalLevelRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	userRepo := repository.NewUserRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	// Services.
	numbers := service.NewControlNumberGenerator(sequenceRepo)
	validate := validator.New()
	mocSvc := service.NewMocService(mocRepo, levelRepo, numbers, validate, logr)
	dmocSvc := service.NewDmocService(dmocRepo, departmentRepo, numbers, logr, cfg.Workflow.TemporaryChangeMaxDays)
	levelSvc := service.NewApprovalLevelService(levelRepo, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, logr)
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, logr)

	var dashboardSvc *service.DashboardService
	if cfg.Dashboard.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect to redis", zap.Error(err))
		}
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		dashboardSvc = service.NewDashboardService(dashboardRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)
	} else {
		dashboardSvc = service.NewDashboardService(dashboardRepo, nil, cfg.Dashboard.CacheTTL, logr)
	}

	// Handlers.
	mocHandler := handler.NewMocHandler(mocSvc)
	dmocHandler := handler.NewDmocHandler(dmocSvc)
	levelHandler := handler.NewApprovalLevelHandler(levelSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(authSvc))

	authed.GET("/auth/me", authHandler.Me)

	moc := authed.Group("/moc-requests")
	{
		moc.GET("", mocHandler.List)
		moc.POST("", mocHandler.Create)
		moc.GET("/:id", mocHandler.Get)
		moc.PUT("/:id", mocHandler.Update)
		moc.DELETE("/:id", mocHandler.Delete)
		moc.POST("/:id/submit", mocHandler.Submit)
		moc.POST("/:id/advance", mocHandler.AdvanceStage)
		moc.POST("/:id/approvers/:approverId/complete", mocHandler.CompleteApprover)
		moc.POST("/:id/inactive", mocHandler.MarkInactive)
		moc.POST("/:id/reactivate", mocHandler.Reactivate)
		moc.POST("/:id/cancel", mocHandler.Cancel)
		moc.POST("/:id/for-restoration", mocHandler.MarkForRestoration)
		moc.POST("/:id/restored", mocHandler.MarkRestored)
	}

	dmoc := authed.Group("/dmoc-requests")
	{
		dmoc.GET("", dmocHandler.List)
		dmoc.POST("", dmocHandler.Create)
		dmoc.GET("/:id", dmocHandler.Get)
		dmoc.PUT("/:id", dmocHandler.Update)
		dmoc.DELETE("/:id", dmocHandler.Delete)
		dmoc.POST("/:id/submit", dmocHandler.Submit)
		dmoc.POST("/:id/approve", dmocHandler.Approve)
		dmoc.POST("/:id/reject", dmocHandler.Reject)
		dmoc.POST("/:id/remarks", dmocHandler.AppendRemarks)
	}

	levels := authed.Group("/approval-levels")
	{
		levels.GET("", levelHandler.List)
		levels.GET("/:id", levelHandler.Get)

		adminOnly := levels.Group("")
		adminOnly.Use(middleware.RequireRoles(models.RoleAdmin))
		adminOnly.POST("", levelHandler.Create)
		adminOnly.PUT("/:id", levelHandler.Update)
		adminOnly.DELETE("/:id", levelHandler.Delete)
	}

	departments := authed.Group("/departments")
	{
		departments.GET("", departmentHandler.List)
		departments.GET("/:id", departmentHandler.Get)

		adminOnly := departments.Group("")
		adminOnly.Use(middleware.RequireRoles(models.RoleAdmin))
		adminOnly.POST("", departmentHandler.Create)
		adminOnly.PUT("/:id", departmentHandler.Update)
		adminOnly.DELETE("/:id", departmentHandler.Delete)
	}

	authed.GET("/dashboard/summary", dashboardHandler.Summary)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
}
