package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/seanutri/seanutri-api/api/swagger"
	"github.com/seanutri/seanutri-api/internal/handler"
	"github.com/seanutri/seanutri-api/internal/middleware"
	"github.com/seanutri/seanutri-api/internal/models"
	"github.com/seanutri/seanutri-api/internal/repository"
	"github.com/seanutri/seanutri-api/internal/service"
	rediscache "github.com/seanutri/seanutri-api/pkg/cache"
	"github.com/seanutri/seanutri-api/pkg/config"
	"github.com/seanutri/seanutri-api/pkg/database"
	"github.com/seanutri/seanutri-api/pkg/export"
	"github.com/seanutri/seanutri-api/pkg/jobs"
	"github.com/seanutri/seanutri-api/pkg/logger"
	"github.com/seanutri/seanutri-api/pkg/mailer"
	corsmiddleware "github.com/seanutri/seanutri-api/pkg/middleware/cors"
	reqidmiddleware "github.com/seanutri/seanutri-api/pkg/middleware/requestid"
	"github.com/seanutri/seanutri-api/pkg/storage"
)

// @title Seanutri API
// @version 1.0.0
// @description Offshore training management: courses, classes, enrollments and digital certificates
// @BasePath /
// @schemes http https

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
	defer db.Close()

	redisClient, err := rediscache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Verification.CacheTTL, logr, true)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	// Outbound mail and background delivery
	mail := mailer.New(cfg.SMTP, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, mail, metricsSvc, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, cfg.Notifications.Enabled, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	// Certificate rendering and storage
	store, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init certificate storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)
	renderer := export.NewCertificateRenderer(nil)

	// Services
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, companyRepo, notificationSvc, validate, logr)
	companySvc := service.NewCompanyService(companyRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, instructorRepo, validate, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, courseRepo, instructorRepo, userRepo, notificationSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, userRepo, courseRepo, notificationSvc, metricsSvc, cacheSvc, cfg.BaseURL, validate, logr)
	bulkSvc := service.NewBulkEnrollmentService(classRepo, companyRepo, userRepo, classSvc, validate, logr)
	verificationSvc := service.NewVerificationService(enrollmentRepo, userRepo, courseRepo, instructorRepo, cacheSvc, cfg.Verification.CacheTTL, logr)
	certificateSvc := service.NewCertificateService(verificationSvc, renderer, store, signer, metricsSvc, cfg.BaseURL, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(enrollmentRepo, logr)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	companyHandler := handler.NewCompanyHandler(companySvc, userSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	classHandler := handler.NewClassHandler(classSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, bulkSvc, exportSvc)
	verificationHandler := handler.NewVerificationHandler(verificationSvc, certificateSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public certificate surface. The verification page is linked from QR
	// codes printed on certificates, so its path shape is a stable contract.
	r.GET("/verificar/:code", verificationHandler.Verify)
	r.GET("/certificates/download", verificationHandler.Download)
	r.POST("/certificates/:code", verificationHandler.Generate)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	auth := api.Group("")
	auth.Use(middleware.JWT(authSvc))
	{
		auth.GET("/auth/me", authHandler.Me)
		auth.PUT("/auth/password", authHandler.ChangePassword)

		auth.GET("/users", middleware.RequireRoles(models.RoleAdmin, models.RoleCompanyManager), userHandler.List)
		auth.GET("/users/:id", middleware.RBAC("ADMIN", "SELF"), userHandler.Get)
		auth.POST("/users", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
		auth.PUT("/users/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Update)
		auth.DELETE("/users/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)

		auth.GET("/companies", middleware.RequireRoles(models.RoleAdmin), companyHandler.List)
		auth.GET("/companies/:companyId", middleware.RequireRoles(models.RoleAdmin, models.RoleCompanyManager), middleware.CompanyScope(), companyHandler.Get)
		auth.GET("/companies/:companyId/students", middleware.RequireRoles(models.RoleAdmin, models.RoleCompanyManager), middleware.CompanyScope(), companyHandler.Students)
		auth.POST("/companies", middleware.RequireRoles(models.RoleAdmin), companyHandler.Create)
		auth.PUT("/companies/:companyId", middleware.RequireRoles(models.RoleAdmin), companyHandler.Update)
		auth.DELETE("/companies/:companyId", middleware.RequireRoles(models.RoleAdmin), companyHandler.Delete)

		auth.GET("/courses", courseHandler.List)
		auth.GET("/courses/:id", courseHandler.Get)
		auth.POST("/courses", middleware.RequireRoles(models.RoleAdmin), courseHandler.Create)
		auth.PUT("/courses/:id", middleware.RequireRoles(models.RoleAdmin), courseHandler.Update)
		auth.DELETE("/courses/:id", middleware.RequireRoles(models.RoleAdmin), courseHandler.Delete)

		auth.GET("/instructors", instructorHandler.List)
		auth.GET("/instructors/:id", instructorHandler.Get)
		auth.POST("/instructors", middleware.RequireRoles(models.RoleAdmin), instructorHandler.Create)
		auth.PUT("/instructors/:id", middleware.RequireRoles(models.RoleAdmin), instructorHandler.Update)
		auth.DELETE("/instructors/:id", middleware.RequireRoles(models.RoleAdmin), instructorHandler.Delete)

		auth.GET("/classes", classHandler.List)
		auth.GET("/classes/:id", classHandler.Get)
		auth.GET("/classes/:id/students", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), classHandler.Students)
		auth.POST("/classes", middleware.RequireRoles(models.RoleAdmin), classHandler.Create)
		auth.PUT("/classes/:id", middleware.RequireRoles(models.RoleAdmin), classHandler.Update)
		auth.POST("/classes/:id/complete", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), classHandler.Complete)
		auth.POST("/classes/:id/students", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), classHandler.AddStudents)
		auth.DELETE("/classes/:id", middleware.RequireRoles(models.RoleAdmin), classHandler.Delete)

		auth.GET("/enrollments", enrollmentHandler.List)
		auth.GET("/enrollments/export", middleware.RequireRoles(models.RoleAdmin, models.RoleCompanyManager), enrollmentHandler.Export)
		auth.GET("/enrollments/:id", enrollmentHandler.Get)
		auth.POST("/enrollments", middleware.RequireRoles(models.RoleAdmin), enrollmentHandler.Create)
		auth.POST("/enrollments/evaluate", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), enrollmentHandler.Evaluate)
		auth.POST("/enrollments/bulk", middleware.RequireRoles(models.RoleAdmin, models.RoleCompanyManager), enrollmentHandler.BulkEnroll)
		auth.PUT("/enrollments/:id/status", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), enrollmentHandler.UpdateStatus)
		auth.DELETE("/enrollments/:id", middleware.RequireRoles(models.RoleAdmin), enrollmentHandler.Delete)

		if cfg.Dashboard.Enabled {
			auth.GET("/dashboard", middleware.RequireRoles(models.RoleAdmin), dashboardHandler.Summary)
		}

		auth.GET("/notifications/templates", middleware.RequireRoles(models.RoleAdmin), notificationHandler.ListTemplates)
		auth.PUT("/notifications/templates/:key", middleware.RequireRoles(models.RoleAdmin), notificationHandler.UpdateTemplate)
		auth.GET("/notifications/logs", middleware.RequireRoles(models.RoleAdmin), notificationHandler.ListLogs)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
