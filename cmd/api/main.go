package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/placement-cell-api/api/swagger"
	"github.com/noah-isme/placement-cell-api/internal/handler"
	"github.com/noah-isme/placement-cell-api/internal/middleware"
	"github.com/noah-isme/placement-cell-api/internal/models"
	"github.com/noah-isme/placement-cell-api/internal/repository"
	"github.com/noah-isme/placement-cell-api/internal/service"
	"github.com/noah-isme/placement-cell-api/pkg/cache"
	"github.com/noah-isme/placement-cell-api/pkg/config"
	"github.com/noah-isme/placement-cell-api/pkg/database"
	"github.com/noah-isme/placement-cell-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/placement-cell-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/placement-cell-api/pkg/middleware/requestid"
)

// @title Placement Cell API
// @version 1.0.0
// @description Role-based placement management backend for colleges
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Dashboard.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && cacheRepo != nil)

	r := buildRouter(cfg, logr, db, metricsSvc, cacheSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func buildRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, metricsSvc *service.MetricsService, cacheSvc *service.CacheService) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()

	accountRepo := repository.NewAccountRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	jobRepo := repository.NewJobRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	authSvc := service.NewAuthService(accountRepo, cfg.JWT, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, accountRepo, notificationRepo, metricsSvc, validate, logr)
	academicSvc := service.NewAcademicService(studentRepo, cacheSvc, validate, logr)
	placementSvc := service.NewPlacementService(jobRepo, applicationRepo, studentRepo, notificationRepo, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, jobRepo, applicationRepo, registrationRepo, accountRepo, cacheSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	studentHandler := handler.NewStudentHandler(academicSvc)
	jobHandler := handler.NewJobHandler(placementSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/registrations", registrationHandler.Submit)
	api.POST("/registrations/teachers", registrationHandler.RegisterTeacher)
	api.POST("/registrations/officers", registrationHandler.RegisterOfficer)

	auth := api.Group("")
	auth.Use(middleware.JWT(authSvc))

	auth.GET("/auth/me", authHandler.Me)

	staff := middleware.RequireRoles(models.RoleTeacher, models.RolePlacementOfficer)
	auth.GET("/registrations", staff, registrationHandler.List)
	auth.GET("/registrations/:id", staff, registrationHandler.Get)
	auth.POST("/registrations/:id/approve", middleware.RequireRoles(models.RoleTeacher), registrationHandler.Approve)
	auth.POST("/registrations/:id/reject", middleware.RequireRoles(models.RoleTeacher), registrationHandler.Reject)

	student := middleware.RequireRoles(models.RoleStudent)
	auth.GET("/students/me", student, studentHandler.Profile)
	auth.PATCH("/students/me", student, studentHandler.UpdateProfile)
	auth.GET("/students/me/results", student, studentHandler.ListResults)
	auth.POST("/students/me/results", student, studentHandler.RecordResult)

	officer := middleware.RequireRoles(models.RolePlacementOfficer)
	auth.GET("/jobs", jobHandler.List)
	auth.GET("/jobs/eligible", student, jobHandler.Eligible)
	auth.GET("/jobs/:id", jobHandler.Get)
	auth.POST("/jobs", officer, jobHandler.Create)
	auth.PUT("/jobs/:id", officer, jobHandler.Update)
	auth.DELETE("/jobs/:id", officer, jobHandler.Delete)
	auth.POST("/jobs/:id/apply", student, jobHandler.Apply)
	auth.GET("/jobs/:id/applicants", staff, jobHandler.Applicants)
	if cfg.Exports.Enabled {
		auth.GET("/jobs/:id/applicants/export", staff, jobHandler.ExportApplicants)
	}
	auth.GET("/applications/me", student, jobHandler.MyApplications)
	auth.PUT("/applications/:id/status", officer, jobHandler.UpdateApplicationStatus)

	auth.GET("/notifications", notificationHandler.List)
	auth.POST("/notifications/:id/read", notificationHandler.MarkRead)
	auth.DELETE("/notifications/:id", notificationHandler.Delete)
	auth.DELETE("/notifications", notificationHandler.Clear)

	auth.GET("/dashboards/student", student, dashboardHandler.Student)
	auth.GET("/dashboards/teacher", middleware.RequireRoles(models.RoleTeacher), dashboardHandler.Teacher)
	auth.GET("/dashboards/officer", officer, dashboardHandler.Officer)

	return r
}
