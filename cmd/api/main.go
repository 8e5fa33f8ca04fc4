package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/acadsched/class-scheduler-api/api/swagger"
	"github.com/acadsched/class-scheduler-api/internal/handler"
	"github.com/acadsched/class-scheduler-api/internal/middleware"
	"github.com/acadsched/class-scheduler-api/internal/models"
	"github.com/acadsched/class-scheduler-api/internal/repository"
	"github.com/acadsched/class-scheduler-api/internal/service"
	"github.com/acadsched/class-scheduler-api/pkg/cache"
	"github.com/acadsched/class-scheduler-api/pkg/config"
	"github.com/acadsched/class-scheduler-api/pkg/database"
	"github.com/acadsched/class-scheduler-api/pkg/export"
	"github.com/acadsched/class-scheduler-api/pkg/logger"
	corsmiddleware "github.com/acadsched/class-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadsched/class-scheduler-api/pkg/middleware/requestid"
)

// @title Class Scheduler API
// @version 1.0.0
// @description Academic class scheduling with conflict detection
// @BasePath /api/v1
// @schemes http https
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	professorRepo := repository.NewProfessorRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	requestRepo := repository.NewAdjustmentRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Reports.CacheTTL, logr, true)
	}

	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "class-scheduler-api",
	})
	auditService := service.NewAuditService(auditRepo, logr)
	notificationService := service.NewNotificationService(notificationRepo, logr)
	professorService := service.NewProfessorService(professorRepo, departmentRepo, nil, logr)
	subjectService := service.NewSubjectService(subjectRepo, nil, logr)
	roomService := service.NewRoomService(roomRepo, nil, logr)
	departmentService := service.NewDepartmentService(departmentRepo, nil, logr)
	sectionService := service.NewSectionService(sectionRepo, nil, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, professorRepo, subjectRepo, roomRepo, auditRepo, notificationRepo, cacheService, metricsService, nil, logr)
	requestService := service.NewAdjustmentRequestService(requestRepo, scheduleRepo, professorRepo, subjectRepo, roomRepo, auditRepo, notificationRepo, cacheService, metricsService, nil, logr)
	reportService := service.NewReportService(scheduleRepo, roomRepo, cacheService, export.NewCSVExporter(), logr, cfg.Reports)

	if err := ensureAdmin(userRepo, logr); err != nil {
		logr.Sugar().Fatalw("failed to seed admin account", "error", err)
	}

	authHandler := handler.NewAuthHandler(authService)
	professorHandler := handler.NewProfessorHandler(professorService, scheduleService)
	subjectHandler := handler.NewSubjectHandler(subjectService)
	roomHandler := handler.NewRoomHandler(roomService, scheduleService)
	departmentHandler := handler.NewDepartmentHandler(departmentService)
	sectionHandler := handler.NewSectionHandler(sectionService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	requestHandler := handler.NewRequestHandler(requestService)
	reportHandler := handler.NewReportHandler(reportService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	auditHandler := handler.NewAuditHandler(auditService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	authProtected := auth.Group("", middleware.JWT(authService))
	authProtected.POST("/logout", authHandler.Logout)
	authProtected.POST("/change-password", authHandler.ChangePassword)
	authProtected.GET("/me", authHandler.Me)

	protected := api.Group("", middleware.JWT(authService))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleProfessor)

	departments := protected.Group("/departments")
	departments.GET("", anyRole, departmentHandler.List)
	departments.GET("/:id", anyRole, departmentHandler.Get)
	departments.POST("", adminOnly, middleware.Audit(auditService, "CREATE", "departments"), departmentHandler.Create)
	departments.PUT("/:id", adminOnly, middleware.Audit(auditService, "UPDATE", "departments"), departmentHandler.Update)
	departments.DELETE("/:id", adminOnly, middleware.Audit(auditService, "DELETE", "departments"), departmentHandler.Delete)

	subjects := protected.Group("/subjects")
	subjects.GET("", anyRole, subjectHandler.List)
	subjects.GET("/:id", anyRole, subjectHandler.Get)
	subjects.POST("", adminOnly, middleware.Audit(auditService, "CREATE", "subjects"), subjectHandler.Create)
	subjects.PUT("/:id", adminOnly, middleware.Audit(auditService, "UPDATE", "subjects"), subjectHandler.Update)
	subjects.DELETE("/:id", adminOnly, middleware.Audit(auditService, "DELETE", "subjects"), subjectHandler.Delete)

	rooms := protected.Group("/rooms")
	rooms.GET("", anyRole, roomHandler.List)
	rooms.GET("/:id", anyRole, roomHandler.Get)
	rooms.GET("/:id/schedules", anyRole, roomHandler.Schedules)
	rooms.POST("", adminOnly, middleware.Audit(auditService, "CREATE", "rooms"), roomHandler.Create)
	rooms.PUT("/:id", adminOnly, middleware.Audit(auditService, "UPDATE", "rooms"), roomHandler.Update)
	rooms.DELETE("/:id", adminOnly, middleware.Audit(auditService, "DELETE", "rooms"), roomHandler.Delete)

	sections := protected.Group("/sections")
	sections.GET("", anyRole, sectionHandler.List)
	sections.GET("/:id", anyRole, sectionHandler.Get)
	sections.POST("", adminOnly, middleware.Audit(auditService, "CREATE", "sections"), sectionHandler.Create)
	sections.PUT("/:id", adminOnly, middleware.Audit(auditService, "UPDATE", "sections"), sectionHandler.Update)
	sections.DELETE("/:id", adminOnly, middleware.Audit(auditService, "DELETE", "sections"), sectionHandler.Delete)

	professors := protected.Group("/professors")
	professors.GET("", anyRole, professorHandler.List)
	professors.GET("/:id", anyRole, professorHandler.Get)
	professors.GET("/:id/schedules", anyRole, professorHandler.Schedules)
	professors.POST("", adminOnly, middleware.Audit(auditService, "CREATE", "professors"), professorHandler.Create)
	professors.PUT("/:id", adminOnly, middleware.Audit(auditService, "UPDATE", "professors"), professorHandler.Update)
	professors.DELETE("/:id", adminOnly, middleware.Audit(auditService, "DELETE", "professors"), professorHandler.Delete)

	schedules := protected.Group("/schedules")
	schedules.GET("", anyRole, scheduleHandler.List)
	schedules.GET("/:id", anyRole, scheduleHandler.Get)
	schedules.POST("/check", anyRole, scheduleHandler.Check)
	schedules.POST("", adminOnly, scheduleHandler.Create)
	schedules.PUT("/:id", adminOnly, scheduleHandler.Update)
	schedules.DELETE("/:id", adminOnly, scheduleHandler.Delete)

	requests := protected.Group("/adjustment-requests")
	requests.GET("", adminOnly, requestHandler.List)
	requests.GET("/mine", middleware.RequireRoles(models.RoleProfessor), requestHandler.ListMine)
	requests.GET("/:id", anyRole, requestHandler.Get)
	requests.POST("", middleware.RequireRoles(models.RoleProfessor), requestHandler.Create)
	requests.POST("/:id/review", adminOnly, requestHandler.Review)

	reports := protected.Group("/reports")
	reports.GET("/workload", anyRole, reportHandler.Workload)
	reports.GET("/room-utilization", anyRole, reportHandler.RoomUtilization)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.POST("/:id/read", notificationHandler.MarkRead)
	notifications.POST("/read-all", notificationHandler.MarkAllRead)

	protected.GET("/audit-logs", adminOnly, auditHandler.List)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// ensureAdmin seeds the bootstrap admin account when ADMIN_EMAIL and
// ADMIN_PASSWORD are provided and no user exists with that email.
func ensureAdmin(users *repository.UserRepository, logr *zap.Logger) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Administrator",
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	logr.Sugar().Infow("seeded admin account", "email", email)
	return nil
}
