package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusops/registrar-api/api/swagger"
	"github.com/campusops/registrar-api/internal/handler"
	"github.com/campusops/registrar-api/internal/middleware"
	"github.com/campusops/registrar-api/internal/models"
	"github.com/campusops/registrar-api/internal/repository"
	"github.com/campusops/registrar-api/internal/service"
	"github.com/campusops/registrar-api/pkg/cache"
	"github.com/campusops/registrar-api/pkg/config"
	"github.com/campusops/registrar-api/pkg/database"
	"github.com/campusops/registrar-api/pkg/logger"
	corsmiddleware "github.com/campusops/registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusops/registrar-api/pkg/middleware/requestid"
)

// @title Registrar API
// @version 1.0.0
// @description University registrar backend: course registration, room booking and office hours
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, availability cache disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	officeHourRepo := repository.NewOfficeHourRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	// Services.
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Rooms.AvailabilityCacheTTL, logr, redisClient != nil)
	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "registrar-api",
	})
	userService := service.NewUserService(userRepo, nil, logr)
	notificationService := service.NewNotificationService(service.NotificationConfig{
		Concurrency: cfg.Notifications.Concurrency,
		MaxRetries:  cfg.Notifications.MaxRetries,
	}, logr)
	registrationService := service.NewRegistrationService(
		courseRepo, enrollmentRepo, policyRepo, userRepo, db,
		service.PolicyDefaults{
			MaxCredits: cfg.Registration.DefaultMaxCredits,
			Term:       cfg.Registration.DefaultTerm,
			Open:       cfg.Registration.DefaultOpen,
		}, metricsService, nil, logr)
	roomService := service.NewRoomService(
		roomRepo, bookingRepo, userRepo, cacheService, db,
		cfg.Rooms.AvailabilityCacheTTL, metricsService, nil, logr)
	officeHourService := service.NewOfficeHourService(
		officeHourRepo, userRepo, notificationService, db,
		service.OfficeHourConfig{
			DefaultSlotMinutes: cfg.OfficeHours.DefaultSlotMinutes,
			MaxWeeks:           cfg.OfficeHours.MaxWeeks,
		}, metricsService, nil, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Notifications.Enabled {
		notificationService.Start(ctx)
		defer notificationService.Stop()
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	registrationHandler := handler.NewRegistrationHandler(registrationService)
	roomHandler := handler.NewRoomHandler(roomService)
	officeHourHandler := handler.NewOfficeHourHandler(officeHourService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsService))

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

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.PUT("/password", middleware.JWT(authService), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(authService))

	registration := secured.Group("/registration")
	registration.Use(middleware.RequireRoles(models.RoleStudent))
	{
		registration.GET("/status", registrationHandler.Status)
		registration.GET("/enrollments", registrationHandler.Enrollments)
		registration.POST("/register",
			middleware.Audit(userRepo, models.AuditActionRegister, "enrollments"),
			registrationHandler.Register)
		registration.POST("/drop",
			middleware.Audit(userRepo, models.AuditActionDrop, "enrollments"),
			registrationHandler.Drop)
	}

	secured.GET("/rooms", roomHandler.ListRooms)
	secured.GET("/rooms/availability", roomHandler.Availability)
	secured.GET("/staff", userHandler.Staff)

	bookings := secured.Group("/bookings")
	bookings.Use(middleware.RequireRoles(models.RoleProfessor, models.RoleTA, models.RoleAdmin))
	{
		bookings.POST("",
			middleware.Audit(userRepo, models.AuditActionBookingCreate, "bookings"),
			roomHandler.CreateBooking)
		bookings.GET("/mine", roomHandler.MyBookings)
		bookings.GET("/mine/export", roomHandler.ExportBookings)
	}

	officeHours := secured.Group("/office-hours")
	{
		officeHours.POST("",
			middleware.RequireRoles(models.RoleProfessor, models.RoleTA),
			officeHourHandler.Generate)
		officeHours.GET("/staff/:id", officeHourHandler.StaffSlots)
		officeHours.GET("/mine",
			middleware.RequireRoles(models.RoleStudent),
			officeHourHandler.MyBookings)
		officeHours.POST("/slots/:id/book",
			middleware.RequireRoles(models.RoleStudent),
			middleware.Audit(userRepo, models.AuditActionSlotBook, "office_hour_slots"),
			officeHourHandler.Book)
		officeHours.DELETE("/slots/:id",
			middleware.RequireRoles(models.RoleProfessor, models.RoleTA, models.RoleAdmin),
			middleware.Audit(userRepo, models.AuditActionSlotCancel, "office_hour_slots"),
			officeHourHandler.Cancel)
	}

	admin := secured.Group("/users")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("", userHandler.List)
		admin.POST("", userHandler.Create)
		admin.GET("/:id", userHandler.Get)
		admin.PUT("/:id", userHandler.Update)
		admin.DELETE("/:id", userHandler.Delete)
	}

	secured.GET("/metrics/snapshot",
		middleware.RequireRoles(models.RoleAdmin),
		metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
