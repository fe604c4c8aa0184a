package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kurskollen/kurskollen-api/api/swagger"
	"github.com/kurskollen/kurskollen-api/internal/handler"
	"github.com/kurskollen/kurskollen-api/internal/middleware"
	"github.com/kurskollen/kurskollen-api/internal/repository"
	"github.com/kurskollen/kurskollen-api/internal/service"
	"github.com/kurskollen/kurskollen-api/pkg/cache"
	"github.com/kurskollen/kurskollen-api/pkg/config"
	"github.com/kurskollen/kurskollen-api/pkg/database"
	"github.com/kurskollen/kurskollen-api/pkg/logger"
	"github.com/kurskollen/kurskollen-api/pkg/mailer"
	corsmiddleware "github.com/kurskollen/kurskollen-api/pkg/middleware/cors"
	reqidmiddleware "github.com/kurskollen/kurskollen-api/pkg/middleware/requestid"
	"github.com/kurskollen/kurskollen-api/pkg/ratelimit"
)

// @title Kurskollen API
// @version 1.0.0
// @description Course review platform backend
// @BasePath /
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	programRepo := repository.NewProgramRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	tagRepo := repository.NewTagRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)

	// Outbound mail.
	var mail mailer.Mailer = mailer.Noop{}
	if cfg.Mail.Enabled {
		mail = mailer.NewSendGrid(cfg.Mail)
	}
	dispatcher := mailer.NewDispatcher(mail, mailer.DispatcherConfig{
		Workers: 2,
		Timeout: cfg.Mail.Timeout,
		Retries: 2,
	}, logr)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// Feedback rate limiting, Redis-backed when configured.
	var limiter ratelimit.Limiter
	limiterCfg := ratelimit.Config{Window: cfg.RateLimit.Window, Max: cfg.RateLimit.Max}
	if cfg.RateLimit.UseRedis {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("redis connection failed", "error", err)
		}
		defer redisClient.Close()
		limiter = ratelimit.NewRedisLimiter(redisClient, limiterCfg)
	} else {
		limiter = ratelimit.NewMemoryLimiter(limiterCfg)
	}

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, programRepo, dispatcher, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "kurskollen-api",
		Audience:           []string{"kurskollen"},
	})
	visibilitySvc := service.NewVisibilityService(courseRepo, logr)
	catalogSvc := service.NewCatalogService(programRepo, courseRepo, tagRepo, visibilitySvc, logr)
	selectionSvc := service.NewSelectionService(userRepo, programRepo, logr)
	reviewSvc := service.NewReviewService(reviewRepo, courseRepo, tagRepo, nil, logr)
	feedSvc := service.NewFeedService(visibilitySvc, reviewRepo, cfg.Feed, logr)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, limiter, nil, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	selectionHandler := handler.NewSelectionHandler(selectionSvc, metricsSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc, metricsSvc)
	feedHandler := handler.NewFeedHandler(feedSvc, metricsSvc)
	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc, metricsSvc)
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

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	// Public reads narrow to the caller's visibility when a token is present.
	public := api.Group("", middleware.OptionalJWT(authSvc))
	{
		public.GET("/feed", feedHandler.GetFeed)
		public.GET("/programs", catalogHandler.ListPrograms)
		public.GET("/programs/masters-degrees", catalogHandler.ListMastersDegrees)
		public.GET("/programs/:id/specializations", catalogHandler.ListSpecializations)
		public.GET("/courses", catalogHandler.ListCourses)
		public.GET("/courses/:id", catalogHandler.GetCourse)
		public.GET("/courses/:id/reviews", feedHandler.GetCourseReviews)
		public.GET("/tags", catalogHandler.ListTags)
		public.POST("/feedback", feedbackHandler.Submit)
	}

	protected := api.Group("", middleware.JWT(authSvc))
	{
		protected.PUT("/me/masters-degree", selectionHandler.SelectMastersDegree)
		protected.PUT("/me/program-specialization", selectionHandler.SelectProgramSpecialization)
		protected.POST("/reviews", reviewHandler.Create)
		protected.GET("/reviews/:id", reviewHandler.GetForEdit)
		protected.PUT("/reviews/:id", reviewHandler.Update)
		protected.DELETE("/reviews/:id", reviewHandler.Delete)
		protected.GET("/courses/:id/my-review", reviewHandler.GetMineForCourse)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
