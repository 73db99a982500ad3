package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tallerhq/course-admin-service/internal/cache"
	"github.com/tallerhq/course-admin-service/internal/config"
	"github.com/tallerhq/course-admin-service/internal/events"
	"github.com/tallerhq/course-admin-service/internal/handlers"
	"github.com/tallerhq/course-admin-service/internal/repositories/postgres"
	"github.com/tallerhq/course-admin-service/internal/services"
	"github.com/tallerhq/course-admin-service/internal/utils"
	"github.com/tallerhq/course-admin-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := utils.NewLogger(cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := postgres.AutoMigrate(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: cfg.KafkaBrokers,
		TopicName:    cfg.KafkaTopic,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	cacheService := cache.NewRedisCache(redisClient, logger)
	validator := utils.NewValidator()

	courseService := services.NewCourseService(repo, cacheService, logger, validator)
	metricsService := services.NewMetricsService(repo, publisher, logger)
	gradingService := services.NewGradingService(logger)
	surveyService := services.NewSurveyService(logger)
	eventService := services.NewEventService(repo, courseService, metricsService, logger, validator)
	submissionService := services.NewSubmissionService(
		repo, courseService, gradingService, surveyService, metricsService,
		publisher, logger, validator)
	studentService := services.NewStudentService(repo, logger, validator)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.RequestLogger(logger))

	handlerManager := handlers.NewHandlerManager(
		courseService, eventService, submissionService, studentService, metricsService, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}
