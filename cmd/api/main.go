package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hanafi-dev/lms-go-api/internal/config"
	"github.com/hanafi-dev/lms-go-api/internal/database"
	"github.com/hanafi-dev/lms-go-api/internal/handler"
	"github.com/hanafi-dev/lms-go-api/internal/middleware"
	"github.com/hanafi-dev/lms-go-api/internal/models"
	"github.com/hanafi-dev/lms-go-api/internal/repository"
	"github.com/hanafi-dev/lms-go-api/internal/router"
	"github.com/hanafi-dev/lms-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Course{}, &models.Assignment{}, &models.Enrollment{}, &models.Submission{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)

	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, assignmentRepo, validate, redisClient, service.EnrollmentConfig{
		AllowInactive: cfg.AllowInactiveEnroll,
		CacheTTL:      cfg.EnrollmentCacheTTL,
	}, logger)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, submissionRepo, validate, redisClient, cfg.EnrollmentCodeLength, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, enrollmentRepo, submissionRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, enrollmentRepo, userRepo, validate, logger)

	courseHandler := handler.NewCourseHandler(courseService, assignmentService, validate, logger)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, validate, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, validate, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:     courseHandler,
		EnrollmentHandler: enrollmentHandler,
		AssignmentHandler: assignmentHandler,
		SubmissionHandler: submissionHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		EnrollLimiter:     middleware.RateLimit("enroll", cfg.EnrollRateLimit, cfg.EnrollRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
