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
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/devmate-kr/devmate-api/internal/config"
	"github.com/devmate-kr/devmate-api/internal/database"
	"github.com/devmate-kr/devmate-api/internal/handler"
	"github.com/devmate-kr/devmate-api/internal/middleware"
	"github.com/devmate-kr/devmate-api/internal/models"
	"github.com/devmate-kr/devmate-api/internal/repository"
	"github.com/devmate-kr/devmate-api/internal/router"
	"github.com/devmate-kr/devmate-api/internal/service"
	"github.com/devmate-kr/devmate-api/pkg/ai"
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

	if err := db.AutoMigrate(&models.User{}, &models.InterviewHistory{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, analysis caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not set, evaluation events disabled")
	}

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create ai provider: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	events := service.NewNATSEventPublisher(natsConn, "", logger)
	feedback := service.NewFeedbackGenerator(provider, service.FeedbackConfig{
		MaxRetries: cfg.FeedbackMaxRetries,
		RetryDelay: cfg.RetryDelay,
	}, logger)

	evaluationService := service.NewEvaluationService(provider, feedback, historyRepo, events, validate, logger)
	analysisService := service.NewAnalysisService(provider, userRepo, historyRepo, redisClient, service.AnalysisConfig{
		MaxRetries: cfg.AnalysisMaxRetries,
		RetryDelay: cfg.RetryDelay,
		CacheTTL:   cfg.AnalysisCacheTTL,
	}, logger)
	userService := service.NewUserService(userRepo, historyRepo, logger)

	interviewHandler := handler.NewInterviewHandler(evaluationService, validate, logger)
	userHandler := handler.NewUserHandler(userService, analysisService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		InterviewHandler: interviewHandler,
		UserHandler:      userHandler,
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildProvider(cfg config.Config, logger zerolog.Logger) (ai.Provider, error) {
	switch cfg.AIProvider {
	case "gemini":
		return ai.NewGeminiProvider(context.Background(), ai.GeminiConfig{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.GeminiModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Logger:         logger,
		})
	default:
		return ai.NewOpenAIProvider(ai.OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			Model:          cfg.OpenAIModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Logger:         logger,
		})
	}
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
