package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bioqa/manager/internal/api"
	"github.com/bioqa/manager/internal/api/handlers"
	"github.com/bioqa/manager/internal/config"
	"github.com/bioqa/manager/internal/database"
	"github.com/bioqa/manager/internal/health"
	"github.com/bioqa/manager/internal/remote"
	"github.com/bioqa/manager/internal/repository"
	"github.com/bioqa/manager/internal/services"
	"github.com/bioqa/manager/internal/tasks"
	"github.com/bioqa/manager/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	utils.InitLogger()
	logger := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ValidateRemotes(); err != nil {
		logger.WithError(err).Fatal("Invalid remote service configuration")
	}

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database connections")
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to rabbitmq")
	}
	defer amqpConn.Close()

	// Wiring
	repos := repository.NewRepositoryManager(dbManager.DB)
	cache := database.NewCache(dbManager.Redis, logger)
	store := tasks.NewStore(dbManager.Redis, logger)
	dispatcher := tasks.NewDispatcher(amqpConn, store, cfg.RabbitMQ.DispatchQueue, logger)

	builder := remote.NewBuilderClient(cfg.Builder.BaseURL, logger)
	ranker := remote.NewRankerClient(cfg.Ranker.BaseURL, logger)
	ontology := remote.NewOntologyClient(cfg.Ontology.BaseURL, logger)
	poller := remote.NewPoller(cfg.Poll.Interval, cfg.Poll.MaxWait, logger)

	authService := services.NewAuthService(
		repos.User,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		logger,
	)
	questionService := services.NewQuestionService(repos, store, dispatcher, ranker, cache, logger)
	simpleService := services.NewSimpleService(builder, ranker, ontology, poller, logger)

	checker := health.NewHealthChecker(dbManager, logger, cfg.Builder.BaseURL, cfg.Ranker.BaseURL)

	router := api.NewRouter(api.RouterDeps{
		Config:   cfg,
		Auth:     handlers.NewAuthHandler(authService, logger),
		Question: handlers.NewQuestionHandler(questionService, logger),
		Simple:   handlers.NewSimpleHandler(simpleService, logger),
		Health:   handlers.NewHealthHandler(checker, logger),
	})

	healthCtx, cancelHealth := context.WithCancel(context.Background())
	defer cancelHealth()
	go checker.PeriodicHealthCheck(healthCtx, 30*time.Second)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	cancelHealth()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}
	logger.Info("Server stopped")
}
