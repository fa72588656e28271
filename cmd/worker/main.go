package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bioqa/manager/internal/config"
	"github.com/bioqa/manager/internal/database"
	"github.com/bioqa/manager/internal/remote"
	"github.com/bioqa/manager/internal/repository"
	"github.com/bioqa/manager/internal/tasks"
	"github.com/bioqa/manager/internal/worker"
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

	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to rabbitmq")
	}
	defer amqpConn.Close()

	repos := repository.NewRepositoryManager(dbManager.DB)
	store := tasks.NewStore(dbManager.Redis, logger)

	builder := remote.NewBuilderClient(cfg.Builder.BaseURL, logger)
	ranker := remote.NewRankerClient(cfg.Ranker.BaseURL, logger)
	poller := remote.NewPoller(cfg.Poll.Interval, cfg.Poll.MaxWait, logger)

	w := worker.New(amqpConn, store, repos, builder, ranker, poller, cfg.RabbitMQ.DispatchQueue, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start worker")
	}
	logger.Info("Worker started, consuming dispatched jobs")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker")
	cancel()
	w.Close()
	logger.Info("Worker stopped")
}
