package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"notifier/internal/config"
	"notifier/internal/consul"
	"notifier/internal/database"
	"notifier/internal/functions"
	"notifier/internal/kafka"
	"notifier/internal/logger"
	"notifier/internal/notify"
	"notifier/internal/push"
	"notifier/internal/server"
	"notifier/internal/stats"
	"notifier/internal/storage"
	"notifier/internal/store"
	"notifier/internal/trigger"
)

const serviceName = "notifier-service"

func main() {
	lgr := logger.New(serviceName)
	logger.SetDefault(lgr)
	lgr.Info("Starting Notifier Service...")

	if err := run(lgr); err != nil {
		lgr.Error("Notifier Service failed", "error", err)
		os.Exit(1)
	}
	lgr.Info("Notifier Service stopped")
}

func run(lgr *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lgr.Info("Configuration loaded",
		"port", cfg.Port,
		"host", cfg.Host,
		"database", cfg.Database.Host,
		"redis", cfg.Redis.Addr,
		"kafka", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.EventsTopic,
		"push", cfg.Push.Mode,
		"media_links", cfg.Storage.Enabled())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Document store
	initCtx, cancelInit := context.WithTimeout(ctx, 15*time.Second)
	defer cancelInit()

	db, err := database.New(initCtx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	lgr.Info("Connected to database")

	repo := store.NewRepository(db)
	if cfg.AutoMigrate {
		if err := repo.EnsureSchema(initCtx); err != nil {
			return err
		}
		lgr.Info("Document schema applied")
	}

	// Outcome counters
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(initCtx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	lgr.Info("Connected to Redis")
	recorder := stats.NewRecorder(redisClient, stats.DefaultKey)

	// Push delivery
	dispatcher, err := push.New(initCtx, cfg.Push, lgr)
	if err != nil {
		return fmt.Errorf("init push dispatcher: %w", err)
	}
	lgr.Info("Push dispatcher initialized", "mode", cfg.Push.Mode)

	// Media links are optional
	var (
		media         notify.MediaLinker
		storageHealth server.StorageChecker
	)
	if cfg.Storage.Enabled() {
		storageService, err := storage.New(initCtx, cfg.Storage, lgr)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		media = storageService
		storageHealth = storageService
	}

	comments := notify.NewCommentNotifier(repo, dispatcher, lgr)
	likes := notify.NewLikeNotifier(repo, dispatcher, media, lgr)

	router := trigger.NewRouter(lgr)
	functions.New(comments, likes, recorder, lgr).Register(router)

	// Dead letters
	producer, err := kafka.NewProducer(cfg.Kafka, lgr)
	if err != nil {
		return fmt.Errorf("create dlq producer: %w", err)
	}
	defer producer.Close()

	processor := trigger.NewProcessor(router, producer, trigger.ProcessorConfig{
		Timeout:       cfg.Invocation.Timeout,
		MaxRetries:    cfg.Invocation.MaxRetries,
		RetryBackoff:  cfg.Invocation.RetryBackoff,
		DLQTopic:      cfg.Kafka.DLQTopic,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}, lgr)

	consumer, err := trigger.NewConsumer(&trigger.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.EventsTopic,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}, processor, lgr)
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}
	defer consumer.Close()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Start(ctx); err != nil {
			lgr.Error("Consumer error", "error", err)
			stop()
		}
	}()

	// Health and stats
	gin.SetMode(gin.ReleaseMode)
	handler := server.NewHandler(serviceName, db, redisClient, storageHealth, recorder, lgr)
	srv := server.New(server.Config{Port: cfg.Port}, handler)

	go func() {
		lgr.Info("HTTP server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lgr.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	var registry consul.ServiceRegistrar
	var serviceID string
	if cfg.Consul.Enabled {
		registry, serviceID, err = register(cfg)
		if err != nil {
			lgr.Error("Failed to register with Consul", "error", err)
		} else {
			lgr.Info("Registered with Consul", "serviceID", serviceID)
		}
	}

	<-ctx.Done()
	lgr.Info("Shutting down Notifier Service...")

	if registry != nil {
		if err := registry.Deregister(serviceID); err != nil {
			lgr.Error("Failed to deregister from Consul", "error", err)
		}
	}

	<-consumerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Error("HTTP server forced to shutdown", "error", err)
	}

	return nil
}

func register(cfg *config.Config) (consul.ServiceRegistrar, string, error) {
	client, err := consul.NewClient(cfg.Consul.Addr, cfg.Consul.Token)
	if err != nil {
		return nil, "", err
	}

	svc, err := consul.NewServiceConfig(serviceName, cfg.Host, cfg.Port, "notifications", "push", "kafka-consumer")
	if err != nil {
		return nil, "", err
	}
	if err := client.Register(svc); err != nil {
		return nil, "", err
	}
	return client, svc.ID, nil
}
