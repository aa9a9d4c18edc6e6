package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/soma-lab/relation-core/config"
	_ "github.com/soma-lab/relation-core/docs"
	"github.com/soma-lab/relation-core/internal/api"
	"github.com/soma-lab/relation-core/internal/api/handler"
	"github.com/soma-lab/relation-core/internal/cache"
	"github.com/soma-lab/relation-core/internal/gateway"
	"github.com/soma-lab/relation-core/internal/repository"
	"github.com/soma-lab/relation-core/internal/service"
	"github.com/soma-lab/relation-core/pkg/database"
	"github.com/soma-lab/relation-core/pkg/kafka"
	"github.com/soma-lab/relation-core/pkg/logger"
	"github.com/soma-lab/relation-core/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		logger.Warn("telemetry init failed", zap.Error(err))
	} else {
		defer func() { _ = shutdownTracing(ctx) }()
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("database init failed", zap.Error(err))
		os.Exit(1)
	}

	var store *repository.Store
	if cfg.Counter.Mode == "sharded" {
		store = repository.NewStoreWithShardedCounters(db, cfg.Counter.ShardCount)
	} else {
		store = repository.NewStore(db)
	}

	var snapshots *cache.Snapshots
	if cfg.Redis.SnapshotTTL > 0 {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		snapshots = cache.NewSnapshots(rdb, time.Duration(cfg.Redis.SnapshotTTL)*time.Second)
	}

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		logger.Error("kafka producer init failed", zap.Error(err))
		os.Exit(1)
	}
	defer producer.Close()

	dispatcher := service.NewQueueDispatcher(store.Tasks, cfg.Fanout.QueueSize)
	stopDispatcher := dispatcher.Start(2)
	defer func() { _ = stopDispatcher(ctx) }()

	worker := service.NewFanoutWorker(
		store.Tasks,
		gateway.NewKafkaNotificationGateway(producer, cfg.Kafka),
		gateway.NewKafkaSearchSyncGateway(producer, cfg.Kafka),
		cfg.Fanout.Workers,
		cfg.Fanout.ClaimLimit,
		time.Duration(cfg.Fanout.PollIntervalMs)*time.Millisecond,
		cfg.Fanout.MaxAttempts,
	)
	stopWorker := worker.Start()
	defer func() { _ = stopWorker(ctx) }()

	followingSvc := service.NewFollowingService(store, dispatcher, snapshots)
	friendshipSvc := service.NewFriendshipService(store, followingSvc, dispatcher, snapshots)

	router := api.NewRouter(cfg, handler.NewHandler(followingSvc, friendshipSvc))
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
