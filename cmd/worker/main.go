package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appanswering "github.com/skillbase/backend/internal/application/answering"
	"github.com/skillbase/backend/internal/infrastructure/cache"
	"github.com/skillbase/backend/internal/infrastructure/config"
	"github.com/skillbase/backend/internal/infrastructure/generation"
	"github.com/skillbase/backend/internal/infrastructure/logger"
	"github.com/skillbase/backend/internal/infrastructure/persistence"
	"github.com/skillbase/backend/internal/infrastructure/queue"
)

// The worker drains the dispatch queue: it claims queued runs and drives them
// through the batch processor. It shares the database, the skill cache, and
// the generator configuration with the API server but serves no HTTP traffic.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Skillbase Worker",
		zap.String("env", cfg.App.Env),
		zap.String("queue", cfg.Queue.Name),
	)

	if !cfg.Queue.Enabled {
		log.Fatal("Queue is disabled; the worker has nothing to consume (set queue.enabled = true)")
	}

	db, err := persistence.NewDatabaseWithZap(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	projectRepo := persistence.NewGormProjectRepository(db.DB)
	rowRepo := persistence.NewGormRowRepository(db.DB)
	historyRepo := persistence.NewGormAnswerHistoryRepository(db.DB)
	skillRepo := persistence.NewGormSkillRepository(db.DB)

	cacheFactory := cache.NewSkillCacheFactory(cfg.Redis, cache.WithLogger(log))
	skillCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create skill cache", zap.Error(err))
	}

	jobQueue, err := queue.NewRedisJobQueue(queue.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		Name:        cfg.Queue.Name,
		PollTimeout: cfg.Queue.PollTimeout,
	})
	if err != nil {
		log.Fatal("Failed to connect to dispatch queue", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			log.Error("Error closing queue", zap.Error(err))
		}
	}()

	generator, err := generation.NewLangchainGenerator(cfg.Generation, log)
	if err != nil {
		log.Fatal("Failed to initialize answer generator", zap.Error(err))
	}

	authorizer := appanswering.NewOwnershipAuthorizer()
	runner := appanswering.NewTaskRunner(log)
	selector := appanswering.NewSkillSelector(skillRepo, skillCache, cfg.Answering, log)
	processor := appanswering.NewBatchProcessor(
		projectRepo, rowRepo, historyRepo, skillRepo, skillCache, generator, cfg.Answering, log)
	dispatchService := appanswering.NewDispatchService(
		projectRepo, rowRepo, selector, processor, jobQueue, authorizer, runner, cfg.Answering, log)

	worker := queue.NewWorker(jobQueue, dispatchService, queue.DefaultWorkerConfig(), log)
	if err := worker.Start(context.Background()); err != nil {
		log.Fatal("Failed to start worker", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down worker...")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := worker.Stop(ctx); err != nil {
		log.Error("Worker forced to stop with a run in flight", zap.Error(err))
	}

	log.Info("Worker exited gracefully")
}
