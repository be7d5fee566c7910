package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appanswering "github.com/skillbase/backend/internal/application/answering"
	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/infrastructure/auth"
	"github.com/skillbase/backend/internal/infrastructure/cache"
	"github.com/skillbase/backend/internal/infrastructure/config"
	"github.com/skillbase/backend/internal/infrastructure/generation"
	"github.com/skillbase/backend/internal/infrastructure/logger"
	"github.com/skillbase/backend/internal/infrastructure/persistence"
	"github.com/skillbase/backend/internal/infrastructure/queue"
	"github.com/skillbase/backend/internal/interfaces/http/handler"
	"github.com/skillbase/backend/internal/interfaces/http/router"
)

var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
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

	log.Info("Starting Skillbase Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Initialize database connection
	db, err := persistence.NewDatabaseWithZap(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	rowRepo := persistence.NewGormRowRepository(db.DB)
	historyRepo := persistence.NewGormAnswerHistoryRepository(db.DB)
	skillRepo := persistence.NewGormSkillRepository(db.DB)

	// Skill content cache: Redis when reachable, in-memory otherwise
	cacheFactory := cache.NewSkillCacheFactory(cfg.Redis, cache.WithLogger(log))
	skillCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create skill cache", zap.Error(err))
	}

	// Dispatch queue: fall back to in-process background runs when the
	// queue is disabled or Redis is unreachable
	var jobQueue answering.JobQueue = queue.NewUnconfiguredQueue()
	if cfg.Queue.Enabled {
		redisQueue, qErr := queue.NewRedisJobQueue(queue.Config{
			Host:        cfg.Redis.Host,
			Port:        cfg.Redis.Port,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			Name:        cfg.Queue.Name,
			PollTimeout: cfg.Queue.PollTimeout,
		})
		if qErr != nil {
			log.Warn("Queue unavailable, dispatches will run in-process", zap.Error(qErr))
		} else {
			defer func() {
				if err := redisQueue.Close(); err != nil {
					log.Error("Error closing queue", zap.Error(err))
				}
			}()
			jobQueue = redisQueue
			log.Info("Dispatch queue connected", zap.String("queue", cfg.Queue.Name))
		}
	}

	// Answer generator
	generator, err := generation.NewLangchainGenerator(cfg.Generation, log)
	if err != nil {
		log.Fatal("Failed to initialize answer generator", zap.Error(err))
	}

	// JWT validation (token issuance is handled by the identity service)
	jwtService := auth.NewJWTService(cfg.JWT)

	// Application services
	authorizer := appanswering.NewOwnershipAuthorizer()
	runner := appanswering.NewTaskRunner(log)
	selector := appanswering.NewSkillSelector(skillRepo, skillCache, cfg.Answering, log)
	processor := appanswering.NewBatchProcessor(
		projectRepo, rowRepo, historyRepo, skillRepo, skillCache, generator, cfg.Answering, log)
	dispatchService := appanswering.NewDispatchService(
		projectRepo, rowRepo, selector, processor, jobQueue, authorizer, runner, cfg.Answering, log)
	statusService := appanswering.NewStatusService(projectRepo, rowRepo, historyRepo, authorizer)
	reviewService := appanswering.NewReviewService(projectRepo, rowRepo, authorizer)

	// HTTP surface
	engine := router.NewEngine(cfg, jwtService, log)
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSystemHandler(db, cfg.App.Name, version))
	r.Register(handler.NewAnsweringHandler(dispatchService, statusService, reviewService))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	// Let in-process background runs settle before the process exits
	if err := runner.Wait(ctx); err != nil {
		log.Warn("Background runs still in flight at shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
