package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/ai"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/config"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/metrics"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/resume"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/resumes"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/skills"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/storage"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/tasks"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	ctx := context.Background()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	aiService, err := ai.NewServiceFromConfig(ctx, cfg.AI, logger)
	if err != nil {
		log.Fatalf("init ai service: %v", err)
	}

	// worker 不再投递解析任务，dispatcher 置空。
	resumeService := resumes.NewService(
		db,
		nil,
		resume.NewExtractor(storageClient, logger),
		aiService,
		skills.NewService(db, aiService, logger),
		logger,
	)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Queues:      map[string]int{tasks.QueueResumes: 1},
	})

	parseHandler := worker.NewResumeParseHandler(resumeService, worker.NewRedisPublisher(redisClient), logger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeResumeParse, parseHandler)

	if cfg.Worker.MetricsPort > 0 {
		metricsServer := metrics.NewServer(cfg.Worker.MetricsPort)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("worker metrics server stopped", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown worker metrics server failed", slog.Any("error", err))
			}
		}()
		logger.Info("worker metrics listening", slog.String("addr", metricsServer.Addr))
	}

	logger.Info("worker service started",
		slog.String("redis_addr", cfg.Redis.Addr()),
		slog.Int("concurrency", cfg.Worker.Concurrency),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
