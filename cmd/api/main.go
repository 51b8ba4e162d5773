package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/ai"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/api"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/auth"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/config"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/interviews"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/jobs"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/resume"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/resumes"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/skills"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	log.Printf("api bootstrapped with db host=%s port=%d db=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Printf("database connection ready")

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	log.Printf("database migrated")

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

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	privateKey, publicKey, err := cfg.Auth.LoadKeys()
	if err != nil {
		log.Fatalf("load jwt keys: %v", err)
	}
	authService, err := auth.NewAuthService(privateKey, publicKey, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	aiService, err := ai.NewServiceFromConfig(ctx, cfg.AI, logger)
	if err != nil {
		log.Fatalf("init ai service: %v", err)
	}

	skillService := skills.NewService(db, aiService, logger)
	if err := skillService.EnsureSeedTest(ctx); err != nil {
		log.Fatalf("seed skill test: %v", err)
	}

	resumeService := resumes.NewService(
		db,
		resumes.NewAsynqDispatcher(asynqClient, cfg.Worker.MaxRetry),
		resume.NewExtractor(storageClient, logger),
		aiService,
		skillService,
		logger,
	)
	interviewService := interviews.NewService(db, aiService, logger)
	jobService := jobs.NewService(db, resumeService, logger)

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, api.Dependencies{
		Config:      cfg,
		DB:          db,
		Redis:       redisClient,
		AuthService: authService,
		Storage:     storageClient,
		Logger:      logger,
		Resumes:     resumeService,
		Skills:      skillService,
		Interviews:  interviewService,
		Jobs:        jobService,
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	log.Printf("api listening on %s", address)

	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
