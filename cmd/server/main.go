package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"anoa.com/studentmanager/internal/bootstrap"
	"anoa.com/studentmanager/internal/config"
	"anoa.com/studentmanager/internal/jobs"
	classRepo "anoa.com/studentmanager/internal/modules/class/repository"
	"anoa.com/studentmanager/internal/server"
	"anoa.com/studentmanager/pkg/database"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	db := database.Connect(cfg.Database)
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if cfg.IsDevelopment() {
		if err := bootstrap.SeedClasses(db); err != nil {
			log.Fatalf("failed to seed classes: %v", err)
		}
		if err := bootstrap.SeedDemoStudent(db); err != nil {
			log.Fatalf("failed to seed demo student: %v", err)
		}
	}

	redisClient := connectRedis(cfg.RedisURL, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	scheduler := jobs.NewScheduler(logger)
	job := jobs.NewClassCounterJob(classRepo.NewClassRepository(db), cfg.ReconcileSchedule, logger)
	if err := scheduler.Register(job); err != nil {
		log.Fatalf("invalid RECONCILE_SCHEDULE: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv, err := server.NewServer(cfg, db, redisClient, scheduler, logger)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	logger.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "storage", cfg.StorageDriver)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// connectRedis returns nil when REDIS_URL is unset or unreachable; login
// throttling is then disabled.
func connectRedis(url string, logger *slog.Logger) *redis.Client {
	if url == "" {
		logger.Info("REDIS_URL is not set, login throttling disabled")
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis unreachable, login throttling disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}
