// One-shot taxonomy sync, suitable for cron.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"sooq-service/internal/config"
	"sooq-service/internal/db"
	"sooq-service/internal/olx"
	"sooq-service/internal/pkg/cache"
	"sooq-service/internal/repository/postgres"
	taxonomyUsecase "sooq-service/internal/service/taxonomy"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	force := flag.Bool("force", false, "bypass the upstream response cache")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall sync deadline")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("[SYNC] No .env file found, relying on system env vars")
	}
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, "migrations"); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	var taxonomyCache cache.Cache
	if cfg.RedisAddr != "" {
		redisClient, err := db.NewRedisClient(db.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		taxonomyCache = cache.NewRedis(redisClient)
	} else {
		taxonomyCache = cache.NewMemory()
	}

	client := olx.NewClient(cfg.OLX, taxonomyCache, logger)
	syncService := taxonomyUsecase.NewSyncService(
		client,
		postgres.NewDB(pool),
		postgres.NewCategoryRepository(pool),
		postgres.NewCategoryFieldRepository(pool),
		postgres.NewCategoryFieldOptionRepository(pool),
		logger,
	)

	stats, err := syncService.SyncAll(ctx, *force)
	if err != nil {
		log.Fatalf("sync failed: %v", err)
	}

	fmt.Printf("sync complete: %d categories, %d fields, %d options\n",
		stats.Categories, stats.Fields, stats.Options)
}
