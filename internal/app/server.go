// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"sooq-service/internal/config"
	"sooq-service/internal/db"
	adHandler "sooq-service/internal/handlers/ad"
	taxonomyHandler "sooq-service/internal/handlers/taxonomy"
	"sooq-service/internal/middleware"
	"sooq-service/internal/olx"
	"sooq-service/internal/pkg/cache"
	"sooq-service/internal/repository/postgres"
	adUsecase "sooq-service/internal/service/ad"
	taxonomyUsecase "sooq-service/internal/service/taxonomy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Migrate(ctx, pool, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ----- Cache -----
	// Redis when configured, otherwise an in-process fallback.
	var taxonomyCache cache.Cache
	if s.cfg.RedisAddr != "" {
		redisClient, err := db.NewRedisClient(db.RedisConfig{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPass,
			DB:       s.cfg.RedisDB,
			PoolSize: 10,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Println("[REDIS] connected successfully")
		taxonomyCache = cache.NewRedis(redisClient)
	} else {
		logger.Warn("REDIS_ADDR not set, using in-memory cache")
		taxonomyCache = cache.NewMemory()
	}

	// ----- Upstream client -----
	olxClient := olx.NewClient(s.cfg.OLX, taxonomyCache, logger)

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	fieldRepo := postgres.NewCategoryFieldRepository(pool)
	optionRepo := postgres.NewCategoryFieldOptionRepository(pool)
	adRepo := postgres.NewAdRepository(pool)
	valueRepo := postgres.NewAdFieldValueRepository(pool)

	// ----- Services (Usecases) -----
	syncService := taxonomyUsecase.NewSyncService(olxClient, dbWrapper, categoryRepo, fieldRepo, optionRepo, logger)
	taxonomyService := taxonomyUsecase.NewTaxonomyService(categoryRepo, fieldRepo, logger)
	adService := adUsecase.NewAdService(adRepo, valueRepo, fieldRepo, categoryRepo, dbWrapper, logger)

	// ----- Handlers -----
	adHandlerInst := adHandler.NewAdHandler(adService, logger)
	taxonomyHandlerInst := taxonomyHandler.NewTaxonomyHandler(taxonomyService, syncService, logger)

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AdHandler:       adHandlerInst,
		TaxonomyHandler: taxonomyHandlerInst,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}
