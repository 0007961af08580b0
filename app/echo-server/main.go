package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cochain/app/echo-server/router"
	"cochain/business/abtest"
	"cochain/business/bandit"
	"cochain/business/engine"
	"cochain/business/reward"
	"cochain/business/training"
	"cochain/internal/middleware"
	psqlRepo "cochain/internal/repository/postgres"
	redisRepo "cochain/internal/repository/redis"
	"cochain/internal/rest"
	"cochain/pkg/config"
	"cochain/pkg/database"
	"cochain/pkg/database/redis"
	"cochain/pkg/logger"
	"cochain/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Cochain recommendation engine", "version", cfg.App.Version)

	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Parameter cache: redis when configured, per-process memory otherwise.
	var paramCache bandit.ParameterCache
	if cfg.Redis.RedisHost != "" {
		redisClient, err := redis.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		defer redis.CloseRedisClient(redisClient)
		paramCache = redisRepo.NewParameterCache(redisClient, time.Hour)
		logger.Info("Redis parameter cache enabled")
	}

	// Init repo
	stateRepo := psqlRepo.NewBanditStateRepository(db)
	interactionRepo := psqlRepo.NewInteractionRepository(db)
	cacheRepo := psqlRepo.NewRecommendationCacheRepository(db)
	projectRepo := psqlRepo.NewProjectRepository(db)
	similarityRepo := psqlRepo.NewSimilarityRepository(db)
	testRepo := psqlRepo.NewABTestRepository(db)
	assignRepo := psqlRepo.NewABAssignmentRepository(db)
	resultRepo := psqlRepo.NewABTestResultRepository(db)
	trainingRepo := psqlRepo.NewTrainingRepository(db)

	// Init service
	calculator := reward.NewCalculator(reward.DefaultConfig())

	banditService := bandit.NewService(
		stateRepo, interactionRepo, projectRepo, calculator, paramCache,
		bandit.Config{
			AlphaPrior:       cfg.Bandit.AlphaPrior,
			BetaPrior:        cfg.Bandit.BetaPrior,
			SimilarityWeight: cfg.Bandit.SimilarityWeight,
			BanditWeight:     cfg.Bandit.BanditWeight,
			ExplorationRate:  cfg.Bandit.ExplorationRate,
		},
		nil,
	)

	engineService := engine.NewService(
		similarityRepo, cacheRepo, interactionRepo, banditService, projectRepo, calculator,
	)

	abService := abtest.NewService(
		testRepo, assignRepo, resultRepo, interactionRepo, calculator,
		abtest.Config{
			MinSampleSize:     cfg.Bandit.MinSampleSize,
			ConfidenceLevel:   cfg.Bandit.ConfidenceLevel,
			MinimumEffectSize: cfg.Bandit.MinimumEffectSize,
		},
	)

	scheduler := training.NewScheduler(
		banditService, engineService, trainingRepo, cacheRepo,
		time.Duration(cfg.Bandit.CacheMaxAgeHours)*time.Hour,
	)

	// Init handler
	recommendHandler := rest.NewRecommendHandler(engineService, abService)
	projectHandler := rest.NewProjectHandler(banditService)
	abtestHandler := rest.NewABTestAdminHandler(abService)
	trainingHandler := rest.NewTrainingAdminHandler(scheduler, banditService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	// Deadline every request context so a stalled store or ranker surfaces
	// as a structured failure instead of hanging the serving path.
	e.Use(echomiddleware.ContextTimeout(time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetRecommendationRoutes(api, recommendHandler)
	router.SetProjectRoutes(api, projectHandler)
	router.SetABTestAdminRoutes(api, abtestHandler)
	router.SetTrainingAdminRoutes(api, trainingHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
